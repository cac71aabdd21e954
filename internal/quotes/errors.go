package quotes

import "errors"

// Quote errors.
var (
	ErrValidation     = errors.New("validation error")
	ErrTooManyPhotos  = errors.New("too many photos")
	ErrPhotoUploading = errors.New("photo upload failed")
)
