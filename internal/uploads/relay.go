// Package uploads relays customer photos to an external image host and
// returns their public URLs.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/bissquit/quotedesk/internal/pkg/ctxlog"
	"github.com/bissquit/quotedesk/internal/pkg/metrics"
)

// DefaultMaxFileSize caps a single photo.
const DefaultMaxFileSize int64 = 10 << 20

// Upload errors.
var (
	ErrNoFile          = errors.New("no file provided")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrUploadFailed    = errors.New("upload failed")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// File is a photo held in memory on its way to the image host.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Extension returns the canonical file extension for the content type.
func (f File) Extension() string {
	return allowedTypes[f.ContentType]
}

// Uploader stores a file with an image host and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file File) (string, error)
	Provider() string
}

// Relay wraps an Uploader with logging and metrics. Failures are collapsed
// into ErrUploadFailed; the cause is only logged.
type Relay struct {
	uploader Uploader
}

// NewRelay creates a new upload relay.
func NewRelay(uploader Uploader) *Relay {
	return &Relay{uploader: uploader}
}

// Upload forwards one file and returns its public URL.
func (r *Relay) Upload(ctx context.Context, file File) (string, error) {
	provider := r.uploader.Provider()
	logger := ctxlog.FromContext(ctx)

	start := time.Now()
	url, err := r.uploader.Upload(ctx, file)
	metrics.UploadDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err == nil && url == "" {
		err = errors.New("image host returned no url")
	}
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(provider, "error").Inc()
		logger.Error("photo upload failed",
			"provider", provider,
			"file", file.Name,
			"size", len(file.Data),
			"error", err,
		)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	metrics.UploadsTotal.WithLabelValues(provider, "success").Inc()
	logger.Debug("photo uploaded", "provider", provider, "url", url)
	return url, nil
}

// ReadFile loads a multipart file into memory, enforcing the size cap and
// checking the content is an image.
func ReadFile(header *multipart.FileHeader, maxSize int64) (File, error) {
	if header == nil {
		return File{}, ErrNoFile
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if header.Size > maxSize {
		return File{}, ErrFileTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return File{}, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	return readFile(header.Filename, f, maxSize)
}

func readFile(name string, r io.Reader, maxSize int64) (File, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return File{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return File{}, ErrNoFile
	}
	if int64(len(data)) > maxSize {
		return File{}, ErrFileTooLarge
	}

	contentType := http.DetectContentType(data)
	if _, ok := allowedTypes[contentType]; !ok {
		return File{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	return File{Name: name, ContentType: contentType, Data: data}, nil
}
