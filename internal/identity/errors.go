package identity

import "errors"

// Identity errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")

	// ErrInvalidCredentials covers both an unknown e-mail and a wrong password
	// so callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)
