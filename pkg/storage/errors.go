package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured      = errors.New("storage: not configured")
	ErrInvalidKey         = errors.New("storage: invalid object key")
	ErrUnsafePath         = errors.New("storage: unsafe path")
	ErrNotManaged         = errors.New("storage: not a managed file URL")
	ErrAuthRejected       = errors.New("storage: request rejected by server")
	ErrParse              = errors.New("storage: malformed response")
	ErrUploadRejected     = errors.New("storage: upload rejected")
	ErrFileAccess         = errors.New("storage: local file not accessible")
	ErrFileTypeNotAllowed = errors.New("storage: file type not allowed")
)

// UploadRejectedError carries the status of a refused PUT.
type UploadRejectedError struct {
	StatusCode int
	Reason     string
	Code       string // S3 error code, when the server sent one
}

func (e *UploadRejectedError) Error() string {
	msg := fmt.Sprintf("upload failed with status: %d %s", e.StatusCode, e.Reason)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	return msg
}

// Unwrap lets errors.Is match ErrUploadRejected.
func (e *UploadRejectedError) Unwrap() error {
	return ErrUploadRejected
}

// IsInvalidInput returns true if the caller supplied a bad key, path, name or URL
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrUnsafePath) ||
		errors.Is(err, ErrNotManaged) ||
		errors.Is(err, ErrFileTypeNotAllowed)
}

// IsRemote returns true if the failure came from the storage service or the network path to it
func IsRemote(err error) bool {
	return errors.Is(err, ErrAuthRejected) || errors.Is(err, ErrUploadRejected) || errors.Is(err, ErrParse)
}

// WrapError adds context to an error
func WrapError(operation, subject string, err error) error {
	if subject == "" {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return fmt.Errorf("%s (%s): %w", operation, subject, err)
}
