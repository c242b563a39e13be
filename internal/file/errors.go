package file

import "errors"

var (
	// ErrFileNotFound signals that the file could not be located in the
	// caller's folder.
	ErrFileNotFound = errors.New("file not found")
	// ErrMissingPayload is returned when no multipart file was supplied.
	ErrMissingPayload = errors.New("missing file payload")
)
