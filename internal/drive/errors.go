package drive

import "errors"

// ErrNotFound signals that a file or folder does not exist on the provider.
var ErrNotFound = errors.New("not found on storage provider")
