package drive

import "time"

// FolderID identifies a folder on the storage provider. It is opaque to
// callers; only the provider client knows its structure.
type FolderID string

// File is the live metadata the provider reports for a stored object. The
// system keeps no independent record of files; this struct only ever holds
// freshly queried values.
type File struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	ModifiedAt time.Time `json:"modifiedTime"`
}
