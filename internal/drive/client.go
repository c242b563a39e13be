package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// Client is the interface the proxy core needs from the external storage
// provider: folder find-or-create, streaming file CRUD, live metadata.
type Client interface {
	EnsureFolder(ctx context.Context, parent FolderID, name string) (FolderID, error)
	Create(ctx context.Context, folder FolderID, name, mime string, size int64, r io.Reader) (File, error)
	List(ctx context.Context, folder FolderID) ([]File, error)
	Stat(ctx context.Context, folder FolderID, fileID string) (File, error)
	FindByName(ctx context.Context, folder FolderID, name string) (File, error)
	Open(ctx context.Context, folder FolderID, fileID string) (File, io.ReadCloser, error)
	Remove(ctx context.Context, folder FolderID, fileID string) error
}

const (
	filenameMetaKey = "Filename"
	folderMarker    = ".folder"
)

// MinIOClient implements Client on a single bucket. Folders are key
// prefixes, file IDs are generated identifiers, and the original filename
// and mime type travel as object metadata.
type MinIOClient struct {
	client      *minio.Client
	bucket      string
	callTimeout time.Duration
}

// NewMinIOClient constructs the provider adapter.
func NewMinIOClient(client *minio.Client, bucket string, callTimeout time.Duration) *MinIOClient {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &MinIOClient{client: client, bucket: bucket, callTimeout: callTimeout}
}

// EnsureFolder finds or creates a folder named name under parent. Existence
// is checked immediately before creating; the create itself is an idempotent
// marker put, so a lost race only repeats the same write.
func (c *MinIOClient) EnsureFolder(ctx context.Context, parent FolderID, name string) (FolderID, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	folder := FolderID(string(parent) + name + "/")
	markerKey := string(folder) + folderMarker

	_, err := c.client.StatObject(ctx, c.bucket, markerKey, minio.StatObjectOptions{})
	if err == nil {
		return folder, nil
	}
	if !isNoSuchKey(err) {
		return "", fmt.Errorf("check folder %q: %w", name, err)
	}

	_, err = c.client.PutObject(ctx, c.bucket, markerKey, bytes.NewReader(nil), 0, minio.PutObjectOptions{
		ContentType: "application/x-directory",
	})
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}

	return folder, nil
}

// Create streams the file into the folder under a fresh identifier.
func (c *MinIOClient) Create(ctx context.Context, folder FolderID, name, mime string, size int64, r io.Reader) (File, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	if mime == "" {
		mime = "application/octet-stream"
	}

	fileID := uuid.NewString()
	info, err := c.client.PutObject(ctx, c.bucket, string(folder)+fileID, r, size, minio.PutObjectOptions{
		ContentType:  mime,
		UserMetadata: map[string]string{filenameMetaKey: name},
	})
	if err != nil {
		return File{}, fmt.Errorf("store file %q: %w", name, err)
	}

	actualSize := info.Size
	if actualSize <= 0 {
		actualSize = size
	}

	return File{
		ID:         fileID,
		Name:       name,
		Size:       actualSize,
		MimeType:   mime,
		ModifiedAt: time.Now().UTC(),
	}, nil
}

// List returns live metadata for every file directly inside the folder.
func (c *MinIOClient) List(ctx context.Context, folder FolderID) ([]File, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	files := []File{}
	for obj := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:       string(folder),
		Recursive:    false,
		WithMetadata: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list folder: %w", obj.Err)
		}
		id := strings.TrimPrefix(obj.Key, string(folder))
		if id == folderMarker || id == "" || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		files = append(files, File{
			ID:         id,
			Name:       metaFilename(obj.UserMetadata, id),
			Size:       obj.Size,
			MimeType:   obj.ContentType,
			ModifiedAt: obj.LastModified,
		})
	}

	return files, nil
}

// Stat fetches metadata for a single file id inside the folder.
func (c *MinIOClient) Stat(ctx context.Context, folder FolderID, fileID string) (File, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	info, err := c.client.StatObject(ctx, c.bucket, string(folder)+fileID, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("stat file: %w", err)
	}

	return File{
		ID:         fileID,
		Name:       metaFilename(info.UserMetadata, fileID),
		Size:       info.Size,
		MimeType:   info.ContentType,
		ModifiedAt: info.LastModified,
	}, nil
}

// FindByName returns the first file in the folder whose stored name matches
// exactly. Duplicate names yield an unspecified single match.
func (c *MinIOClient) FindByName(ctx context.Context, folder FolderID, name string) (File, error) {
	files, err := c.List(ctx, folder)
	if err != nil {
		return File{}, err
	}
	for _, f := range files {
		if f.Name == name {
			return f, nil
		}
	}
	return File{}, ErrNotFound
}

// Open returns the file's metadata and a reader over its bytes. The caller
// owns the reader. The stream is not bounded by the call timeout; only the
// initial metadata fetch is.
func (c *MinIOClient) Open(ctx context.Context, folder FolderID, fileID string) (File, io.ReadCloser, error) {
	meta, err := c.Stat(ctx, folder, fileID)
	if err != nil {
		return File{}, nil, err
	}

	obj, err := c.client.GetObject(ctx, c.bucket, string(folder)+fileID, minio.GetObjectOptions{})
	if err != nil {
		return File{}, nil, fmt.Errorf("open file: %w", err)
	}

	return meta, obj, nil
}

// Remove deletes a file from the folder.
func (c *MinIOClient) Remove(ctx context.Context, folder FolderID, fileID string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.client.RemoveObject(ctx, c.bucket, string(folder)+fileID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (c *MinIOClient) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.callTimeout)
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}

// metaFilename digs the original filename out of object metadata; listing and
// stat responses prefix the key differently.
func metaFilename(meta map[string]string, fallback string) string {
	if meta == nil {
		return fallback
	}
	if name, ok := meta[filenameMetaKey]; ok && name != "" {
		return name
	}
	if name, ok := meta["X-Amz-Meta-"+filenameMetaKey]; ok && name != "" {
		return name
	}
	return fallback
}
