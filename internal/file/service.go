package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/angulliamysara-del/MYCloud/internal/drive"
	"github.com/angulliamysara-del/MYCloud/internal/metrics"
)

// ledger is the slice of the quota service the proxy operations need.
type ledger interface {
	Reserve(ctx context.Context, username string, delta int64) error
	Commit(ctx context.Context, username string, declaredSize, actualSize int64) error
	Release(ctx context.Context, username string, bytes int64) error
}

// folderResolver maps a username to its provider folder.
type folderResolver interface {
	UserFolder(ctx context.Context, username string) (drive.FolderID, error)
	Invalidate(username string)
}

// Service orchestrates the quota-enforced proxy operations. It holds no
// state of its own; the ledger and the provider are the only shared parts.
type Service struct {
	provider drive.Client
	folders  folderResolver
	ledger   ledger
}

// NewService constructs a file service.
func NewService(provider drive.Client, folders folderResolver, ledger ledger) *Service {
	return &Service{provider: provider, folders: folders, ledger: ledger}
}

// Upload reserves quota for the declared size, streams the file to the
// provider, then settles the ledger against the provider-confirmed size.
// A failed provider write returns the reservation; the ledger net effect
// of a failed upload is zero.
func (s *Service) Upload(ctx context.Context, username string, fileHeader *multipart.FileHeader) (drive.File, error) {
	if fileHeader == nil {
		return drive.File{}, ErrMissingPayload
	}

	folder, err := s.folders.UserFolder(ctx, username)
	if err != nil {
		return drive.File{}, err
	}

	declaredSize := fileHeader.Size
	if err := s.ledger.Reserve(ctx, username, declaredSize); err != nil {
		metrics.ObserveQuotaRejection()
		return drive.File{}, err
	}

	f, err := fileHeader.Open()
	if err != nil {
		_ = s.ledger.Release(ctx, username, declaredSize)
		return drive.File{}, fmt.Errorf("open upload payload: %w", err)
	}
	defer f.Close()

	stored, err := s.provider.Create(ctx, folder, sanitizeFilename(fileHeader.Filename), detectContentType(fileHeader), declaredSize, f)
	if err != nil {
		_ = s.ledger.Release(ctx, username, declaredSize)
		return drive.File{}, err
	}

	if err := s.ledger.Commit(ctx, username, declaredSize, stored.Size); err != nil {
		return stored, fmt.Errorf("settle quota: %w", err)
	}

	metrics.ObserveUpload(stored.Size)
	return stored, nil
}

// List returns the live contents of the user's folder. Nothing is cached;
// if the folder vanished out-of-band the cached id is dropped and resolution
// retried once.
func (s *Service) List(ctx context.Context, username string) ([]drive.File, error) {
	folder, err := s.folders.UserFolder(ctx, username)
	if err != nil {
		return nil, err
	}

	files, err := s.provider.List(ctx, folder)
	if errors.Is(err, drive.ErrNotFound) {
		s.folders.Invalidate(username)
		folder, err = s.folders.UserFolder(ctx, username)
		if err != nil {
			return nil, err
		}
		files, err = s.provider.List(ctx, folder)
	}
	return files, err
}

// Download opens the file for streaming. The id is looked up only inside the
// caller's own folder, so ids belonging to other users read as absent.
func (s *Service) Download(ctx context.Context, username, fileID string) (drive.File, io.ReadCloser, error) {
	folder, err := s.folders.UserFolder(ctx, username)
	if err != nil {
		return drive.File{}, nil, err
	}

	meta, reader, err := s.provider.Open(ctx, folder, fileID)
	if err != nil {
		if errors.Is(err, drive.ErrNotFound) {
			return drive.File{}, nil, ErrFileNotFound
		}
		return drive.File{}, nil, err
	}

	return meta, reader, nil
}

// Delete removes the first file matching name in the user's folder and
// returns its reported size to the ledger, floored at zero usage.
func (s *Service) Delete(ctx context.Context, username, name string) error {
	folder, err := s.folders.UserFolder(ctx, username)
	if err != nil {
		return err
	}

	meta, err := s.provider.FindByName(ctx, folder, name)
	if err != nil {
		if errors.Is(err, drive.ErrNotFound) {
			return ErrFileNotFound
		}
		return err
	}

	if err := s.provider.Remove(ctx, folder, meta.ID); err != nil {
		return err
	}

	return s.ledger.Release(ctx, username, meta.Size)
}

func detectContentType(fileHeader *multipart.FileHeader) string {
	if fileHeader == nil {
		return "application/octet-stream"
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}
