package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/angulliamysara-del/MYCloud/internal/auth"
	"github.com/angulliamysara-del/MYCloud/internal/drive"
	"github.com/angulliamysara-del/MYCloud/internal/quota"
)

// memAccounts backs the auth service without Postgres.
type memAccounts struct {
	accounts map[string]auth.Account
	maxUsers int
}

func (m *memAccounts) CreateAccount(ctx context.Context, username, passwordHash string) (auth.Account, error) {
	if len(m.accounts) >= m.maxUsers {
		return auth.Account{}, auth.ErrCapacityExceeded
	}
	if _, exists := m.accounts[username]; exists {
		return auth.Account{}, auth.ErrUsernameExists
	}
	account := auth.Account{Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.accounts[username] = account
	return account, nil
}

func (m *memAccounts) FindAccount(ctx context.Context, username string) (auth.Account, error) {
	account, ok := m.accounts[username]
	if !ok {
		return auth.Account{}, auth.ErrUserNotFound
	}
	return account, nil
}

// memLedger mirrors the quota repository's conditional-update contract.
type memLedger struct {
	usedBytes map[string]int64
	limit     int64
}

func (m *memLedger) Get(ctx context.Context, username string) (quota.Record, error) {
	return quota.Record{Username: username, UsedBytes: m.usedBytes[username], LimitBytes: m.limit}, nil
}

func (m *memLedger) Reserve(ctx context.Context, username string, delta int64) error {
	if m.usedBytes[username]+delta > m.limit {
		return quota.ErrQuotaExceeded
	}
	m.usedBytes[username] += delta
	return nil
}

func (m *memLedger) Adjust(ctx context.Context, username string, delta int64) error {
	m.usedBytes[username] += delta
	if m.usedBytes[username] < 0 {
		m.usedBytes[username] = 0
	}
	return nil
}

func (m *memLedger) Release(ctx context.Context, username string, bytes int64) error {
	if bytes < 0 {
		bytes = 0
	}
	return m.Adjust(ctx, username, -bytes)
}

// memDrive is an in-memory stand-in for the external provider.
type memDrive struct {
	folders map[drive.FolderID]map[string]memObject
	seq     int
}

type memObject struct {
	meta drive.File
	data []byte
}

func newMemDrive() *memDrive {
	return &memDrive{folders: make(map[drive.FolderID]map[string]memObject)}
}

func (m *memDrive) EnsureFolder(ctx context.Context, parent drive.FolderID, name string) (drive.FolderID, error) {
	id := drive.FolderID(string(parent) + name + "/")
	if _, ok := m.folders[id]; !ok {
		m.folders[id] = make(map[string]memObject)
	}
	return id, nil
}

func (m *memDrive) Create(ctx context.Context, folder drive.FolderID, name, mime string, size int64, r io.Reader) (drive.File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return drive.File{}, err
	}
	m.seq++
	meta := drive.File{
		ID:         fmt.Sprintf("file-%d", m.seq),
		Name:       name,
		Size:       int64(len(data)),
		MimeType:   mime,
		ModifiedAt: time.Now(),
	}
	m.folders[folder][meta.ID] = memObject{meta: meta, data: data}
	return meta, nil
}

func (m *memDrive) List(ctx context.Context, folder drive.FolderID) ([]drive.File, error) {
	files, ok := m.folders[folder]
	if !ok {
		return nil, drive.ErrNotFound
	}
	out := []drive.File{}
	for _, obj := range files {
		out = append(out, obj.meta)
	}
	return out, nil
}

func (m *memDrive) Stat(ctx context.Context, folder drive.FolderID, fileID string) (drive.File, error) {
	obj, ok := m.folders[folder][fileID]
	if !ok {
		return drive.File{}, drive.ErrNotFound
	}
	return obj.meta, nil
}

func (m *memDrive) FindByName(ctx context.Context, folder drive.FolderID, name string) (drive.File, error) {
	for _, obj := range m.folders[folder] {
		if obj.meta.Name == name {
			return obj.meta, nil
		}
	}
	return drive.File{}, drive.ErrNotFound
}

func (m *memDrive) Open(ctx context.Context, folder drive.FolderID, fileID string) (drive.File, io.ReadCloser, error) {
	obj, ok := m.folders[folder][fileID]
	if !ok {
		return drive.File{}, nil, drive.ErrNotFound
	}
	return obj.meta, io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *memDrive) Remove(ctx context.Context, folder drive.FolderID, fileID string) error {
	delete(m.folders[folder], fileID)
	return nil
}
