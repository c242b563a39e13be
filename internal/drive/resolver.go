package drive

import (
	"context"
	"fmt"
	"sync"
)

// Resolver maps usernames to their isolated folders under one well-known
// root folder, creating them on first use. Resolved IDs are memoized; the
// cache is never authoritative and can be dropped at any time.
type Resolver struct {
	client   Client
	rootName string

	mu      sync.Mutex
	rootID  FolderID
	userIDs map[string]FolderID
}

// NewResolver constructs a resolver rooted at rootName.
func NewResolver(client Client, rootName string) *Resolver {
	return &Resolver{
		client:   client,
		rootName: rootName,
		userIDs:  make(map[string]FolderID),
	}
}

// Root finds or creates the well-known root folder at the provider top level.
func (r *Resolver) Root(ctx context.Context) (FolderID, error) {
	r.mu.Lock()
	cached := r.rootID
	r.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	id, err := r.client.EnsureFolder(ctx, "", r.rootName)
	if err != nil {
		return "", fmt.Errorf("resolve root folder: %w", err)
	}

	r.mu.Lock()
	r.rootID = id
	r.mu.Unlock()
	return id, nil
}

// UserFolder finds or creates the folder named exactly username under the root.
func (r *Resolver) UserFolder(ctx context.Context, username string) (FolderID, error) {
	r.mu.Lock()
	cached, ok := r.userIDs[username]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	root, err := r.Root(ctx)
	if err != nil {
		return "", err
	}

	id, err := r.client.EnsureFolder(ctx, root, username)
	if err != nil {
		return "", fmt.Errorf("resolve folder for %q: %w", username, err)
	}

	r.mu.Lock()
	r.userIDs[username] = id
	r.mu.Unlock()
	return id, nil
}

// Invalidate drops the cached folder for a user, forcing re-resolution on
// the next access. Used when the folder vanished out-of-band.
func (r *Resolver) Invalidate(username string) {
	r.mu.Lock()
	delete(r.userIDs, username)
	r.mu.Unlock()
}
