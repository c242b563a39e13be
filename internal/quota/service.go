package quota

import "context"

// Ledger is the store contract the service and the proxy operations rely on.
// Reserve must be atomic with respect to concurrent calls for the same user.
type Ledger interface {
	Get(ctx context.Context, username string) (Record, error)
	Reserve(ctx context.Context, username string, delta int64) error
	Adjust(ctx context.Context, username string, delta int64) error
	Release(ctx context.Context, username string, bytes int64) error
}

// Service exposes ledger operations to handlers and the file service.
type Service struct {
	store Ledger
}

// NewService constructs a quota service.
func NewService(store Ledger) *Service {
	return &Service{store: store}
}

// Get returns (used, limit) for the user, creating the record lazily.
func (s *Service) Get(ctx context.Context, username string) (Record, error) {
	return s.store.Get(ctx, username)
}

// Reserve claims delta bytes ahead of a provider write. It fails with
// ErrQuotaExceeded before any byte reaches the provider.
func (s *Service) Reserve(ctx context.Context, username string, delta int64) error {
	if delta < 0 {
		delta = 0
	}
	return s.store.Reserve(ctx, username, delta)
}

// Commit settles a successful upload: the reservation was made with the
// declared size, the provider confirmed actualSize, so usage shifts by the
// difference. The provider-reported size always wins.
func (s *Service) Commit(ctx context.Context, username string, declaredSize, actualSize int64) error {
	if actualSize <= 0 {
		actualSize = declaredSize
	}
	if actualSize == declaredSize {
		return nil
	}
	return s.store.Adjust(ctx, username, actualSize-declaredSize)
}

// Release returns bytes to the user's allowance, floored at zero usage.
func (s *Service) Release(ctx context.Context, username string, bytes int64) error {
	return s.store.Release(ctx, username, bytes)
}
