package quota

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetCreatesRecordLazily(t *testing.T) {
	store := newMemoryLedger(100)
	service := NewService(store)

	rec, err := service.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if rec.UsedBytes != 0 || rec.LimitBytes != 100 {
		t.Fatalf("expected fresh record 0/100, got %d/%d", rec.UsedBytes, rec.LimitBytes)
	}
}

func TestReserveBoundary(t *testing.T) {
	store := newMemoryLedger(100)
	service := NewService(store)
	ctx := context.Background()

	if err := service.Reserve(ctx, "alice", 90); err != nil {
		t.Fatalf("reserve 90 returned error: %v", err)
	}

	// used = limit exactly is allowed
	if err := service.Reserve(ctx, "alice", 10); err != nil {
		t.Fatalf("reserve to exactly the limit returned error: %v", err)
	}

	if err := service.Reserve(ctx, "alice", 1); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	rec, _ := service.Get(ctx, "alice")
	if rec.UsedBytes != 100 {
		t.Fatalf("refused reservation must leave usage unchanged, got %d", rec.UsedBytes)
	}
}

func TestReserveRefusedLeavesUsageUntouched(t *testing.T) {
	store := newMemoryLedger(100)
	service := NewService(store)
	ctx := context.Background()

	if err := service.Reserve(ctx, "alice", 90); err != nil {
		t.Fatalf("reserve returned error: %v", err)
	}
	if err := service.Reserve(ctx, "alice", 11); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	rec, _ := service.Get(ctx, "alice")
	if rec.UsedBytes != 90 {
		t.Fatalf("expected used=90 after refused reservation, got %d", rec.UsedBytes)
	}
}

func TestCommitTrustsProviderSize(t *testing.T) {
	store := newMemoryLedger(1000)
	service := NewService(store)
	ctx := context.Background()

	if err := service.Reserve(ctx, "alice", 100); err != nil {
		t.Fatalf("reserve returned error: %v", err)
	}

	// Provider reported 120 bytes for a 100-byte declared upload.
	if err := service.Commit(ctx, "alice", 100, 120); err != nil {
		t.Fatalf("commit returned error: %v", err)
	}

	rec, _ := service.Get(ctx, "alice")
	if rec.UsedBytes != 120 {
		t.Fatalf("expected used=120 after drift settle, got %d", rec.UsedBytes)
	}
}

func TestCommitFallsBackToDeclaredSize(t *testing.T) {
	store := newMemoryLedger(1000)
	service := NewService(store)
	ctx := context.Background()

	if err := service.Reserve(ctx, "alice", 100); err != nil {
		t.Fatalf("reserve returned error: %v", err)
	}
	if err := service.Commit(ctx, "alice", 100, 0); err != nil {
		t.Fatalf("commit returned error: %v", err)
	}

	rec, _ := service.Get(ctx, "alice")
	if rec.UsedBytes != 100 {
		t.Fatalf("expected declared size kept when provider reports none, got %d", rec.UsedBytes)
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	store := newMemoryLedger(1000)
	service := NewService(store)
	ctx := context.Background()

	if err := service.Reserve(ctx, "alice", 50); err != nil {
		t.Fatalf("reserve returned error: %v", err)
	}
	if err := service.Release(ctx, "alice", 80); err != nil {
		t.Fatalf("release returned error: %v", err)
	}

	rec, _ := service.Get(ctx, "alice")
	if rec.UsedBytes != 0 {
		t.Fatalf("expected usage floored at 0, got %d", rec.UsedBytes)
	}
}

func TestRemaining(t *testing.T) {
	rec := Record{UsedBytes: 30, LimitBytes: 100}
	if rec.Remaining() != 70 {
		t.Fatalf("expected 70 remaining, got %d", rec.Remaining())
	}
	rec.UsedBytes = 120
	if rec.Remaining() != 0 {
		t.Fatalf("expected 0 remaining when over limit, got %d", rec.Remaining())
	}
}

// --- fakes ---

// memoryLedger mirrors the repository's conditional-update contract.
type memoryLedger struct {
	records      map[string]*Record
	defaultLimit int64
}

func newMemoryLedger(defaultLimit int64) *memoryLedger {
	return &memoryLedger{records: make(map[string]*Record), defaultLimit: defaultLimit}
}

func (m *memoryLedger) record(username string) *Record {
	rec, ok := m.records[username]
	if !ok {
		rec = &Record{Username: username, LimitBytes: m.defaultLimit, UpdatedAt: time.Now()}
		m.records[username] = rec
	}
	return rec
}

func (m *memoryLedger) Get(ctx context.Context, username string) (Record, error) {
	return *m.record(username), nil
}

func (m *memoryLedger) Reserve(ctx context.Context, username string, delta int64) error {
	rec := m.record(username)
	if rec.UsedBytes+delta > rec.LimitBytes {
		return ErrQuotaExceeded
	}
	rec.UsedBytes += delta
	return nil
}

func (m *memoryLedger) Adjust(ctx context.Context, username string, delta int64) error {
	rec := m.record(username)
	rec.UsedBytes += delta
	if rec.UsedBytes < 0 {
		rec.UsedBytes = 0
	}
	return nil
}

func (m *memoryLedger) Release(ctx context.Context, username string, bytes int64) error {
	if bytes < 0 {
		bytes = 0
	}
	return m.Adjust(ctx, username, -bytes)
}
