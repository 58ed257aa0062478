package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryMarkerStore is an in-memory MarkerStore for tests. TTLs are honored
// against the wall clock, which is fine for test lifetimes.
type memoryMarkerStore struct {
	mu      sync.Mutex
	markers map[string]time.Time // key -> expiry
	err     error
}

func newMemoryMarkerStore() *memoryMarkerStore {
	return &memoryMarkerStore{markers: make(map[string]time.Time)}
}

func (s *memoryMarkerStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	exp, ok := s.markers[key]
	return ok && time.Now().Before(exp), nil
}

func (s *memoryMarkerStore) Set(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.markers[key] = time.Now().Add(ttl)
	return nil
}

func friday(hour, min int) time.Time {
	// 2024-06-07 was a Friday
	return time.Date(2024, time.June, 7, hour, min, 0, 0, time.UTC)
}

func TestGate_SameDayDoubleFire(t *testing.T) {
	ctx := context.Background()
	store := newMemoryMarkerStore()
	gate := NewGate(store, zap.NewNop())

	first := friday(0, 3)
	require.True(t, gate.ShouldSend(ctx, first, "Friday"))

	require.NoError(t, gate.RecordSent(ctx, first))

	// second tick an hour later on the same date is a no-op
	assert.False(t, gate.ShouldSend(ctx, first.Add(time.Hour), "Friday"))
}

func TestGate_WrongDay(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(newMemoryMarkerStore(), zap.NewNop())

	tuesday := time.Date(2024, time.June, 4, 9, 0, 0, 0, time.UTC)
	require.Equal(t, time.Tuesday, tuesday.Weekday())

	assert.False(t, gate.ShouldSend(ctx, tuesday, "Friday"))
}

func TestGate_TargetDayCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(newMemoryMarkerStore(), zap.NewNop())

	assert.True(t, gate.ShouldSend(ctx, friday(6, 0), "friday"))
	assert.True(t, gate.ShouldSend(ctx, friday(6, 0), "FRIDAY"))
}

func TestGate_NextDayIsEligibleAgain(t *testing.T) {
	ctx := context.Background()
	store := newMemoryMarkerStore()
	gate := NewGate(store, zap.NewNop())

	require.NoError(t, gate.RecordSent(ctx, friday(6, 0)))

	// next Friday has a different marker key
	nextFriday := friday(6, 0).AddDate(0, 0, 7)
	assert.True(t, gate.ShouldSend(ctx, nextFriday, "Friday"))
}

func TestGate_StoreErrorAllowsSend(t *testing.T) {
	ctx := context.Background()
	store := newMemoryMarkerStore()
	store.err = errors.New("redis: connection refused")
	gate := NewGate(store, zap.NewNop())

	// marker store outage must not silence the weekly test email
	assert.True(t, gate.ShouldSend(ctx, friday(6, 0), "Friday"))
}

func TestMarkerKey(t *testing.T) {
	assert.Equal(t, "dispatch-sent-2024-06-07", MarkerKey(friday(23, 59)))
}
