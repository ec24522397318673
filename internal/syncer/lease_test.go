package syncer_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babyregistry/registry/internal/kv"
	"github.com/babyregistry/registry/internal/mocks"
	"github.com/babyregistry/registry/internal/syncer"
)

// memStore is an in-memory kv.Store without expiry
type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (s *memStore) List(_ context.Context, _ string) (kv.ListPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var page kv.ListPage
	for k := range s.values {
		page.Keys = append(page.Keys, k)
	}
	return page, nil
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Put(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func fixedClock(t *testing.T, now time.Time) *mocks.MockClock {
	clock := mocks.NewMockClock(gomock.NewController(t))
	clock.EXPECT().Now().Return(now).AnyTimes()
	return clock
}

func TestKVLease_AcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	lease := syncer.NewKVLease(store, "", 10*time.Minute, fixedClock(t, passStart))

	acquired, err := lease.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)

	raw, err := store.Get(ctx, syncer.DefaultLeaseKey)
	require.NoError(t, err)
	var record map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	assert.Equal(t, lease.Owner(), record["owner"])
	assert.Equal(t, float64(passStart.Add(10*time.Minute).UnixMilli()), record["expiresAt"])

	// Re-acquiring an owned lease extends it
	acquired, err = lease.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)

	require.NoError(t, lease.Release(ctx))
	_, err = store.Get(ctx, syncer.DefaultLeaseKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestKVLease_HeldByAnotherOwner(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := fixedClock(t, passStart)

	first := syncer.NewKVLease(store, "sync:lease", 10*time.Minute, clock)
	second := syncer.NewKVLease(store, "sync:lease", 10*time.Minute, clock)

	acquired, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, acquired)

	// Releasing a lease owned by someone else leaves it in place
	require.NoError(t, second.Release(ctx))
	_, err = store.Get(ctx, "sync:lease")
	assert.NoError(t, err)
}

func TestKVLease_ExpiredRecordIsTakenOver(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	stale := syncer.NewKVLease(store, "sync:lease", 10*time.Minute, fixedClock(t, passStart))
	acquired, err := stale.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	later := syncer.NewKVLease(store, "sync:lease", 10*time.Minute, fixedClock(t, passStart.Add(11*time.Minute)))
	acquired, err = later.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestKVLease_CorruptRecordIsFree(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Put(ctx, "sync:lease", "not json", 0))

	lease := syncer.NewKVLease(store, "sync:lease", time.Minute, fixedClock(t, passStart))
	acquired, err := lease.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestKVLease_LosesReadBackRace(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockKVStore(ctrl)
	lease := syncer.NewKVLease(store, "sync:lease", time.Minute, fixedClock(t, passStart))

	gomock.InOrder(
		store.EXPECT().Get(gomock.Any(), "sync:lease").Return("", kv.ErrNotFound),
		store.EXPECT().Put(gomock.Any(), "sync:lease", gomock.Any(), time.Minute).Return(nil),
		store.EXPECT().Get(gomock.Any(), "sync:lease").Return(`{"owner":"someone-else","expiresAt":1}`, nil),
	)

	acquired, err := lease.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestKVLease_ReadError(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockKVStore(ctrl)
	lease := syncer.NewKVLease(store, "sync:lease", time.Minute, fixedClock(t, passStart))

	store.EXPECT().Get(gomock.Any(), "sync:lease").Return("", errors.New("10000: authentication error"))

	acquired, err := lease.Acquire(ctx)
	require.Error(t, err)
	assert.False(t, acquired)
}
