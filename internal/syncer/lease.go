package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/adapter"
	"github.com/babyregistry/registry/internal/kv"
	"github.com/babyregistry/registry/internal/logger"
)

// DefaultLeaseKey is the KV key holding the sync lease
const DefaultLeaseKey = "sync:lease"

type leaseRecord struct {
	Owner     string `json:"owner"`
	ExpiresAt int64  `json:"expiresAt"` // epoch millis
}

// KVLease is a best-effort lease stored in the claims namespace.
// KV stores are eventually consistent, so two workers racing within the
// propagation window can both believe they hold it.
type KVLease struct {
	store kv.Store
	key   string
	ttl   time.Duration
	owner string
	clock adapter.Clock
}

// NewKVLease creates a lease with a random owner id
func NewKVLease(store kv.Store, key string, ttl time.Duration, clock adapter.Clock) *KVLease {
	if key == "" {
		key = DefaultLeaseKey
	}
	return &KVLease{
		store: store,
		key:   key,
		ttl:   ttl,
		owner: uuid.NewString(),
		clock: clock,
	}
}

// Owner returns the id this lease writes into the record
func (l *KVLease) Owner() string {
	return l.owner
}

// Acquire takes the lease unless a live record of another owner exists
func (l *KVLease) Acquire(ctx context.Context) (bool, error) {
	current, err := l.read(ctx)
	if err != nil {
		return false, err
	}
	if current != nil && current.Owner != l.owner && current.ExpiresAt > l.clock.Now().UnixMilli() {
		logger.DebugCtx(ctx, "Sync lease is held", zap.String("owner", current.Owner))
		return false, nil
	}

	data, err := json.Marshal(leaseRecord{
		Owner:     l.owner,
		ExpiresAt: l.clock.Now().Add(l.ttl).UnixMilli(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal lease: %w", err)
	}
	if err := l.store.Put(ctx, l.key, string(data), l.ttl); err != nil {
		return false, fmt.Errorf("failed to write lease: %w", err)
	}

	// Read back to lose a race against a writer that landed after us
	current, err = l.read(ctx)
	if err != nil {
		return false, err
	}
	if current != nil && current.Owner != l.owner {
		return false, nil
	}
	return true, nil
}

// Release deletes the lease record if this owner still holds it
func (l *KVLease) Release(ctx context.Context) error {
	current, err := l.read(ctx)
	if err != nil {
		return err
	}
	if current == nil || current.Owner != l.owner {
		return nil
	}
	if err := l.store.Delete(ctx, l.key); err != nil {
		return fmt.Errorf("failed to delete lease: %w", err)
	}
	return nil
}

// read returns the current lease record, or nil when none exists
func (l *KVLease) read(ctx context.Context) (*leaseRecord, error) {
	raw, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lease: %w", err)
	}

	var record leaseRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		// A corrupt record is treated as free
		logger.WarnCtx(ctx, "Ignoring unreadable sync lease", zap.Error(err))
		return nil, nil
	}
	return &record, nil
}
