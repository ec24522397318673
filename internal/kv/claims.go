package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/domain"
	"github.com/babyregistry/registry/internal/logger"
)

// DefaultReservedPrefixes are key prefixes in the claims namespace that never hold claims
var DefaultReservedPrefixes = []string{"ratelimit:", "sync:"}

// ClaimStoreConfig holds configuration for the claim store
type ClaimStoreConfig struct {
	Concurrency      int      // concurrent value reads and writes
	ReservedPrefixes []string // keys with these prefixes are not claims
}

// ClaimStore reads and writes claim records in a KV namespace keyed by item id
type ClaimStore struct {
	store  Store
	config ClaimStoreConfig
}

// NewClaimStore creates a new claim store
func NewClaimStore(store Store, config ClaimStoreConfig) *ClaimStore {
	if config.Concurrency <= 0 {
		config.Concurrency = 16
	}
	if config.ReservedPrefixes == nil {
		config.ReservedPrefixes = DefaultReservedPrefixes
	}
	return &ClaimStore{
		store:  store,
		config: config,
	}
}

// IsReserved reports whether key belongs to bookkeeping rather than a claim
func (c *ClaimStore) IsReserved(key string) bool {
	for _, prefix := range c.config.ReservedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// ListAll returns every claim in the namespace, keyed by item id.
// now is the lastModified default for records that carry no timestamp.
func (c *ClaimStore) ListAll(ctx context.Context, now int64) (map[string]domain.ClaimRecord, error) {
	keys, err := c.listKeys(ctx)
	if err != nil {
		return nil, &domain.FetchError{Store: domain.SourceKV, Err: err}
	}

	claims := make(map[string]domain.ClaimRecord, len(keys))
	if len(keys) == 0 {
		return claims, nil
	}

	var mu sync.Mutex
	pool := pond.NewPool(c.config.Concurrency, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for _, key := range keys {
		group.SubmitErr(func() error {
			raw, err := c.store.Get(ctx, key)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					// Deleted between list and get
					logger.DebugCtx(ctx, "claim vanished during listing", zap.String("item_id", key))
					return nil
				}
				return err
			}

			record := domain.NormalizeClaim(key, raw, now).WithSource(domain.SourceKV)

			mu.Lock()
			claims[key] = record
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, &domain.FetchError{Store: domain.SourceKV, Err: err}
	}

	return claims, nil
}

// listKeys walks the cursor until the listing is complete and drops reserved keys
func (c *ClaimStore) listKeys(ctx context.Context) ([]string, error) {
	var keys []string
	cursor := ""
	for {
		page, err := c.store.List(ctx, cursor)
		if err != nil {
			return nil, err
		}
		for _, key := range page.Keys {
			if !c.IsReserved(key) {
				keys = append(keys, key)
			}
		}
		if page.Cursor == "" || page.Cursor == cursor {
			return keys, nil
		}
		cursor = page.Cursor
	}
}

// Get returns the normalized claim for itemID, or ErrNotFound
func (c *ClaimStore) Get(ctx context.Context, itemID string, now int64) (domain.ClaimRecord, error) {
	raw, err := c.store.Get(ctx, itemID)
	if err != nil {
		return domain.ClaimRecord{}, err
	}
	return domain.NormalizeClaim(itemID, raw, now).WithSource(domain.SourceKV), nil
}

// GetRaw returns the stored value for itemID without normalizing it
func (c *ClaimStore) GetRaw(ctx context.Context, itemID string) (string, error) {
	return c.store.Get(ctx, itemID)
}

// Put stores a single claim record as structured JSON
func (c *ClaimStore) Put(ctx context.Context, record domain.ClaimRecord) error {
	value, err := domain.EncodeClaim(record)
	if err != nil {
		return &domain.WriteError{Store: domain.SourceKV, ItemID: record.ItemID, Err: err}
	}
	if err := c.store.Put(ctx, record.ItemID, string(value), 0); err != nil {
		return &domain.WriteError{Store: domain.SourceKV, ItemID: record.ItemID, Err: err}
	}
	return nil
}

// WriteBatch writes each record independently and returns how many succeeded.
// A failed key is logged and skipped; only cancellation is returned as an error.
func (c *ClaimStore) WriteBatch(ctx context.Context, records []domain.ClaimRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var written atomic.Int64
	pool := pond.NewPool(c.config.Concurrency, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for _, record := range records {
		group.Submit(func() {
			if err := c.Put(ctx, record); err != nil {
				logger.ErrorCtx(ctx, err, zap.String("item_id", record.ItemID))
				return
			}
			written.Add(1)
		})
	}

	if err := group.Wait(); err != nil {
		return int(written.Load()), fmt.Errorf("kv write batch interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return int(written.Load()), fmt.Errorf("kv write batch interrupted: %w", err)
	}

	return int(written.Load()), nil
}
