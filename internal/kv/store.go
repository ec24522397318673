package kv

import (
	"context"
	"errors"
	"time"
)

// DefaultPageSize is the number of keys requested per List call
const DefaultPageSize = 1000

// ErrNotFound is returned by Get for a missing or expired key
var ErrNotFound = errors.New("kv: key not found")

// ListPage is one page of keys. An empty Cursor means the listing is complete.
type ListPage struct {
	Keys   []string
	Cursor string
}

// Store is a single key-value namespace with eventually consistent, cursor paginated listing
//
//go:generate mockgen -source=store.go -destination=../mocks/kv_store.go -package=mocks -mock_names=Store=MockKVStore
type Store interface {
	// List returns the page of keys after cursor ("" for the first page)
	List(ctx context.Context, cursor string) (ListPage, error)

	// Get returns the value stored under key or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Put stores value under key. A positive ttl expires the key after that duration.
	Put(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
