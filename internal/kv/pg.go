package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/babyregistry/registry/internal/adapter"
	"github.com/babyregistry/registry/internal/store/schema"
)

type pgStore struct {
	db        *gorm.DB
	namespace string
	clock     adapter.Clock
	pageSize  int
}

// NewPGStore creates a Store backed by the kv_entries table, scoped to one namespace
func NewPGStore(db *gorm.DB, namespace string, clock adapter.Clock) Store {
	return &pgStore{
		db:        db,
		namespace: namespace,
		clock:     clock,
		pageSize:  DefaultPageSize,
	}
}

// live restricts a query to this namespace's unexpired rows
func (s *pgStore) live(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&schema.KVEntry{}).
		Where("namespace = ? AND (expires_at IS NULL OR expires_at > ?)", s.namespace, s.clock.Now())
}

func (s *pgStore) List(ctx context.Context, cursor string) (ListPage, error) {
	query := s.live(ctx)
	if cursor != "" {
		query = query.Where("key > ?", cursor)
	}

	var keys []string
	err := query.Order("key ASC").Limit(s.pageSize).Pluck("key", &keys).Error
	if err != nil {
		return ListPage{}, fmt.Errorf("failed to list keys: %w", err)
	}

	page := ListPage{Keys: keys}
	if len(keys) == s.pageSize {
		page.Cursor = keys[len(keys)-1]
	}
	return page, nil
}

func (s *pgStore) Get(ctx context.Context, key string) (string, error) {
	var entry schema.KVEntry
	err := s.live(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *pgStore) Put(ctx context.Context, key string, value string, ttl time.Duration) error {
	entry := schema.KVEntry{
		Namespace: s.namespace,
		Key:       key,
		Value:     value,
	}
	if ttl > 0 {
		expiresAt := s.clock.Now().Add(ttl)
		entry.ExpiresAt = &expiresAt
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}
	return nil
}

func (s *pgStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", s.namespace, key).
		Delete(&schema.KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
