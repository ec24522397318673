package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudflare/cloudflare-go"

	"github.com/babyregistry/registry/internal/adapter"
)

// MinCloudflareTTL is the shortest expiration Workers KV accepts
const MinCloudflareTTL = 60 * time.Second

type cloudflareStore struct {
	client      adapter.CloudflareKVClient
	account     *cloudflare.ResourceContainer
	namespaceID string
	pageSize    int
}

// NewCloudflareStore creates a Store backed by a Workers KV namespace
func NewCloudflareStore(client adapter.CloudflareKVClient, accountID string, namespaceID string) Store {
	return &cloudflareStore{
		client:      client,
		account:     cloudflare.AccountIdentifier(accountID),
		namespaceID: namespaceID,
		pageSize:    DefaultPageSize,
	}
}

func (s *cloudflareStore) List(ctx context.Context, cursor string) (ListPage, error) {
	resp, err := s.client.ListKeys(ctx, s.account, cloudflare.ListWorkersKVsParams{
		NamespaceID: s.namespaceID,
		Limit:       s.pageSize,
		Cursor:      cursor,
	})
	if err != nil {
		return ListPage{}, fmt.Errorf("failed to list keys: %w", err)
	}

	page := ListPage{
		Keys:   make([]string, 0, len(resp.Result)),
		Cursor: resp.ResultInfo.Cursor,
	}
	for _, k := range resp.Result {
		page.Keys = append(page.Keys, k.Name)
	}
	return page, nil
}

func (s *cloudflareStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.GetValue(ctx, s.account, cloudflare.GetWorkersKVParams{
		NamespaceID: s.namespaceID,
		Key:         key,
	})
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return string(value), nil
}

func (s *cloudflareStore) Put(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl <= 0 {
		err := s.client.WriteValue(ctx, s.account, cloudflare.WriteWorkersKVEntryParams{
			NamespaceID: s.namespaceID,
			Key:         key,
			Value:       []byte(value),
		})
		if err != nil {
			return fmt.Errorf("failed to put key %s: %w", key, err)
		}
		return nil
	}

	if ttl < MinCloudflareTTL {
		ttl = MinCloudflareTTL
	}

	// Only the bulk endpoint accepts an expiration_ttl alongside the value
	err := s.client.WriteValues(ctx, s.account, cloudflare.WriteWorkersKVEntriesParams{
		NamespaceID: s.namespaceID,
		KVs: []*cloudflare.WorkersKVPair{{
			Key:           key,
			Value:         value,
			ExpirationTTL: int(ttl.Seconds()),
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}
	return nil
}

func (s *cloudflareStore) Delete(ctx context.Context, key string) error {
	err := s.client.DeleteValue(ctx, s.account, cloudflare.DeleteWorkersKVEntryParams{
		NamespaceID: s.namespaceID,
		Key:         key,
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound *cloudflare.NotFoundError
	return errors.As(err, &notFound)
}
