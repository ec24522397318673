package adapter

import (
	"context"

	"github.com/cloudflare/cloudflare-go"
)

// CloudflareKVClient defines an interface for Cloudflare Workers KV operations to enable mocking
//
//go:generate mockgen -source=cloudflare.go -destination=../mocks/cloudflare.go -package=mocks -mock_names=CloudflareKVClient=MockCloudflareKVClient
type CloudflareKVClient interface {
	// ListKeys lists one page of keys in a namespace
	ListKeys(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.ListWorkersKVsParams) (cloudflare.ListStorageKeysResponse, error)

	// GetValue reads the value stored under a key
	GetValue(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.GetWorkersKVParams) ([]byte, error)

	// WriteValue writes a single key without expiry
	WriteValue(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.WriteWorkersKVEntryParams) error

	// WriteValues writes a batch of pairs, which may carry an expiration TTL
	WriteValues(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.WriteWorkersKVEntriesParams) error

	// DeleteValue removes a key
	DeleteValue(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.DeleteWorkersKVEntryParams) error
}

// RealCloudflareKVClient implements CloudflareKVClient using the official Cloudflare SDK
type RealCloudflareKVClient struct {
	api *cloudflare.API
}

// NewCloudflareKVClient creates a new real Cloudflare KV client
func NewCloudflareKVClient(apiToken string, opts ...cloudflare.Option) (CloudflareKVClient, error) {
	api, err := cloudflare.NewWithAPIToken(apiToken, opts...)
	if err != nil {
		return nil, err
	}
	return &RealCloudflareKVClient{
		api: api,
	}, nil
}

func (c *RealCloudflareKVClient) ListKeys(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.ListWorkersKVsParams) (cloudflare.ListStorageKeysResponse, error) {
	return c.api.ListWorkersKVKeys(ctx, rc, params)
}

func (c *RealCloudflareKVClient) GetValue(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.GetWorkersKVParams) ([]byte, error) {
	return c.api.GetWorkersKV(ctx, rc, params)
}

func (c *RealCloudflareKVClient) WriteValue(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.WriteWorkersKVEntryParams) error {
	_, err := c.api.WriteWorkersKVEntry(ctx, rc, params)
	return err
}

func (c *RealCloudflareKVClient) WriteValues(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.WriteWorkersKVEntriesParams) error {
	_, err := c.api.WriteWorkersKVEntries(ctx, rc, params)
	return err
}

func (c *RealCloudflareKVClient) DeleteValue(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.DeleteWorkersKVEntryParams) error {
	_, err := c.api.DeleteWorkersKVEntry(ctx, rc, params)
	return err
}
