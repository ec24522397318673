package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/logger"
)

// HTTPClient defines an interface for HTTP client operations to enable mocking
//
//go:generate mockgen -source=http.go -destination=../mocks/http.go -package=mocks -mock_names=HTTPClient=MockHTTPClient
type HTTPClient interface {
	// Do performs a request and returns the response body of a 2xx response.
	// Rate limited (429), 5xx and network failures are retried with backoff.
	// Any other status is returned as *HTTPStatusError without retry.
	Do(ctx context.Context, method string, url string, header http.Header, body []byte) ([]byte, error)
}

// HTTPStatusError is returned for non-2xx responses
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// RetryPolicy configures the exponential backoff of RealHTTPClient
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy is used when no policy is given
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: 2 * time.Second,
	MaxInterval:     30 * time.Second,
	MaxElapsedTime:  1 * time.Minute,
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client *http.Client
	retry  RetryPolicy
}

// HTTPOption configures RealHTTPClient
type HTTPOption func(*RealHTTPClient)

// WithRetryPolicy overrides the retry backoff
func WithRetryPolicy(p RetryPolicy) HTTPOption {
	return func(c *RealHTTPClient) {
		c.retry = p
	}
}

// NewHTTPClient creates a new real HTTP client
func NewHTTPClient(timeout time.Duration, opts ...HTTPOption) HTTPClient {
	c := &RealHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		retry: DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs the request with exponential backoff retry
func (c *RealHTTPClient) Do(ctx context.Context, method string, url string, header http.Header, body []byte) ([]byte, error) {
	var respBody []byte

	operation := func() error {
		// A fresh request per attempt so the body can be replayed
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		for k, values := range header {
			for _, v := range values {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			// Network errors are retryable
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.WarnCtx(ctx, "failed to close response body", zap.Error(err), zap.String("method", method))
			}
		}()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}

		statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(data)}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			logger.WarnCtx(ctx, "rate limited, retrying with backoff", zap.String("method", method))
			return statusErr
		case resp.StatusCode >= http.StatusInternalServerError:
			logger.WarnCtx(ctx, "server error, retrying with backoff",
				zap.String("method", method),
				zap.Int("status", resp.StatusCode))
			return statusErr
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return backoff.Permanent(statusErr)
		}

		respBody = data
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.InitialInterval
	b.MaxInterval = c.retry.MaxInterval
	b.MaxElapsedTime = c.retry.MaxElapsedTime
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}

	return respBody, nil
}
