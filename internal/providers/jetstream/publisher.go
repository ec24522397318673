package jetstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/adapter"
	"github.com/babyregistry/registry/internal/domain"
	"github.com/babyregistry/registry/internal/logger"
	"github.com/babyregistry/registry/internal/messaging"
)

// DefaultSubjectPrefix is the subject prefix used when none is configured
const DefaultSubjectPrefix = "registry.sync"

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type publisher struct {
	nc            adapter.NatsConn
	js            adapter.JetStream
	streamName    string
	subjectPrefix string
}

// NewPublisher creates a new NATS JetStream publisher
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream) (messaging.Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	return &publisher{
		nc:            nc,
		js:            js,
		streamName:    cfg.StreamName,
		subjectPrefix: prefix,
	}, nil
}

// PublishSyncResult publishes a sync outcome to NATS JetStream
func (p *publisher) PublishSyncResult(ctx context.Context, result *domain.SyncResult) error {
	if result == nil {
		return fmt.Errorf("nil sync result")
	}

	logger.DebugCtx(ctx, "Publishing sync result", zap.String("run_id", result.RunID))

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal sync result: %w", err)
	}

	_, err = p.js.Publish(ctx, p.buildSubject(result), data)
	if err != nil {
		return fmt.Errorf("failed to publish sync result: %w", err)
	}

	return nil
}

// buildSubject constructs the NATS subject based on the outcome
func (p *publisher) buildSubject(result *domain.SyncResult) string {
	// Format: {prefix}.{status}
	// e.g., registry.sync.success, registry.sync.failure, registry.sync.skipped
	status := strings.ToLower(result.Status())
	if result.Skipped {
		status = "skipped"
	}
	return fmt.Sprintf("%s.%s", p.subjectPrefix, status)
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
