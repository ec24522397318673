package messaging

import (
	"context"

	"github.com/babyregistry/registry/internal/domain"
)

// Publisher defines the interface for publishing sync outcomes to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishSyncResult publishes the outcome of a finished sync pass
	PublishSyncResult(ctx context.Context, result *domain.SyncResult) error
	// Close closes the connection
	Close()
}
