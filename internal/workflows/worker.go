package workflows

import (
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/babyregistry/registry/internal/domain"
)

// DefaultActivityTimeout bounds one RunSyncPass activity
const DefaultActivityTimeout = 10 * time.Minute

// WorkerCore defines the workflows run by the sync worker
type WorkerCore interface {
	// SyncClaims runs one reconciliation pass. It is started as a cron workflow
	// so the server schedules it and never overlaps two runs of the same id.
	SyncClaims(ctx workflow.Context) (*domain.SyncResult, error)
}

// WorkerCoreConfig holds configuration for the worker core
type WorkerCoreConfig struct {
	// ActivityTimeout is the start-to-close timeout of the sync pass activity
	ActivityTimeout time.Duration
}

// workerCore is the concrete implementation of WorkerCore
type workerCore struct {
	config   WorkerCoreConfig
	executor Executor
}

// NewWorkerCore creates a new worker core instance
func NewWorkerCore(executor Executor, config WorkerCoreConfig) WorkerCore {
	if config.ActivityTimeout <= 0 {
		config.ActivityTimeout = DefaultActivityTimeout
	}
	return &workerCore{
		config:   config,
		executor: executor,
	}
}
