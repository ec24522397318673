package workflows

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/adapter"
	"github.com/babyregistry/registry/internal/domain"
	"github.com/babyregistry/registry/internal/logger"
	"github.com/babyregistry/registry/internal/syncer"
)

// Executor defines the interface for executing activities
//
//go:generate mockgen -source=executor.go -destination=../mocks/executor.go -package=mocks -mock_names=Executor=MockExecutor
type Executor interface {
	// RunSyncPass runs one reconciliation pass between the KV namespace and the registry sheet.
	// A failed pass is reported in the result, not as an activity error, because the pass
	// has already written its audit row and must not be retried by the server.
	RunSyncPass(ctx context.Context) (*domain.SyncResult, error)
}

// executor is the concrete implementation of Executor
type executor struct {
	runner   syncer.Runner
	activity adapter.Activity
}

// NewExecutor creates a new executor instance
func NewExecutor(runner syncer.Runner, activity adapter.Activity) Executor {
	return &executor{
		runner:   runner,
		activity: activity,
	}
}

// RunSyncPass runs one pass through the orchestrator
func (e *executor) RunSyncPass(ctx context.Context) (*domain.SyncResult, error) {
	info := e.activity.GetInfo(ctx)
	ctx = logger.WithFields(ctx,
		zap.String("workflow_id", info.WorkflowExecution.ID),
		zap.Int32("attempt", info.Attempt),
	)

	e.activity.RecordHeartbeat(ctx, string(domain.PhaseFetching))

	result := e.runner.Run(ctx)
	if result == nil {
		return nil, fmt.Errorf("sync pass returned no result")
	}

	e.activity.RecordHeartbeat(ctx, string(result.Phase))
	logger.InfoCtx(ctx, "Sync pass activity finished",
		zap.String("run_id", result.RunID),
		zap.Bool("success", result.Success),
		zap.Bool("skipped", result.Skipped),
	)

	return result, nil
}
