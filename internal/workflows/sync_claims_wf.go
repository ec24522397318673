package workflows

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/domain"
	"github.com/babyregistry/registry/internal/logger"
)

// SyncClaims runs one reconciliation pass as an activity
func (w *workerCore) SyncClaims(ctx workflow.Context) (*domain.SyncResult, error) {
	logger.InfoWf(ctx, "Starting claims sync")

	// Passes are never retried; the next cron run picks up what this one missed
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: w.config.ActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var result *domain.SyncResult
	err := workflow.ExecuteActivity(ctx, w.executor.RunSyncPass).Get(ctx, &result)
	if err != nil {
		logger.ErrorWf(ctx, fmt.Errorf("failed to run sync pass: %w", err))
		return nil, err
	}
	if result == nil {
		return nil, errors.New("sync pass returned no result")
	}

	if !result.Success {
		err := fmt.Errorf("sync pass %s failed at %s: %s", result.RunID, result.FailedAt, result.Error)
		logger.ErrorWf(ctx, err)
		return result, err
	}

	logger.InfoWf(ctx, "Claims sync completed",
		zap.String("run_id", result.RunID),
		zap.Bool("skipped", result.Skipped),
		zap.Int("updated_in_kv", result.Stats.UpdatedInKV),
		zap.Int("updated_in_sheet", result.Stats.UpdatedInSheet),
	)
	return result, nil
}
