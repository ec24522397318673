package temporal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/logger"
)

//go:generate mockgen -source=orchestrator.go -destination=../../mocks/temporal_orchestrator.go -package=mocks -mock_names=TemporalOrchestrator=MockTemporalOrchestrator
type TemporalOrchestrator interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// CronWorkflow describes a workflow started once and then run by the server on a cron schedule
type CronWorkflow struct {
	ID                       string
	TaskQueue                string
	CronSchedule             string
	WorkflowExecutionTimeout time.Duration
}

// StartCronWorkflow starts the cron workflow under its fixed id.
// The fixed id keeps the server from ever running two schedules, so an
// already running execution is not an error.
func StartCronWorkflow(ctx context.Context, orchestrator TemporalOrchestrator, cron CronWorkflow, workflow interface{}, args ...interface{}) error {
	if cron.ID == "" || cron.TaskQueue == "" || cron.CronSchedule == "" {
		return fmt.Errorf("cron workflow requires id, task queue and schedule")
	}

	options := client.StartWorkflowOptions{
		ID:                                       cron.ID,
		TaskQueue:                                cron.TaskQueue,
		CronSchedule:                             cron.CronSchedule,
		WorkflowExecutionTimeout:                 cron.WorkflowExecutionTimeout,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}

	run, err := orchestrator.ExecuteWorkflow(ctx, options, workflow, args...)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			logger.InfoCtx(ctx, "Cron workflow already running", zap.String("workflow_id", cron.ID))
			return nil
		}
		return fmt.Errorf("failed to start cron workflow %s: %w", cron.ID, err)
	}

	logger.InfoCtx(ctx, "Started cron workflow",
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()),
		zap.String("cron_schedule", cron.CronSchedule),
	)
	return nil
}
