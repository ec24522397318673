package temporal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/babyregistry/registry/internal/mocks"
	"github.com/babyregistry/registry/internal/providers/temporal"
)

type fakeRun struct {
	client.WorkflowRun
}

func (fakeRun) GetID() string    { return "registry-claims-sync" }
func (fakeRun) GetRunID() string { return "run-1" }

func syncWorkflow() error { return nil }

var cron = temporal.CronWorkflow{
	ID:           "registry-claims-sync",
	TaskQueue:    "registry-sync",
	CronSchedule: "*/15 * * * *",
}

func TestStartCronWorkflow_Starts(t *testing.T) {
	orchestrator := mocks.NewMockTemporalOrchestrator(gomock.NewController(t))

	orchestrator.EXPECT().
		ExecuteWorkflow(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, options client.StartWorkflowOptions, _ interface{}, _ ...interface{}) (client.WorkflowRun, error) {
			assert.Equal(t, "registry-claims-sync", options.ID)
			assert.Equal(t, "registry-sync", options.TaskQueue)
			assert.Equal(t, "*/15 * * * *", options.CronSchedule)
			assert.True(t, options.WorkflowExecutionErrorWhenAlreadyStarted)
			return fakeRun{}, nil
		})

	require.NoError(t, temporal.StartCronWorkflow(context.Background(), orchestrator, cron, syncWorkflow))
}

func TestStartCronWorkflow_AlreadyStartedIsFine(t *testing.T) {
	orchestrator := mocks.NewMockTemporalOrchestrator(gomock.NewController(t))

	orchestrator.EXPECT().
		ExecuteWorkflow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "run-0"))

	assert.NoError(t, temporal.StartCronWorkflow(context.Background(), orchestrator, cron, syncWorkflow))
}

func TestStartCronWorkflow_Error(t *testing.T) {
	orchestrator := mocks.NewMockTemporalOrchestrator(gomock.NewController(t))

	orchestrator.EXPECT().
		ExecuteWorkflow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("namespace not found"))

	err := temporal.StartCronWorkflow(context.Background(), orchestrator, cron, syncWorkflow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "namespace not found")
}

func TestStartCronWorkflow_RequiresSchedule(t *testing.T) {
	orchestrator := mocks.NewMockTemporalOrchestrator(gomock.NewController(t))

	err := temporal.StartCronWorkflow(context.Background(), orchestrator, temporal.CronWorkflow{ID: "x", TaskQueue: "q"}, syncWorkflow)
	assert.Error(t, err)
}

func TestZapLoggerAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := temporal.NewZapLoggerAdapter(zap.New(core))

	cause := errors.New("activity timeout")
	adapter.Warn("Activity error", "ActivityType", "RunSyncPass", "Error", cause, "Attempt", 3, "dangling")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "RunSyncPass", fields["ActivityType"])
	assert.Equal(t, "activity timeout", fields["Error"])
	assert.Equal(t, int64(3), fields["Attempt"])
	assert.NotContains(t, fields, "dangling")
}

func TestZapLoggerAdapter_With(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := temporal.NewZapLoggerAdapter(zap.New(core))

	base.(*temporal.ZapLoggerAdapter).With("WorkflowID", "wf").Info("started")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "wf", entries[0].ContextMap()["WorkflowID"])
}

type captureInbound struct {
	interceptor.ActivityInboundInterceptorBase
	hub *sentry.Hub
}

func (c *captureInbound) ExecuteActivity(ctx context.Context, _ *interceptor.ExecuteActivityInput) (interface{}, error) {
	c.hub = sentry.GetHubFromContext(ctx)
	return "done", nil
}

func TestSentryActivityInterceptor_AttachesHub(t *testing.T) {
	act := mocks.NewMockActivity(gomock.NewController(t))
	act.EXPECT().GetInfo(gomock.Any()).Return(activity.Info{
		ActivityType:      activity.Type{Name: "RunSyncPass"},
		WorkflowExecution: workflow.Execution{ID: "registry-claims-sync"},
		Attempt:           2,
		StartedTime:       time.Now(),
	})

	next := &captureInbound{}
	inbound := temporal.NewSentryActivityInterceptor(act).InterceptActivity(context.Background(), next)

	out, err := inbound.ExecuteActivity(context.Background(), &interceptor.ExecuteActivityInput{})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	require.NotNil(t, next.hub)
	assert.NotSame(t, sentry.CurrentHub(), next.hub)
}
