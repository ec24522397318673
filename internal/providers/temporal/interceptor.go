package temporal

import (
	"context"
	"strconv"

	"github.com/getsentry/sentry-go"
	"go.temporal.io/sdk/interceptor"

	"github.com/babyregistry/registry/internal/adapter"
)

// NewSentryActivityInterceptor creates a new Sentry activity interceptor
func NewSentryActivityInterceptor(activity adapter.Activity) interceptor.WorkerInterceptor {
	return &SentryActivityInterceptor{
		activity: activity,
	}
}

// SentryActivityInterceptor gives every activity execution its own Sentry hub
// tagged with the workflow and activity that produced the event
type SentryActivityInterceptor struct {
	interceptor.WorkerInterceptorBase
	activity adapter.Activity
}

// InterceptActivity wraps activity execution to inject Sentry hub
func (s *SentryActivityInterceptor) InterceptActivity(ctx context.Context, next interceptor.ActivityInboundInterceptor) interceptor.ActivityInboundInterceptor {
	return &sentryActivityInboundInterceptor{
		ActivityInboundInterceptorBase: interceptor.ActivityInboundInterceptorBase{
			Next: next,
		},
		activity: s.activity,
	}
}

type sentryActivityInboundInterceptor struct {
	interceptor.ActivityInboundInterceptorBase
	activity adapter.Activity
}

// ExecuteActivity runs the activity with a cloned hub attached to its context
func (s *sentryActivityInboundInterceptor) ExecuteActivity(ctx context.Context, in *interceptor.ExecuteActivityInput) (interface{}, error) {
	hub := sentry.CurrentHub().Clone()

	info := s.activity.GetInfo(ctx)
	hub.Scope().SetTag("activity_type", info.ActivityType.Name)
	hub.Scope().SetTag("workflow_id", info.WorkflowExecution.ID)
	hub.Scope().SetTag("attempt", strconv.Itoa(int(info.Attempt)))

	ctx = sentry.SetHubOnContext(ctx, hub)
	return s.Next.ExecuteActivity(ctx, in)
}
