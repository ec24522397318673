package adapter

import (
	"context"

	"go.temporal.io/sdk/activity"
)

// Activity defines an interface for activity context operations to enable mocking
//
//go:generate mockgen -source=temporal.go -destination=../mocks/temporal.go -package=mocks -mock_names=Activity=MockActivity
type Activity interface {
	// GetInfo returns the activity info
	GetInfo(ctx context.Context) activity.Info

	// RecordHeartbeat reports progress of a long running activity
	RecordHeartbeat(ctx context.Context, details ...interface{})
}

// RealActivity implements Activity using the standard activity package
type RealActivity struct{}

// NewActivity creates a new real activity implementation
func NewActivity() Activity {
	return &RealActivity{}
}

// GetInfo returns the activity info
func (a *RealActivity) GetInfo(ctx context.Context) activity.Info {
	return activity.GetInfo(ctx)
}

// RecordHeartbeat reports progress of a long running activity
func (a *RealActivity) RecordHeartbeat(ctx context.Context, details ...interface{}) {
	activity.RecordHeartbeat(ctx, details...)
}
