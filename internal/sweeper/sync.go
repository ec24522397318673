package sweeper

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/adapter"
	"github.com/babyregistry/registry/internal/logger"
	"github.com/babyregistry/registry/internal/syncer"
)

const (
	DEFAULT_SYNC_INTERVAL = 15 * time.Minute // Time to sleep between sync passes
)

// SyncSweeperConfig holds configuration for the sync sweeper
type SyncSweeperConfig struct {
	Interval time.Duration // Sleep between the end of one pass and the start of the next
}

// syncSweeper implements the Sweeper interface by running reconciliation passes on an interval
type syncSweeper struct {
	config    *SyncSweeperConfig
	runner    syncer.Runner
	clock     adapter.Clock
	running   atomic.Bool
	passes    atomic.Int64
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewSyncSweeper creates a new sync sweeper
func NewSyncSweeper(config *SyncSweeperConfig, runner syncer.Runner, clock adapter.Clock) Sweeper {
	if config.Interval <= 0 {
		config.Interval = DEFAULT_SYNC_INTERVAL
	}
	return &syncSweeper{
		config:    config,
		runner:    runner,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *syncSweeper) Name() string {
	return "claims-sync-sweeper"
}

// Start runs a pass immediately and then one per interval until stopped
func (s *syncSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh) // Signal that we've stopped
	}()

	logger.InfoCtx(ctx, "Starting claims sync sweeper", zap.Duration("interval", s.config.Interval))

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Claims sync sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Claims sync sweeper stop requested")
			return nil
		default:
			s.runPass(ctx)
			s.sleep(ctx, s.config.Interval)
		}
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *syncSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping claims sync sweeper")

	// Signal stop to the main loop
	close(s.stopChan)

	// Wait for the in-flight pass to finish, but respect context cancellation
	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Claims sync sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Claims sync sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runPass runs a single reconciliation pass
func (s *syncSweeper) runPass(ctx context.Context) {
	n := s.passes.Add(1)
	result := s.runner.Run(ctx)
	if result == nil {
		return
	}

	fields := []zap.Field{
		zap.Int64("pass", n),
		zap.String("run_id", result.RunID),
		zap.Bool("success", result.Success),
		zap.Bool("skipped", result.Skipped),
		zap.Int64("duration_ms", result.Duration),
	}
	if result.Success {
		logger.InfoCtx(ctx, "Sync pass finished", fields...)
		return
	}
	logger.WarnCtx(ctx, "Sync pass finished with failure", append(fields, zap.String("error", result.Error))...)
}

// sleep waits for the interval or until the sweeper is interrupted
func (s *syncSweeper) sleep(ctx context.Context, duration time.Duration) {
	select {
	case <-s.clock.After(duration):
	case <-ctx.Done():
	case <-s.stopChan:
	}
}
