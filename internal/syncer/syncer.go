package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/babyregistry/registry/internal/adapter"
	"github.com/babyregistry/registry/internal/domain"
	"github.com/babyregistry/registry/internal/logger"
	"github.com/babyregistry/registry/internal/messaging"
	"github.com/babyregistry/registry/internal/reconcile"
)

// KVClaimStore is the key-value side of the reconciliation
//
//go:generate mockgen -source=syncer.go -destination=../mocks/syncer.go -package=mocks -mock_names=KVClaimStore=MockKVClaimStore,SheetClaimStore=MockSheetClaimStore,Lease=MockLease,Runner=MockRunner
type KVClaimStore interface {
	// ListAll returns every claim keyed by item id
	ListAll(ctx context.Context, now int64) (map[string]domain.ClaimRecord, error)
	// WriteBatch writes records independently and returns how many succeeded
	WriteBatch(ctx context.Context, records []domain.ClaimRecord) (int, error)
}

// SheetClaimStore is the spreadsheet side of the reconciliation and the audit log
type SheetClaimStore interface {
	// ReadClaims returns every claim row keyed by item id
	ReadClaims(ctx context.Context, now int64) (map[string]domain.ClaimRecord, error)
	// WriteClaims updates or appends rows and returns how many succeeded
	WriteClaims(ctx context.Context, records []domain.ClaimRecord) (int, error)
	// AppendLogRow appends one audit row
	AppendLogRow(ctx context.Context, entry domain.SyncLogEntry) error
}

// Lease guards against two passes running at the same time across processes
type Lease interface {
	// Acquire returns false when another owner holds the lease
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lease up if this owner still holds it
	Release(ctx context.Context) error
}

// Runner runs one reconciliation pass
type Runner interface {
	Run(ctx context.Context) *domain.SyncResult
}

// Config holds the per-phase timeouts of a pass. Zero disables a timeout.
type Config struct {
	FetchTimeout time.Duration
	ApplyTimeout time.Duration
	LogTimeout   time.Duration
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLease makes every pass hold the given lease
func WithLease(lease Lease) Option {
	return func(o *Orchestrator) {
		o.lease = lease
	}
}

// WithPublisher publishes every pass outcome
func WithPublisher(publisher messaging.Publisher) Option {
	return func(o *Orchestrator) {
		o.publisher = publisher
	}
}

// Orchestrator drives a pass through FETCHING, RECONCILING, APPLYING and LOGGING
type Orchestrator struct {
	config    Config
	kv        KVClaimStore
	sheet     SheetClaimStore
	clock     adapter.Clock
	lease     Lease
	publisher messaging.Publisher
	running   atomic.Bool
}

// NewOrchestrator creates a new sync orchestrator
func NewOrchestrator(config Config, kv KVClaimStore, sheet SheetClaimStore, clock adapter.Clock, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		config: config,
		kv:     kv,
		sheet:  sheet,
		clock:  clock,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one pass. It never returns nil and never panics.
func (o *Orchestrator) Run(ctx context.Context) *domain.SyncResult {
	runID := ulid.Make().String()
	ctx = logger.WithFields(ctx, zap.String("run_id", runID))
	result := &domain.SyncResult{RunID: runID, Phase: domain.PhaseFetching}

	if !o.running.CompareAndSwap(false, true) {
		logger.WarnCtx(ctx, "Sync pass rejected, another pass is running in this process")
		result.Skipped = true
		result.Phase = domain.PhaseFailed
		result.FailedAt = domain.PhaseFetching
		result.Error = domain.ErrSyncInProgress.Error()
		return result
	}
	defer o.running.Store(false)

	start := o.clock.Now()

	if o.lease != nil {
		acquired, err := o.acquireLease(ctx)
		if err != nil {
			o.fail(ctx, result, fmt.Errorf("acquire sync lease: %w", err))
			o.finish(ctx, start, result)
			return result
		}
		if !acquired {
			logger.InfoCtx(ctx, "Sync lease held by another worker, skipping pass")
			result.Success = true
			result.Skipped = true
			result.Phase = domain.PhaseDone
			result.Duration = o.clock.Since(start).Milliseconds()
			return result
		}
		defer o.releaseLease(ctx)
	}

	o.pass(ctx, start, result)
	o.finish(ctx, start, result)
	return result
}

// pass runs the fetch, reconcile and apply phases and records the outcome in result
func (o *Orchestrator) pass(ctx context.Context, start time.Time, result *domain.SyncResult) {
	now := start.UnixMilli()

	o.enter(ctx, result, domain.PhaseFetching)
	kvClaims, sheetClaims, err := o.fetch(ctx, now)
	if err != nil {
		o.fail(ctx, result, err)
		return
	}

	o.enter(ctx, result, domain.PhaseReconciling)
	var plan reconcile.Plan
	err = recovered(string(domain.PhaseReconciling), func() error {
		plan = reconcile.Reconcile(kvClaims, sheetClaims)
		return nil
	})
	if err != nil {
		o.fail(ctx, result, err)
		return
	}
	result.Stats.KVTotal = len(kvClaims)
	result.Stats.SheetTotal = len(sheetClaims)

	logger.InfoCtx(ctx, "Reconciled claims",
		zap.Int("kv_total", result.Stats.KVTotal),
		zap.Int("sheet_total", result.Stats.SheetTotal),
		zap.Int("to_update_in_kv", len(plan.ToUpdateInKV)),
		zap.Int("to_update_in_sheet", len(plan.ToUpdateInSheet)),
		zap.Int("conflicts", len(plan.Conflicts)),
	)
	for _, c := range plan.Conflicts {
		logger.DebugCtx(ctx, "Resolved conflict",
			zap.String("item_id", c.ItemID),
			zap.String("winner", string(c.Winner)),
			zap.Int64("kv_last_modified", c.KVLastModified),
			zap.Int64("sheet_last_modified", c.SheetLastModified),
		)
	}

	o.enter(ctx, result, domain.PhaseApplying)
	updatedInKV, updatedInSheet, err := o.apply(ctx, plan)
	result.Stats.UpdatedInKV = updatedInKV
	result.Stats.UpdatedInSheet = updatedInSheet
	if err != nil {
		o.fail(ctx, result, err)
		return
	}

	result.Success = true
}

// fetch reads both stores concurrently; the first failure cancels the other read
func (o *Orchestrator) fetch(ctx context.Context, now int64) (map[string]domain.ClaimRecord, map[string]domain.ClaimRecord, error) {
	ctx, cancel := withTimeout(ctx, o.config.FetchTimeout)
	defer cancel()

	var kvClaims, sheetClaims map[string]domain.ClaimRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return recovered("kv fetch", func() error {
			var err error
			kvClaims, err = o.kv.ListAll(gctx, now)
			return err
		})
	})
	g.Go(func() error {
		return recovered("sheet fetch", func() error {
			var err error
			sheetClaims, err = o.sheet.ReadClaims(gctx, now)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return kvClaims, sheetClaims, nil
}

// apply writes both update lists concurrently; a failure on one side never stops the other
func (o *Orchestrator) apply(ctx context.Context, plan reconcile.Plan) (int, int, error) {
	ctx, cancel := withTimeout(ctx, o.config.ApplyTimeout)
	defer cancel()

	var (
		wg                          sync.WaitGroup
		updatedInKV, updatedInSheet int
		kvErr, sheetErr             error
	)

	if len(plan.ToUpdateInKV) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kvErr = recovered("kv apply", func() error {
				var err error
				updatedInKV, err = o.kv.WriteBatch(ctx, plan.ToUpdateInKV)
				return err
			})
		}()
	}
	if len(plan.ToUpdateInSheet) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sheetErr = recovered("sheet apply", func() error {
				var err error
				updatedInSheet, err = o.sheet.WriteClaims(ctx, plan.ToUpdateInSheet)
				return err
			})
		}()
	}
	wg.Wait()

	return updatedInKV, updatedInSheet, errors.Join(kvErr, sheetErr)
}

// finish records the duration, appends the audit row and publishes the outcome
func (o *Orchestrator) finish(ctx context.Context, start time.Time, result *domain.SyncResult) {
	result.Duration = o.clock.Since(start).Milliseconds()

	o.enter(ctx, result, domain.PhaseLogging)
	// The audit row is written even when the pass was canceled
	logCtx, cancel := withTimeout(context.WithoutCancel(ctx), o.config.LogTimeout)
	defer cancel()

	entry := domain.NewSyncLogEntry(o.clock.Now(), result)
	err := recovered(string(domain.PhaseLogging), func() error {
		return o.sheet.AppendLogRow(logCtx, entry)
	})
	if err != nil {
		logger.WarnCtx(ctx, "Failed to append sync log row", zap.Error(err))
	}

	if result.Success {
		result.Phase = domain.PhaseDone
		logger.InfoCtx(ctx, "Sync pass completed",
			zap.Int64("duration_ms", result.Duration),
			zap.Int("updated_in_kv", result.Stats.UpdatedInKV),
			zap.Int("updated_in_sheet", result.Stats.UpdatedInSheet),
		)
	} else {
		result.Phase = domain.PhaseFailed
		logger.WarnCtx(ctx, "Sync pass failed",
			zap.String("failed_at", string(result.FailedAt)),
			zap.String("error", result.Error),
			zap.Int64("duration_ms", result.Duration),
		)
	}

	o.publish(logCtx, result)
}

func (o *Orchestrator) publish(ctx context.Context, result *domain.SyncResult) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishSyncResult(ctx, result); err != nil {
		logger.WarnCtx(ctx, "Failed to publish sync result", zap.Error(err))
	}
}

func (o *Orchestrator) acquireLease(ctx context.Context) (acquired bool, err error) {
	err = recovered("lease", func() error {
		var err error
		acquired, err = o.lease.Acquire(ctx)
		return err
	})
	return acquired, err
}

func (o *Orchestrator) releaseLease(ctx context.Context) {
	err := recovered("lease", func() error {
		return o.lease.Release(context.WithoutCancel(ctx))
	})
	if err != nil {
		logger.WarnCtx(ctx, "Failed to release sync lease", zap.Error(err))
	}
}

func (o *Orchestrator) enter(ctx context.Context, result *domain.SyncResult, phase domain.Phase) {
	result.Phase = phase
	logger.DebugCtx(ctx, "Sync phase", zap.String("phase", string(phase)))
}

func (o *Orchestrator) fail(ctx context.Context, result *domain.SyncResult, err error) {
	result.Success = false
	result.FailedAt = result.Phase
	result.Error = errorMessage(err)
	logger.ErrorCtx(ctx, err, zap.String("phase", string(result.Phase)))
}

// errorMessage flattens joined errors onto one line for the audit row
func errorMessage(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", "; ")
}

// recovered runs fn and turns a panic into an error
func recovered(step string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during %s: %v", step, r)
		}
	}()
	return fn()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
