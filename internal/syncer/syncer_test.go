package syncer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babyregistry/registry/internal/domain"
	"github.com/babyregistry/registry/internal/mocks"
	"github.com/babyregistry/registry/internal/syncer"
)

var passStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type orchestratorMocks struct {
	kv        *mocks.MockKVClaimStore
	sheet     *mocks.MockSheetClaimStore
	clock     *mocks.MockClock
	lease     *mocks.MockLease
	publisher *mocks.MockPublisher
}

func setupOrchestrator(t *testing.T, config syncer.Config, withLease, withPublisher bool) (*syncer.Orchestrator, *orchestratorMocks) {
	ctrl := gomock.NewController(t)
	m := &orchestratorMocks{
		kv:        mocks.NewMockKVClaimStore(ctrl),
		sheet:     mocks.NewMockSheetClaimStore(ctrl),
		clock:     mocks.NewMockClock(ctrl),
		lease:     mocks.NewMockLease(ctrl),
		publisher: mocks.NewMockPublisher(ctrl),
	}
	m.clock.EXPECT().Now().Return(passStart).AnyTimes()
	m.clock.EXPECT().Since(passStart).Return(1500 * time.Millisecond).AnyTimes()

	var opts []syncer.Option
	if withLease {
		opts = append(opts, syncer.WithLease(m.lease))
	}
	if withPublisher {
		opts = append(opts, syncer.WithPublisher(m.publisher))
	}
	return syncer.NewOrchestrator(config, m.kv, m.sheet, m.clock, opts...), m
}

func claim(itemID, claimer string, lastModified int64, source domain.Source) domain.ClaimRecord {
	return domain.ClaimRecord{ItemID: itemID, Claimer: claimer, LastModified: lastModified, Source: source}
}

func TestOrchestrator_Run_Success(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, false, false)
	ctx := context.Background()

	m.kv.EXPECT().ListAll(gomock.Any(), passStart.UnixMilli()).Return(map[string]domain.ClaimRecord{
		"crib":     claim("crib", "Alice", 100, domain.SourceKV),
		"stroller": claim("stroller", "Bob", 300, domain.SourceKV),
		"bottle":   claim("bottle", "Carol", 50, domain.SourceKV),
	}, nil)
	m.sheet.EXPECT().ReadClaims(gomock.Any(), passStart.UnixMilli()).Return(map[string]domain.ClaimRecord{
		"crib":     claim("crib", "Alice B", 200, domain.SourceSheet),
		"stroller": claim("stroller", "", 100, domain.SourceSheet),
		"bottle":   claim("bottle", "Carol", 50, domain.SourceSheet),
		"monitor":  claim("monitor", "Dan", 10, domain.SourceSheet),
	}, nil)

	m.kv.EXPECT().WriteBatch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, records []domain.ClaimRecord) (int, error) {
			require.Len(t, records, 2)
			assert.Equal(t, "crib", records[0].ItemID)
			assert.Equal(t, "Alice B", records[0].Claimer)
			assert.Equal(t, "monitor", records[1].ItemID)
			return 2, nil
		})
	m.sheet.EXPECT().WriteClaims(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, records []domain.ClaimRecord) (int, error) {
			require.Len(t, records, 1)
			assert.Equal(t, "stroller", records[0].ItemID)
			assert.Equal(t, "Bob", records[0].Claimer)
			return 1, nil
		})
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, entry domain.SyncLogEntry) error {
			assert.True(t, entry.Success)
			assert.Equal(t, domain.SyncStats{KVTotal: 3, SheetTotal: 4, UpdatedInKV: 2, UpdatedInSheet: 1}, entry.Stats)
			assert.Equal(t, 1500*time.Millisecond, entry.Duration)
			assert.Empty(t, entry.ErrorMessage)
			return nil
		})

	result := o.Run(ctx)

	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.False(t, result.Skipped)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, domain.PhaseDone, result.Phase)
	assert.Empty(t, result.FailedAt)
	assert.Empty(t, result.Error)
	assert.Equal(t, int64(1500), result.Duration)
	assert.Equal(t, domain.SyncStats{KVTotal: 3, SheetTotal: 4, UpdatedInKV: 2, UpdatedInSheet: 1}, result.Stats)
}

func TestOrchestrator_Run_NothingToApply(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, false, false)

	same := map[string]domain.ClaimRecord{"crib": claim("crib", "Alice", 100, "")}
	m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).Return(same, nil)
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).Return(same, nil)
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).Return(nil)

	result := o.Run(context.Background())

	assert.True(t, result.Success)
	assert.Equal(t, domain.SyncStats{KVTotal: 1, SheetTotal: 1}, result.Stats)
}

func TestOrchestrator_Run_FetchFailureStillLogs(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, false, false)

	fetchErr := &domain.FetchError{Store: domain.SourceSheet, Err: &domain.AuthError{Err: errors.New("invalid_grant")}}
	m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{}, nil).AnyTimes()
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).Return(nil, fetchErr)
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, entry domain.SyncLogEntry) error {
			assert.False(t, entry.Success)
			assert.Contains(t, entry.ErrorMessage, "invalid_grant")
			assert.Equal(t, domain.SyncStats{}, entry.Stats)
			return nil
		})

	result := o.Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, domain.PhaseFailed, result.Phase)
	assert.Equal(t, domain.PhaseFetching, result.FailedAt)
	assert.Equal(t, "fetch sheet claims: auth: invalid_grant", result.Error)
	assert.Equal(t, int64(1500), result.Duration)
}

func TestOrchestrator_Run_FetchFailureCancelsOtherRead(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, false, false)

	m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ int64) (map[string]domain.ClaimRecord, error) {
			<-ctx.Done()
			return nil, &domain.FetchError{Store: domain.SourceKV, Err: ctx.Err()}
		})
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).Return(nil, &domain.FetchError{Store: domain.SourceSheet, Err: errors.New("503")})
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).Return(nil)

	done := make(chan *domain.SyncResult)
	go func() { done <- o.Run(context.Background()) }()

	select {
	case result := <-done:
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "503")
	case <-time.After(5 * time.Second):
		t.Fatal("pass did not finish after one read failed")
	}
}

func TestOrchestrator_Run_FetchTimeout(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{FetchTimeout: 20 * time.Millisecond}, false, false)

	m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ int64) (map[string]domain.ClaimRecord, error) {
			<-ctx.Done()
			return nil, &domain.FetchError{Store: domain.SourceKV, Err: ctx.Err()}
		})
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{}, nil)
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).Return(nil)

	result := o.Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, domain.PhaseFetching, result.FailedAt)
	assert.Contains(t, result.Error, context.DeadlineExceeded.Error())
}

func TestOrchestrator_Run_PartialApplyFailure(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, false, false)

	m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{
		"crib": claim("crib", "Alice", 500, domain.SourceKV),
	}, nil)
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{
		"crib":    claim("crib", "Alice", 100, domain.SourceSheet),
		"monitor": claim("monitor", "Dan", 10, domain.SourceSheet),
	}, nil)

	kvErr := &domain.WriteError{Store: domain.SourceKV, Err: errors.New("kv write batch interrupted")}
	m.kv.EXPECT().WriteBatch(gomock.Any(), gomock.Len(1)).Return(0, kvErr)
	// The sheet write still runs after the KV side failed
	m.sheet.EXPECT().WriteClaims(gomock.Any(), gomock.Len(1)).Return(1, nil)
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, entry domain.SyncLogEntry) error {
			assert.False(t, entry.Success)
			assert.Equal(t, 1, entry.Stats.UpdatedInSheet)
			return nil
		})

	result := o.Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, domain.PhaseApplying, result.FailedAt)
	assert.Contains(t, result.Error, "kv write batch interrupted")
	assert.Equal(t, 0, result.Stats.UpdatedInKV)
	assert.Equal(t, 1, result.Stats.UpdatedInSheet)
}

func TestOrchestrator_Run_BothApplySidesFailJoinsErrors(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, false, false)

	m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{
		"crib": claim("crib", "Alice", 500, domain.SourceKV),
	}, nil)
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{
		"monitor": claim("monitor", "Dan", 10, domain.SourceSheet),
	}, nil)
	m.kv.EXPECT().WriteBatch(gomock.Any(), gomock.Any()).Return(0, errors.New("kv down"))
	m.sheet.EXPECT().WriteClaims(gomock.Any(), gomock.Any()).Return(0, errors.New("sheet down"))
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).Return(nil)

	result := o.Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, "kv down; sheet down", result.Error)
}

func TestOrchestrator_Run_LogFailureIsSwallowed(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, false, false)

	m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{}, nil)
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{}, nil)
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).Return(&domain.LogError{Err: errors.New("quota exceeded")})

	result := o.Run(context.Background())

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, domain.PhaseDone, result.Phase)
}

func TestOrchestrator_Run_LogsEvenWhenContextCanceled(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, false, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ int64) (map[string]domain.ClaimRecord, error) {
			return nil, &domain.FetchError{Store: domain.SourceKV, Err: ctx.Err()}
		}).AnyTimes()
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ int64) (map[string]domain.ClaimRecord, error) {
			return nil, &domain.FetchError{Store: domain.SourceSheet, Err: ctx.Err()}
		}).AnyTimes()
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, entry domain.SyncLogEntry) error {
			assert.NoError(t, ctx.Err())
			assert.False(t, entry.Success)
			return nil
		})

	result := o.Run(ctx)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, context.Canceled.Error())
}

func TestOrchestrator_Run_RecoversPanic(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, false, false)

	m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{}, nil).AnyTimes()
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, int64) (map[string]domain.ClaimRecord, error) {
			panic("nil row")
		})
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).Return(nil)

	var result *domain.SyncResult
	require.NotPanics(t, func() {
		result = o.Run(context.Background())
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "panic during sheet fetch: nil row")
}

func TestOrchestrator_Run_RejectsOverlappingPass(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, false, false)

	entered := make(chan struct{})
	release := make(chan struct{})
	m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, int64) (map[string]domain.ClaimRecord, error) {
			close(entered)
			<-release
			return map[string]domain.ClaimRecord{}, nil
		})
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{}, nil)
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	var wg sync.WaitGroup
	var first *domain.SyncResult
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = o.Run(context.Background())
	}()

	<-entered
	second := o.Run(context.Background())
	close(release)
	wg.Wait()

	assert.True(t, first.Success)
	assert.False(t, second.Success)
	assert.True(t, second.Skipped)
	assert.Equal(t, domain.ErrSyncInProgress.Error(), second.Error)
}

func TestOrchestrator_Run_LeaseHeldSkipsPass(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, true, true)

	m.lease.EXPECT().Acquire(gomock.Any()).Return(false, nil)
	m.publisher.EXPECT().PublishSyncResult(gomock.Any(), gomock.Any()).Times(0)

	result := o.Run(context.Background())

	assert.True(t, result.Success)
	assert.True(t, result.Skipped)
	assert.Equal(t, domain.PhaseDone, result.Phase)
}

func TestOrchestrator_Run_LeaseAcquiredAndReleased(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, true, true)

	gomock.InOrder(
		m.lease.EXPECT().Acquire(gomock.Any()).Return(true, nil),
		m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{}, nil),
		m.lease.EXPECT().Release(gomock.Any()).Return(nil),
	)
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{}, nil)
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).Return(nil)
	m.publisher.EXPECT().PublishSyncResult(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, result *domain.SyncResult) error {
			assert.True(t, result.Success)
			assert.Equal(t, domain.PhaseDone, result.Phase)
			return nil
		})

	result := o.Run(context.Background())
	assert.True(t, result.Success)
}

func TestOrchestrator_Run_LeaseErrorFailsPass(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, true, false)

	m.lease.EXPECT().Acquire(gomock.Any()).Return(false, errors.New("kv unreachable"))
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).Return(nil)

	result := o.Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, domain.PhaseFetching, result.FailedAt)
	assert.Contains(t, result.Error, "kv unreachable")
}

func TestOrchestrator_Run_PublishFailureIsSwallowed(t *testing.T) {
	o, m := setupOrchestrator(t, syncer.Config{}, false, true)

	m.kv.EXPECT().ListAll(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{}, nil)
	m.sheet.EXPECT().ReadClaims(gomock.Any(), gomock.Any()).Return(map[string]domain.ClaimRecord{}, nil)
	m.sheet.EXPECT().AppendLogRow(gomock.Any(), gomock.Any()).Return(nil)
	m.publisher.EXPECT().PublishSyncResult(gomock.Any(), gomock.Any()).Return(errors.New("no responders"))

	result := o.Run(context.Background())
	assert.True(t, result.Success)
}
