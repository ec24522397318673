package workflows_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/babyregistry/registry/internal/domain"
	"github.com/babyregistry/registry/internal/logger"
	"github.com/babyregistry/registry/internal/mocks"
	"github.com/babyregistry/registry/internal/workflows"
)

// SyncClaimsWorkflowTestSuite is the test suite for the claims sync workflow
type SyncClaimsWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env        *testsuite.TestWorkflowEnvironment
	ctrl       *gomock.Controller
	executor   *mocks.MockExecutor
	workerCore workflows.WorkerCore
}

// SetupTest is called before each test
func (s *SyncClaimsWorkflowTestSuite) SetupTest() {
	// Initialize logger for tests
	_ = logger.Initialize(logger.Config{
		Debug: true,
	})

	s.env = s.NewTestWorkflowEnvironment()
	s.ctrl = gomock.NewController(s.T())
	s.executor = mocks.NewMockExecutor(s.ctrl)
	s.workerCore = workflows.NewWorkerCore(s.executor, workflows.WorkerCoreConfig{
		ActivityTimeout: time.Minute,
	})
}

// TearDownTest is called after each test
func (s *SyncClaimsWorkflowTestSuite) TearDownTest() {
	s.env.AssertExpectations(s.T())
	s.ctrl.Finish()
}

// TestSyncClaimsWorkflowTestSuite runs the test suite
func TestSyncClaimsWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(SyncClaimsWorkflowTestSuite))
}

func (s *SyncClaimsWorkflowTestSuite) TestSyncClaims_Success() {
	expected := &domain.SyncResult{
		RunID:   "01J0000000000000000000000",
		Success: true,
		Phase:   domain.PhaseDone,
		Stats:   domain.SyncStats{KVTotal: 4, SheetTotal: 5, UpdatedInKV: 1},
	}
	s.env.OnActivity(s.executor.RunSyncPass, mock.Anything).Return(expected, nil)

	s.env.ExecuteWorkflow(s.workerCore.SyncClaims)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result *domain.SyncResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(expected, result)
}

func (s *SyncClaimsWorkflowTestSuite) TestSyncClaims_SkippedPassSucceeds() {
	s.env.OnActivity(s.executor.RunSyncPass, mock.Anything).Return(&domain.SyncResult{
		RunID:   "run",
		Success: true,
		Skipped: true,
		Phase:   domain.PhaseDone,
	}, nil)

	s.env.ExecuteWorkflow(s.workerCore.SyncClaims)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *SyncClaimsWorkflowTestSuite) TestSyncClaims_FailedPassFailsWorkflow() {
	s.env.OnActivity(s.executor.RunSyncPass, mock.Anything).Return(&domain.SyncResult{
		RunID:    "run",
		Phase:    domain.PhaseFailed,
		FailedAt: domain.PhaseFetching,
		Error:    "fetch sheet claims: auth: invalid_grant",
	}, nil)

	s.env.ExecuteWorkflow(s.workerCore.SyncClaims)

	s.True(s.env.IsWorkflowCompleted())
	err := s.env.GetWorkflowError()
	s.Error(err)
	s.Contains(err.Error(), "invalid_grant")
}

func (s *SyncClaimsWorkflowTestSuite) TestSyncClaims_ActivityErrorIsNotRetried() {
	var calls int
	s.env.OnActivity(s.executor.RunSyncPass, mock.Anything).Return(
		func(ctx context.Context) (*domain.SyncResult, error) {
			calls++
			return nil, errors.New("worker shutting down")
		},
	)

	s.env.ExecuteWorkflow(s.workerCore.SyncClaims)

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
	s.Equal(1, calls)
}
