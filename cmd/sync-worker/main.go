package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/babyregistry/registry/internal/adapter"
	"github.com/babyregistry/registry/internal/config"
	"github.com/babyregistry/registry/internal/kv"
	"github.com/babyregistry/registry/internal/logger"
	"github.com/babyregistry/registry/internal/providers/jetstream"
	temporal "github.com/babyregistry/registry/internal/providers/temporal"
	"github.com/babyregistry/registry/internal/sheets"
	"github.com/babyregistry/registry/internal/store"
	"github.com/babyregistry/registry/internal/sweeper"
	"github.com/babyregistry/registry/internal/syncer"
	"github.com/babyregistry/registry/internal/workflows"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	mode       = flag.String("mode", "", "Run mode: loop, temporal or once (overrides sync.mode)")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSyncWorkerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *mode != "" {
		cfg.Sync.Mode = *mode
		if err := cfg.Validate(); err != nil {
			panic(fmt.Sprintf("Invalid config: %v", err))
		}
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "sync-worker",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Sync Worker",
		zap.String("mode", cfg.Sync.Mode),
		zap.String("kv_backend", cfg.KV.Backend),
	)

	clock := adapter.NewClock()

	// Initialize KV claim store
	claimsKV := openClaimsKV(ctx, cfg, clock)
	kvClaims := kv.NewClaimStore(claimsKV, kv.ClaimStoreConfig{
		Concurrency:      cfg.KV.Concurrency,
		ReservedPrefixes: cfg.KV.ReservedPrefixes,
	})

	// Initialize sheet claim store
	credentials, err := cfg.Sheets.ServiceAccountJSON()
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load service account", zap.Error(err))
	}
	httpClient := adapter.NewHTTPClient(cfg.Sheets.HTTPTimeout)
	tokenProvider, err := sheets.NewTokenProvider(credentials, cfg.Sheets.TokenURL, httpClient, clock)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to initialize token provider", zap.Error(err))
	}
	sheetsClient := sheets.NewClient(httpClient, tokenProvider, cfg.Sheets.APIBaseURL, cfg.Sheets.SpreadsheetID)
	sheetClaims := sheets.NewClaimStore(sheetsClient, sheets.ClaimStoreConfig{
		ClaimsRange: cfg.Sheets.ClaimsRange,
		LogRange:    cfg.Sheets.LogRange,
	})

	// Initialize orchestrator
	var opts []syncer.Option
	if cfg.Sync.Lease.Enabled {
		lease := syncer.NewKVLease(claimsKV, cfg.Sync.Lease.Key, cfg.Sync.Lease.TTL, clock)
		opts = append(opts, syncer.WithLease(lease))
		logger.InfoCtx(ctx, "Run lease enabled",
			zap.String("owner", lease.Owner()),
			zap.Duration("ttl", cfg.Sync.Lease.TTL),
		)
	}
	if cfg.NATS.URL != "" {
		publisher, err := jetstream.NewPublisher(jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream())
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		defer publisher.Close()
		opts = append(opts, syncer.WithPublisher(publisher))
	}
	orchestrator := syncer.NewOrchestrator(syncer.Config{
		FetchTimeout: cfg.Sync.FetchTimeout,
		ApplyTimeout: cfg.Sync.ApplyTimeout,
		LogTimeout:   cfg.Sync.LogTimeout,
	}, kvClaims, sheetClaims, clock, opts...)

	switch cfg.Sync.Mode {
	case config.ModeOnce:
		code := runOnce(ctx, orchestrator)
		logger.Flush(2 * time.Second)
		os.Exit(code) //nolint:gocritic
	case config.ModeTemporal:
		runTemporal(ctx, cfg, orchestrator)
	default:
		runLoop(ctx, cancel, cfg, orchestrator, clock)
	}
}

// openClaimsKV returns the claims namespace of the configured KV backend
func openClaimsKV(ctx context.Context, cfg *config.SyncWorkerConfig, clock adapter.Clock) kv.Store {
	if cfg.KV.Backend == config.KVBackendPostgres {
		db, err := store.Open(cfg.KV.Database.DSN(), store.PoolConfig{
			MaxOpenConns:    cfg.KV.Database.MaxOpenConns,
			MaxIdleConns:    cfg.KV.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.KV.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.KV.Database.ConnMaxIdleTime,
		})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.KV.Database.Host))
		}
		logger.InfoCtx(ctx, "Connected to database",
			zap.Int("max_open_conns", cfg.KV.Database.MaxOpenConns),
			zap.Int("max_idle_conns", cfg.KV.Database.MaxIdleConns),
		)
		return kv.NewPGStore(db, cfg.KV.ClaimsNamespace, clock)
	}

	cfClient, err := adapter.NewCloudflareKVClient(cfg.KV.Cloudflare.APIToken)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to initialize Cloudflare client", zap.Error(err))
	}
	return kv.NewCloudflareStore(cfClient, cfg.KV.Cloudflare.AccountID, cfg.KV.Cloudflare.ClaimsNamespaceID)
}

// runOnce runs a single pass, prints the result and returns the process exit code
func runOnce(ctx context.Context, runner syncer.Runner) int {
	result := runner.Run(ctx)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to marshal sync result: %w", err))
		return 1
	}
	fmt.Println(string(out))

	if !result.Success {
		return 1
	}
	return 0
}

// runLoop runs passes on an interval until interrupted
func runLoop(ctx context.Context, cancel context.CancelFunc, cfg *config.SyncWorkerConfig, runner syncer.Runner, clock adapter.Clock) {
	syncSweeper := sweeper.NewSyncSweeper(&sweeper.SyncSweeperConfig{
		Interval: cfg.Sync.Interval,
	}, runner, clock)
	logger.InfoCtx(ctx, "Initialized sync sweeper", zap.Duration("interval", cfg.Sync.Interval))

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := syncSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Cancel context to stop the sweeper
	cancel()

	// A pass in flight still writes its audit row after cancellation
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Sync.LogTimeout+5*time.Second)
	defer shutdownCancel()

	if err := syncSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.InfoCtx(shutdownCtx, "Sync sweeper stopped")
}

// runTemporal serves the sync workflow and makes sure its cron execution exists
func runTemporal(ctx context.Context, cfg *config.SyncWorkerConfig, runner syncer.Runner) {
	// Connect to Temporal
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporal.NewZapLoggerAdapter(logger.Default()),
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to Temporal", zap.Error(err), zap.String("host_port", cfg.Temporal.HostPort))
	}
	defer temporalClient.Close()
	logger.InfoCtx(ctx, "Connected to Temporal", zap.String("namespace", cfg.Temporal.Namespace))

	activity := adapter.NewActivity()
	executor := workflows.NewExecutor(runner, activity)
	workerCore := workflows.NewWorkerCore(executor, workflows.WorkerCoreConfig{
		ActivityTimeout: cfg.Temporal.ActivityTimeout,
	})

	// Create Temporal worker
	temporalWorker := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 1,
		Interceptors: []interceptor.WorkerInterceptor{
			temporal.NewSentryActivityInterceptor(activity),
		},
	})
	temporalWorker.RegisterWorkflow(workerCore.SyncClaims)
	temporalWorker.RegisterActivity(executor.RunSyncPass)
	logger.InfoCtx(ctx, "Registered workflows and activities", zap.String("task_queue", cfg.Temporal.TaskQueue))

	if err := temporalWorker.Start(); err != nil {
		logger.FatalCtx(ctx, "Failed to start worker", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Worker started and listening for tasks")

	err = temporal.StartCronWorkflow(ctx, temporalClient, temporal.CronWorkflow{
		ID:           cfg.Temporal.WorkflowID,
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: cfg.Temporal.CronSchedule,
	}, workerCore.SyncClaims)
	if err != nil {
		temporalWorker.Stop()
		logger.FatalCtx(ctx, "Failed to start cron workflow", zap.Error(err))
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.InfoCtx(ctx, "Shutting down worker...")
	temporalWorker.Stop()
	logger.InfoCtx(ctx, "Worker stopped")
}
