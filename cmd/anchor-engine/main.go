package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emberfin/anchor-engine/internal/action"
	"github.com/emberfin/anchor-engine/internal/admin"
	"github.com/emberfin/anchor-engine/internal/asset"
	"github.com/emberfin/anchor-engine/internal/config"
	"github.com/emberfin/anchor-engine/internal/custody"
	"github.com/emberfin/anchor-engine/internal/event"
	eventmemory "github.com/emberfin/anchor-engine/internal/event/memory"
	"github.com/emberfin/anchor-engine/internal/event/redisstream"
	"github.com/emberfin/anchor-engine/internal/store"
	storememory "github.com/emberfin/anchor-engine/internal/store/memory"
	"github.com/emberfin/anchor-engine/internal/store/postgres"
	"github.com/emberfin/anchor-engine/internal/tracing"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("anchor-engine exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "anchor-engine", cfg.Tracing.OTLPEndpoint, cfg.Tracing.Insecure)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	assets, err := asset.LoadCatalog(cfg.Assets.File)
	if err != nil {
		return fmt.Errorf("load asset catalog: %w", err)
	}

	repo, storeCheck, closeStore, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	events, eventCheck, closeEvents, err := newEventService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	var generator action.DepositInfoGenerator = action.NoneGenerator{}
	if cfg.DepositInfo.Generator == "self" {
		generator = action.SelfGenerator{Account: cfg.DepositInfo.DistributionAccount}
	}

	registry, err := action.NewRegistry(
		action.NewOffchainFundsReceivedHandler(assets),
		action.NewRefundSentHandler(assets),
		action.NewTransactionExpiredHandler(),
		action.NewOnchainFundsRequestedHandler(assets, generator),
	)
	if err != nil {
		return fmt.Errorf("build handler registry: %w", err)
	}

	opts := []action.Option{action.WithEventPublisher(events)}
	if cfg.Custody.Enabled {
		opts = append(opts, action.WithCustody(
			custody.NewClient(cfg.Custody.BaseURL, cfg.Custody.Timeout, logger)))
	}
	orchestrator := action.NewOrchestrator(registry, repo, logger, opts...)

	adminOpts := []admin.ServerOption{
		admin.WithHealthCheck(storeCheck),
		admin.WithActionExecutor(orchestrator),
	}
	if eventCheck != nil {
		adminOpts = append(adminOpts, admin.WithHealthCheck(eventCheck))
	}
	adminSrv := admin.NewServer(logger, adminOpts...)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HealthPort),
		Handler:           adminSrv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("admin server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	logger.Info("anchor-engine started",
		"custody_enabled", cfg.Custody.Enabled,
		"deposit_info_generator", cfg.DepositInfo.Generator,
	)
	return g.Wait()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// newStore selects the postgres store when DB_URL is set, the in-memory
// store otherwise (local development).
func newStore(cfg *config.Config, logger *slog.Logger) (store.TransactionRepository, admin.HealthChecker, func(), error) {
	if cfg.DB.URL == "" {
		logger.Warn("DB_URL not set, using in-memory transaction store")
		check := admin.CheckFunc{CheckName: "store", Fn: func(context.Context) error { return nil }}
		return storememory.New(), check, func() {}, nil
	}

	db, err := postgres.New(postgres.Config{
		URL:             cfg.DB.URL,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect db: %w", err)
	}
	if err := db.RunMigrations("migrations"); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	check := admin.CheckFunc{CheckName: "store", Fn: func(ctx context.Context) error {
		return db.PingContext(ctx)
	}}
	return postgres.NewTransactionRepo(db), check, func() { db.Close() }, nil
}

// newEventService selects the redis-streams backend when REDIS_URL is set,
// the in-process queue otherwise.
func newEventService(cfg *config.Config, logger *slog.Logger) (event.Service, admin.HealthChecker, func(), error) {
	if cfg.Redis.URL == "" {
		logger.Warn("REDIS_URL not set, using in-memory event queue")
		return eventmemory.New(), nil, func() {}, nil
	}

	svc, err := redisstream.New(cfg.Redis.URL, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	check := admin.CheckFunc{CheckName: "events", Fn: func(ctx context.Context) error {
		return svc.Ping(ctx)
	}}
	return svc, check, func() { svc.Close() }, nil
}
