package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/godilite/feedback-insights/internal/classifier"
	"github.com/godilite/feedback-insights/internal/config"
	handler "github.com/godilite/feedback-insights/internal/grpc"
	"github.com/godilite/feedback-insights/internal/jobs"
	"github.com/godilite/feedback-insights/internal/llm"
	"github.com/godilite/feedback-insights/internal/metrics"
	"github.com/godilite/feedback-insights/internal/repository"
	"github.com/godilite/feedback-insights/internal/service"
	"github.com/godilite/feedback-insights/pkg/cache"
	dbbuilder "github.com/godilite/feedback-insights/pkg/database"
	grpcsrv "github.com/godilite/feedback-insights/pkg/grpc/server"
)

type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      *cache.Cache
	grpcServer *grpcsrv.Server
	backfill   *jobs.BackfillJob
	registry   *prometheus.Registry
}

type Option func(*options)

type options struct {
	listener net.Listener
}

// WithListener serves gRPC on lis instead of cfg.GRPCPort.
func WithListener(lis net.Listener) Option {
	return func(o *options) { o.listener = lis }
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dbPool, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
		dbbuilder.WithInit(repository.Migrate),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	a := &App{cfg: cfg, logger: logger, dbPool: dbPool}
	if err := a.build(ctx, o); err != nil {
		a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, o options) error {
	cfg, logger := a.cfg, a.logger

	repo := repository.NewFeedbackRepository(a.dbPool)

	var provider classifier.Provider
	if cfg.AIEnabled() {
		provider = llm.NewAnthropicProvider(cfg.AnthropicAPIKey,
			llm.WithModel(cfg.AIModel),
			llm.WithBaseURL(cfg.AIBaseURL),
			llm.WithMaxTokens(cfg.AIMaxTokens),
			llm.WithLogger(logger),
		)
		logger.Info("AI classification enabled")
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, classifying with heuristics only")
	}

	ai := classifier.NewAIClassifier(provider, classifier.NewHeuristic(nil, nil),
		classifier.WithTimeout(cfg.ClassifierTimeout),
		classifier.WithLogger(logger),
	)
	pipeline := classifier.NewPipeline(ai,
		classifier.WithBatchDelay(cfg.BatchDelay),
		classifier.WithWriter(repo),
		classifier.WithPipelineLogger(logger),
	)

	feedbackService := service.NewFeedbackService(repo, pipeline, logger)
	insightsService := service.NewInsightsService(repo, logger)

	backfill, err := jobs.NewBackfillJob(feedbackService, cfg.BackfillSchedule, logger,
		jobs.WithLimit(cfg.BackfillLimit))
	if err != nil {
		return err
	}
	a.backfill = backfill

	var reportCache handler.Cacher
	if cfg.CacheEnabled() {
		c, err := cache.New(ctx,
			cache.WithAddress(cfg.RedisAddr),
			cache.WithPassword(cfg.RedisPassword),
			cache.WithDB(cfg.RedisDB),
		)
		if err != nil {
			logger.Warn("report cache unavailable, serving reports uncached", zap.Error(err))
		} else {
			if err := c.Flush(ctx); err != nil {
				logger.Warn("failed to flush report cache", zap.Error(err))
			}
			a.cache = c
			reportCache = c
			logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
		}
	}

	grpcHandlers := handler.NewFeedbackHandlers(feedbackService, insightsService, reportCache, logger, cfg.ReportCacheTTL,
		handler.WithRequestTimeout(cfg.RequestTimeout))

	serverOpts := []grpcsrv.Option{
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithMaxRecvMsgSize(cfg.GRPCMaxRecvBytes),
		grpcsrv.WithUnaryInterceptors(metrics.UnaryServerInterceptor()),
	}
	if o.listener != nil {
		serverOpts = append(serverOpts, grpcsrv.WithListener(o.listener))
	}
	grpcServer, err := grpcsrv.New(serverOpts...)
	if err != nil {
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}
	grpcServer.RegisterServiceWithHealth(handler.ServiceName, func(s *grpc.Server) {
		handler.RegisterFeedbackInsightsServer(s, grpcHandlers)
	})
	a.grpcServer = grpcServer

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.MustRegister(a.registry)

	return nil
}

// Addr returns the gRPC listening address.
func (a *App) Addr() net.Addr {
	return a.grpcServer.Addr()
}

// Start launches the gRPC server, the metrics endpoint and the backfill
// schedule. The metrics endpoint stops when ctx is done.
func (a *App) Start(ctx context.Context) {
	a.logger.Info("application starting")

	a.grpcServer.Start()
	if a.cfg.MetricsAddr != "" {
		metrics.StartServer(ctx, a.logger, a.cfg.MetricsAddr, a.registry)
	}
	a.backfill.Start()
}

// Run starts the application and blocks until a shutdown signal is received
// or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Start(ctx)
	<-ctx.Done()

	a.logger.Info("application shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, waits for in-flight work and releases
// the cache and database.
func (a *App) Shutdown(ctx context.Context) error {
	a.grpcServer.SetServiceHealth(handler.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	var errs []error
	if err := a.grpcServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
	}
	if err := a.backfill.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("backfill stop: %w", err))
	}
	errs = append(errs, a.closeResources())

	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown completed with errors", zap.Error(err))
		return err
	}
	a.logger.Info("graceful shutdown completed successfully")
	return nil
}

func (a *App) closeResources() error {
	var errs []error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if err := a.dbPool.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
