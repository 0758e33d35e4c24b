package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/cleaning-dispatch/internal/api/http"
	"github.com/spec-kit/cleaning-dispatch/internal/api/http/handlers"
	"github.com/spec-kit/cleaning-dispatch/internal/config"
	"github.com/spec-kit/cleaning-dispatch/internal/events"
	"github.com/spec-kit/cleaning-dispatch/internal/matching"
	"github.com/spec-kit/cleaning-dispatch/internal/notify"
	"github.com/spec-kit/cleaning-dispatch/internal/observability"
	"github.com/spec-kit/cleaning-dispatch/internal/persistence"
	"github.com/spec-kit/cleaning-dispatch/internal/repository"
	"github.com/spec-kit/cleaning-dispatch/internal/service"
	"github.com/spec-kit/cleaning-dispatch/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics(nil)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.RegisterPoolMetrics(nil); err != nil {
		logger.Warn("postgres pool metrics not registered", zap.Error(err))
	}

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := repository.NewRepositories(pg.PoolHandle())

	ranker, err := matching.ParseStrategy(cfg.Match.Strategy)
	if err != nil {
		logger.Fatal("invalid match strategy", zap.Error(err))
	}
	matcher := matching.NewMatcher(repos.Staff, repos.Assignments, ranker, cfg.Match.CandidateTimeout())

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := worker.NewNotificationWorker(cfg.Notification.Workers, cfg.Notification.QueueSize,
		cfg.Notification.Timeout(), logger, metrics)
	notifications.Start(ctx)

	sender := notify.NewHTTPSender(cfg.Notification, logger)
	service.NewNotificationService(dispatcher, sender, notifications, logger, metrics).RegisterHandlers()

	staffService := service.NewStaffService(repos.Staff, logger)
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Requests:    repos.Requests,
		Staff:       repos.Staff,
		Assignments: repos.Assignments,
		History:     repos.History,
		Matcher:     matcher,
		Locker:      redis.AssignmentLocker(),
		LockTTL:     cfg.Match.LockTTL(),
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		Requests:    repos.Requests,
		History:     repos.History,
		Assignments: assignmentService,
		Staff:       staffService,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Staff:       handlers.NewStaffHandler(staffService),
		Requests:    handlers.NewRequestsHandler(requestService),
		Assignments: handlers.NewAssignmentsHandler(assignmentService),
	})

	logger.Info("starting dispatch service",
		zap.String("addr", cfg.App.Addr()),
		zap.String("match_strategy", matcher.Strategy()),
		zap.Bool("postgres", pg.Enabled()),
		zap.Bool("redis", redis.Enabled()))

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := notifications.Stop(shutdownCtx); err != nil {
		logger.Warn("notification queue not drained", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
