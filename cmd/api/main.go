package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/volunteer-events/internal/api/http"
	"github.com/spec-kit/volunteer-events/internal/api/http/handlers"
	"github.com/spec-kit/volunteer-events/internal/auth"
	"github.com/spec-kit/volunteer-events/internal/clock"
	"github.com/spec-kit/volunteer-events/internal/config"
	"github.com/spec-kit/volunteer-events/internal/events"
	"github.com/spec-kit/volunteer-events/internal/observability"
	"github.com/spec-kit/volunteer-events/internal/persistence"
	"github.com/spec-kit/volunteer-events/internal/repository"
	"github.com/spec-kit/volunteer-events/internal/service"
	"github.com/spec-kit/volunteer-events/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("postgres is required; set POSTGRES_DSN")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher(logger)
	deps := service.Dependencies{
		Transactor:     repository.NewTransactor(pool),
		EventRepo:      repository.NewEventRepository(pool),
		JobRepo:        repository.NewJobRepository(pool),
		AttendanceRepo: repository.NewAttendanceRepository(pool),
		HistoryRepo:    repository.NewEventHistoryRepository(pool),
		Dispatcher:     dispatcher,
		Clock:          clock.NewSystem(),
		Windows:        cfg.Lifecycle.Windows(),
		Logger:         logger,
	}

	lifecycleService := service.NewLifecycleService(deps)
	subscriptionService := service.NewSubscriptionService(deps)
	attendanceService := service.NewAttendanceService(deps)
	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Events:         handlers.NewEventsHandler(lifecycleService),
		Subscriptions:  handlers.NewSubscriptionsHandler(subscriptionService),
		Attendance:     handlers.NewAttendanceHandler(attendanceService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	var wg sync.WaitGroup
	if cfg.Worker.AutoCompleteEnabled {
		sweeper := worker.NewAutoCompleteWorker(lifecycleService, worker.RedisLocker(redis), cfg.Worker, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweeper.Run(ctx)
		}()
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
	wg.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
