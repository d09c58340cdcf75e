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

	httptransport "github.com/conectapg/occurrence-service/internal/api/http"
	"github.com/conectapg/occurrence-service/internal/api/http/handlers"
	"github.com/conectapg/occurrence-service/internal/auth"
	"github.com/conectapg/occurrence-service/internal/config"
	"github.com/conectapg/occurrence-service/internal/domain"
	"github.com/conectapg/occurrence-service/internal/events"
	"github.com/conectapg/occurrence-service/internal/notify"
	"github.com/conectapg/occurrence-service/internal/observability"
	"github.com/conectapg/occurrence-service/internal/persistence"
	"github.com/conectapg/occurrence-service/internal/repository"
	"github.com/conectapg/occurrence-service/internal/repository/memory"
	"github.com/conectapg/occurrence-service/internal/service"
	"github.com/conectapg/occurrence-service/internal/worker"
	apperrors "github.com/conectapg/occurrence-service/pkg/util"
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

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var (
		userRepo       repository.UserRepository
		occurrenceRepo repository.OccurrenceRepository
	)
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.PoolHandle())
		occurrenceRepo = repository.NewOccurrenceRepository(pg.PoolHandle())
	} else {
		db := memory.New()
		userRepo = db.Users()
		occurrenceRepo = db.Occurrences()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewAsyncDispatcher(cfg.Events.QueueSize)

	var publisher notify.Publisher
	if redis.Enabled() {
		publisher = redis.Client
	}
	notify.NewService(dispatcher, logger, publisher, cfg.Redis.EventsChannel).RegisterHandlers()

	eventWorker := worker.NewEventWorker(dispatcher, logger, cfg.Events.HandlerTimeout())
	eventWorker.Start()

	userService := service.NewUserService(service.UserDependencies{
		UserRepo:       userRepo,
		OccurrenceRepo: occurrenceRepo,
		Hasher:         auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	occurrenceService := service.NewOccurrenceService(service.OccurrenceDependencies{
		OccurrenceRepo: occurrenceRepo,
		UserRepo:       userRepo,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})

	if cfg.Seed.Enabled() {
		seedAdmin(ctx, userService, cfg.Seed, logger)
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:       logger,
		Metrics:      metrics,
		Timeout:      cfg.App.RequestTimeout(),
		AllowOrigins: cfg.CORS.AllowOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:       handlers.NewUsersHandler(userService),
		Occurrences: handlers.NewOccurrencesHandler(occurrenceService),
		Metrics:     metrics.Handler(),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	eventWorker.Stop()
}

// seedAdmin makes sure a fresh deployment has one administrator account.
func seedAdmin(ctx context.Context, users *service.UserService, seed config.SeedConfig, logger *zap.Logger) {
	_, err := users.Create(ctx, service.UserCreateInput{
		Name:   seed.AdminName,
		Email:  seed.AdminEmail,
		Secret: seed.AdminPassword,
		Role:   service.Some(domain.RoleAdmin),
	})
	switch {
	case err == nil:
		logger.Info("seeded admin account", zap.String("email", seed.AdminEmail))
	case apperrors.HasCode(err, apperrors.CodeConflict):
		logger.Debug("admin account already present", zap.String("email", seed.AdminEmail))
	default:
		logger.Fatal("failed to seed admin account", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
