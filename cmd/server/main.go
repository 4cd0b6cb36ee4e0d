package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/mlclient"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/security"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdoutHandler := logging.Setup(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if err := database.SeedAdmin(database.DB, cfg); err != nil {
		slog.Error("admin seed failed", "error", err)
	}

	// ERROR+ records are also batched into system_logs
	dbLogHandler := logging.NewDBHandler(database.DB, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdoutHandler, dbLogHandler)))

	cleanup, err := logging.StartCleanup(database.DB, cfg.LogRetentionDays)
	if err != nil {
		slog.Error("log cleanup schedule failed", "error", err)
		os.Exit(1)
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Optional infrastructure
	var limiterStorage fiber.Storage
	if client := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); client != nil {
		limiterStorage = ratelimit.NewRedisStorage(client, "groomify:limiter:")
		slog.Info("rate limiter using redis", "addr", cfg.RedisAddr)
	} else if cfg.RedisAddr != "" {
		slog.Warn("redis unreachable, rate limiter falls back to memory", "addr", cfg.RedisAddr)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		publisher = events.NewAMQPPublisher(cfg.RabbitMQURL)
	}

	store := storage.NewFileStore(cfg.UploadsDir, cfg.UploadsURLPrefix)
	ml := mlclient.New(mlclient.Options{
		BaseURL:       cfg.MLAPIURL,
		Timeout:       cfg.MLTimeout,
		MaxAttempts:   cfg.MLMaxAttempts,
		HealthTimeout: cfg.MLHealthTimeout,
		Recorder:      metrics.MLRecorder{},
	})

	// Repositories
	userRepo := repository.NewUserRepository(database.DB)
	tokenRepo := repository.NewRefreshTokenRepository(database.DB)
	historyRepo := repository.NewGroomingHistoryRepository(database.DB)
	analysisRepo := repository.NewAnalysisRepository(database.DB)
	featuresRepo := repository.NewFeaturesRepository(database.DB)

	// Services
	issuer := security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessExpiry)
	authService := services.NewAuthService(userRepo, tokenRepo, security.NewPasswordHasher(cfg.BcryptCost), issuer, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(userRepo, store, services.NewAdminPolicy(cfg.AdminEmails))
	groomingService := services.NewGroomingService(historyRepo, cfg.Location())
	analysisService := services.NewAnalysisService(analysisRepo, historyRepo, ml, store, publisher)
	featuresService := services.NewFeaturesService(featuresRepo)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.Metrics())
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		User:     handlers.NewUserHandler(userService),
		Analysis: handlers.NewAnalysisHandler(analysisService),
		Grooming: handlers.NewGroomingHandler(groomingService),
		Features: handlers.NewFeaturesHandler(featuresService),
		Health:   handlers.NewHealthHandler(database.DB, ml),
	}, issuer.Secret(), userService, limiterStorage)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	<-cleanup.Stop().Done()
	dbLogHandler.Stop()
	if limiterStorage != nil {
		_ = limiterStorage.Close()
	}
	sentry.Flush(2 * time.Second)

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
