package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"metahire/config"
	"metahire/metrics"
	"metahire/middleware"
	"metahire/routes"
	"metahire/services"
	"metahire/session"
	"metahire/utils"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig
	logger := utils.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			logger.WithError(err).Warn("Sentry initialization failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	st, err := config.OpenStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer st.Close()

	redisClient, err := config.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to redis: %v", err)
	}
	var sessionStore session.Store = session.NewMemoryStore()
	if redisClient != nil {
		defer redisClient.Close()
		sessionStore = session.NewRedisStore(redisClient)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	svc := services.New(st, session.NewManager(sessionStore, cfg.SessionSecret, cfg.SessionTTL), m, logger, services.Options{
		ImportBatchSize: cfg.ImportBatchSize,
		PhoneRegion:     cfg.DefaultPhoneRegion,
	})

	if cfg.Superadmin.Email != "" {
		if _, err := svc.Auth.EnsureSuperadmin(ctx, services.NewAccount{
			Email:    cfg.Superadmin.Email,
			Password: cfg.Superadmin.Password,
			FullName: cfg.Superadmin.FullName,
		}); err != nil {
			logger.Fatalf("Failed to bootstrap superadmin: %v", err)
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORSOrigins

	app := routes.NewApp(routes.Dependencies{
		Services:         svc,
		Metrics:          m,
		Gatherer:         registry,
		RateLimitStorage: middleware.NewRedisStorage(redisClient),
		CORS:             corsConfig,
		RateLimitLogin:   cfg.RateLimitLogin,
		RateLimitImport:  cfg.RateLimitImport,
		SecureCookies:    cfg.Environment == "production",
		Logger:           logger,
	})

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	// Start server
	logger.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
