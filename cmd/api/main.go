package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/dscatalog/internal/auth"
	"github.com/BradenHooton/dscatalog/internal/background"
	"github.com/BradenHooton/dscatalog/internal/cache"
	"github.com/BradenHooton/dscatalog/internal/config"
	"github.com/BradenHooton/dscatalog/internal/database"
	"github.com/BradenHooton/dscatalog/internal/handlers"
	"github.com/BradenHooton/dscatalog/internal/mail"
	"github.com/BradenHooton/dscatalog/internal/metrics"
	middlewareCustom "github.com/BradenHooton/dscatalog/internal/middleware"
	"github.com/BradenHooton/dscatalog/internal/repositories"
	"github.com/BradenHooton/dscatalog/internal/routes"
	"github.com/BradenHooton/dscatalog/internal/services"
	pkglogger "github.com/BradenHooton/dscatalog/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger, logCloser := pkglogger.New(pkglogger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(context.Background(), &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer startupCancel()

	categoryCache, err := cache.New(startupCtx, cache.Config{
		Driver:     cfg.Cache.Driver,
		Addr:       cfg.Cache.RedisAddr,
		Password:   cfg.Cache.RedisPassword,
		DB:         cfg.Cache.RedisDB,
		Prefix:     cfg.Cache.Prefix,
		DefaultTTL: cfg.Cache.TTL,
	})
	if err != nil {
		logger.Error("failed to initialize cache", slog.Any("error", err))
		os.Exit(1)
	}
	defer categoryCache.Close()

	mailer, err := mail.New(startupCtx, mail.Config{
		Provider:     cfg.Email.Provider,
		FromAddress:  cfg.Email.FromAddress,
		AWSRegion:    cfg.Email.AWSRegion,
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUser:     cfg.Email.SMTPUser,
		SMTPPassword: cfg.Email.SMTPPassword,
		SMTPTLSMode:  cfg.Email.SMTPTLSMode,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize mail gateway", slog.Any("error", err))
		os.Exit(1)
	}
	startupCancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		database.NewPoolCollector(db),
	)
	if err := metrics.Register(registry); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewRecoveryTokenRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	productRepo := repositories.NewProductRepository(db)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay:   cfg.Auth.TimingDelayBase,
		RandomDelay: cfg.Auth.TimingDelayRandom,
	})

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenManager, timingDelay, logger)
	recoveryService := services.NewRecoveryService(
		tokenRepo,
		userRepo,
		mailer,
		db,
		logger,
		cfg.Recovery.TokenTTL,
		cfg.Recovery.RecoverURI,
	)
	userService := services.NewUserService(userRepo, logger)
	categoryService := services.NewCategoryService(categoryRepo, categoryCache, cfg.Cache.TTL, logger)
	productService := services.NewProductService(productRepo, logger)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middlewareCustom.Metrics)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	routes.RegisterRoutes(router, routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService, recoveryService, logger),
		Users:      handlers.NewUserHandler(userService),
		Categories: handlers.NewCategoryHandler(categoryService),
		Products:   handlers.NewProductHandler(productService),
		Health:     handlers.Health(db),
		Metrics:    metrics.Handler(registry),
	}, tokenManager, routes.RateLimits{
		Login:    middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.LoginRateLimit},
		Recovery: middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Recovery.RateLimit},
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start token stats reporter
	reporter := background.NewTokenStatsReporter(tokenRepo, logger, cfg.Recovery.StatsInterval)
	reporterCtx, reporterCancel := context.WithCancel(context.Background())
	defer reporterCancel()

	go reporter.Start(reporterCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	reporterCancel()
	reporter.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
