package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/blakestevenson/marquee/internal/auth"
	"github.com/blakestevenson/marquee/internal/auth/providers"
	"github.com/blakestevenson/marquee/internal/catalog"
	"github.com/blakestevenson/marquee/internal/config"
	"github.com/blakestevenson/marquee/internal/db"
	"github.com/blakestevenson/marquee/internal/discovery"
	httpserver "github.com/blakestevenson/marquee/internal/http"
	"github.com/blakestevenson/marquee/internal/logging"
	"github.com/blakestevenson/marquee/internal/review"
)

func main() {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Marquee server",
		zap.String("environment", cfg.Server.Environment),
		zap.String("address", cfg.Addr()),
	)

	ctx := context.Background()

	// Database
	dbPool, err := db.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Upstream catalog
	catalogClient, err := catalog.NewClient(catalog.Config{
		BaseURL:         cfg.TMDB.BaseURL,
		APIKey:          cfg.TMDB.APIKey,
		Language:        cfg.TMDB.Language,
		Timeout:         cfg.TMDB.Timeout,
		BreakerFailures: cfg.TMDB.BreakerFailures,
		BreakerTimeout:  cfg.TMDB.BreakerTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize catalog client", zap.Error(err))
	}

	// Accounts
	authStore := auth.NewPostgresStore(dbPool)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	passwordProvider := providers.NewPasswordProvider(authStore, 0)
	authService := auth.NewService(authStore, jwtManager, passwordProvider, logger)

	// Domain services
	discoveryService := discovery.NewService(catalogClient, logger)
	reviewService := review.NewService(review.NewPostgresStore(dbPool), logger)

	router := httpserver.NewRouter(discoveryService, reviewService, authService, httpserver.RouterConfig{
		CORSOrigins:    cfg.Server.CORSOrigins,
		AuthRateLimit:  cfg.Auth.RateLimit,
		AuthRateWindow: cfg.Auth.RateWindow,
		CookieSecure:   cfg.Auth.CookieSecure,
		AccessTTL:      cfg.Auth.AccessTokenTTL,
		RefreshTTL:     cfg.Auth.RefreshTokenTTL,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}

	case sig := <-shutdown:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Give outstanding requests a deadline for completion
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Error("Failed to close server", zap.Error(err))
			}
		}

		logger.Info("Server stopped")
	}
}
