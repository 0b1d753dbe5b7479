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

	"github.com/SAP-F-2025/assessment-delivery/internal/cache"
	"github.com/SAP-F-2025/assessment-delivery/internal/config"
	"github.com/SAP-F-2025/assessment-delivery/internal/handlers"
	"github.com/SAP-F-2025/assessment-delivery/internal/repositories/postgres"
	"github.com/SAP-F-2025/assessment-delivery/internal/services"
	"github.com/SAP-F-2025/assessment-delivery/internal/utils"
	"github.com/SAP-F-2025/assessment-delivery/internal/validator"
	"github.com/SAP-F-2025/assessment-delivery/pkg"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := utils.NewSlog(cfg.IsProduction())
	slog.SetDefault(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := pkg.Migrate(db); err != nil {
		return err
	}
	repo := postgres.NewRepository(db)

	var cacheService cache.CacheService
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache", "error", err)
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, logger)
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}()

	v := validator.New()
	catalog := services.NewCatalogService(repo, cacheService, v, cfg.CacheTTL, logger)
	attempts := services.NewAttemptService(repo, catalog, cacheService, publisher, v, logger, services.AttemptServiceConfig{
		ExpiryGrace: cfg.ExpiryGrace,
		CacheTTL:    cfg.CacheTTL,
	})
	export := services.NewExportService(attempts, catalog, logger)
	serviceManager := services.NewServiceManager(attempts, catalog, export)

	var parser handlers.TokenParser
	if cfg.Auth.Enabled() {
		parser = handlers.NewCasdoorParser(cfg.Auth)
	} else {
		logger.Warn("Token verification disabled, trusting the X-User-ID header")
	}
	router := handlers.NewHandlerManager(serviceManager, parser, utils.NewSlogLogger(logger)).NewRouter()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := services.NewSweeper(repo, attempts, cfg.ExpiryGrace, cfg.SweepInterval, logger)
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting assessment delivery service", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
