package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inverpulse/config"
	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/middleware"
	"inverpulse/monitoring"
	"inverpulse/routes"
	"inverpulse/scheduler"
	"inverpulse/tiers"
	"inverpulse/utils"

	"go.uber.org/zap"
)

func main() {
	// Load .env if present (does not overwrite already-set variables).
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := logging.InitLogger(!cfg.Development()); err != nil {
		log.Fatalf("logger: %v", err)
	}
	logger := logging.Logger
	defer logger.Sync()

	db, err := database.Connect()
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	// Auto-migrate only in development to avoid accidental production schema changes
	if cfg.Development() {
		logger.Info("development mode, running auto-migration")
		if err := database.RunMigrations(db); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	utils.InitRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := utils.InitObjectStore(context.Background()); err != nil {
		logger.Warn("object storage unavailable, KYC uploads disabled", zap.Error(err))
	}

	database.InitLevels(db, tiers.CoordinatorOptions{
		AllowDowngrade: cfg.LevelAllowDowngrade,
		Logger:         logging.Named("tiers"),
		Observer:       monitoring.TierObserver{},
	})

	jobs, err := scheduler.New(db, cfg.SignalExpiryCron)
	if err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}
	jobs.Start()

	router := routes.InitRouter(cfg)

	// Request ID -> Recovery -> Logging -> Security headers -> Suspicious activity -> Timeout.
	// Metrics run inside the router where the matched route template is known.
	handler := middleware.RequestIDMiddleware(
		middleware.RecoveryMiddleware(
			middleware.RequestLogMiddleware(
				middleware.SecurityHeadersMiddleware(
					middleware.SuspiciousActivityMiddleware(
						middleware.TimeoutMiddleware(cfg.RequestTimeout)(router),
					),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobs.Stop(ctx)
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
