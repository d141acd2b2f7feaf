package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"sitebooks-backend/config"
	"sitebooks-backend/internal/api"
	"sitebooks-backend/internal/auth"
	"sitebooks-backend/internal/db"
	"sitebooks-backend/internal/logging"
	"sitebooks-backend/internal/metrics"
	"sitebooks-backend/internal/notification"
	"sitebooks-backend/internal/store"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	logger.WithField("path", configPath).Info("configuration loaded")

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}
	if err := db.Migrate(gormDB, logger); err != nil {
		logger.WithError(err).Fatal("failed to migrate database")
	}
	if *migrateOnly {
		logger.Info("migrations applied")
		return
	}

	if cfg.Auth.JWTSecret == config.DevJWTSecret {
		logger.Warn("using the development JWT secret; set JWT_SECRET before deploying")
	}
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	if err != nil {
		logger.WithError(err).Fatal("failed to create token issuer")
	}

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Warn("VAPID keys are not configured; budget alerts are disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	storeOpts := store.Options{Logger: logger, Metrics: m}
	if webpushOptions != nil {
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, gormDB, webpushOptions, logger, m)
		pool.Start(ctx)
		storeOpts.BudgetExceeded = pool.Dispatch
		logger.WithField("workers", cfg.WorkerPool.Size).Info("budget alert workers started")
	}
	appStore := store.NewGormStore(gormDB, storeOpts)

	if _, err := db.SeedAdmin(ctx, appStore, cfg.Auth.BootstrapAdmin, logger); err != nil {
		logger.WithError(err).Fatal("failed to seed administrator")
	}

	if !cfg.Server.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Store:   appStore,
		Issuer:  issuer,
		WebPush: webpushOptions,
		Log:     logger,
		Metrics: m,
		Server:  cfg.Server,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server stopped unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("HTTP server shutdown failed")
	}

	logger.Info("server gracefully stopped")
}
