package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forex-dashboard-go/internal/config"
	"forex-dashboard-go/internal/dashboard"
	"forex-dashboard-go/internal/ingest"
	"forex-dashboard-go/internal/logger"
	"forex-dashboard-go/internal/server"
	"forex-dashboard-go/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env first so it can feed the config's env overrides.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the document store
	store, err := storage.New(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to connect to storage", zap.Error(err))
	}
	log.Info("Storage ready", zap.String("driver", cfg.Storage.Driver))

	timeout := time.Duration(cfg.Storage.TimeoutSeconds) * time.Second
	ingestSvc := ingest.NewService(log, store, cfg.Ingest.Collection, timeout)
	dashSvc := dashboard.NewService(log, store, cfg.Ingest.Collection, timeout)

	apiHandler := server.NewAPIHandler(log, ingestSvc, dashSvc, "web")
	srv := server.New(&cfg.Server, log, apiHandler)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		log.Fatal("Web server failed", zap.Error(err))
	}

	log.Info("Dashboard has been shut down.")
}
