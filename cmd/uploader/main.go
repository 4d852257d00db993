package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"forex-dashboard-go/internal/config"
	"forex-dashboard-go/internal/logger"
	"forex-dashboard-go/internal/models"
	"forex-dashboard-go/internal/uploader"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "trades.json", "path to a JSON file with a trade record or a list of trade records")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	trades, err := readTrades(*file)
	if err != nil {
		log.Fatal("Failed to read trades file", zap.String("file", *file), zap.Error(err))
	}
	log.Info("Loaded trades from file", zap.String("file", *file), zap.Int("count", len(trades)))

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, stopping upload...")
		cancel()
	}()

	client := uploader.NewClient(&cfg.Uploader, log)
	if err := client.CheckHealth(ctx); err != nil {
		log.Fatal("Failed to reach dashboard", zap.Error(err))
	}
	log.Info("Successfully connected to dashboard.")

	uploaded := 0
	for start := 0; start < len(trades); start += cfg.Uploader.BatchSize {
		end := start + cfg.Uploader.BatchSize
		if end > len(trades) {
			end = len(trades)
		}

		result, err := client.UploadTrades(ctx, trades[start:end])
		if err != nil {
			log.Fatal("Upload failed", zap.Int("batch_start", start), zap.Error(err))
		}
		uploaded += result.UploadedCount
	}

	log.Info("Upload complete",
		zap.Int("total", len(trades)),
		zap.Int("uploaded", uploaded),
		zap.Int("skipped", len(trades)-uploaded),
	)
}

// readTrades loads a single trade record or a list of them from a JSON file.
func readTrades(path string) ([]models.TradeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []models.TradeRecord
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var single models.TradeRecord
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("file is neither a trade record nor a list of trade records: %w", err)
	}
	return []models.TradeRecord{single}, nil
}
