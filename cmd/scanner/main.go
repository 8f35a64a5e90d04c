package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"

	"mcscanner/internal/config"
	"mcscanner/internal/database"
	"mcscanner/internal/feed"
	"mcscanner/internal/models"
	"mcscanner/internal/probe"
	"mcscanner/internal/scanner"
	"mcscanner/internal/sink"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "mcscanner",
		Level: hclog.Info,
	})

	// Parse configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(hclog.LevelFromString(cfg.LogLevel))

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "url", cfg.DatabaseURL, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	// Initialize components
	targetFeed, err := buildFeed(cfg)
	if err != nil {
		logger.Error("invalid target feed", "error", err)
		os.Exit(1)
	}

	prober := probe.New(probe.Config{
		Timeout:   cfg.Timeout,
		DeepProbe: cfg.DeepProbe,
	}, logger)

	resultSink := sink.New(db, sink.Config{
		BatchSize:      cfg.BatchSize,
		MaxBatchBytes:  cfg.MaxBatchBytes,
		FlushInterval:  cfg.FlushInterval,
		RecordFailures: cfg.RecordFailures,
	}, logger)

	sc := scanner.New(cfg, targetFeed, prober, resultSink, db, logger)

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := sc.Start(); err != nil {
		logger.Error("failed to start scanner", "error", err)
		os.Exit(1)
	}
	logger.Info("scanner started", "threads", cfg.Threads, "port", cfg.ScanPort, "database", cfg.DatabaseURL)

	select {
	case <-sigChan:
		logger.Info("shutting down")
	case <-sc.Finished():
	}

	sc.Stop()
	sc.Wait()
	if err := resultSink.Close(); err != nil {
		logger.Error("failed to flush remaining results", "error", err)
	}

	stats := resultSink.Stats()
	logger.Info("scan summary",
		"submitted", stats.Submitted,
		"flushes", stats.Flushes,
		"dropped_batches", stats.DroppedBatches)
}

// buildFeed selects the target source: a finite sweep over the
// configured CIDR blocks, or random public address sampling.
func buildFeed(cfg config.Config) (models.Feed, error) {
	if len(cfg.CIDRs) > 0 {
		return feed.NewCIDR(cfg.CIDRs, uint16(cfg.ScanPort))
	}
	return feed.NewRandom(uint16(cfg.ScanPort)), nil
}
