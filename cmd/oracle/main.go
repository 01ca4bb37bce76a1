package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/curation"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/producer"
	"github.com/timmy/ghostline/internal/repository"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "ghostline-oracle",
	})
	logger.SetDefaultLogger(appLogger)

	sourceID := flag.String("source", "", "Draft source to produce from (default: producer.source)")
	limit := flag.Int("limit", 0, "Maximum number of drafts to evaluate (default: producer.batch_size)")
	dryRun := flag.Bool("dry-run", false, "Evaluate drafts without creating work items")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if *sourceID == "" {
		*sourceID = cfg.Producer.Source
	}
	if *limit <= 0 {
		*limit = cfg.Producer.BatchSize
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldSource: *sourceID,
		"limit":            *limit,
		"dry_run":          *dryRun,
	}).Info("Starting production run")

	db, err := repository.InitDB(&cfg.Database, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	items := repository.NewItemRepository(db)

	sources, err := producer.Sources(cfg.Producer)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load draft sources")
	}
	src, err := producer.Lookup(sources, *sourceID)
	if err != nil {
		appLogger.WithError(err).Fatal("Unknown source")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gate := curation.NewGate(items, curation.PolicyFromConfig(cfg.Curation))
	svc := producer.NewService(gate, items, cfg.Producer.BatchSize)

	stats, err := svc.Produce(ctx, src, *limit, &producer.Options{DryRun: *dryRun})
	fields := logger.Fields{
		"total":    stats.Total,
		"admitted": stats.Admitted,
		"denied":   stats.Denied,
		"failed":   stats.Failed,
		"by_rule":  stats.ByRule,
	}
	if err != nil {
		appLogger.WithFields(fields).WithError(err).Error("Production run stopped early")
		os.Exit(1)
	}
	appLogger.WithFields(fields).Info("Production run completed")
}
