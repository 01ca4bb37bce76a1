package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/timmy/ghostline/internal/api"
	"github.com/timmy/ghostline/internal/changefeed"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/curation"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/pipeline"
	"github.com/timmy/ghostline/internal/producer"
	"github.com/timmy/ghostline/internal/repository"
	"github.com/timmy/ghostline/internal/service"
	"github.com/timmy/ghostline/internal/storage"
	"golang.org/x/sync/errgroup"
)

func main() {
	appLogger := logger.NewFromEnv(nil)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// CONFIG_PATH is the production default
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// One daemon per state store
	if err := os.MkdirAll(filepath.Dir(cfg.Pipeline.LockFile), 0o755); err != nil {
		appLogger.WithError(err).Fatal("Failed to create lock directory")
	}
	lock := flock.New(cfg.Pipeline.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to acquire daemon lock")
	}
	if !locked {
		appLogger.WithField("lock_file", cfg.Pipeline.LockFile).Fatal("Another ghostd is already running")
	}
	defer lock.Unlock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to get database handle")
	}
	defer sqlDB.Close()

	items := repository.NewItemRepository(db)
	recRepo := repository.NewRecommendationRepository(db)

	// Generation is optional; without it the enricher falls back to templates
	var (
		text   pipeline.TextGenerator
		images pipeline.ImageGenerator
	)
	generator, err := service.NewGenerator(ctx, &cfg.Generation)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize generator")
	}
	if generator != nil {
		defer generator.Close()
		text = generator
		if ig, ok := generator.(pipeline.ImageGenerator); ok {
			images = ig
		}
		appLogger.WithFields(logger.Fields{
			"provider": cfg.Generation.Provider,
			"model":    cfg.Generation.Model,
			"images":   images != nil,
		}).Info("Generation enabled")
	}

	var imageStore pipeline.ImageStore
	if cfg.Storage.Enabled() {
		objectStorage, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
		imageStore = objectStorage
	}

	publisher, err := service.NewShopifyClient(&cfg.Commerce)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize commerce client")
	}

	notifier := service.NewEmailNotifier(&cfg.Notify)
	var itemNotifier pipeline.Notifier
	if notifier.IsEnabled() {
		itemNotifier = notifier
	}

	content, err := pipeline.NewContentValidator()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load content schema")
	}
	enricher := pipeline.NewEnricher(text, images, imageStore, content, pipeline.EnricherConfig{
		PlaceholderImageURL: cfg.Pipeline.PlaceholderImageURL,
		ImagePrefix:         cfg.Storage.Prefix,
	})
	executor := pipeline.NewExecutor(items, enricher, publisher, itemNotifier, pipeline.ExecutorConfig{
		Vendor: cfg.Commerce.Vendor,
	})
	queue := pipeline.NewWorkQueue(executor, pipeline.NewThrottle(cfg.Pipeline.PublishDelay))

	feed := changefeed.NewSubscriber(items, changefeed.Config{
		PollInterval:  cfg.Feed.PollInterval,
		RetryInterval: cfg.Feed.RetryInterval,
		PageSize:      cfg.Feed.PageSize,
	})
	gate := curation.NewGate(items, curation.PolicyFromConfig(cfg.Curation))
	sweeper := pipeline.NewSweeper(items, pipeline.SweepPolicy{
		StaleAfter: cfg.Pipeline.StaleAfter,
		Action:     cfg.Pipeline.StaleAction,
	})

	recommendations := service.NewRecommendationService(recRepo, notifier, service.RecommendationConfig{
		MarketingList: cfg.Notify.MarketingList,
		Operator:      cfg.Notify.To,
	})

	sources, err := producer.Sources(cfg.Producer)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load draft sources")
	}

	router := api.SetupRouter(cfg.Server, api.Deps{
		Ping:            func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
		Items:           items,
		Counter:         items,
		Operator:        pipeline.NewOperator(items),
		Gate:            gate,
		Recommendations: recommendations,
		Queue:           queue,
		Producer:        producer.NewService(gate, items, cfg.Producer.BatchSize),
		Sources:         sources,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pipeline.NewService(feed, queue).Run(gctx)
	})
	g.Go(func() error {
		return pipeline.NewDraftPromoter(items, gate).Run(gctx, feed)
	})
	if cfg.QA.AutoApprove {
		g.Go(func() error {
			return pipeline.NewQAReviewer(items).Run(gctx, feed)
		})
	}
	if sweeper.Enabled() {
		g.Go(func() error {
			return sweeper.Run(gctx, cfg.Pipeline.SweepInterval)
		})
	}
	g.Go(func() error {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.WithError(err).Error("ghostd stopped with error")
		lock.Unlock()
		os.Exit(1)
	}
	appLogger.Info("ghostd exited")
}
