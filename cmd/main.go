package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketpulse/internal/adapters/clickhouse"
	"marketpulse/internal/adapters/config"
	"marketpulse/internal/adapters/errors/noop"
	"marketpulse/internal/adapters/errors/sentry"
	"marketpulse/internal/adapters/kafka"
	"marketpulse/internal/adapters/postgres"
	"marketpulse/internal/adapters/redis"
	"marketpulse/internal/api"
	apihealth "marketpulse/internal/api/health"
	"marketpulse/internal/events"
	"marketpulse/internal/metrics"
	chrepo "marketpulse/internal/repository/clickhouse"
	pgrepo "marketpulse/internal/repository/postgres"
	"marketpulse/internal/sentiment"
	"marketpulse/internal/sentiment/lexicon"
	"marketpulse/internal/sentiment/openai"
	"marketpulse/internal/services/analysis"
	"marketpulse/internal/services/pipeline"
	"marketpulse/internal/services/risk"
	"marketpulse/internal/services/scan"
	"marketpulse/internal/workers"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	db := initDatabases(cfg, log)
	defer db.Close(log)

	producer := initKafka(cfg, log)
	if producer != nil {
		defer producer.Close()
	}

	// Repositories
	store := chrepo.NewAssetStore(db.ClickHouse.Conn())
	reports := pgrepo.NewRunReportRepository(db.Postgres.DB())
	if err := reports.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure postgres schema: %v", err)
	}

	// Services
	var publisher *events.Publisher
	if producer != nil {
		publisher = events.NewPublisher(producer)
	}

	pipelineSvc := pipeline.NewService(pipeline.Deps{
		Store:   store,
		Scorer:  initScorer(cfg, log),
		Reports: reports,
		Locker:  db.Redis,
		Events:  publisher,
	}, cfg.Pipeline)

	asOf, err := cfg.Pipeline.AsOfDate()
	if err != nil {
		log.Fatalf("Bad configuration: %v", err)
	}

	handlers := api.NewHandlers(api.HandlerDeps{
		Store:    store,
		Risk:     risk.NewEngine(cfg.Risk),
		Scanner:  scan.NewScanner(store, publisher),
		Analysis: analysis.NewService(store),
		Pipeline: pipelineSvc,
		Reports:  reports,
		AsOf:     asOf,
	})

	healthHandler := apihealth.New(log, map[string]apihealth.CheckFunc{
		"postgres":   db.Postgres.Health,
		"clickhouse": db.ClickHouse.Health,
		"redis":      db.Redis.Health,
	}, cfg.App.Name, cfg.App.Version)

	server := api.NewServer(api.ServerConfig{
		Port:        cfg.HTTP.Port,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		RateLimit:   cfg.HTTP.RateLimit,
		RateBurst:   cfg.HTTP.RateBurst,
	}, handlers, healthHandler, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewPipelineRefreshWorker(
		pipelineSvc,
		cfg.Workers.PipelineRefreshInterval,
		cfg.Workers.PipelineRefreshEnabled,
	))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, server, scheduler, errorTracker, log)
}

// Databases bundles the storage connections.
type Databases struct {
	Postgres   *postgres.Client
	ClickHouse *clickhouse.Client
	Redis      *redis.Client
}

// Close closes all connections in reverse dependency order.
func (d *Databases) Close(log *logger.Logger) {
	for name, closer := range map[string]func() error{
		"redis":      d.Redis.Close,
		"clickhouse": d.ClickHouse.Close,
		"postgres":   d.Postgres.Close,
	} {
		if err := closer(); err != nil {
			log.Warnf("Failed to close %s: %v", name, err)
		}
	}
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initDatabases connects PostgreSQL, ClickHouse and Redis
func initDatabases(cfg *config.Config, log *logger.Logger) *Databases {
	log.Info("Initializing databases...")

	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	chClient, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	log.Info("Databases initialized")
	return &Databases{
		Postgres:   pgClient,
		ClickHouse: chClient,
		Redis:      redisClient,
	}
}

// initKafka creates the event producer when brokers are configured
func initKafka(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) == 0 {
		log.Info("Kafka event publishing disabled")
		return nil
	}

	log.Infof("Kafka producer configured with brokers %v", cfg.Kafka.Brokers)
	return kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
}

// initScorer selects the sentiment scorer implementation
func initScorer(cfg *config.Config, log *logger.Logger) sentiment.Scorer {
	switch cfg.Sentiment.Provider {
	case "openai":
		scorer, err := openai.New(cfg.Sentiment.OpenAIKey, cfg.Sentiment.Model)
		if err != nil {
			log.Warnf("Failed to initialize OpenAI scorer, falling back to lexicon: %v", err)
			return lexicon.New()
		}
		log.Infof("Using OpenAI sentiment scorer (%s)", cfg.Sentiment.Model)
		return scorer
	default:
		log.Info("Using lexicon sentiment scorer")
		return lexicon.New()
	}
}

// waitForShutdown waits for a signal and performs graceful shutdown
func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	server *api.Server,
	scheduler *workers.Scheduler,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP shutdown: %v", err)
	}
	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown: %v", err)
	}

	cancel()

	if errorTracker != nil {
		if err := errorTracker.Flush(shutdownCtx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
