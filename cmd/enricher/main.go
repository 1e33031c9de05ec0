package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/config"
	"github.com/jobdex/adsearch/internal/domain/concept"
	"github.com/jobdex/adsearch/internal/enricher"
	"github.com/jobdex/adsearch/internal/index"
	logpkg "github.com/jobdex/adsearch/internal/logger"
	"github.com/jobdex/adsearch/internal/metrics"
	"github.com/jobdex/adsearch/internal/ontology"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting adsearch enricher",
		zap.String("env", env),
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
	)

	idx, err := index.New(index.Options{
		URL:        cfg.Index.URL,
		Username:   cfg.Index.Username,
		Password:   cfg.Index.Password,
		Timeout:    time.Duration(cfg.Index.TimeoutSec) * time.Second,
		MaxRetries: cfg.Index.MaxRetries,
	}, logger, metrics.IndexObserver{})
	if err != nil {
		logger.Fatal("Failed to create index client", zap.Error(err))
	}

	stoplist, err := config.LoadStoplist(cfg.Ontology.StoplistPath)
	if err != nil {
		logger.Fatal("Failed to load stoplist", zap.Error(err))
	}

	store := ontology.NewStore(idx, cfg.Index.OntologyIndex, ontology.LoadOptions{
		Stoplist:          stoplist,
		ConceptType:       concept.Type(cfg.Ontology.ConceptType),
		IncludeMisspelled: cfg.Ontology.IncludeMisspelled,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.Refresh(ctx); err != nil {
		logger.Fatal("Failed to load vocabulary", zap.Error(err))
	}
	if cfg.Ontology.RefreshIntervalMin > 0 {
		store.StartRefresher(ctx, time.Duration(cfg.Ontology.RefreshIntervalMin)*time.Minute)
	}

	e := enricher.New(enricher.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
		Workers: cfg.Kafka.Workers,
	}, ontology.NewExtractor(store), idx, cfg.Index.AdIndex, logger)

	if err := e.Run(ctx); err != nil {
		logger.Fatal("Enricher failed", zap.Error(err))
	}
	logger.Info("Enricher stopped gracefully")
}
