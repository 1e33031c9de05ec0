// Package enricher consumes raw job ads from Kafka, annotates them with
// detected concepts and writes the enriched documents to the ad index.
package enricher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jobdex/adsearch/internal/domain"
	"github.com/jobdex/adsearch/internal/domain/concept"
)

// extractor annotates free text with detected concepts.
type extractor interface {
	Extract(text string) concept.Extracted
}

// indexer is the slice of the index client the enricher needs (ISP).
type indexer interface {
	Index(ctx context.Context, index, id string, doc interface{}) error
}

// Config holds the Kafka consumer settings.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
	Workers int
}

// messageSource is the slice of kafka.Reader a consume loop needs.
type messageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Enricher is the ingestion side-car: fetch, extract, index, commit.
type Enricher struct {
	newReader func() *kafka.Reader
	extract   extractor
	idx       indexer
	indexName string
	workers   int
	logger    *zap.Logger
}

// New creates an enricher consuming from the configured topic.
func New(cfg Config, extract extractor, idx indexer, indexName string, logger *zap.Logger) *Enricher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Enricher{
		newReader: func() *kafka.Reader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:     cfg.Brokers,
				Topic:       cfg.Topic,
				GroupID:     cfg.GroupID,
				MinBytes:    1e3,
				MaxBytes:    10e6,
				StartOffset: kafka.LastOffset,
			})
		},
		extract:   extract,
		idx:       idx,
		indexName: indexName,
		workers:   workers,
		logger:    logger,
	}
}

// Run consumes until ctx is cancelled. Each worker owns its own
// consumer-group reader, so the group balances partitions across workers and
// a commit never advances past another worker's in-flight message. Malformed
// messages are logged and committed so they never wedge the partition; index
// failures leave the message uncommitted for redelivery.
func (e *Enricher) Run(ctx context.Context) error {
	e.logger.Info("enricher started", zap.Int("workers", e.workers))
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			r := e.newReader()
			defer func() {
				if err := r.Close(); err != nil {
					e.logger.Warn("closing kafka reader", zap.Error(err))
				}
			}()
			return e.consumeLoop(ctx, r)
		})
	}
	err := g.Wait()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (e *Enricher) consumeLoop(ctx context.Context, src messageSource) error {
	for {
		msg, err := src.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			e.logger.Error("failed to fetch message", zap.Error(err))
			continue
		}

		if err := e.handle(ctx, msg.Value); err != nil {
			e.logger.Error("failed to enrich ad",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}

		if err := src.CommitMessages(ctx, msg); err != nil {
			e.logger.Error("failed to commit message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}

// handle enriches one raw ad and indexes it.
func (e *Enricher) handle(ctx context.Context, value []byte) error {
	var ad domain.Ad
	if err := json.Unmarshal(value, &ad); err != nil {
		e.logger.Warn("skipping malformed ad message", zap.Error(err))
		return nil
	}
	if ad.ID == "" {
		e.logger.Warn("skipping ad without id")
		return nil
	}

	concepts := e.extract.Extract(ad.Header + "\n" + ad.Content.Text)
	ad.Occupations = concepts.Occupations
	ad.Skills = concepts.Skills
	ad.Traits = concepts.Traits

	if err := e.idx.Index(ctx, e.indexName, ad.ID, ad); err != nil {
		return fmt.Errorf("index enriched ad %s: %w", ad.ID, err)
	}
	e.logger.Debug("ad enriched",
		zap.String("id", ad.ID),
		zap.Int("occupations", len(ad.Occupations)),
		zap.Int("skills", len(ad.Skills)),
		zap.Int("traits", len(ad.Traits)))
	return nil
}
