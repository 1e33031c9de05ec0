// Package bulk implements the day-scoped bulk export: every matching ad
// for a day, streamed from the index and packaged as one JSON array inside
// an in-memory zip archive.
package bulk

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/domain"
	"github.com/jobdex/adsearch/internal/domain/query"
)

const (
	scanPageSize = 500

	// nowRef pins the publication window to the current minute, same
	// reference the search path uses.
	nowRef = "now/m"
)

// scanner is the slice of the index client the exporter needs (ISP).
type scanner interface {
	Scan(ctx context.Context, index string, q *query.Query, pageSize int, fn func(json.RawMessage) error) error
}

// Metrics counts exports; any field may be nil.
type Metrics struct {
	ExportedAds func(n int)
}

// Service exports ads for a day as a zip archive.
type Service struct {
	idx       scanner
	indexName string
	now       func() time.Time
	metrics   Metrics
	logger    *zap.Logger
}

// New creates the export service.
func New(idx scanner, indexName string, metrics Metrics, logger *zap.Logger) *Service {
	return &Service{
		idx:       idx,
		indexName: indexName,
		now:       time.Now,
		metrics:   metrics,
		logger:    logger,
	}
}

// Export validates day, scans every matching ad and returns the finished
// archive. The day is validated before any index call; zero matching ads
// yield an archive holding an empty JSON array.
func (s *Service) Export(ctx context.Context, day string) ([]byte, string, error) {
	if err := domain.ValidateDay(day); err != nil {
		return nil, "", err
	}
	resolved := domain.ResolveDay(day, s.now())

	var ads []json.RawMessage
	err := s.idx.Scan(ctx, s.indexName, exportQuery(resolved), scanPageSize, func(raw json.RawMessage) error {
		if !json.Valid(raw) {
			s.logger.Warn("skipping malformed export document")
			return nil
		}
		ads = append(ads, raw)
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("scan ads for export: %w", err)
	}

	entry := fmt.Sprintf("ads_%s.json", resolved)
	archive, err := buildArchive(entry, ads)
	if err != nil {
		return nil, "", fmt.Errorf("build archive: %w", err)
	}
	if s.metrics.ExportedAds != nil {
		s.metrics.ExportedAds(len(ads))
	}
	s.logger.Info("bulk export complete", zap.String("day", resolved), zap.Int("ads", len(ads)))
	return archive, entry, nil
}

// exportQuery scopes the scan to ads updated on the requested day while
// keeping the publication-window eligibility filter. The window is always
// referenced to the current minute, so an export only ever contains ads a
// searcher could see right now; day "all" scans every currently eligible ad.
func exportQuery(resolved string) *query.Query {
	var must query.Clause = query.MatchAll{}
	if resolved != domain.DayAll {
		must = query.Range{Field: domain.FieldUpdated, GTE: resolved, LTE: resolved}
	}
	return &query.Query{
		Root: query.Bool{
			Must: []query.Clause{must},
			Filter: []query.Clause{
				query.Range{Field: domain.FieldPublished, LTE: nowRef},
				query.Range{Field: domain.FieldLastPublished, GTE: nowRef},
			},
		},
	}
}

// buildArchive writes the ads as one JSON array into a single-entry zip.
func buildArchive(entry string, ads []json.RawMessage) ([]byte, error) {
	if ads == nil {
		ads = []json.RawMessage{}
	}
	payload, err := json.Marshal(ads)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(entry)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
