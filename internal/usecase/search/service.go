package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/domain"
	"github.com/jobdex/adsearch/internal/domain/query"
	"github.com/jobdex/adsearch/internal/index"
	"github.com/jobdex/adsearch/internal/ontology"
	"github.com/jobdex/adsearch/internal/taxonomy"
)

// searcher is the slice of the index client the service needs (ISP).
type searcher interface {
	Search(ctx context.Context, index string, q *query.Query) (*index.Result, error)
}

// suggester yields the current keyword matcher for typeahead.
type suggester interface {
	Matcher() *ontology.Matcher
}

// Service executes ad searches: validate, build, run, shape.
type Service struct {
	idx            searcher
	indexName      string
	matchers       suggester
	labels         taxonomy.Labeler
	typeaheadLimit int
	now            func() time.Time
	logger         *zap.Logger
}

// New creates the search service.
func New(
	idx searcher,
	indexName string,
	matchers suggester,
	labels taxonomy.Labeler,
	typeaheadLimit int,
	logger *zap.Logger,
) *Service {
	return &Service{
		idx:            idx,
		indexName:      indexName,
		matchers:       matchers,
		labels:         labels,
		typeaheadLimit: typeaheadLimit,
		now:            time.Now,
		logger:         logger,
	}
}

// Search validates params, runs the structured query and shapes the
// response. Validation failures never reach the index.
func (s *Service) Search(ctx context.Context, p Params) (*Response, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	q := buildQuery(p, s.now(), s.logger)
	res, err := s.idx.Search(ctx, s.indexName, q)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	if res.TimedOut {
		s.logger.Warn("search completed with partial shards", zap.Int64("took_ms", res.TookMs))
	}
	return s.transform(ctx, p, res), nil
}

// Typeahead completes the last token of q against the vocabulary, returning
// up to the configured number of concept terms.
func (s *Service) Typeahead(_ context.Context, q string) ([]string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, domain.NewValidationError("q", "must not be empty")
	}
	tokens := strings.Fields(q)
	prefix := tokens[len(tokens)-1]
	return s.matchers.Matcher().Suggest(prefix, s.typeaheadLimit), nil
}
