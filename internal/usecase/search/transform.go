package search

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/domain"
	"github.com/jobdex/adsearch/internal/index"
)

// Response is the API search result.
type Response struct {
	Total     int64       `json:"total"`
	Positions int64       `json:"positions"`
	TookMs    int64       `json:"took_ms"`
	Hits      []domain.Ad `json:"hits"`
	Stats     []Stat      `json:"stats,omitempty"`
}

// Stat is the bucket list for one requested statistic dimension.
type Stat struct {
	Type   string      `json:"type"`
	Values []StatValue `json:"values"`
}

// StatValue is one aggregation bucket with its resolved label.
type StatValue struct {
	Term  string `json:"term"`
	Code  string `json:"code"`
	Count int64  `json:"count"`
}

// transform shapes a raw index result into the API response. Per-item
// failures (a malformed hit, a failed label lookup) are logged and skipped;
// they never abort the response.
func (s *Service) transform(ctx context.Context, p Params, res *index.Result) *Response {
	out := &Response{
		Total:  res.Total,
		TookMs: res.TookMs,
		Hits:   make([]domain.Ad, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		var ad domain.Ad
		if err := json.Unmarshal(hit.Source, &ad); err != nil {
			s.logger.Warn("skipping malformed hit", zap.String("id", hit.ID), zap.Error(err))
			continue
		}
		if ad.ID == "" {
			ad.ID = hit.ID
		}
		ad.Content.Text = truncate(ad.Content.Text, truncateWordBudget)
		ad.Content.Markup = truncate(ad.Content.Markup, truncateWordBudget)
		out.Hits = append(out.Hits, ad)
	}

	if positions, ok := res.Aggregations["positions"]; ok {
		out.Positions = int64(positions.Value)
	}

	for _, stat := range p.Stats {
		agg, ok := res.Aggregations[stat]
		if !ok {
			continue
		}
		values := make([]StatValue, 0, len(agg.Buckets))
		for _, b := range agg.Buckets {
			values = append(values, StatValue{
				Term:  s.resolveLabel(ctx, stat, b.Key),
				Code:  b.Key,
				Count: b.Count,
			})
		}
		out.Stats = append(out.Stats, Stat{Type: stat, Values: filterStatsByFreeText(values, p.Query)})
	}
	return out
}

// resolveLabel looks up the human label for a bucket code, falling back to
// the code itself when the lookup fails or the code is unknown.
func (s *Service) resolveLabel(ctx context.Context, dimension, code string) string {
	label, err := s.labels.Label(ctx, dimension, code)
	if err != nil {
		s.logger.Warn("label lookup failed",
			zap.String("dimension", dimension),
			zap.String("code", code),
			zap.Error(err))
		return code
	}
	if label == "" {
		return code
	}
	return label
}

// filterStatsByFreeText keeps aggregation entries related to the free-text
// query: an entry survives when any query token occurs in its resolved term
// or its code. Without free text all entries pass; when filtering would
// leave nothing, the unfiltered list is returned so statistics stay
// best-effort.
func filterStatsByFreeText(values []StatValue, freeText string) []StatValue {
	tokens := strings.Fields(strings.ToLower(freeText))
	if len(tokens) == 0 {
		return values
	}
	kept := make([]StatValue, 0, len(values))
	for _, v := range values {
		term := strings.ToLower(v.Term)
		code := strings.ToLower(v.Code)
		for _, tok := range tokens {
			if strings.Contains(term, tok) || strings.Contains(code, tok) {
				kept = append(kept, v)
				break
			}
		}
	}
	if len(kept) == 0 {
		return values
	}
	return kept
}
