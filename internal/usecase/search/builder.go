package search

import (
	"time"

	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/domain"
	"github.com/jobdex/adsearch/internal/domain/query"
)

const (
	// statsBucketSize is how many buckets each statistic aggregation may
	// return; taxonomy dimensions are small enough that this is effectively
	// unbounded.
	statsBucketSize = 5000

	// nowRef is the default publication-window reference: the current
	// minute, so the index can cache the filter across requests.
	nowRef = "now/m"
)

// freeTextFields are the fields a free-text query matches against.
var freeTextFields = []string{"header", "content.text", "employer.name", "keywords"}

// buildQuery turns validated parameters into the structured index query.
// Relevance-affecting conditions go into must, eligibility conditions into
// filter; the split keeps scoring clean and lets the index cache filters.
func buildQuery(p Params, now time.Time, logger *zap.Logger) *query.Query {
	var must []query.Clause
	if p.Query != "" {
		must = append(must, query.FreeText{Query: p.Query, Fields: freeTextFields})
	} else {
		must = append(must, query.MatchAll{})
	}

	filter := publicationWindow(p.Day, now)
	if len(p.Occupations) > 0 {
		filter = append(filter, query.Terms{Field: statFields["occupation"], Values: p.Occupations})
	}
	if len(p.Regions) > 0 {
		filter = append(filter, query.Terms{Field: statFields["region"], Values: p.Regions})
	}
	if len(p.Municipalities) > 0 {
		filter = append(filter, query.Terms{Field: statFields["municipality"], Values: p.Municipalities})
	}
	if p.Employer != "" {
		filter = append(filter, query.Term{Field: "employer.name", Value: p.Employer})
	}
	if p.Remote != nil {
		value := "false"
		if *p.Remote {
			value = "true"
		}
		filter = append(filter, query.Term{Field: "remote", Value: value})
	}

	q := &query.Query{
		Root: query.Bool{Must: must, Filter: filter},
		From: p.Offset,
		Size: p.Limit,
	}

	q.Aggregations = append(q.Aggregations, query.Aggregation{
		Name:     "positions",
		SumField: domain.FieldPositions,
	})
	for _, stat := range p.Stats {
		field, ok := statFields[stat]
		if !ok {
			// Statistics are best-effort; an unmapped dimension never
			// fails the search.
			logger.Warn("no field mapping for statistic dimension", zap.String("stat", stat))
			continue
		}
		q.Aggregations = append(q.Aggregations, query.Aggregation{
			Name:  stat,
			Field: field,
			Size:  statsBucketSize,
		})
	}

	if order := sortOrders[p.Sort]; order.field != "" {
		q.Sort = append(q.Sort, query.Sort{Field: order.field, Ascending: order.ascending})
	}
	return q
}

// publicationWindow returns the eligibility filter for the requested day.
// A document is eligible when it was published at or before the reference
// time and stays published at or after it. Day "all" drops the window
// entirely; a concrete day pins both bounds to that date.
func publicationWindow(day string, now time.Time) []query.Clause {
	if day == domain.DayAll {
		return nil
	}
	ref := nowRef
	if day != "" {
		ref = domain.ResolveDay(day, now)
	}
	return []query.Clause{
		query.Range{Field: domain.FieldPublished, LTE: ref},
		query.Range{Field: domain.FieldLastPublished, GTE: ref},
	}
}
