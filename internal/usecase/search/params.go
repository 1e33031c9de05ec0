// Package search implements the ad search usecase: parameter validation,
// structured query construction, execution and response shaping.
package search

import (
	"github.com/jobdex/adsearch/internal/domain"
)

const (
	// MaxLimit caps the page size a client may request.
	MaxLimit = 100
	// DefaultLimit applies when no limit is given.
	DefaultLimit = 10
	// MaxResultWindow bounds offset+limit to what the index will page over.
	MaxResultWindow = 2000
)

// statFields maps a statistic dimension to the index field its terms
// aggregation runs over.
var statFields = map[string]string{
	"occupation":   "occupations.conceptCode",
	"skill":        "skills.conceptCode",
	"trait":        "traits.conceptCode",
	"region":       "workplace.regionCode",
	"municipality": "workplace.municipalityCode",
}

// sortOrders maps the sort parameter to index sort keys. The zero entry
// (relevance) sorts by score, which is the index default.
var sortOrders = map[string]sortOrder{
	"relevance":    {},
	"pubdate-desc": {field: domain.FieldPublished, ascending: false},
	"pubdate-asc":  {field: domain.FieldPublished, ascending: true},
	"updated":      {field: domain.FieldUpdated, ascending: false},
}

type sortOrder struct {
	field     string
	ascending bool
}

// Params is the parsed search input. Immutable per request.
type Params struct {
	Query          string
	Day            string
	Occupations    []string
	Regions        []string
	Municipalities []string
	Employer       string
	Remote         *bool
	Offset         int
	Limit          int
	Sort           string
	Stats          []string
}

// Validate checks bounds and enumerations, applying defaults in place.
// Violations are reported as domain validation errors naming the parameter.
func (p *Params) Validate() error {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit < 0 || p.Limit > MaxLimit {
		return domain.NewValidationError("limit", "must be between 1 and 100")
	}
	if p.Offset < 0 {
		return domain.NewValidationError("offset", "must not be negative")
	}
	if p.Offset+p.Limit > MaxResultWindow {
		return domain.NewValidationError("offset", "paging window exceeded")
	}
	if p.Day != "" {
		if err := domain.ValidateDay(p.Day); err != nil {
			return err
		}
	}
	if p.Sort == "" {
		p.Sort = "relevance"
	}
	if _, ok := sortOrders[p.Sort]; !ok {
		return domain.NewValidationError("sort", "unsupported sort order")
	}
	for _, s := range p.Stats {
		if _, ok := statFields[s]; !ok {
			return domain.NewValidationError("stats", "unsupported statistic dimension")
		}
	}
	return nil
}
