package ontology

import (
	"strings"

	"github.com/jobdex/adsearch/internal/domain/concept"
)

// matcherProvider yields the current matcher; satisfied by *Store so the
// extractor always sees the latest vocabulary after a refresh.
type matcherProvider interface {
	Matcher() *Matcher
}

// Extractor annotates free text with detected occupations, skills and
// traits. A thin orchestration over Matcher.Scan: one scan without spans,
// grouped by concept type and deduplicated by concept preferred label, so
// "dev" and "developer" hitting the same concept collapse to one entry.
type Extractor struct {
	matchers matcherProvider
}

// NewExtractor creates an extractor reading matchers from the given store.
func NewExtractor(matchers matcherProvider) *Extractor {
	return &Extractor{matchers: matchers}
}

// Extract scans text and groups detected concepts by type.
func (e *Extractor) Extract(text string) concept.Extracted {
	matches := e.matchers.Matcher().Scan(text, "", false)

	seen := make(map[concept.Type]map[string]struct{})
	var out concept.Extracted
	for _, m := range matches {
		key := strings.ToLower(m.Term.Concept)
		byLabel, ok := seen[m.Term.Type]
		if !ok {
			byLabel = make(map[string]struct{})
			seen[m.Term.Type] = byLabel
		}
		if _, dup := byLabel[key]; dup {
			continue
		}
		byLabel[key] = struct{}{}

		switch m.Term.Type {
		case concept.TypeOccupation:
			out.Occupations = append(out.Occupations, m.Term.Concept)
		case concept.TypeSkill:
			out.Skills = append(out.Skills, m.Term.Concept)
		case concept.TypeTrait:
			out.Traits = append(out.Traits, m.Term.Concept)
		}
	}
	out.SortAll()
	return out
}
