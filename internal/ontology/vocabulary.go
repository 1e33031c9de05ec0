// Package ontology implements the concept vocabulary: loading term
// definitions from the document index, the multi-pattern keyword matcher
// built from them, and the concept extractor on top.
package ontology

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/domain"
	"github.com/jobdex/adsearch/internal/domain/concept"
	"github.com/jobdex/adsearch/internal/domain/query"
)

const loadPageSize = 1000

// Vocabulary is an immutable set of concept terms plus a derived mapping
// from lowercased concept preferred label to its terms. Built once per
// process (or per refresh) and read-only thereafter.
type Vocabulary struct {
	terms     []concept.Term
	byConcept map[string][]concept.Term
}

// NewVocabulary builds a vocabulary from already-filtered terms.
func NewVocabulary(terms []concept.Term) *Vocabulary {
	v := &Vocabulary{
		terms:     terms,
		byConcept: make(map[string][]concept.Term),
	}
	for _, t := range terms {
		label := strings.ToLower(t.Concept)
		v.byConcept[label] = append(v.byConcept[label], t)
	}
	return v
}

// Terms returns all terms in load order.
func (v *Vocabulary) Terms() []concept.Term { return v.terms }

// TermsFor returns the terms sharing the given concept preferred label
// (case-insensitive).
func (v *Vocabulary) TermsFor(label string) []concept.Term {
	return v.byConcept[strings.ToLower(label)]
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int { return len(v.terms) }

// LoadOptions filters terms while loading, before matcher insertion, so
// unwanted terms never cost trie construction or shadow shorter matches.
type LoadOptions struct {
	Stoplist          []string
	ConceptType       concept.Type // empty keeps all types
	IncludeMisspelled bool
}

// termScanner is the slice of the index client the loader needs.
type termScanner interface {
	Scan(ctx context.Context, index string, q *query.Query, pageSize int, fn func(json.RawMessage) error) error
}

// Load scans all term documents from the vocabulary index and builds a
// Vocabulary. Returns domain.ErrSourceUnavailable when the index cannot be
// reached and domain.ErrSourceEmpty (with a usable empty vocabulary) when
// no term passes the filters.
func Load(ctx context.Context, src termScanner, index string, opts LoadOptions, logger *zap.Logger) (*Vocabulary, error) {
	stop := make(map[string]struct{}, len(opts.Stoplist))
	for _, s := range opts.Stoplist {
		stop[strings.ToLower(s)] = struct{}{}
	}

	var terms []concept.Term
	q := &query.Query{Root: query.MatchAll{}}
	err := src.Scan(ctx, index, q, loadPageSize, func(raw json.RawMessage) error {
		var t concept.Term
		if err := json.Unmarshal(raw, &t); err != nil {
			logger.Warn("skipping malformed vocabulary document", zap.Error(err))
			return nil
		}
		if !keepTerm(t, stop, opts) {
			return nil
		}
		terms = append(terms, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	v := NewVocabulary(terms)
	if v.Len() == 0 {
		return v, domain.ErrSourceEmpty
	}
	logger.Info("vocabulary loaded", zap.Int("terms", v.Len()), zap.Int("concepts", len(v.byConcept)))
	return v, nil
}

func keepTerm(t concept.Term, stop map[string]struct{}, opts LoadOptions) bool {
	if t.Term == "" || t.Concept == "" {
		return false
	}
	if _, stopped := stop[strings.ToLower(t.Term)]; stopped {
		return false
	}
	if opts.ConceptType != "" && t.Type != opts.ConceptType {
		return false
	}
	if t.Misspelled && !opts.IncludeMisspelled {
		return false
	}
	return true
}
