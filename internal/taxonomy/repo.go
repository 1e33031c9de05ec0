// Package taxonomy resolves classification codes (occupations, regions,
// municipalities) to their human-readable labels.
package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jobdex/adsearch/internal/domain/query"
	"github.com/jobdex/adsearch/internal/index"
)

// Labeler resolves a code within a taxonomy dimension to its preferred
// label. An empty label with a nil error means the code is unknown.
type Labeler interface {
	Label(ctx context.Context, dimension, code string) (string, error)
}

// searcher is the slice of the index client the repo needs.
type searcher interface {
	Search(ctx context.Context, index string, q *query.Query) (*index.Result, error)
}

// Repo looks up taxonomy labels in the taxonomy index.
type Repo struct {
	src   searcher
	index string
}

// NewRepo creates a taxonomy repo reading from the given index.
func NewRepo(src searcher, indexName string) *Repo {
	return &Repo{src: src, index: indexName}
}

// Label fetches the preferred label for a code. Unknown codes yield an
// empty label so callers can fall back to the raw code.
func (r *Repo) Label(ctx context.Context, dimension, code string) (string, error) {
	q := &query.Query{
		Root: query.Bool{Filter: []query.Clause{
			query.Term{Field: "type", Value: dimension},
			query.Term{Field: "code", Value: code},
		}},
		Size: 1,
	}
	res, err := r.src.Search(ctx, r.index, q)
	if err != nil {
		return "", fmt.Errorf("lookup taxonomy label: %w", err)
	}
	if len(res.Hits) == 0 {
		return "", nil
	}
	var doc struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal(res.Hits[0].Source, &doc); err != nil {
		return "", fmt.Errorf("decode taxonomy document: %w", err)
	}
	return doc.Label, nil
}
