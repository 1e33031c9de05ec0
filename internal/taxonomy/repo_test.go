package taxonomy

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jobdex/adsearch/internal/domain/query"
	"github.com/jobdex/adsearch/internal/index"
)

type mockSearcher struct {
	result *index.Result
	lastQ  *query.Query
}

func (m *mockSearcher) Search(_ context.Context, _ string, q *query.Query) (*index.Result, error) {
	m.lastQ = q
	return m.result, nil
}

func TestRepoLabel(t *testing.T) {
	src := &mockSearcher{result: &index.Result{Hits: []index.Hit{
		{ID: "1", Source: json.RawMessage(`{"type":"occupation","code":"2512","label":"Mjukvaruutvecklare"}`)},
	}}}
	repo := NewRepo(src, "taxonomy")

	label, err := repo.Label(context.Background(), "occupation", "2512")
	if err != nil {
		t.Fatal(err)
	}
	if label != "Mjukvaruutvecklare" {
		t.Errorf("label = %q", label)
	}
	if src.lastQ.Size != 1 {
		t.Errorf("lookup must request a single document, got size %d", src.lastQ.Size)
	}
	b, ok := src.lastQ.Root.(query.Bool)
	if !ok || len(b.Filter) != 2 {
		t.Errorf("lookup query = %+v", src.lastQ.Root)
	}
}

func TestRepoLabel_UnknownCode(t *testing.T) {
	src := &mockSearcher{result: &index.Result{}}
	repo := NewRepo(src, "taxonomy")

	label, err := repo.Label(context.Background(), "region", "zz")
	if err != nil || label != "" {
		t.Errorf("label = %q, err = %v", label, err)
	}
}
