package ontology

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/domain"
	"github.com/jobdex/adsearch/internal/domain/concept"
	"github.com/jobdex/adsearch/internal/domain/query"
)

// --- Mocks ---

type mockScanner struct {
	docs    []string
	err     error
	scanned bool
}

func (m *mockScanner) Scan(_ context.Context, _ string, _ *query.Query, _ int, fn func(json.RawMessage) error) error {
	m.scanned = true
	if m.err != nil {
		return m.err
	}
	for _, d := range m.docs {
		if err := fn(json.RawMessage(d)); err != nil {
			return err
		}
	}
	return nil
}

// --- Tests ---

func TestLoad_AppliesFilters(t *testing.T) {
	src := &mockScanner{docs: []string{
		`{"term":"java","concept":"java","type":"skill"}`,
		`{"term":"jaba","concept":"java","type":"skill","misspelled":true}`,
		`{"term":"och","concept":"och","type":"skill"}`,
		`{"term":"lärare","concept":"lärare","type":"occupation"}`,
		`{"term":"","concept":"java","type":"skill"}`,
		`not even json`,
	}}

	v, err := Load(context.Background(), src, "ontology", LoadOptions{
		Stoplist: []string{"OCH"},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Len() != 2 {
		t.Fatalf("expected 2 terms, got %d: %+v", v.Len(), v.Terms())
	}
	if got := v.TermsFor("Java"); len(got) != 1 || got[0].Term != "java" {
		t.Errorf("TermsFor(Java) = %+v", got)
	}
}

func TestLoad_ConceptTypeFilter(t *testing.T) {
	src := &mockScanner{docs: []string{
		`{"term":"java","concept":"java","type":"skill"}`,
		`{"term":"lärare","concept":"lärare","type":"occupation"}`,
	}}

	v, err := Load(context.Background(), src, "ontology", LoadOptions{
		ConceptType: concept.TypeOccupation,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Len() != 1 || v.Terms()[0].Type != concept.TypeOccupation {
		t.Errorf("unexpected terms: %+v", v.Terms())
	}
}

func TestLoad_IncludeMisspelled(t *testing.T) {
	src := &mockScanner{docs: []string{
		`{"term":"jaba","concept":"java","type":"skill","misspelled":true}`,
	}}

	v, err := Load(context.Background(), src, "ontology", LoadOptions{IncludeMisspelled: true}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Len() != 1 {
		t.Errorf("misspelled term dropped despite IncludeMisspelled")
	}
}

func TestLoad_SourceUnavailable(t *testing.T) {
	src := &mockScanner{err: errors.New("connection refused")}

	_, err := Load(context.Background(), src, "ontology", LoadOptions{}, zap.NewNop())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestLoad_SourceEmpty(t *testing.T) {
	src := &mockScanner{}

	v, err := Load(context.Background(), src, "ontology", LoadOptions{}, zap.NewNop())
	if !errors.Is(err, domain.ErrSourceEmpty) {
		t.Fatalf("expected ErrSourceEmpty, got %v", err)
	}
	if v == nil || v.Len() != 0 {
		t.Errorf("empty load must still return a usable vocabulary, got %+v", v)
	}
}

func TestStore_RefreshSwapsMatcher(t *testing.T) {
	src := &mockScanner{docs: []string{
		`{"term":"java","concept":"java","type":"skill"}`,
	}}
	store := NewStore(src, "ontology", LoadOptions{}, zap.NewNop())

	before := store.Matcher()
	if before.Len() != 0 {
		t.Fatalf("expected empty initial matcher")
	}
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	after := store.Matcher()
	if after == before {
		t.Error("refresh must install a new matcher")
	}
	if after.Len() != 1 {
		t.Errorf("expected 1 term after refresh, got %d", after.Len())
	}
}
