package search

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/domain"
	"github.com/jobdex/adsearch/internal/domain/concept"
	"github.com/jobdex/adsearch/internal/domain/query"
	"github.com/jobdex/adsearch/internal/index"
	"github.com/jobdex/adsearch/internal/ontology"
)

// --- Mocks ---

type mockSearcher struct {
	result *index.Result
	err    error
	called bool
	lastQ  *query.Query
}

func (m *mockSearcher) Search(_ context.Context, _ string, q *query.Query) (*index.Result, error) {
	m.called = true
	m.lastQ = q
	return m.result, m.err
}

type mockLabeler struct {
	labels map[string]string
	errFor string
}

func (m *mockLabeler) Label(_ context.Context, _, code string) (string, error) {
	if code == m.errFor {
		return "", errors.New("lookup blew up")
	}
	return m.labels[code], nil
}

type mockSuggester struct {
	m *ontology.Matcher
}

func (s *mockSuggester) Matcher() *ontology.Matcher { return s.m }

func newTestService(idx *mockSearcher, labels *mockLabeler) *Service {
	vocab := ontology.NewVocabulary([]concept.Term{
		{Term: "java", Concept: "java", Type: concept.TypeSkill},
		{Term: "java developer", Concept: "java developer", Type: concept.TypeOccupation},
	})
	svc := New(idx, "ads", &mockSuggester{m: ontology.NewMatcher(vocab)}, labels, 10, zap.NewNop())
	return svc
}

func adSource(t *testing.T, ad domain.Ad) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(ad)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

// --- Tests ---

func TestSearch_ShapesResponse(t *testing.T) {
	idx := &mockSearcher{result: &index.Result{
		Total:  42,
		TookMs: 7,
		Hits: []index.Hit{
			{ID: "ad-1", Source: adSource(t, domain.Ad{Header: "Utvecklare"})},
			{ID: "ad-2", Source: json.RawMessage(`{"header": ["broken"]}`)},
		},
		Aggregations: map[string]index.Aggregation{
			"positions": {Value: 55},
		},
	}}
	svc := newTestService(idx, &mockLabeler{})

	resp, err := svc.Search(context.Background(), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 42 || resp.TookMs != 7 || resp.Positions != 55 {
		t.Errorf("header fields = %+v", resp)
	}
	if len(resp.Hits) != 1 {
		t.Fatalf("malformed hit must be skipped, got %d hits", len(resp.Hits))
	}
	if resp.Hits[0].ID != "ad-1" {
		t.Errorf("hit id fallback failed: %+v", resp.Hits[0])
	}
}

func TestSearch_TruncatesLongContent(t *testing.T) {
	long := strings.Repeat("ord ", 150)
	idx := &mockSearcher{result: &index.Result{
		Hits: []index.Hit{
			{ID: "ad-1", Source: adSource(t, domain.Ad{ID: "ad-1", Content: domain.AdContent{Text: long}})},
		},
	}}
	svc := newTestService(idx, &mockLabeler{})

	resp, err := svc.Search(context.Background(), Params{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(resp.Hits[0].Content.Text, " ...") {
		t.Error("long content must be truncated with ellipsis")
	}
}

func TestSearch_StatsWithLabelFallback(t *testing.T) {
	idx := &mockSearcher{result: &index.Result{
		Aggregations: map[string]index.Aggregation{
			"occupation": {Buckets: []index.Bucket{
				{Key: "2512", Count: 10},
				{Key: "9999", Count: 3},
				{Key: "0000", Count: 1},
			}},
		},
	}}
	labels := &mockLabeler{
		labels: map[string]string{"2512": "Mjukvaruutvecklare"},
		errFor: "0000",
	}
	svc := newTestService(idx, labels)

	resp, err := svc.Search(context.Background(), Params{Stats: []string{"occupation"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Stats) != 1 {
		t.Fatalf("stats = %+v", resp.Stats)
	}
	got := resp.Stats[0].Values
	want := []StatValue{
		{Term: "Mjukvaruutvecklare", Code: "2512", Count: 10},
		{Term: "9999", Code: "9999", Count: 3}, // unknown code falls back
		{Term: "0000", Code: "0000", Count: 1}, // failed lookup falls back
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("values = %+v, want %+v", got, want)
	}
}

func TestSearch_FreeTextFiltersStats(t *testing.T) {
	idx := &mockSearcher{result: &index.Result{
		Aggregations: map[string]index.Aggregation{
			"skill": {Buckets: []index.Bucket{
				{Key: "j1", Count: 9},
				{Key: "c1", Count: 4},
			}},
		},
	}}
	labels := &mockLabeler{labels: map[string]string{"j1": "Java", "c1": "Kock"}}
	svc := newTestService(idx, labels)

	resp, err := svc.Search(context.Background(), Params{Query: "java", Stats: []string{"skill"}})
	if err != nil {
		t.Fatal(err)
	}
	values := resp.Stats[0].Values
	if len(values) != 1 || values[0].Term != "Java" {
		t.Errorf("free-text filtering kept %+v", values)
	}
}

func TestSearch_FreeTextFilterKeepsAllWhenNothingMatches(t *testing.T) {
	idx := &mockSearcher{result: &index.Result{
		Aggregations: map[string]index.Aggregation{
			"skill": {Buckets: []index.Bucket{
				{Key: "c1", Count: 4},
				{Key: "c2", Count: 2},
			}},
		},
	}}
	labels := &mockLabeler{labels: map[string]string{"c1": "Kock", "c2": "Servitör"}}
	svc := newTestService(idx, labels)

	resp, err := svc.Search(context.Background(), Params{Query: "astronaut", Stats: []string{"skill"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Stats[0].Values) != 2 {
		t.Errorf("filter emptied the stats: %+v", resp.Stats[0].Values)
	}
}

func TestSearch_ValidationSkipsIndexCall(t *testing.T) {
	idx := &mockSearcher{}
	svc := newTestService(idx, &mockLabeler{})

	_, err := svc.Search(context.Background(), Params{Limit: 500})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if idx.called {
		t.Error("index must not be called for invalid params")
	}
}

func TestSearch_UpstreamErrorPropagates(t *testing.T) {
	idx := &mockSearcher{err: domain.ErrUpstreamUnavailable}
	svc := newTestService(idx, &mockLabeler{})

	_, err := svc.Search(context.Background(), Params{})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected upstream error, got %v", err)
	}
}

func TestTypeahead(t *testing.T) {
	svc := newTestService(&mockSearcher{}, &mockLabeler{})

	got, err := svc.Typeahead(context.Background(), "senior ja")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"java", "java developer"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Typeahead = %v, want %v", got, want)
	}

	if _, err := svc.Typeahead(context.Background(), "  "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty query must fail validation, got %v", err)
	}
}
