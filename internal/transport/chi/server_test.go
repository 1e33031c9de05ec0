package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/domain"
	"github.com/jobdex/adsearch/internal/domain/concept"
	"github.com/jobdex/adsearch/internal/domain/query"
	"github.com/jobdex/adsearch/internal/index"
	"github.com/jobdex/adsearch/internal/ontology"
	bulkuc "github.com/jobdex/adsearch/internal/usecase/bulk"
	searchuc "github.com/jobdex/adsearch/internal/usecase/search"
)

// --- Mocks ---

type mockIndex struct {
	result  *index.Result
	err     error
	scanned bool
	pingErr error
}

func (m *mockIndex) Search(_ context.Context, _ string, _ *query.Query) (*index.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &index.Result{}, nil
}

func (m *mockIndex) Scan(_ context.Context, _ string, _ *query.Query, _ int, _ func(json.RawMessage) error) error {
	m.scanned = true
	return m.err
}

func (m *mockIndex) Ping(_ context.Context) error { return m.pingErr }

type mockLabeler struct{}

func (mockLabeler) Label(_ context.Context, _, code string) (string, error) { return code, nil }

type mockSuggester struct{ m *ontology.Matcher }

func (s *mockSuggester) Matcher() *ontology.Matcher { return s.m }

func newTestRouter(idx *mockIndex) http.Handler {
	logger := zap.NewNop()
	vocab := ontology.NewVocabulary([]concept.Term{
		{Term: "java", Concept: "java", Type: concept.TypeSkill},
	})
	searchSvc := searchuc.New(idx, "ads", &mockSuggester{m: ontology.NewMatcher(vocab)}, mockLabeler{}, 10, logger)
	bulkSvc := bulkuc.New(idx, "ads", bulkuc.Metrics{}, logger)
	server := NewServer(searchSvc, bulkSvc, idx, logger)

	r := chirouter.NewRouter()
	server.Register(r)
	return r
}

func do(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestSearchEndpoint(t *testing.T) {
	idx := &mockIndex{result: &index.Result{Total: 3}}
	rec := do(t, newTestRouter(idx), "/search?q=java&limit=5")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp searchuc.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 3 {
		t.Errorf("total = %d", resp.Total)
	}
}

func TestSearchEndpoint_ValidationNamesConstraint(t *testing.T) {
	rec := do(t, newTestRouter(&mockIndex{}), "/search?limit=5000")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "limit") {
		t.Errorf("violated constraint not named: %s", rec.Body.String())
	}
}

func TestSearchEndpoint_BadRemoteParam(t *testing.T) {
	rec := do(t, newTestRouter(&mockIndex{}), "/search?remote=maybe")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSearchEndpoint_UpstreamFailureIsGeneric(t *testing.T) {
	idx := &mockIndex{err: domain.ErrUpstreamUnavailable}
	rec := do(t, newTestRouter(idx), "/search")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "index") {
		t.Errorf("internal details leaked: %s", rec.Body.String())
	}
}

func TestTypeaheadEndpoint(t *testing.T) {
	rec := do(t, newTestRouter(&mockIndex{}), "/typeahead?q=ja")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp["suggestions"]) != 1 || resp["suggestions"][0] != "java" {
		t.Errorf("suggestions = %v", resp["suggestions"])
	}
}

func TestBulkEndpoint_InvalidDateRejectedBeforeScan(t *testing.T) {
	idx := &mockIndex{}
	rec := do(t, newTestRouter(idx), "/bulk?date=2024/01/01")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if idx.scanned {
		t.Error("index must not be scanned for an invalid date")
	}
}

func TestBulkEndpoint_ReturnsArchive(t *testing.T) {
	rec := do(t, newTestRouter(&mockIndex{}), "/bulk?date=2024-01-01")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "ads_2024-01-01.zip") {
		t.Errorf("disposition = %q", cd)
	}
}

func TestHealthEndpoint(t *testing.T) {
	rec := do(t, newTestRouter(&mockIndex{}), "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}

	rec = do(t, newTestRouter(&mockIndex{pingErr: domain.ErrUpstreamUnavailable}), "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d", rec.Code)
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := APIKeyMiddleware([]string{"secret"})(next)

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/search", nil)
	req.Header.Set(apiKeyHeader, "wrong")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad key: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/search", nil)
	req.Header.Set(apiKeyHeader, "secret")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid key: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health must be exempt: status = %d", rec.Code)
	}

	open := APIKeyMiddleware(nil)(next)
	req = httptest.NewRequest(http.MethodGet, "/search", nil)
	rec = httptest.NewRecorder()
	open.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("empty key list must disable auth: status = %d", rec.Code)
	}
}
