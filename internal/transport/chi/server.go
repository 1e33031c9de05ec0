// Package chi exposes the adsearch HTTP API.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/domain"
	bulkuc "github.com/jobdex/adsearch/internal/usecase/bulk"
	searchuc "github.com/jobdex/adsearch/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// pinger is the health probe against the document index.
type pinger interface {
	Ping(ctx context.Context) error
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server holds the HTTP handlers for the adsearch API.
type Server struct {
	search        *searchuc.Service
	bulk          *bulkuc.Service
	idx           pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, bulk *bulkuc.Service, idx pinger, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		bulk:   bulk,
		idx:    idx,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusServiceUnavailable, "service_unavailable", "service unavailable"),
	}
	return s
}

// Register attaches the API routes to the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/search", s.Search)
	r.Get("/typeahead", s.Typeahead)
	r.Get("/bulk", s.Bulk)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := searchParamsFromRequest(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), params)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Typeahead handles GET /typeahead.
func (s *Server) Typeahead(w http.ResponseWriter, r *http.Request) {
	terms, err := s.search.Typeahead(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if terms == nil {
		terms = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": terms})
}

// Bulk handles GET /bulk. The archive is assembled fully before the first
// response byte, so failures still produce clean error responses.
func (s *Server) Bulk(w http.ResponseWriter, r *http.Request) {
	archive, entry, err := s.bulk.Export(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	filename := strings.TrimSuffix(entry, ".json") + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"index": "ok"}
	status := "healthy"
	httpStatus := http.StatusOK
	if err := s.idx.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		checks["index"] = "unavailable"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// searchParamsFromRequest parses the search query string. Only syntactic
// parsing happens here; semantic validation lives in the usecase.
func searchParamsFromRequest(r *http.Request) (searchuc.Params, error) {
	q := r.URL.Query()
	params := searchuc.Params{
		Query:          q.Get("q"),
		Day:            q.Get("date"),
		Occupations:    splitMulti(q["occupation"]),
		Regions:        splitMulti(q["region"]),
		Municipalities: splitMulti(q["municipality"]),
		Employer:       q.Get("employer"),
		Sort:           q.Get("sort"),
		Stats:          splitMulti(q["stats"]),
	}

	var err error
	if params.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		return searchuc.Params{}, err
	}
	if params.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return searchuc.Params{}, err
	}
	if raw := q.Get("remote"); raw != "" {
		remote, err := strconv.ParseBool(raw)
		if err != nil {
			return searchuc.Params{}, domain.NewValidationError("remote", "must be true or false")
		}
		params.Remote = &remote
	}
	return params, nil
}

// splitMulti flattens repeated parameters and comma-separated lists.
func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// validationHandler surfaces the violated constraint to the client.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	msg := domain.ErrValidation.Error()
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Error()
	}
	writeError(w, http.StatusBadRequest, "validation_failed", msg)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel
// error and answers with a fixed message, never internal details.
func sentinelHandler(sentinel error, status int, code, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
