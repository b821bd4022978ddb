// Package chi exposes the semantic search API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docindex/internal/domain"
)

// QueryService answers semantic search queries.
type QueryService interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// Pinger checks storage connectivity for health reporting.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server handles the query API routes.
type Server struct {
	query  QueryService
	pinger Pinger
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(query QueryService, pinger Pinger, logger *zap.Logger) *Server {
	return &Server{query: query, pinger: pinger, logger: logger}
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Post("/v1/search", s.handleSearch)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Results []domain.SearchResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleSearch handles POST /v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := s.query.Search(r.Context(), req.Query)
	if err != nil {
		s.handleSearchError(w, err)
		return
	}

	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// handleSearchError maps usecase failures to client responses without
// leaking backend detail.
func (s *Server) handleSearchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrModelUnavailable):
		s.logger.Error("query embedding failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate embedding")
	default:
		s.logger.Error("search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search unavailable")
	}
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
