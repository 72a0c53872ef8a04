package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kanko-labs/tabisearch/internal/domain"
	"github.com/kanko-labs/tabisearch/internal/usecase/expansion"
)

// SearchService is the consumer interface over the single-variant engine.
type SearchService interface {
	Search(ctx context.Context, query string, topK int, domainFilter, area string) ([]domain.DocumentChunk, error)
}

// ExpansionService is the consumer interface over the expansion coordinator.
type ExpansionService interface {
	SearchExpanded(ctx context.Context, query string, topK int, domainFilter, area string, userVariants []string) (expansion.Result, error)
	SearchExpandedParallel(ctx context.Context, query string, topK int, domainFilter, area string, userVariants []string) (expansion.Result, error)
}

// Pinger checks a backing dependency for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the retrieval engine over HTTP. The answer-generation layer
// consuming these endpoints lives outside this service.
type Server struct {
	search    SearchService
	expansion ExpansionService
	db        Pinger
	cache     Pinger
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search SearchService, expansion ExpansionService, db, cache Pinger, logger *zap.Logger) *Server {
	return &Server{search: search, expansion: expansion, db: db, cache: cache, logger: logger}
}

// Routes mounts the API endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/search", s.handleSearch)
	r.Post("/v1/search/expanded", s.handleSearchExpanded)
}

type searchRequest struct {
	Query      string   `json:"query"`
	TopK       int      `json:"top_k"`
	Domain     string   `json:"domain,omitempty"`
	Area       string   `json:"area,omitempty"`
	Variations []string `json:"variations,omitempty"`
	Parallel   bool     `json:"parallel,omitempty"`
}

type chunkResponse struct {
	Content  string               `json:"content"`
	Metadata domain.DocumentChunk `json:"metadata"`
}

type searchResponse struct {
	Results []chunkResponse          `json:"results"`
	Metrics *domain.ExpansionMetrics `json:"expansion_metrics,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	chunks, err := s.search.Search(r.Context(), req.Query, req.TopK, req.Domain, req.Area)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(chunks, nil))
}

func (s *Server) handleSearchExpanded(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	run := s.expansion.SearchExpanded
	if req.Parallel {
		run = s.expansion.SearchExpandedParallel
	}

	result, err := run(r.Context(), req.Query, req.TopK, req.Domain, req.Area, req.Variations)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(result.Chunks, &result.Metrics))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := map[string]string{"database": "ok", "cache": "ok"}
	code := http.StatusOK

	if err := s.db.Ping(ctx); err != nil {
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			// A degraded cache still serves traffic; report but stay healthy.
			status["cache"] = err.Error()
		}
	}

	writeJSON(w, code, status)
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return searchRequest{}, false
	}
	if req.TopK == 0 {
		req.TopK = 5
	}
	return req, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, domain.ErrInvalidTopK):
		writeError(w, http.StatusBadRequest, "invalid_top_k", err.Error())
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		s.logger.Error("Embedding provider error", zap.Error(err))
		writeError(w, http.StatusBadGateway, "embedding_provider_error", "embedding provider unavailable")
	case errors.Is(err, domain.ErrRetrievalFailure):
		s.logger.Error("Retrieval failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, "retrieval_failure", "retrieval backend unavailable")
	default:
		s.logger.Error("Unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toResponse(chunks []domain.DocumentChunk, m *domain.ExpansionMetrics) searchResponse {
	results := make([]chunkResponse, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, chunkResponse{Content: c.RenderedText(), Metadata: c})
	}
	return searchResponse{Results: results, Metrics: m}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
