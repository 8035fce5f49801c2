// Package chi implements the HTTP API on the go-chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/corpusgate/corpusgate/internal/config"
	"github.com/corpusgate/corpusgate/internal/domain"
	"github.com/corpusgate/corpusgate/internal/domain/search/request"
	"github.com/corpusgate/corpusgate/internal/registry"
	adminuc "github.com/corpusgate/corpusgate/internal/usecase/admin"
	healthuc "github.com/corpusgate/corpusgate/internal/usecase/health"
	searchuc "github.com/corpusgate/corpusgate/internal/usecase/search"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

const (
	CodeBadRequest            ErrorCode = "bad_request"
	CodeUnauthorized          ErrorCode = "unauthorized"
	CodeUnsupportedSearchType ErrorCode = "unsupported_search_type"
	CodeNoCorpusAvailable     ErrorCode = "no_corpus_available"
	CodeConnectionFailed      ErrorCode = "connection_failed"
	CodeInternalError         ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server hosts the search and admin endpoints.
type Server struct {
	search        *searchuc.Service
	admin         *adminuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	admin *adminuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search: search,
		admin:  admin,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrUnsupportedSearchType, http.StatusBadRequest, CodeUnsupportedSearchType),
		sentinelHandler(domain.ErrNoCorpusConfigured, http.StatusServiceUnavailable, CodeNoCorpusAvailable),
		sentinelHandler(domain.ErrConnectionFailed, http.StatusBadGateway, CodeConnectionFailed),
	}
	return s
}

// Routes mounts every endpoint on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/admin/corpora", s.handleListCorpora)
	r.Put("/api/v1/admin/corpora", s.handleApplyCorpora)
	r.Post("/api/v1/admin/corpora/test", s.handleTestCorpus)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// SearchRequest is the POST /api/v1/search body.
type SearchRequest struct {
	Type       string `json:"type"`
	Query      string `json:"query"`
	Collection string `json:"collection,omitempty"`
}

// SearchResultItem is one hit in the search response.
type SearchResultItem struct {
	Collection   string          `json:"collection"`
	MatchedField string          `json:"matched_field,omitempty"`
	MatchedValue string          `json:"matched_value,omitempty"`
	Record       json.RawMessage `json:"record"`
}

// SearchResponse is the POST /api/v1/search response.
type SearchResponse struct {
	Results             []SearchResultItem `json:"results"`
	Total               int                `json:"total"`
	Cost                int                `json:"cost"`
	Reason              string             `json:"reason"`
	IsRepeat            bool               `json:"is_repeat"`
	ElapsedMs           int64              `json:"elapsed_ms"`
	CollectionsSearched int                `json:"collections_searched"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	requester := RequesterFromContext(r.Context())
	if requester == "" {
		// Auth disabled; every caller shares one billing identity.
		requester = "anonymous"
	}
	target := body.Collection
	if target == "" {
		target = request.TargetAuto
	}

	req, err := request.New(body.Type, body.Query, target, requester)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Execute(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SearchResultItem, 0, len(resp.Results))
	for i := range resp.Results {
		res := &resp.Results[i]
		raw, err := json.Marshal(res.Record())
		if err != nil {
			s.logger.Error("encode record", zap.Error(err))
			continue
		}
		items = append(items, SearchResultItem{
			Collection:   res.Collection(),
			MatchedField: res.MatchedField(),
			MatchedValue: res.MatchedValue(),
			Record:       raw,
		})
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Results:             items,
		Total:               resp.Total,
		Cost:                resp.Cost,
		Reason:              string(resp.Reason),
		IsRepeat:            resp.IsRepeat,
		ElapsedMs:           resp.Elapsed.Milliseconds(),
		CollectionsSearched: resp.CollectionsSearched,
	})
}

// CorporaResponse is the GET /api/v1/admin/corpora response.
type CorporaResponse struct {
	Corpora []registry.SlotStatus `json:"corpora"`
}

func (s *Server) handleListCorpora(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CorporaResponse{Corpora: s.admin.List(r.Context())})
}

// ApplyCorporaRequest is the PUT /api/v1/admin/corpora body.
type ApplyCorporaRequest struct {
	Corpora []config.ConnectionConfig `json:"corpora"`
}

func (s *Server) handleApplyCorpora(w http.ResponseWriter, r *http.Request) {
	var body ApplyCorporaRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.admin.Apply(r.Context(), body.Corpora); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CorporaResponse{Corpora: s.admin.List(r.Context())})
}

// TestCorpusResponse is the POST /api/v1/admin/corpora/test response.
type TestCorpusResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

func (s *Server) handleTestCorpus(w http.ResponseWriter, r *http.Request) {
	var body config.ConnectionConfig
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	started := time.Now()
	err := s.admin.Test(r.Context(), body)
	resp := TestCorpusResponse{OK: err == nil, ElapsedMs: time.Since(started).Milliseconds()}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthResponse is the GET /health response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for id, result := range report.Checks {
		checks[id] = string(result)
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrUnsupportedSearchType,
		domain.ErrNoCorpusConfigured,
		domain.ErrConnectionFailed,
		domain.ErrNotConnected,
		domain.ErrCorpusNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("unhandled domain error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, msg)
}
