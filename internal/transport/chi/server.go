package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	"github.com/kailas-cloud/facetdex/internal/logger"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/facetdex/internal/usecase/indexing"
	presetuc "github.com/kailas-cloud/facetdex/internal/usecase/preset"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeUnauthorized     = "unauthorized"
	CodeIndexNotFound    = "index_not_found"
	CodeNotFound         = "not_found"
	CodeIndexUnavailable = "index_unavailable"
	CodeInternalError    = "internal_error"
)

// Searcher runs abstract search requests.
type Searcher interface {
	Search(ctx context.Context, alias string, req request.Request) (result.Result, error)
}

// Indexer writes and removes content items.
type Indexer interface {
	AddOrUpdate(ctx context.Context, alias string, item indexinguc.Item) (indexinguc.Report, error)
	Delete(ctx context.Context, alias string, contentIDs []uuid.UUID) (int, error)
}

// SchemaManager creates and resets physical indexes.
type SchemaManager interface {
	Ensure(ctx context.Context, alias string) error
	Reset(ctx context.Context, alias string) error
}

// Presets runs the site's canned searches.
type Presets interface {
	Articles(ctx context.Context, q presetuc.ArticlesQuery) (result.Result, error)
	Books(ctx context.Context, q presetuc.BooksQuery) (result.Result, error)
}

// HealthChecker reports backend health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search, indexing, and preset API.
type Server struct {
	search        Searcher
	indexer       Indexer
	schema        SchemaManager
	presets       Presets
	health        HealthChecker
	aliases       []string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server for the configured index aliases.
func NewServer(
	search Searcher,
	indexer Indexer,
	schema SchemaManager,
	presets Presets,
	health HealthChecker,
	aliases []string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		indexer: indexer,
		schema:  schema,
		presets: presets,
		health:  health,
		aliases: aliases,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnknownIndex, http.StatusNotFound, CodeIndexNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, CodeIndexUnavailable),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/indexes/{alias}", func(r chi.Router) {
		r.Use(s.requireKnownAlias)
		r.Post("/search", s.Search)
		r.Put("/documents/{id}", s.UpsertDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)
		r.Post("/documents/delete", s.DeleteDocuments)
		r.Post("/ensure", s.EnsureIndex)
		r.Post("/reset", s.ResetIndex)
	})

	r.Get("/api/articles", s.Articles)
	r.Get("/api/books", s.Books)
}

// Search handles POST /indexes/{alias}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}

	domReq, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), chi.URLParam(r, "alias"), domReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToResponse(res))
}

// UpsertDocument handles PUT /indexes/{alias}/documents/{id}.
func (s *Server) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	var req upsertRequest
	if !s.decode(w, r, &req) {
		return
	}

	report, err := s.indexer.AddOrUpdate(r.Context(), chi.URLParam(r, "alias"), req.toItem(id))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, upsertResponse{Indexed: report.Indexed, Failed: report.Failed})
}

// DeleteDocument handles DELETE /indexes/{alias}/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	s.deleteItems(w, r, []uuid.UUID{id})
}

// DeleteDocuments handles POST /indexes/{alias}/documents/delete.
func (s *Server) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.deleteItems(w, r, req.IDs)
}

func (s *Server) deleteItems(w http.ResponseWriter, r *http.Request, ids []uuid.UUID) {
	n, err := s.indexer.Delete(r.Context(), chi.URLParam(r, "alias"), ids)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: n})
}

// EnsureIndex handles POST /indexes/{alias}/ensure.
func (s *Server) EnsureIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.schema.Ensure(r.Context(), chi.URLParam(r, "alias")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetIndex handles POST /indexes/{alias}/reset.
func (s *Server) ResetIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.schema.Reset(r.Context(), chi.URLParam(r, "alias")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Articles handles GET /api/articles.
func (s *Server) Articles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePresetParams(q, "title", "date", "score")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	res, err := s.presets.Articles(r.Context(), presetuc.ArticlesQuery{
		Query:         q.Get("query"),
		Authors:       multi(q, "author"),
		Categories:    multi(q, "categories"),
		ArticleYears:  multi(q, "articleYear"),
		SortBy:        p.SortBy,
		SortDirection: p.SortDirection,
		Skip:          p.Skip,
		Take:          p.Take,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToResponse(res))
}

// Books handles GET /api/books.
func (s *Server) Books(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePresetParams(q, "title", "score")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	res, err := s.presets.Books(r.Context(), presetuc.BooksQuery{
		Query:         q.Get("query"),
		Authors:       multi(q, "author"),
		SortBy:        p.SortBy,
		SortDirection: p.SortDirection,
		Skip:          p.Skip,
		Take:          p.Take,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToResponse(res))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) requireKnownAlias(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		alias := chi.URLParam(r, "alias")
		for _, a := range s.aliases {
			if strings.EqualFold(a, alias) {
				next.ServeHTTP(w, r)
				return
			}
		}
		writeError(w, http.StatusNotFound, CodeIndexNotFound, "unknown index: "+alias)
	})
}

// decode reads and validates a JSON body. On failure it writes a 400 and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validateStruct(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return false
	}
	return true
}

func contentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

type presetParams struct {
	SortBy        string `json:"sortBy"`
	SortDirection string `json:"sortDirection" validate:"omitempty,oneof=asc desc"`
	Skip          int    `json:"skip" validate:"gte=0"`
	Take          int    `json:"take" validate:"gte=0,lte=500"`
}

// parsePresetParams reads the paging and sorting parameters shared by the presets.
func parsePresetParams(q url.Values, sortFields ...string) (presetParams, error) {
	p := presetParams{
		SortBy:        q.Get("sortBy"),
		SortDirection: q.Get("sortDirection"),
	}
	var err error
	if p.Skip, err = intParam(q, "skip"); err != nil {
		return presetParams{}, err
	}
	if p.Take, err = intParam(q, "take"); err != nil {
		return presetParams{}, err
	}
	if err := validateOneOf("sortBy", p.SortBy, sortFields...); err != nil {
		return presetParams{}, err
	}
	if err := validateStruct(&p); err != nil {
		return presetParams{}, err
	}
	return p, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

// multi collects a repeated parameter, accepting both name and name[].
func multi(q url.Values, name string) []string {
	var out []string
	for _, key := range []string{name, name + "[]"} {
		for _, v := range q[key] {
			if v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrUnknownIndex,
		domain.ErrNotFound,
		domain.ErrIndexUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
