// Package chi exposes the search and recommendation JSON API on a chi router.
package chi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tplsearch/internal/domain"
	"github.com/kailas-cloud/tplsearch/internal/domain/recommendation"
	healthuc "github.com/kailas-cloud/tplsearch/internal/usecase/health"
	"github.com/kailas-cloud/tplsearch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/tplsearch/internal/usecase/search"
)

const maxBodyBytes = 64 << 10

type errorCode string

const (
	codeBadRequest         errorCode = "bad_request"
	codeValidationFailed   errorCode = "validation_failed"
	codeEmptyQuery         errorCode = "empty_query"
	codeModelNotConfigured errorCode = "model_not_configured"
	codeModelProviderError errorCode = "model_provider_error"
	codeRateLimited        errorCode = "rate_limited"
	codeInternalError      errorCode = "internal_error"
)

// Searcher runs catalogue searches.
type Searcher interface {
	Search(ctx context.Context, query, branch string) (searchuc.Response, error)
}

// Recommender generates recommendations.
type Recommender interface {
	Recommend(ctx context.Context, query string, prior []recommend.Prior) ([]recommendation.Record, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the JSON API.
type Server struct {
	search        Searcher
	recommend     Recommender
	health        HealthChecker
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, recommend Recommender, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search:    search,
		recommend: recommend,
		health:    health,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeEmptyQuery),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrModelNotConfigured, http.StatusInternalServerError, codeModelNotConfigured),
		sentinelHandler(domain.ErrModelProviderError, http.StatusBadGateway, codeModelProviderError),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
	}
	return s
}

// Register mounts the API routes on r. The api middlewares wrap only /api/*.
func (s *Server) Register(r chi.Router, api ...func(http.Handler) http.Handler) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api", func(r chi.Router) {
		r.Use(api...)
		r.Post("/search", s.SearchPost)
		r.Get("/search", s.SearchGet)
		r.Post("/recommendations", s.RecommendPost)
		r.Get("/recommendations", s.RecommendGet)
	})
}

// SearchPost handles POST /api/search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.runSearch(w, r, req)
}

// SearchGet handles GET /api/search?q=&branch=.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "q", q, &req.Query); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid parameter q")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "branch", q, &req.Branch); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid parameter branch")
		return
	}
	if err := s.check(req); err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.runSearch(w, r, req)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req searchRequest) {
	resp, err := s.search.Search(r.Context(), req.Query, req.Branch)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchToResponse(resp))
}

// RecommendPost handles POST /api/recommendations.
func (s *Server) RecommendPost(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.runRecommend(w, r, req.Query, priorFromRequest(req.SearchResults))
}

// RecommendGet handles GET /api/recommendations?q=.
func (s *Server) RecommendGet(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &req.Query); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid parameter q")
		return
	}
	if err := s.check(req); err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.runRecommend(w, r, req.Query, nil)
}

func (s *Server) runRecommend(w http.ResponseWriter, r *http.Request, query string, prior []recommend.Prior) {
	records, err := s.recommend.Recommend(r.Context(), query, prior)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{
		Recommendations:      records,
		Query:                strings.TrimSpace(query),
		TotalRecommendations: len(records),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decode reads a JSON body into dst and validates it. Writes the error response and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body")
		return false
	}
	if err := s.check(dst); err != nil {
		s.handleDomainError(w, err)
		return false
	}
	return true
}

// check runs struct validation and converts failures into a domain.ValidationError.
func (s *Server) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrInvalidRequest
	}
	fields := make([]domain.FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = domain.FieldError{Field: jsonFieldName(fe.Namespace()), Rule: fe.Tag()}
	}
	return domain.NewValidationError(fields...)
}

// jsonFieldName turns a validator namespace such as recommendRequest.SearchResults[0].Title
// into searchResults[0].title.
func jsonFieldName(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrInvalidRequest,
		domain.ErrModelNotConfigured,
		domain.ErrModelProviderError,
		domain.ErrRateLimited,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler reports the offending field of a ValidationError.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, ve.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
