// Package chi is the HTTP surface of photosearch.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/search/request"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
	"github.com/kailas-cloud/photosearch/internal/metrics"
	healthuc "github.com/kailas-cloud/photosearch/internal/usecase/health"
)

// StatusText is the body of GET /status.
const StatusText = "photosearch OK"

const defaultMaxUploadBytes = 10 << 20

// Searcher runs search requests.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (result.Page, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Options configures request parsing.
type Options struct {
	Limits          request.Limits
	MetadataFilters []string
	MaxUploadBytes  int64
	APIKeys         []string
}

// Server serves the search API.
type Server struct {
	search Searcher
	health HealthChecker
	opts   Options
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, opts Options, logger *zap.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Server{search: search, health: health, opts: opts, logger: logger}
}

// Router builds the chi router with the middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverJSON(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(accessLog(s.logger))
	r.Use(BearerAuthMiddleware(s.opts.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/", s.Search)
	r.Get("/search", s.Search)
	r.Post("/search", s.Search)
	r.Get("/status", s.Status)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
	return r
}

// Search handles POST / and /search (form or multipart).
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseSearchRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	page, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse(page))
}

// Status handles GET /status.
func (s *Server) Status(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, StatusText)
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

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) parseSearchRequest(w http.ResponseWriter, r *http.Request) (request.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	var image []byte
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
			return request.Request{}, fmt.Errorf("invalid multipart form: %w", err)
		}
		data, err := readUpload(r, "image")
		if err != nil {
			return request.Request{}, err
		}
		image = data
	} else if err := r.ParseForm(); err != nil {
		return request.Request{}, fmt.Errorf("invalid form: %w", err)
	}

	query := domain.TextInput(strings.TrimSpace(r.FormValue("query")))
	if len(image) > 0 {
		query = domain.ImageInput(image)
	}

	var meta map[string]string
	for _, key := range s.opts.MetadataFilters {
		if v := r.FormValue(key); v != "" {
			if meta == nil {
				meta = make(map[string]string)
			}
			meta[key] = v
		}
	}

	req, err := request.New(
		query,
		request.ParseTaxonID(r.FormValue("taxon_id")),
		request.ParseInt(r.FormValue("page"), 0),
		request.ParseInt(r.FormValue("per_page"), 0),
		request.ParseBool(r.FormValue("normalize")),
		meta,
		s.opts.Limits,
	)
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}
	return req, nil
}

func readUpload(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s upload: %w", field, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s upload: %w", field, err)
	}
	return data, nil
}

func searchResponse(page result.Page) SearchResponse {
	items := make([]SearchResultItem, len(page.Hits()))
	for i, h := range page.Hits() {
		items[i] = SearchResultItem{PhotoID: h.PhotoID(), Score: h.Score()}
	}
	return SearchResponse{
		Page:         page.Page(),
		PerPage:      page.PerPage(),
		TotalResults: page.Total(),
		Results:      items,
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, domain.ErrInvalidQuery.Error())
	case errors.Is(err, domain.ErrSearchFailed):
		writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, domain.ErrSearchFailed.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
