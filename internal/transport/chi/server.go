package chi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
	"github.com/kailas-cloud/appsearch/internal/metrics"
	"github.com/kailas-cloud/appsearch/internal/search/listing"
	"github.com/kailas-cloud/appsearch/internal/search/result"
	healthuc "github.com/kailas-cloud/appsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/appsearch/internal/usecase/search"
	"github.com/kailas-cloud/appsearch/internal/version"
)

// Searcher runs the marketplace listings.
type Searcher interface {
	SearchApps(ctx context.Context, req searchuc.Request) (*searchuc.Page, error)
	SearchCollections(ctx context.Context, req searchuc.Request) (*searchuc.Page, error)
	CollectionApps(ctx context.Context, req searchuc.CollectionAppsRequest) (*searchuc.Page, error)
	Suggest(ctx context.Context, text, locale string) (*searchuc.Suggestions, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Defaults are the listing parameters used when a request leaves them out.
type Defaults struct {
	PageSize    int
	MaxPageSize int
	AppID       int
	Locale      string
}

// Server serves the listing API.
type Server struct {
	search   Searcher
	health   HealthChecker
	defaults Defaults
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, defaults Defaults) *Server {
	if defaults.Locale == "" {
		defaults.Locale = defaultLocale
	}
	return &Server{search: search, health: health, defaults: defaults}
}

// pageResponse is the JSON body of listing endpoints.
type pageResponse struct {
	Objects []any                      `json:"objects"`
	Meta    pageMeta                   `json:"meta"`
	Facets  map[string][]result.Bucket `json:"facets,omitempty"`
	Error   string                     `json:"error,omitempty"`
}

type pageMeta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

type suggestion struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type suggestResponse struct {
	Suggestions []suggestion `json:"suggestions"`
	Error       string       `json:"error,omitempty"`
}

type healthResponse struct {
	Status  healthuc.Status                 `json:"status"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Version string                          `json:"version,omitempty"`
}

// SearchApps handles GET /api/v1/apps/search.
func (s *Server) SearchApps(w http.ResponseWriter, r *http.Request) {
	if redirectLegacy(w, r, nil) {
		return
	}
	req, err := s.listingRequest(r.URL.Query())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	page, err := s.search.SearchApps(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writePage(w, listing.AppListing().Name, page)
}

// SearchPersonas handles GET /api/v1/personas/search.
func (s *Server) SearchPersonas(w http.ResponseWriter, r *http.Request) {
	if redirectLegacy(w, r, nil) {
		return
	}
	req, err := s.listingRequest(r.URL.Query())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	req.Params.Type = catalog.TypePersona
	page, err := s.search.SearchApps(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writePage(w, listing.PersonaListing().Name, page)
}

// SearchCollections handles GET /api/v1/collections/search.
func (s *Server) SearchCollections(w http.ResponseWriter, r *http.Request) {
	if redirectLegacy(w, r, listing.CollectionLegacySorts) {
		return
	}
	req, err := s.listingRequest(r.URL.Query())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	page, err := s.search.SearchCollections(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writePage(w, listing.CollectionListing().Name, page)
}

// CollectionApps handles GET /api/v1/collections/{id}/apps.
func (s *Server) CollectionApps(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "collection id must be a positive integer")
		return
	}
	req, err := s.collectionAppsRequest(id, r.URL.Query())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	page, err := s.search.CollectionApps(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writePage(w, "collection_apps", page)
}

// Suggest handles GET /api/v1/apps/suggest.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	locale := v.Get(paramLang)
	if locale == "" {
		locale = s.defaults.Locale
	}
	res, err := s.search.Suggest(r.Context(), v.Get(paramQuery), locale)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	resp := suggestResponse{Suggestions: make([]suggestion, 0, len(res.Items))}
	for _, it := range res.Items {
		resp.Suggestions = append(resp.Suggestions, suggestion{ID: it.ID, Name: it.Name, Slug: it.Slug})
	}
	if res.Degraded {
		resp.Error = codeSearchUnavailable
		metrics.DegradedResponsesTotal.WithLabelValues("suggest").Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: report.Status, Checks: report.Checks, Version: version.Version})
}

func writePage(w http.ResponseWriter, name string, page *searchuc.Page) {
	resp := pageResponse{
		Objects: page.Items,
		Meta:    pageMeta{Total: page.Total, Page: page.Page, PerPage: page.PerPage},
		Facets:  page.Facets,
	}
	if resp.Objects == nil {
		resp.Objects = []any{}
	}
	if page.Degraded {
		resp.Error = codeSearchUnavailable
		metrics.DegradedResponsesTotal.WithLabelValues(name).Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

// redirectLegacy answers requests carrying old parameter names with a
// permanent redirect to the canonical URL.
func redirectLegacy(w http.ResponseWriter, r *http.Request, extraSorts map[string]string) bool {
	fixed, changed := listing.FixLegacyParams(r.URL.Query(), extraSorts)
	if !changed {
		return false
	}
	u := *r.URL
	u.RawQuery = fixed.Encode()
	http.Redirect(w, r, u.RequestURI(), http.StatusMovedPermanently)
	return true
}
