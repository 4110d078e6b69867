// Package web serves the server-rendered search form and results page.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tplsearch/internal/domain"
	"github.com/kailas-cloud/tplsearch/internal/domain/book"
	"github.com/kailas-cloud/tplsearch/internal/domain/recommendation"
	"github.com/kailas-cloud/tplsearch/internal/logger"
	"github.com/kailas-cloud/tplsearch/internal/usecase/discover"
	searchuc "github.com/kailas-cloud/tplsearch/internal/usecase/search"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Discoverer runs search and recommendation for one query.
type Discoverer interface {
	Discover(ctx context.Context, query, branch string) (discover.Result, error)
}

// branchOption is a selectable branch. Value is the URL slug; Label is the
// branch name as the catalogue reports it in holdings.
type branchOption struct {
	Value string
	Label string
}

var branches = []branchOption{
	{"", "Any branch"},
	{"toronto-reference", "Toronto Reference Library"},
	{"north-york", "North York Central Library"},
	{"scarborough", "Scarborough Civic Centre"},
	{"etobicoke", "Etobicoke Civic Centre"},
	{"beaches", "Beaches"},
	{"bloor-gladstone", "Bloor/Gladstone"},
	{"college-shaw", "College/Shaw"},
	{"distillery", "Distillery District"},
	{"fort-york", "Fort York"},
	{"harbourfront", "Harbourfront"},
	{"high-park", "High Park"},
	{"junction", "Junction"},
	{"leslieville", "Leslieville"},
	{"liberty-village", "Liberty Village"},
	{"pape-danforth", "Pape/Danforth"},
	{"parliament", "Parliament"},
	{"queen-saulter", "Queen/Saulter"},
	{"riverdale", "Riverdale"},
	{"runnymede", "Runnymede"},
	{"st-lawrence", "St. Lawrence"},
	{"york-woods", "York Woods"},
}

// older links used "central" for the reference library
var branchAliases = map[string]string{"central": "toronto-reference"}

// resolveBranch maps a branch slug to its canonical slug and catalogue name.
// Anything that is not a known slug is treated as a branch name already.
func resolveBranch(value string) (slug, name string) {
	value = strings.TrimSpace(value)
	key := strings.ToLower(value)
	if alias, ok := branchAliases[key]; ok {
		key = alias
	}
	if key == "" {
		return "", ""
	}
	for _, b := range branches[1:] {
		if b.Value == key {
			return b.Value, b.Label
		}
	}
	return value, value
}

var suggestions = []string{"Fiction bestsellers", "Local history", "Programming books", "Graphic novels", "Poetry"}

type pageData struct {
	Query       string
	Branch      string
	Branches    []branchOption
	Suggestions []string
	Error       string

	Search          *searchuc.Response
	SearchError     string
	Recommendations []recommendation.Record
	RecommendError  string
}

// Handler renders HTML pages.
type Handler struct {
	discover Discoverer
	pages    map[string]*template.Template
	static   http.Handler
	logger   *zap.Logger
}

// New parses the embedded templates.
func New(d Discoverer, logger *zap.Logger) (*Handler, error) {
	funcs := template.FuncMap{
		"isAvailable": func(b book.Record) bool { return b.Availability.Status() == book.StatusAvailable },
		"isFallback":  func(r *searchuc.Response) bool { return r.APIStatus == searchuc.StatusFallback },
	}

	pages := make(map[string]*template.Template, 2)
	for _, name := range []string{"index.html", "results.html"} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	return &Handler{
		discover: d,
		pages:    pages,
		static:   http.StripPrefix("/static/", http.FileServer(http.FS(sub))),
		logger:   logger,
	}, nil
}

// Register mounts the HTML routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/search", h.Results)
	r.Handle("/static/*", h.static)
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index.html", h.newPage("", ""))
}

// Results handles GET /search?q=&branch=.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slug, name := resolveBranch(q.Get("branch"))
	page := h.newPage(q.Get("q"), slug)

	res, err := h.discover.Discover(r.Context(), page.Query, name)
	if errors.Is(err, domain.ErrEmptyQuery) {
		page.Error = "Please enter something to search for."
		h.render(w, r, http.StatusOK, "index.html", page)
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Discover failed", zap.Error(err))
		page.Error = "Failed to search library catalogue"
		h.render(w, r, http.StatusOK, "index.html", page)
		return
	}

	page.Query = res.Query
	if res.SearchErr != nil {
		page.SearchError = "Failed to search library catalogue"
	} else {
		page.Search = &res.Search
	}
	if res.RecommendErr != nil {
		page.RecommendError = recommendErrorMessage(res.RecommendErr)
	} else {
		page.Recommendations = res.Recommendations
	}

	h.render(w, r, http.StatusOK, "results.html", page)
}

func (h *Handler) newPage(query, branch string) pageData {
	return pageData{
		Query:       query,
		Branch:      branch,
		Branches:    branches,
		Suggestions: suggestions,
	}
}

func recommendErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrModelNotConfigured):
		return "Recommendations are unavailable: " + domain.ErrModelNotConfigured.Error()
	case errors.Is(err, domain.ErrModelProviderError):
		return "The recommendation service did not respond. Please try again later."
	default:
		return "Recommendations are temporarily unavailable."
	}
}

// render executes into a buffer so a template error never leaves a half-written page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.FromContext(r.Context()).Error("Render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
