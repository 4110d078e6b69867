package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tplsearch/internal/domain"
	"github.com/kailas-cloud/tplsearch/internal/domain/book"
	"github.com/kailas-cloud/tplsearch/internal/domain/recommendation"
	"github.com/kailas-cloud/tplsearch/internal/usecase/discover"
	searchuc "github.com/kailas-cloud/tplsearch/internal/usecase/search"
)

// --- Mocks ---

type mockDiscoverer struct {
	result     discover.Result
	err        error
	lastQuery  string
	lastBranch string
}

func (m *mockDiscoverer) Discover(_ context.Context, query, branch string) (discover.Result, error) {
	m.lastQuery, m.lastBranch = query, branch
	if strings.TrimSpace(query) == "" {
		return discover.Result{}, domain.ErrEmptyQuery
	}
	r := m.result
	r.Query = strings.TrimSpace(query)
	return r, m.err
}

func newTestRouter(t *testing.T, d Discoverer) http.Handler {
	t.Helper()
	h, err := New(d, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func sampleRecord(status book.Status) book.Record {
	total, avail := 3, 0
	if status == book.StatusAvailable {
		avail = 2
	}
	return book.Record{
		ID:           "mock_1",
		Title:        "The Old Man and the Sea",
		Author:       "Ernest Hemingway",
		ISBN:         "9780684801223",
		CallNumber:   "FIC HEM",
		Branch:       "Parkdale",
		Availability: book.NewAvailability(status, total, avail, "", nil),
		HoldURL:      "https://www.torontopubliclibrary.ca/detail.jsp?Entt=RDM1",
		Source:       book.SourceFallback,
	}
}

// --- Tests ---

func TestIndex(t *testing.T) {
	rec := get(t, newTestRouter(t, &mockDiscoverer{}), "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`action="/search"`, `name="q"`, "North York Central Library", "Popular searches"} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestResults_RendersBothSections(t *testing.T) {
	d := &mockDiscoverer{result: discover.Result{
		Search: searchuc.Response{
			Results:        []book.Record{sampleRecord(book.StatusAvailable)},
			Source:         book.SourceFallback,
			APIStatus:      searchuc.StatusFallback,
			FallbackReason: "timeout",
		},
		Recommendations: recommendation.Fallback(),
	}}
	rec := get(t, newTestRouter(t, d), "/search?q=hemingway&branch=central")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if d.lastQuery != "hemingway" || d.lastBranch != "Toronto Reference Library" {
		t.Errorf("discover got %q/%q", d.lastQuery, d.lastBranch)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"The Old Man and the Sea",
		"Available",
		"Borrow",
		"2 of 3 copies",
		book.SourceFallback,
		"The Midnight Library",
		"Why this book:",
		`<option value="toronto-reference" selected>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("results page missing %q", want)
		}
	}
}

func TestResults_OnHoldLabel(t *testing.T) {
	d := &mockDiscoverer{result: discover.Result{
		Search: searchuc.Response{Results: []book.Record{sampleRecord(book.StatusCheckedOut)}, APIStatus: searchuc.StatusSuccess},
	}}
	body := get(t, newTestRouter(t, d), "/search?q=sea").Body.String()

	if !strings.Contains(body, "Place Hold") || !strings.Contains(body, "On Hold") {
		t.Error("expected hold labels for unavailable record")
	}
}

func TestResults_EmptyStateDistinctFromError(t *testing.T) {
	d := &mockDiscoverer{result: discover.Result{
		Search: searchuc.Response{APIStatus: searchuc.StatusSuccess},
	}}
	body := get(t, newTestRouter(t, d), "/search?q=zzzz").Body.String()

	if !strings.Contains(body, "No Results Found") {
		t.Error("expected empty state")
	}
	if strings.Contains(body, "Search Error") {
		t.Error("empty state must not render the error panel")
	}
}

func TestResults_RecommendationErrorDoesNotHideSearch(t *testing.T) {
	d := &mockDiscoverer{result: discover.Result{
		Search:       searchuc.Response{Results: []book.Record{sampleRecord(book.StatusAvailable)}},
		RecommendErr: domain.ErrModelNotConfigured,
	}}
	body := get(t, newTestRouter(t, d), "/search?q=sea").Body.String()

	if !strings.Contains(body, "The Old Man and the Sea") {
		t.Error("search results missing")
	}
	if !strings.Contains(body, "language model API key not configured") {
		t.Error("expected recommendation error panel")
	}
}

func TestResults_SearchErrorPanel(t *testing.T) {
	d := &mockDiscoverer{result: discover.Result{
		SearchErr:       errors.New("boom"),
		Recommendations: recommendation.Fallback(),
	}}
	body := get(t, newTestRouter(t, d), "/search?q=sea").Body.String()

	if !strings.Contains(body, "Failed to search library catalogue") {
		t.Error("expected search error panel")
	}
	if strings.Contains(body, "boom") {
		t.Error("internal error text must not leak")
	}
	if !strings.Contains(body, "The Midnight Library") {
		t.Error("recommendations missing")
	}
}

func TestResults_EmptyQueryShowsForm(t *testing.T) {
	rec := get(t, newTestRouter(t, &mockDiscoverer{}), "/search?q=++")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Please enter something to search for.") {
		t.Error("expected empty query message")
	}
}

func TestResults_EscapesQuery(t *testing.T) {
	d := &mockDiscoverer{result: discover.Result{Search: searchuc.Response{}}}
	body := get(t, newTestRouter(t, d), "/search?q=%3Cscript%3Ealert(1)%3C%2Fscript%3E").Body.String()

	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("query must be HTML-escaped")
	}
}

func TestStatic(t *testing.T) {
	rec := get(t, newTestRouter(t, &mockDiscoverer{}), "/static/style.css")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ".search-form") {
		t.Error("unexpected stylesheet body")
	}
}

func TestRecommendErrorMessage(t *testing.T) {
	if got := recommendErrorMessage(domain.ErrModelProviderError); !strings.Contains(got, "did not respond") {
		t.Errorf("provider message = %q", got)
	}
	if got := recommendErrorMessage(errors.New("other")); got != "Recommendations are temporarily unavailable." {
		t.Errorf("default message = %q", got)
	}
}

func TestResolveBranch(t *testing.T) {
	tests := []struct {
		in       string
		wantSlug string
		wantName string
	}{
		{"", "", ""},
		{"north-york", "north-york", "North York Central Library"},
		{" Scarborough ", "scarborough", "Scarborough Civic Centre"},
		{"central", "toronto-reference", "Toronto Reference Library"},
		{"Parkdale", "Parkdale", "Parkdale"},
	}
	for _, tt := range tests {
		slug, name := resolveBranch(tt.in)
		if slug != tt.wantSlug || name != tt.wantName {
			t.Errorf("resolveBranch(%q) = %q/%q, want %q/%q", tt.in, slug, name, tt.wantSlug, tt.wantName)
		}
	}
}

func TestBranchNames_MatchOnlyTheirOwnHolding(t *testing.T) {
	// holdings are matched by case-insensitive substring on the branch name
	for _, b := range branches[1:] {
		_, name := resolveBranch(b.Value)
		for _, other := range branches[1:] {
			hit := strings.Contains(strings.ToLower(other.Label), strings.ToLower(name))
			if hit != (other.Value == b.Value) {
				t.Errorf("branch %q matches holding %q = %v", b.Value, other.Label, hit)
			}
		}
	}
}

func TestResults_PassesBranchNameToDiscover(t *testing.T) {
	d := &mockDiscoverer{}
	rec := get(t, newTestRouter(t, d), "/search?q=atwood&branch=north-york")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if d.lastBranch != "North York Central Library" {
		t.Errorf("discover branch = %q, want North York Central Library", d.lastBranch)
	}
	if !strings.Contains(rec.Body.String(), `<option value="north-york" selected>`) {
		t.Error("north-york option should stay selected")
	}
}
