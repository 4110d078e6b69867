package symphony

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/tplsearch/internal/domain"
	"github.com/kailas-cloud/tplsearch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterUpstreamMetrics()
	os.Exit(m.Run())
}

const liveBody = `{
  "results": [
    {"titleKey": "3344123", "title": "Dune /", "author": "Herbert, Frank", "callNumber": "SF HER",
     "isbn": "9780441172719", "publishYear": "c1965.", "holdings": [
       {"library": "Parkdale", "copies": 2, "available": 1},
       {"library": "Toronto Reference Library", "copies": 3, "available": 0}
     ]}
  ]
}`

func newTestClient(url string, mod func(*Config)) *Client {
	cfg := &Config{
		BaseURL:          url,
		SiteURL:          "https://www.torontopubliclibrary.ca",
		UserAgent:        "tplsearch-test",
		Timeout:          time.Second,
		ResultLimit:      8,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}
	if mod != nil {
		mod(cfg)
	}
	return New(cfg)
}

func catalogueReason(t *testing.T, err error) string {
	t.Helper()
	if !errors.Is(err, domain.ErrCatalogueUnavailable) {
		t.Fatalf("err = %v, want ErrCatalogueUnavailable", err)
	}
	var ce *domain.CatalogueError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *domain.CatalogueError", err)
	}
	return ce.Reason
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/symws/catalog/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		want := map[string]string{"ct": "json", "rw": "8", "fmt": "json", "rt": "title", "q": "dune", "lib": "Parkdale"}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("param %s = %q, want %q", k, q.Get(k), v)
			}
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("accept = %q", r.Header.Get("Accept"))
		}
		if r.Header.Get("User-Agent") != "tplsearch-test" {
			t.Errorf("user agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(liveBody))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL, nil).Search(context.Background(), "dune", "Parkdale")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	r := records[0]
	if r.ID != "tpl_3344123" || r.Title != "Dune" || r.Author != "Herbert, Frank" {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.HoldURL != "https://www.torontopubliclibrary.ca/detail.jsp?Entt=RDM3344123" {
		t.Errorf("hold url = %q", r.HoldURL)
	}
	if got := r.Availability.Message(); got != "1 of 2 copies available at Parkdale" {
		t.Errorf("availability message = %q", got)
	}
}

func TestClient_SearchOmitsLibForAllBranches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("lib") {
			t.Errorf("lib should be omitted, got %q", r.URL.Query().Get("lib"))
		}
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL, nil).Search(context.Background(), "dune", "all")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			reason: "status_503",
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>maintenance</html>"))
			},
			reason: ReasonMalformed,
		},
		{
			name: "json array body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[1, 2]`))
			},
			reason: ReasonMalformed,
		},
		{
			name: "slow upstream",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			reason: ReasonTimeout,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			c := newTestClient(server.URL, func(cfg *Config) { cfg.Timeout = 50 * time.Millisecond })
			_, err := c.Search(context.Background(), "dune", "")
			if got := catalogueReason(t, err); got != tc.reason {
				t.Errorf("reason = %q, want %q", got, tc.reason)
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url, nil).Search(context.Background(), "dune", "")
	if got := catalogueReason(t, err); got != ReasonTransport {
		t.Errorf("reason = %q, want %q", got, ReasonTransport)
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(server.URL, nil)
	for i := 0; i < 2; i++ {
		_, _ = c.Search(context.Background(), "dune", "")
	}
	if c.BreakerState() != "open" {
		t.Fatalf("breaker state = %q, want open", c.BreakerState())
	}

	_, err := c.Search(context.Background(), "dune", "")
	if got := catalogueReason(t, err); got != ReasonCircuitOpen {
		t.Errorf("reason = %q, want %q", got, ReasonCircuitOpen)
	}
	if hits.Load() != 2 {
		t.Errorf("upstream hits = %d, want 2", hits.Load())
	}
}

func TestClient_CanceledCallerDoesNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 3; i++ {
		if _, err := c.Search(ctx, "dune", ""); err == nil {
			t.Fatal("expected error for canceled context")
		}
	}
	if c.BreakerState() != "closed" {
		t.Errorf("breaker state = %q, want closed", c.BreakerState())
	}
}

func TestClient_RateLimited(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, func(cfg *Config) {
		cfg.RPS = 0.001
		cfg.Burst = 1
	})

	if _, err := c.Search(context.Background(), "dune", ""); err != nil {
		t.Fatalf("first search: %v", err)
	}
	_, err := c.Search(context.Background(), "dune", "")
	if got := catalogueReason(t, err); got != ReasonRateLimited {
		t.Errorf("reason = %q, want %q", got, ReasonRateLimited)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Error("expected ErrRateLimited in chain")
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hits = %d, want 1", hits.Load())
	}
}
