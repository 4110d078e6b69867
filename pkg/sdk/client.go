package tplsearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "tplsearch-go-sdk"
	maxErrorBody     = 4 << 10
)

// Client is the tplsearch SDK entry point. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	obs       *observer
}

// New creates a Client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("tplsearch: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("tplsearch: base url must be http or https, got %q", baseURL)
	}

	cfg := &clientConfig{timeout: defaultTimeout, userAgent: defaultUserAgent}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{baseURL: u, http: hc, userAgent: cfg.userAgent, obs: obs}, nil
}

// Search queries the library catalogue. branch may be empty.
// A degraded upstream is not an error: check SearchResult.APIStatus.
func (c *Client) Search(ctx context.Context, query, branch string) (res SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.search(start, res, err) }()

	if strings.TrimSpace(query) == "" {
		return SearchResult{}, ErrEmptyQuery
	}
	body := map[string]string{"query": query, "branch": branch}
	err = c.do(ctx, http.MethodPost, "/api/search", body, &res)
	return res, err
}

// Recommend asks for book recommendations related to query, excluding prior.
func (c *Client) Recommend(ctx context.Context, query string, prior []PriorBook) (recs []Recommendation, err error) {
	start := time.Now()
	defer func() { c.obs.call(opRecommend, start, err) }()

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	body := struct {
		Query         string      `json:"query"`
		SearchResults []PriorBook `json:"searchResults,omitempty"`
	}{Query: query, SearchResults: prior}

	var resp struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err = c.do(ctx, http.MethodPost, "/api/recommendations", body, &resp); err != nil {
		return nil, err
	}
	return resp.Recommendations, nil
}

// Discover runs Search and Recommend concurrently. Each half carries its own
// error and neither cancels the other.
func (c *Client) Discover(ctx context.Context, query, branch string) Discovery {
	var (
		d  Discovery
		wg sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.Search, d.SearchErr = c.Search(ctx, query, branch)
	}()
	go func() {
		defer wg.Done()
		d.Recommendations, d.RecommendErr = c.Recommend(ctx, query, nil)
	}()
	wg.Wait()
	return d
}

// Health fetches the server health report. A degraded server is reported in
// HealthStatus.Status, not as an error.
func (c *Client) Health(ctx context.Context) (hs HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.call(opHealth, start, err) }()

	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("tplsearch: health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return HealthStatus{}, readAPIError(resp)
	}
	if err = json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return HealthStatus{}, fmt.Errorf("tplsearch: decode health: %w", err)
	}
	return hs, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("tplsearch: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tplsearch: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tplsearch: decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
	if err != nil {
		return nil, fmt.Errorf("tplsearch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		apiErr.Code, apiErr.Message = body.Code, body.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}

// IsAPIError reports whether err came from a non-2xx server response.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
