// Package symphony is a client for the library's Symphony Web Services catalogue search.
package symphony

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/tplsearch/internal/domain"
	"github.com/kailas-cloud/tplsearch/internal/domain/book"
	"github.com/kailas-cloud/tplsearch/internal/metrics"
)

const (
	searchPath      = "/symws/catalog/search"
	maxResponseSize = 4 << 20
)

// Fallback reasons reported through domain.CatalogueError.
const (
	ReasonTimeout     = "timeout"
	ReasonTransport   = "transport_error"
	ReasonMalformed   = "malformed_response"
	ReasonCircuitOpen = "circuit_open"
	ReasonRateLimited = "rate_limited"
)

// Config holds the catalogue client settings.
type Config struct {
	BaseURL     string
	SiteURL     string
	UserAgent   string
	Timeout     time.Duration
	ResultLimit int

	FailureThreshold uint32        // consecutive failures that open the breaker
	OpenTimeout      time.Duration // time the breaker stays open
	HalfOpenRequests uint32

	RPS   float64 // local request budget, 0 disables
	Burst int

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client searches the live catalogue. It never retries; callers fall back on error.
type Client struct {
	http        *http.Client
	baseURL     string
	userAgent   string
	timeout     time.Duration
	resultLimit int
	breaker     *gobreaker.CircuitBreaker[[]byte]
	limiter     *rate.Limiter
	normalizer  *Normalizer
	logger      *zap.Logger
}

// New creates a catalogue client.
func New(cfg *Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = 8
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	c := &Client{
		http:        httpClient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		timeout:     cfg.Timeout,
		resultLimit: cfg.ResultLimit,
		normalizer:  NewNormalizer(cfg.SiteURL),
		logger:      log,
	}

	if cfg.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "symphony",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// A caller that gave up says nothing about upstream health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CatalogueBreakerState.Set(float64(to))
			log.Warn("Catalogue circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

// Search queries the live catalogue. branch narrows availability; "" or "all" means system-wide.
// Every failure is a *domain.CatalogueError wrapping domain.ErrCatalogueUnavailable.
func (c *Client) Search(ctx context.Context, query, branch string) ([]book.Record, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		metrics.CatalogueRequestsTotal.WithLabelValues("rejected").Inc()
		return nil, domain.NewCatalogueError(ReasonRateLimited, domain.ErrRateLimited)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, query, branch)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CatalogueRequestsTotal.WithLabelValues("rejected").Inc()
			return nil, domain.NewCatalogueError(ReasonCircuitOpen, err)
		}
		return nil, err
	}

	return c.normalizer.Records(body, branch), nil
}

// BreakerState reports the circuit breaker state: closed, half-open or open.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) fetch(ctx context.Context, query, branch string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query, branch), http.NoBody)
	if err != nil {
		return nil, domain.NewCatalogueError(ReasonTransport, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.CatalogueRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CatalogueRequestsTotal.WithLabelValues("error").Inc()
		return nil, domain.NewCatalogueError(classify(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.CatalogueRequestsTotal.WithLabelValues("error").Inc()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, domain.NewCatalogueError("status_"+strconv.Itoa(resp.StatusCode),
			fmt.Errorf("symphony returned %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		metrics.CatalogueRequestsTotal.WithLabelValues("error").Inc()
		return nil, domain.NewCatalogueError(classify(err), fmt.Errorf("read body: %w", err))
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		metrics.CatalogueRequestsTotal.WithLabelValues("error").Inc()
		return nil, domain.NewCatalogueError(ReasonMalformed, errors.New("response is not a JSON object"))
	}

	metrics.CatalogueRequestsTotal.WithLabelValues("ok").Inc()
	return body, nil
}

func (c *Client) searchURL(query, branch string) string {
	params := url.Values{}
	params.Set("ct", "json")
	params.Set("rw", strconv.Itoa(c.resultLimit))
	params.Set("fmt", "json")
	params.Set("rt", "title")
	params.Set("q", query)
	if !book.IsAllBranches(branch) {
		params.Set("lib", branch)
	}
	return c.baseURL + searchPath + "?" + params.Encode()
}

func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonTransport
}
