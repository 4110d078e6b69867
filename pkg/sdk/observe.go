package tplsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// operation names the SDK call being observed. The set is closed so metric
// cardinality stays fixed.
type operation string

const (
	opSearch    operation = "search"
	opRecommend operation = "recommend"
	opHealth    operation = "health"
)

// Outcomes recorded per operation.
const (
	outcomeOK        = "ok"
	outcomeFallback  = "fallback" // search answered from the static catalogue
	outcomeRejected  = "rejected" // refused locally, no request sent
	outcomeAPIError  = "api_error"
	outcomeCanceled  = "canceled"
	outcomeTimeout   = "timeout"
	outcomeTransport = "transport_error"
)

type sdkMetrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tplsearch",
		Subsystem: "sdk",
		Name:      "requests_total",
		Help:      "SDK calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tplsearch",
		Subsystem: "sdk",
		Name:      "request_duration_seconds",
		Help:      "SDK call latency, including the server round trip.",
		Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
	}, []string{"operation"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tplsearch",
		Subsystem: "sdk",
		Name:      "search_fallbacks_total",
		Help:      "Search responses served from the static catalogue, by server-reported reason.",
	}, []string{"reason"})

	var err error
	m := &sdkMetrics{}
	if m.requests, err = reuse(reg, requests); err != nil {
		return nil, err
	}
	if m.latency, err = reuse(reg, latency); err != nil {
		return nil, err
	}
	if m.fallbacks, err = reuse(reg, fallbacks); err != nil {
		return nil, err
	}
	return m, nil
}

// reuse registers c, or returns the collector already registered under the
// same descriptor so several clients can share one registry.
func reuse[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("tplsearch: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("tplsearch: metric registered with type %T", are.ExistingCollector)
	}
	return existing, nil
}

// observer records SDK calls. A nil observer, or one with neither a logger nor
// metrics, is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// search records a Search call. A fallback response is a success for the
// caller but is counted separately so a degraded catalogue shows up.
func (o *observer) search(start time.Time, res SearchResult, err error) {
	if o == nil {
		return
	}
	outcome := classify(err)
	if err == nil && !res.Live() {
		outcome = outcomeFallback
	}
	o.record(opSearch, outcome, time.Since(start), err)

	if outcome != outcomeFallback {
		return
	}
	reason := res.FallbackReason
	if reason == "" {
		reason = "unspecified"
	}
	if o.metrics != nil {
		o.metrics.fallbacks.WithLabelValues(reason).Inc()
	}
	if o.logger != nil {
		o.logger.Info("search served from fallback catalogue",
			"query", res.Query,
			"reason", reason,
			"results", res.Total,
		)
	}
}

func (o *observer) call(op operation, start time.Time, err error) {
	if o == nil {
		return
	}
	o.record(op, classify(err), time.Since(start), err)
}

func (o *observer) record(op operation, outcome string, dur time.Duration, err error) {
	if o.metrics != nil {
		o.metrics.requests.WithLabelValues(string(op), outcome).Inc()
		if outcome != outcomeRejected {
			o.metrics.latency.WithLabelValues(string(op)).Observe(dur.Seconds())
		}
	}
	if o.logger == nil {
		return
	}
	switch outcome {
	case outcomeOK, outcomeFallback:
		o.logger.Debug("tplsearch call completed", "op", op, "outcome", outcome, "duration", dur)
	case outcomeRejected, outcomeCanceled:
		o.logger.Debug("tplsearch call not completed", "op", op, "outcome", outcome, "error", err)
	default:
		o.logger.Warn("tplsearch call failed", "op", op, "outcome", outcome, "duration", dur, "error", err)
	}
}

func classify(err error) string {
	var (
		apiErr *APIError
		netErr net.Error
	)
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrEmptyQuery) && !errors.As(err, &apiErr):
		return outcomeRejected
	case errors.As(err, &apiErr):
		return outcomeAPIError
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return outcomeTimeout
	case errors.Is(err, context.Canceled):
		return outcomeCanceled
	default:
		return outcomeTransport
	}
}
