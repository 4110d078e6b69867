package metrics

import "github.com/prometheus/client_golang/prometheus"

// Catalogue (Symphony) metrics.
var (
	CatalogueRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalogue_requests_total",
			Help:      "Outbound catalogue search requests by outcome",
		},
		[]string{"status"}, // ok / error / rejected
	)

	CatalogueRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalogue_request_duration_seconds",
			Help:      "Outbound catalogue search duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
	)

	CatalogueBreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalogue_breaker_state",
			Help:      "Catalogue circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	SearchResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_responses_total",
			Help:      "Search responses by api_status and fallback reason",
		},
		[]string{"api_status", "reason"},
	)
)

// Model (recommendation) metrics.
var (
	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Total number of model completion requests",
		},
		[]string{"model", "status"},
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Model completion duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"model"},
	)

	ModelTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_tokens_total",
			Help:      "Total model tokens consumed",
		},
		[]string{"model", "type"}, // prompt / completion
	)

	RecommendationParseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_parse_total",
			Help:      "Model reply parse outcomes by strategy",
		},
		[]string{"strategy"}, // span / balanced / whole / fallback
	)

	ReplyCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reply_cache_total",
			Help:      "Recommendation reply cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var upstreamMetricsRegistered bool

// RegisterUpstreamMetrics registers catalogue and model metrics. Must be called once from main.
func RegisterUpstreamMetrics() {
	if upstreamMetricsRegistered {
		return
	}
	prometheus.MustRegister(CatalogueRequestsTotal)
	prometheus.MustRegister(CatalogueRequestDuration)
	prometheus.MustRegister(CatalogueBreakerState)
	prometheus.MustRegister(SearchResponsesTotal)
	prometheus.MustRegister(ModelRequestsTotal)
	prometheus.MustRegister(ModelRequestDuration)
	prometheus.MustRegister(ModelTokensTotal)
	prometheus.MustRegister(RecommendationParseTotal)
	prometheus.MustRegister(ReplyCacheTotal)
	upstreamMetricsRegistered = true
}
