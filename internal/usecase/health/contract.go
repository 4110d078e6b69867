package health

import "context"

// CachePinger checks reply cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// CatalogueBreaker reports the live catalogue circuit breaker state.
type CatalogueBreaker interface {
	BreakerState() string
}

// ModelChecker reports whether model credentials are present.
type ModelChecker interface {
	Configured() bool
}
