package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled marks a component switched off by configuration.
	CheckDisabled CheckResult = "disabled"
)

const breakerOpen = "open"

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	catalogue CatalogueBreaker
	model     ModelChecker
	cache     CachePinger
}

// New creates a Service. catalogue and cache can be nil when disabled.
func New(catalogue CatalogueBreaker, model ModelChecker, cache CachePinger) *Service {
	return &Service{catalogue: catalogue, model: model, cache: cache}
}

// Check runs health checks against all components.
// Search keeps working on the static fallback, so no single failure makes the
// service unhealthy; any error only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)

	switch {
	case s.catalogue == nil:
		checks["catalogue"] = CheckDisabled
	case s.catalogue.BreakerState() == breakerOpen:
		checks["catalogue"] = CheckError
	default:
		checks["catalogue"] = CheckOK
	}

	if s.model != nil && s.model.Configured() {
		checks["model"] = CheckOK
	} else {
		checks["model"] = CheckError
	}

	if s.cache == nil {
		checks["cache"] = CheckDisabled
	} else if err := s.cache.Ping(ctx); err != nil {
		checks["cache"] = CheckError
	} else {
		checks["cache"] = CheckOK
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
