package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tplsearch/internal/domain"
	"github.com/kailas-cloud/tplsearch/internal/domain/book"
	"github.com/kailas-cloud/tplsearch/internal/domain/catalogue"
	"github.com/kailas-cloud/tplsearch/internal/logger"
	"github.com/kailas-cloud/tplsearch/internal/metrics"
)

// APIStatus reports which path produced a search response.
type APIStatus string

const (
	// StatusSuccess means the live catalogue answered.
	StatusSuccess APIStatus = "success"
	// StatusFallback means the static catalogue answered.
	StatusFallback APIStatus = "fallback"
)

// ReasonDisabled is the fallback reason when no live catalogue is configured.
const ReasonDisabled = "live_catalogue_disabled"

// Response is the uniform search envelope.
type Response struct {
	Results        []book.Record
	Query          string
	Branch         string
	Timestamp      time.Time
	Source         string
	APIStatus      APIStatus
	FallbackReason string
}

// Total returns the number of results.
func (r Response) Total() int { return len(r.Results) }

// Config tunes the search service.
type Config struct {
	ResultLimit       int    // max fallback results, default 8
	SiteURL           string // public site used for fallback deep links
	Seed              uint64 // fallback availability seed
	ScoreDescriptions bool
}

// Service searches the live catalogue and falls back to the static catalogue on any failure.
type Service struct {
	live      LiveCatalogue
	catalogue *catalogue.Catalogue
	scorer    *Scorer
	avail     availabilityGenerator
	links     book.Links
	limit     int
	now       func() time.Time
}

// New creates a search service. live can be nil: every search is then served from the fallback.
func New(live LiveCatalogue, cat *catalogue.Catalogue, cfg Config) *Service {
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = 8
	}
	var opts []ScorerOption
	if cfg.ScoreDescriptions {
		opts = append(opts, WithDescriptions())
	}
	return &Service{
		live:      live,
		catalogue: cat,
		scorer:    NewScorer(opts...),
		avail:     availabilityGenerator{seed: cfg.Seed},
		links:     book.NewLinks(cfg.SiteURL),
		limit:     cfg.ResultLimit,
		now:       time.Now,
	}
}

// Search returns catalogue records for query, preferring the given branch.
// The only error is domain.ErrEmptyQuery: upstream failures are answered from the fallback.
func (s *Service) Search(ctx context.Context, query, branch string) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, domain.ErrEmptyQuery
	}
	branch = strings.TrimSpace(branch)

	resp := Response{
		Query:     query,
		Branch:    branch,
		Timestamp: s.now().UTC(),
	}

	reason := ReasonDisabled
	if s.live != nil {
		records, err := s.live.Search(ctx, query, branch)
		if err == nil {
			resp.Results = records
			resp.Source = book.SourceLive
			resp.APIStatus = StatusSuccess
			metrics.SearchResponsesTotal.WithLabelValues(string(StatusSuccess), "").Inc()
			return resp, nil
		}
		reason = fallbackReason(ctx, err)
		logger.FromContext(ctx).Warn("Live catalogue unavailable, serving fallback",
			zap.String("reason", reason),
			zap.Error(err),
		)
	}

	resp.Results = s.fallbackSearch(query, branch)
	resp.Source = book.SourceFallback
	resp.APIStatus = StatusFallback
	resp.FallbackReason = reason
	metrics.SearchResponsesTotal.WithLabelValues(string(StatusFallback), reason).Inc()
	return resp, nil
}

// fallbackReason maps a live catalogue error to a short reason label.
func fallbackReason(ctx context.Context, err error) string {
	var ce *domain.CatalogueError
	switch {
	case errors.As(err, &ce) && ce.Reason != "":
		return ce.Reason
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled), ctx.Err() != nil:
		return "canceled"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
