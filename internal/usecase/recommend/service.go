package recommend

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tplsearch/internal/domain"
	"github.com/kailas-cloud/tplsearch/internal/domain/recommendation"
	"github.com/kailas-cloud/tplsearch/internal/logger"
	"github.com/kailas-cloud/tplsearch/internal/metrics"
)

// MaxPrior caps how many already-found books are named in the prompt.
const MaxPrior = 8

// Service generates book recommendations with a hosted language model.
type Service struct {
	model Completer
}

// New creates a recommendation service.
func New(model Completer) *Service {
	return &Service{model: model}
}

// Recommend returns recommendations for query, avoiding the books in prior.
// A reply that cannot be parsed yields the fixed fallback records; a parsed
// reply is normalised to exactly recommendation.Count records.
// Model transport failures are returned, wrapped in domain.ErrModelProviderError.
func (s *Service) Recommend(ctx context.Context, query string, prior []Prior) ([]recommendation.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if !s.model.Configured() {
		return nil, domain.ErrModelNotConfigured
	}
	if len(prior) > MaxPrior {
		prior = prior[:MaxPrior]
	}

	reply, err := s.model.Complete(ctx, buildPrompt(query, prior))
	if err != nil {
		return nil, fmt.Errorf("complete recommendation prompt: %w", err)
	}

	records, strategy := parseReply(reply)
	metrics.RecommendationParseTotal.WithLabelValues(strategy).Inc()

	if strategy == strategyFallback {
		logger.FromContext(ctx).Warn("Unparseable model reply, using fallback recommendations",
			zap.Int("reply_len", len(reply)),
		)
		return records, nil
	}
	return recommendation.Normalize(records), nil
}
