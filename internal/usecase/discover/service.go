// Package discover runs a catalogue search and a recommendation request side by side.
package discover

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tplsearch/internal/domain"
	"github.com/kailas-cloud/tplsearch/internal/domain/recommendation"
	"github.com/kailas-cloud/tplsearch/internal/logger"
	"github.com/kailas-cloud/tplsearch/internal/usecase/search"
)

// Result holds both halves of a discovery. Each half carries its own error;
// one failing never hides the other.
type Result struct {
	Query           string
	Branch          string
	Search          search.Response
	SearchErr       error
	Recommendations []recommendation.Record
	RecommendErr    error
}

// Service fans a query out to search and recommendation.
type Service struct {
	search    Searcher
	recommend Recommender
}

// New creates a discovery service.
func New(s Searcher, r Recommender) *Service {
	return &Service{search: s, recommend: r}
}

// Discover runs both requests concurrently and waits for both.
// The only error returned directly is domain.ErrEmptyQuery.
func (s *Service) Discover(ctx context.Context, query, branch string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, domain.ErrEmptyQuery
	}
	res := Result{Query: query, Branch: strings.TrimSpace(branch)}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Search, res.SearchErr = s.search.Search(ctx, query, res.Branch)
	}()
	go func() {
		defer wg.Done()
		res.Recommendations, res.RecommendErr = s.recommend.Recommend(ctx, query, nil)
	}()
	wg.Wait()

	log := logger.FromContext(ctx)
	if res.SearchErr != nil {
		log.Error("Discover search failed", zap.Error(res.SearchErr))
	}
	if res.RecommendErr != nil {
		log.Warn("Discover recommendations failed", zap.Error(res.RecommendErr))
	}
	return res, nil
}
