package discover

import (
	"context"

	"github.com/kailas-cloud/tplsearch/internal/domain/recommendation"
	"github.com/kailas-cloud/tplsearch/internal/usecase/recommend"
	"github.com/kailas-cloud/tplsearch/internal/usecase/search"
)

// Searcher runs a catalogue search.
type Searcher interface {
	Search(ctx context.Context, query, branch string) (search.Response, error)
}

// Recommender generates book recommendations.
type Recommender interface {
	Recommend(ctx context.Context, query string, prior []recommend.Prior) ([]recommendation.Record, error)
}
