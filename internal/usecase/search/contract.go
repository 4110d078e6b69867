package search

import (
	"context"

	"github.com/kailas-cloud/tplsearch/internal/domain/book"
)

// LiveCatalogue looks up records in the live library catalogue.
// Failures are expected to wrap domain.ErrCatalogueUnavailable.
type LiveCatalogue interface {
	Search(ctx context.Context, query, branch string) ([]book.Record, error)
}
