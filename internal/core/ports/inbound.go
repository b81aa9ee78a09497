package ports

import (
	"context"

	"github.com/evgraham/corpus-search/internal/core/domain"
)

// RecordSearchService is the inbound contract for paginated record search.
type RecordSearchService[T domain.Record] interface {
	SearchPage(ctx context.Context, req domain.PageRequest) (*domain.Page[T], error)
}
