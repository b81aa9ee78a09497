package ports

import (
	"context"

	"github.com/evgraham/corpus-search/internal/core/domain"
)

// SearchEngine is the capability contract every search backend satisfies,
// parametrised by record kind. Implementations map their native results
// back into canonical records and never mutate a record after ingestion.
//
// Search is synchronous and stateless per call. Backends perform no
// automatic retries; retry policy, if any, belongs to the caller.
type SearchEngine[T domain.Record] interface {
	// Name identifies the engine implementation, e.g. for run fingerprints.
	Name() string

	// Search returns records relevant to the terms.
	Search(ctx context.Context, terms string, opts domain.SearchOptions) ([]T, error)
}

// ResultCounter is the optional counting capability. Backends that cannot
// produce an exact total simply do not implement it; callers must treat a
// missing implementation as "not supported", never approximate.
type ResultCounter interface {
	Count(ctx context.Context, terms string) (int, error)
}

type (
	DocumentSearchEngine = SearchEngine[domain.Document]
	PassageSearchEngine  = SearchEngine[domain.Passage]
	LabelSearchEngine    = SearchEngine[domain.Label]
)

// DatasetEventQueue publishes/consumes dataset lifecycle events.
type DatasetEventQueue interface {
	PublishDatasetLoaded(ctx context.Context, dataset string) error
	SubscribeDatasetLoaded(ctx context.Context, handler func(context.Context, string) error) error
}
