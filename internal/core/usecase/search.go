package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evgraham/corpus-search/internal/core/domain"
	"github.com/evgraham/corpus-search/internal/core/ports"
)

// SearchUseCase turns pagination requests into engine calls for one
// record kind. The engine is interchangeable: anything satisfying the
// search contract serves the same pages.
type SearchUseCase[T domain.Record] struct {
	engine ports.SearchEngine[T]
	log    *slog.Logger
}

func NewSearchUseCase[T domain.Record](engine ports.SearchEngine[T], log *slog.Logger) *SearchUseCase[T] {
	return &SearchUseCase[T]{engine: engine, log: log}
}

// EngineName exposes the backing engine's name for instrumentation.
func (uc *SearchUseCase[T]) EngineName() string {
	return uc.engine.Name()
}

func (uc *SearchUseCase[T]) SearchPage(ctx context.Context, req domain.PageRequest) (*domain.Page[T], error) {
	req, err := req.Normalised()
	if err != nil {
		return nil, err
	}

	results, err := uc.engine.Search(ctx, req.SearchTerms, domain.SearchOptions{
		Limit:  req.PageSize,
		Offset: req.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", uc.engine.Name(), err)
	}

	page := &domain.Page[T]{
		Results:     results,
		Page:        req.Page,
		PageSize:    req.PageSize,
		Full:        len(results) == req.PageSize,
		HasPrevious: req.Page > 1,
	}

	if req.WithCount {
		counter, ok := any(uc.engine).(ports.ResultCounter)
		if !ok {
			return nil, domain.WrapError(domain.ErrCountUnsupported, "count results",
				fmt.Errorf("engine %s does not support counting", uc.engine.Name()))
		}
		total, err := counter.Count(ctx, req.SearchTerms)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", uc.engine.Name(), err)
		}
		totalPages := (total + req.PageSize - 1) / req.PageSize
		page.TotalResults = &total
		page.TotalPages = &totalPages
	}

	uc.log.Debug("search_page_served",
		"engine", uc.engine.Name(),
		"page", req.Page,
		"page_size", req.PageSize,
		"results", len(results),
		"with_count", req.WithCount)

	return page, nil
}
