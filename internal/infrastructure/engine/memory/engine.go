// Package memory implements the linear-scan search backend: a
// correctness/dev-mode baseline that matches lowercased substrings
// against precomputed searchable strings. Results keep source order and
// are neither deduplicated nor ranked.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/evgraham/corpus-search/internal/core/domain"
)

// splitToken separates searchable components so that no legitimate query
// can span a field boundary: without it, "b c" would match a record whose
// title ends in "b" and whose description starts with "c".
const splitToken = "<SPLIT>"

// Options configures engine construction. Exactly one of Items and Path
// must be supplied; Path names a JSONL file of serialised records.
type Options[T domain.Record] struct {
	Items []T
	Path  string
}

// Engine is the in-memory linear-scan backend for one record kind. It
// owns its loaded record list for its whole lifetime and never mutates a
// record after construction.
type Engine[T domain.Record] struct {
	schema     Schema[T]
	items      []T
	searchable []string
}

func New[T domain.Record](schema Schema[T], opts Options[T]) (*Engine[T], error) {
	if opts.Items != nil && opts.Path != "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "construct memory engine",
			errors.New("items and path are mutually exclusive"))
	}
	if opts.Items == nil && opts.Path == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "construct memory engine",
			errors.New("either items or path must be provided"))
	}

	items := opts.Items
	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("read dataset %s: %w", opts.Path, err)
		}
		items, err = domain.UnmarshalJSONL[T](data)
		if err != nil {
			return nil, fmt.Errorf("parse dataset %s: %w", opts.Path, err)
		}
	}

	e := &Engine[T]{
		schema:     schema,
		items:      items,
		searchable: make([]string, len(items)),
	}
	for i, item := range items {
		e.searchable[i] = buildSearchableString(schema.SearchableComponents(item))
	}
	return e, nil
}

func (e *Engine[T]) Name() string {
	return "memory/" + e.schema.Kind
}

// Search lowercases the terms and substring-tests them against each
// precomputed searchable string.
func (e *Engine[T]) Search(_ context.Context, terms string, opts domain.SearchOptions) ([]T, error) {
	lowered := strings.ToLower(terms)

	matched := make([]T, 0)
	for i, item := range e.items {
		if strings.Contains(e.searchable[i], lowered) {
			matched = append(matched, item)
		}
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []T{}, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// Count reports how many records match the terms.
func (e *Engine[T]) Count(_ context.Context, terms string) (int, error) {
	lowered := strings.ToLower(terms)
	count := 0
	for _, s := range e.searchable {
		if strings.Contains(s, lowered) {
			count++
		}
	}
	return count, nil
}

// Components are lowercased individually; the separator stays uppercase
// so a lowercased query can never match it.
func buildSearchableString(components []string) string {
	lowered := make([]string, len(components))
	for i, c := range components {
		lowered[i] = strings.ToLower(c)
	}
	return strings.Join(lowered, " "+splitToken+" ")
}
