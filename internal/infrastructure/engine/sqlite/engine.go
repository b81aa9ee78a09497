// Package sqlite implements the embedded-SQL search backend on top of
// modernc.org/sqlite. Search terms only ever reach the query engine
// through parameter binding; nothing in this package builds SQL from
// user input.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/evgraham/corpus-search/internal/core/domain"
)

const defaultBatchSize = 1000

// Options configures engine construction. Exactly one of Items and Path
// must be supplied; Path opens an existing database file, Items seeds an
// in-memory database.
type Options[T domain.Record] struct {
	Items     []T
	Path      string
	BatchSize int
}

// Engine is the embedded-SQL backend for one record kind. It owns its
// database handle for its whole lifetime; Close releases it.
type Engine[T domain.Record] struct {
	schema TableSchema[T]
	db     *sql.DB
}

func New[T domain.Record](schema TableSchema[T], opts Options[T]) (*Engine[T], error) {
	if opts.Items != nil && opts.Path != "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "construct sqlite engine",
			errors.New("items and path are mutually exclusive"))
	}
	if opts.Items == nil && opts.Path == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "construct sqlite engine",
			errors.New("either items or path must be provided"))
	}

	dsn := opts.Path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps every caller on the same in-memory
	// database and serialises concurrent readers.
	db.SetMaxOpenConns(1)

	e := &Engine[T]{schema: schema, db: db}

	if opts.Items != nil {
		if _, err := db.Exec(schema.CreateSQL); err != nil {
			db.Close()
			return nil, fmt.Errorf("create %s table: %w", schema.Table, err)
		}
		if err := e.insertItems(opts.Items, opts.BatchSize); err != nil {
			db.Close()
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine[T]) Name() string {
	return "sqlite/" + e.schema.Kind
}

// Close releases the database handle.
func (e *Engine[T]) Close() error {
	return e.db.Close()
}

// Search runs the schema's parameterised predicate with LIMIT/OFFSET.
func (e *Engine[T]) Search(ctx context.Context, terms string, opts domain.SearchOptions) ([]T, error) {
	if opts.Offset < 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "sqlite search",
			fmt.Errorf("offset must be non-negative, got %d", opts.Offset))
	}

	// LIMIT -1 means no limit in SQLite.
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT ? OFFSET ?", e.schema.Table, e.schema.SearchPredicate)
	params := append(e.schema.SearchParams(terms), limit, opts.Offset)

	rows, err := e.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", e.schema.Table, err)
	}
	defer rows.Close()

	results := make([]T, 0)
	for rows.Next() {
		item, err := e.schema.ScanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", e.schema.Table, err)
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", e.schema.Table, err)
	}
	return results, nil
}

// Count reports the total number of matching records.
func (e *Engine[T]) Count(ctx context.Context, terms string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", e.schema.Table, e.schema.SearchPredicate)

	var count int
	row := e.db.QueryRowContext(ctx, query, e.schema.SearchParams(terms)...)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", e.schema.Table, err)
	}
	return count, nil
}

func (e *Engine[T]) insertItems(items []T, batchSize int) error {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		tx, err := e.db.Begin()
		if err != nil {
			return fmt.Errorf("begin insert tx: %w", err)
		}
		stmt, err := tx.Prepare(e.schema.InsertSQL)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("prepare insert: %w", err)
		}
		for _, item := range items[start:end] {
			if _, err := stmt.Exec(e.schema.ExtractRow(item)...); err != nil {
				stmt.Close()
				tx.Rollback()
				return fmt.Errorf("insert %s row: %w", e.schema.Table, err)
			}
		}
		stmt.Close()
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit insert tx: %w", err)
		}
	}
	return nil
}
