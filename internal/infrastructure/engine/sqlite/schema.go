package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/evgraham/corpus-search/internal/core/domain"
)

// TableSchema describes one record kind's table: DDL, insert shape and
// the search predicate. Search predicates use placeholders only; terms
// are bound as parameters, never interpolated.
type TableSchema[T domain.Record] struct {
	Kind      string
	Table     string
	CreateSQL string
	InsertSQL string

	// SearchPredicate is the WHERE clause body with one placeholder per
	// entry returned by SearchParams.
	SearchPredicate string
	SearchParams    func(terms string) []any

	ExtractRow func(T) []any
	ScanRow    func(*sql.Rows) (T, error)
}

func DocumentTableSchema() TableSchema[domain.Document] {
	return TableSchema[domain.Document]{
		Kind:  "document",
		Table: "documents",
		CreateSQL: `CREATE TABLE documents (
			id TEXT,
			title TEXT,
			source_url TEXT,
			description TEXT,
			original_document_id TEXT
		)`,
		InsertSQL:       `INSERT INTO documents VALUES (?, ?, ?, ?, ?)`,
		SearchPredicate: `title LIKE ? OR description LIKE ?`,
		SearchParams: func(terms string) []any {
			pattern := likePattern(terms)
			return []any{pattern, pattern}
		},
		ExtractRow: func(d domain.Document) []any {
			return []any{string(d.ID()), d.Title, d.SourceURL, d.Description, d.OriginalDocumentID}
		},
		ScanRow: func(rows *sql.Rows) (domain.Document, error) {
			var id string
			var d domain.Document
			err := rows.Scan(&id, &d.Title, &d.SourceURL, &d.Description, &d.OriginalDocumentID)
			return d, err
		},
	}
}

func PassageTableSchema() TableSchema[domain.Passage] {
	return TableSchema[domain.Passage]{
		Kind:  "passage",
		Table: "passages",
		CreateSQL: `CREATE TABLE passages (
			id TEXT,
			text TEXT,
			document_id TEXT,
			labels TEXT,
			original_passage_id TEXT
		)`,
		InsertSQL:       `INSERT INTO passages VALUES (?, ?, ?, ?, ?)`,
		SearchPredicate: `text LIKE ?`,
		SearchParams: func(terms string) []any {
			return []any{likePattern(terms)}
		},
		ExtractRow: func(p domain.Passage) []any {
			return []any{string(p.ID()), p.Text, string(p.DocumentID), marshalJSONColumn(p.Labels), p.OriginalPassageID}
		},
		ScanRow: func(rows *sql.Rows) (domain.Passage, error) {
			var id, documentID, labelsRaw string
			var p domain.Passage
			if err := rows.Scan(&id, &p.Text, &documentID, &labelsRaw, &p.OriginalPassageID); err != nil {
				return p, err
			}
			p.DocumentID = domain.Identifier(documentID)
			if err := unmarshalJSONColumn(labelsRaw, &p.Labels); err != nil {
				return p, fmt.Errorf("decode labels column: %w", err)
			}
			return p, nil
		},
	}
}

func LabelTableSchema() TableSchema[domain.Label] {
	return TableSchema[domain.Label]{
		Kind:  "label",
		Table: "labels",
		CreateSQL: `CREATE TABLE labels (
			id TEXT,
			preferred_label TEXT,
			alternative_labels TEXT,
			negative_labels TEXT,
			description TEXT,
			source TEXT,
			id_at_source TEXT
		)`,
		InsertSQL: `INSERT INTO labels VALUES (?, ?, ?, ?, ?, ?, ?)`,
		// Alternative labels live in a JSON array column; json_each keeps
		// the array-containment check inside the parameterised query.
		SearchPredicate: `preferred_label LIKE ?
			OR description LIKE ?
			OR EXISTS (
				SELECT 1 FROM json_each(labels.alternative_labels)
				WHERE json_each.value LIKE ?
			)`,
		SearchParams: func(terms string) []any {
			pattern := likePattern(terms)
			return []any{pattern, pattern, pattern}
		},
		ExtractRow: func(l domain.Label) []any {
			return []any{
				string(l.ID()),
				l.PreferredLabel,
				marshalJSONColumn(l.AlternativeLabels),
				marshalJSONColumn(l.NegativeLabels),
				l.Description,
				l.Source,
				l.IDAtSource,
			}
		},
		ScanRow: func(rows *sql.Rows) (domain.Label, error) {
			var id, alternativesRaw, negativesRaw string
			var l domain.Label
			err := rows.Scan(&id, &l.PreferredLabel, &alternativesRaw, &negativesRaw, &l.Description, &l.Source, &l.IDAtSource)
			if err != nil {
				return l, err
			}
			if err := unmarshalJSONColumn(alternativesRaw, &l.AlternativeLabels); err != nil {
				return l, fmt.Errorf("decode alternative_labels column: %w", err)
			}
			if err := unmarshalJSONColumn(negativesRaw, &l.NegativeLabels); err != nil {
				return l, fmt.Errorf("decode negative_labels column: %w", err)
			}
			return l, nil
		},
	}
}

func likePattern(terms string) string {
	return "%" + terms + "%"
}

func marshalJSONColumn(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func unmarshalJSONColumn[E any](raw string, dst *[]E) error {
	if raw == "" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}
