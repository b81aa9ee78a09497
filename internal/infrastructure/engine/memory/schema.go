package memory

import "github.com/evgraham/corpus-search/internal/core/domain"

// Schema names a record kind and declares which of its text fields take
// part in linear-scan matching.
type Schema[T domain.Record] struct {
	Kind string

	// SearchableComponents extracts the identity- and display-relevant
	// text fields, in a fixed order.
	SearchableComponents func(T) []string
}

func DocumentSchema() Schema[domain.Document] {
	return Schema[domain.Document]{
		Kind: "document",
		SearchableComponents: func(d domain.Document) []string {
			return []string{d.Title, d.Description}
		},
	}
}

func PassageSchema() Schema[domain.Passage] {
	return Schema[domain.Passage]{
		Kind: "passage",
		SearchableComponents: func(p domain.Passage) []string {
			return []string{p.Text}
		},
	}
}

func LabelSchema() Schema[domain.Label] {
	return Schema[domain.Label]{
		Kind: "label",
		SearchableComponents: func(l domain.Label) []string {
			components := []string{l.PreferredLabel}
			components = append(components, l.SortedAlternativeLabels()...)
			components = append(components, l.Description)
			return components
		},
	}
}
