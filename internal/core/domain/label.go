package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// Label is a taxonomy label, e.g. a topic or geography a document or
// passage is tagged with.
type Label struct {
	// PreferredLabel is the canonical display form.
	PreferredLabel string `json:"preferred_label"`

	// AlternativeLabels are synonyms that should also match in search.
	AlternativeLabels []string `json:"alternative_labels"`

	// NegativeLabels are surface forms explicitly not covered by this label.
	NegativeLabels []string `json:"negative_labels"`

	// Description explains the label's intended scope.
	Description string `json:"description,omitempty"`

	// Source is the external system the label was ingested from.
	Source string `json:"source"`

	// IDAtSource is the label's ID in that system.
	IDAtSource string `json:"id_at_source"`
}

// ID is the content-addressed identifier for the label: a base identifier
// over (Source, IDAtSource) with IDAtSource appended as suffix.
func (l Label) ID() SuffixedID {
	base := generateID(l.Source, l.IDAtSource)
	return SuffixedID(string(base) + "_" + l.IDAtSource)
}

// RecordID implements Record.
func (l Label) RecordID() string {
	return string(l.ID())
}

// AllLabels returns the preferred label followed by the alternative
// labels. Recomputed on every call, never stored.
func (l Label) AllLabels() []string {
	out := make([]string, 0, len(l.AlternativeLabels)+1)
	out = append(out, l.PreferredLabel)
	out = append(out, l.AlternativeLabels...)
	return out
}

// AllLabelsLowercased is the lowercased form of AllLabels, used by search
// backends for case-insensitive matching.
func (l Label) AllLabelsLowercased() []string {
	all := l.AllLabels()
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = strings.ToLower(s)
	}
	return out
}

// SortedAlternativeLabels returns the alternative labels in lexicographic
// order, for deterministic searchable-string construction.
func (l Label) SortedAlternativeLabels() []string {
	out := make([]string, len(l.AlternativeLabels))
	copy(out, l.AlternativeLabels)
	sort.Strings(out)
	return out
}

// MarshalJSON includes the computed id alongside the stored fields.
func (l Label) MarshalJSON() ([]byte, error) {
	type alias Label
	return json.Marshal(struct {
		ID SuffixedID `json:"id"`
		alias
	}{l.ID(), alias(l)})
}
