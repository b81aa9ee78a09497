package domain

import "encoding/json"

// Document is a canonical record for a corpus document. Documents are
// immutable value objects: a changed title or source URL is a new logical
// document, not an update.
type Document struct {
	// Title is the human-readable title of the document.
	Title string `json:"title"`

	// SourceURL is where the original document can be found.
	SourceURL string `json:"source_url"`

	// Description is a summary of the document. Identity-irrelevant.
	Description string `json:"description"`

	// OriginalDocumentID is the document's ID in the source system.
	// Identity-irrelevant.
	OriginalDocumentID string `json:"original_document_id"`

	// Labels references associated taxonomy labels by ID.
	Labels []Identifier `json:"labels"`

	// Passages references the document's passages by ID.
	Passages []Identifier `json:"passages"`
}

// ID is the content-addressed identifier for the document, computed from
// Title and SourceURL only. Mutating any other field never changes it.
func (d Document) ID() Identifier {
	return generateID(d.Title, d.SourceURL)
}

// RecordID implements Record.
func (d Document) RecordID() string {
	return string(d.ID())
}

// MarshalJSON includes the computed id alongside the stored fields.
func (d Document) MarshalJSON() ([]byte, error) {
	type alias Document
	return json.Marshal(struct {
		ID Identifier `json:"id"`
		alias
	}{d.ID(), alias(d)})
}
