package domain

import "encoding/json"

// Passage is a text block belonging to a document. Immutable value object;
// the owning document is referenced by ID, not embedded.
type Passage struct {
	// Text is the content of the passage.
	Text string `json:"text"`

	// DocumentID is the canonical ID of the owning document.
	DocumentID Identifier `json:"document_id"`

	// Labels references associated taxonomy labels by ID.
	Labels []Identifier `json:"labels"`

	// OriginalPassageID is the source system's text-block ID.
	// Identity-irrelevant.
	OriginalPassageID string `json:"original_passage_id"`
}

// ID is the content-addressed identifier for the passage, computed from
// Text and DocumentID only.
func (p Passage) ID() Identifier {
	return generateID(p.Text, string(p.DocumentID))
}

// RecordID implements Record.
func (p Passage) RecordID() string {
	return string(p.ID())
}

// MarshalJSON includes the computed id alongside the stored fields.
func (p Passage) MarshalJSON() ([]byte, error) {
	type alias Passage
	return json.Marshal(struct {
		ID Identifier `json:"id"`
		alias
	}{p.ID(), alias(p)})
}
