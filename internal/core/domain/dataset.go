package domain

import "fmt"

// DatasetRow is one flattened row of an ingest dataset. Column names
// keep their dotted source paths, e.g. "document_metadata.source_url".
type DatasetRow map[string]string

// DocumentFromDatasetRow maps a dataset row to a document. The title
// falls back to the source system's document ID so a document is never
// nameless; a missing source URL is an error because identity depends
// on it.
func DocumentFromDatasetRow(row DatasetRow) (Document, error) {
	sourceURL, ok := row["document_metadata.source_url"]
	if !ok || sourceURL == "" {
		return Document{}, WrapError(ErrInvalidInput, "document from dataset row",
			fmt.Errorf("document_metadata.source_url is required"))
	}

	title := row["document_metadata.document_title"]
	if title == "" {
		title = row["document_id"]
	}
	return Document{
		Title:              title,
		SourceURL:          sourceURL,
		Description:        row["document_metadata.description"],
		OriginalDocumentID: row["document_id"],
	}, nil
}

// PassageFromDatasetRow maps a dataset row to a passage, deriving the
// parent document's identifier from the same row.
func PassageFromDatasetRow(row DatasetRow) (Passage, error) {
	text, ok := row["text_block.text"]
	if !ok || text == "" {
		return Passage{}, WrapError(ErrInvalidInput, "passage from dataset row",
			fmt.Errorf("text_block.text is required"))
	}

	doc, err := DocumentFromDatasetRow(row)
	if err != nil {
		return Passage{}, err
	}
	return Passage{
		Text:              text,
		DocumentID:        doc.ID(),
		OriginalPassageID: row["text_block.text_block_id"],
	}, nil
}
