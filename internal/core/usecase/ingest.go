package usecase

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/evgraham/corpus-search/internal/core/domain"
	"github.com/evgraham/corpus-search/internal/core/ports"
)

// DatasetCollections holds the canonical records extracted from one
// ingest dataset. Documents are deduplicated: many rows share one
// parent document and identical identity fields collapse to one ID.
type DatasetCollections struct {
	Documents []domain.Document
	Passages  []domain.Passage
}

// LoadDatasetUseCase reads flattened ingest rows (JSONL, one row per
// line) and maps them to canonical records. Producing those rows is an
// upstream concern.
type LoadDatasetUseCase struct {
	queue ports.DatasetEventQueue
	log   *slog.Logger
}

// NewLoadDatasetUseCase builds the loader. The queue may be nil when
// no one listens for dataset events.
func NewLoadDatasetUseCase(queue ports.DatasetEventQueue, log *slog.Logger) *LoadDatasetUseCase {
	return &LoadDatasetUseCase{queue: queue, log: log}
}

func (uc *LoadDatasetUseCase) Load(ctx context.Context, path string) (*DatasetCollections, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	collections := &DatasetCollections{
		Documents: []domain.Document{},
		Passages:  []domain.Passage{},
	}
	seenDocs := make(map[string]bool)
	skipped := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var row domain.DatasetRow
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("parse dataset row %d: %w", lineNo, err)
		}

		passage, err := domain.PassageFromDatasetRow(row)
		if err != nil {
			// Rows without a source URL or text cannot be addressed;
			// skip them rather than abort a multi-million row load.
			if domain.IsKind(err, domain.ErrInvalidInput) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("dataset row %d: %w", lineNo, err)
		}
		collections.Passages = append(collections.Passages, passage)

		doc, err := domain.DocumentFromDatasetRow(row)
		if err != nil {
			return nil, fmt.Errorf("dataset row %d: %w", lineNo, err)
		}
		if id := doc.RecordID(); !seenDocs[id] {
			seenDocs[id] = true
			collections.Documents = append(collections.Documents, doc)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	uc.log.Info("dataset_loaded",
		"path", path,
		"documents", len(collections.Documents),
		"passages", len(collections.Passages),
		"skipped_rows", skipped)

	if uc.queue != nil {
		if err := uc.queue.PublishDatasetLoaded(ctx, path); err != nil {
			return nil, fmt.Errorf("publish dataset event: %w", err)
		}
	}
	return collections, nil
}
