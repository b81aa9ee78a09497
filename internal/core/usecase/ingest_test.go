package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/evgraham/corpus-search/internal/core/domain"
)

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishDatasetLoaded(_ context.Context, dataset string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, dataset)
	return nil
}

func (f *queueFake) SubscribeDatasetLoaded(context.Context, func(context.Context, string) error) error {
	return nil
}

func writeDataset(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestLoadDatasetDeduplicatesDocuments(t *testing.T) {
	path := writeDataset(t,
		`{"document_id":"CCLW.1","document_metadata.document_title":"Climate Act","document_metadata.source_url":"https://example.org/act.pdf","text_block.text":"first passage","text_block.text_block_id":"b1"}`,
		`{"document_id":"CCLW.1","document_metadata.document_title":"Climate Act","document_metadata.source_url":"https://example.org/act.pdf","text_block.text":"second passage","text_block.text_block_id":"b2"}`,
		`{"document_id":"CCLW.2","document_metadata.document_title":"Energy Plan","document_metadata.source_url":"https://example.org/plan.pdf","text_block.text":"third passage","text_block.text_block_id":"b3"}`,
	)

	queue := &queueFake{}
	uc := NewLoadDatasetUseCase(queue, testLogger())
	collections, err := uc.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(collections.Documents) != 2 {
		t.Fatalf("expected 2 deduplicated documents, got %d", len(collections.Documents))
	}
	if len(collections.Passages) != 3 {
		t.Fatalf("expected 3 passages, got %d", len(collections.Passages))
	}
	if collections.Passages[0].DocumentID != collections.Documents[0].ID() {
		t.Fatal("passage must reference its parent document's identifier")
	}
	if len(queue.published) != 1 || queue.published[0] != path {
		t.Fatalf("expected one dataset event for %s, got %v", path, queue.published)
	}
}

func TestLoadDatasetTitleFallsBackToDocumentID(t *testing.T) {
	path := writeDataset(t,
		`{"document_id":"CCLW.9","document_metadata.source_url":"https://example.org/untitled.pdf","text_block.text":"some text"}`,
	)

	uc := NewLoadDatasetUseCase(nil, testLogger())
	collections, err := uc.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := collections.Documents[0].Title; got != "CCLW.9" {
		t.Fatalf("title = %q, want fallback to document id", got)
	}
}

func TestLoadDatasetSkipsUnaddressableRows(t *testing.T) {
	path := writeDataset(t,
		`{"document_id":"CCLW.1","text_block.text":"no source url"}`,
		`{"document_id":"CCLW.2","document_metadata.source_url":"https://example.org/ok.pdf"}`,
		`{"document_id":"CCLW.3","document_metadata.document_title":"Kept","document_metadata.source_url":"https://example.org/kept.pdf","text_block.text":"kept text"}`,
	)

	uc := NewLoadDatasetUseCase(nil, testLogger())
	collections, err := uc.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(collections.Passages) != 1 || collections.Passages[0].Text != "kept text" {
		t.Fatalf("expected only the complete row, got %+v", collections.Passages)
	}
}

func TestLoadDatasetRejectsMalformedJSON(t *testing.T) {
	path := writeDataset(t, `{"document_id": not json}`)
	uc := NewLoadDatasetUseCase(nil, testLogger())
	if _, err := uc.Load(context.Background(), path); err == nil {
		t.Fatal("expected error for malformed row")
	}
}

func TestLoadDatasetPublishFailurePropagates(t *testing.T) {
	path := writeDataset(t,
		`{"document_id":"CCLW.1","document_metadata.document_title":"Act","document_metadata.source_url":"https://example.org/act.pdf","text_block.text":"text"}`,
	)
	queue := &queueFake{err: domain.WrapError(domain.ErrTemporary, "nats publish", os.ErrDeadlineExceeded)}
	uc := NewLoadDatasetUseCase(queue, testLogger())
	if _, err := uc.Load(context.Background(), path); err == nil {
		t.Fatal("expected publish failure to propagate")
	}
}
