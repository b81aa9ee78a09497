package vespa

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evgraham/corpus-search/internal/core/domain"
	"github.com/evgraham/corpus-search/internal/infrastructure/resilience"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.EngineConfig())
}

func respondWithHits(t *testing.T, hits []map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		children := make([]map[string]any, 0, len(hits))
		for i, fields := range hits {
			children = append(children, map[string]any{
				"id":        "index:corpus/0/hit" + string(rune('a'+i)),
				"relevance": 1.0 - float64(i)*0.1,
				"fields":    fields,
			})
		}
		resp := map[string]any{
			"root": map[string]any{
				"fields":   map[string]any{"totalCount": len(hits)},
				"children": children,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestExactPassageEngineSendsBoundQueryString(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		respondWithHits(t, nil)(w, r)
	}))
	defer srv.Close()

	engine, err := NewExactPassageEngine(NewClient(srv.URL, time.Second), testExecutor(), nil, testLogger(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := engine.Search(context.Background(), `flood "risk"`, domain.SearchOptions{Limit: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured["query_string"] != `flood "risk"` {
		t.Fatalf("query_string = %v, want the raw terms", captured["query_string"])
	}
	yql, _ := captured["yql"].(string)
	if strings.Contains(yql, "risk") {
		t.Fatalf("terms leaked into the query text: %q", yql)
	}
	if !strings.Contains(yql, "text_block_not_stemmed contains ({stem: false}@query_string)") {
		t.Fatalf("unexpected predicate: %q", yql)
	}
	if !strings.Contains(yql, "limit 5 offset 0") {
		t.Fatalf("limit/offset not applied: %q", yql)
	}
	if captured["ranking.profile"] != profileExactNotStemmed {
		t.Fatalf("ranking.profile = %v", captured["ranking.profile"])
	}
}

func TestHybridPassageEngineRequestsEmbedding(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		respondWithHits(t, nil)(w, r)
	}))
	defer srv.Close()

	engine, err := NewHybridPassageEngine(NewClient(srv.URL, time.Second), testExecutor(), nil, testLogger(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.Search(context.Background(), "adaptation", domain.SearchOptions{Limit: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	yql, _ := captured["yql"].(string)
	if !strings.Contains(yql, "nearestNeighbor(text_embedding, query_embedding)") {
		t.Fatalf("hybrid query missing nearest-neighbour clause: %q", yql)
	}
	if !strings.Contains(yql, "userInput(@query_string)") {
		t.Fatalf("hybrid query missing lexical clause: %q", yql)
	}
	if captured["input.query(query_embedding)"] == nil {
		t.Fatal("hybrid query missing embedding input")
	}
}

func TestEngineAppendsFilterExpression(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		respondWithHits(t, nil)(w, r)
	}))
	defer srv.Close()

	filters := []FilterGroup{
		{Operator: GroupAnd, Conditions: []Condition{
			{Field: "document_languages", Operator: OpContains, Values: []string{"english"}},
		}},
	}
	engine, err := NewBM25TitleDocumentEngine(NewClient(srv.URL, time.Second), testExecutor(), filters, testLogger(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.Search(context.Background(), "energy", domain.SearchOptions{Limit: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	yql, _ := captured["yql"].(string)
	if !strings.Contains(yql, `and document_languages contains "english"`) {
		t.Fatalf("filter expression not appended: %q", yql)
	}
}

func TestDocumentEngineParsesSummaryFields(t *testing.T) {
	srv := httptest.NewServer(respondWithHits(t, []map[string]any{
		{
			"family_name":         "National Climate Act",
			"family_description":  "Framework legislation.",
			"document_source_url": "https://example.org/act.pdf",
			"document_import_id":  "CCLW.executive.1.1",
		},
		{
			"family_name": "Partial Summary Only",
		},
	}))
	defer srv.Close()

	engine, err := NewBM25TitleDocumentEngine(NewClient(srv.URL, time.Second), testExecutor(), nil, testLogger(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	docs, err := engine.Search(context.Background(), "climate", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].Title != "National Climate Act" || docs[0].OriginalDocumentID != "CCLW.executive.1.1" {
		t.Fatalf("first document misparsed: %+v", docs[0])
	}
	if docs[1].Description != "" || docs[1].SourceURL != "" {
		t.Fatalf("missing fields should read as empty, got %+v", docs[1])
	}
}

func TestPassageEngineDerivesDocumentID(t *testing.T) {
	srv := httptest.NewServer(respondWithHits(t, []map[string]any{
		{
			"family_name":         "National Climate Act",
			"document_source_url": "https://example.org/act.pdf",
			"text_block":          "Flood defences shall be maintained.",
			"text_block_id":       "p12_b3",
		},
	}))
	defer srv.Close()

	engine, err := NewExactPassageEngine(NewClient(srv.URL, time.Second), testExecutor(), nil, testLogger(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	passages, err := engine.Search(context.Background(), "flood", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("got %d passages, want 1", len(passages))
	}

	parent := domain.Document{Title: "National Climate Act", SourceURL: "https://example.org/act.pdf"}
	if passages[0].DocumentID != parent.ID() {
		t.Fatalf("document id = %s, want %s", passages[0].DocumentID, parent.ID())
	}
	if passages[0].OriginalPassageID != "p12_b3" {
		t.Fatalf("original passage id = %q", passages[0].OriginalPassageID)
	}
}

type monitorFake struct {
	degraded []string
}

func (m *monitorFake) SearchDegraded(engine string) {
	m.degraded = append(m.degraded, engine)
}

func TestSearchDegradesToEmptyOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	monitor := &monitorFake{}
	engine, err := NewExactPassageEngine(NewClient(srv.URL, time.Second), testExecutor(), nil, testLogger(), monitor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	passages, err := engine.Search(context.Background(), "flood", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("degraded search must not error, got: %v", err)
	}
	if len(passages) != 0 {
		t.Fatalf("degraded search must be empty, got %d results", len(passages))
	}
	if len(monitor.degraded) != 1 || monitor.degraded[0] != engine.Name() {
		t.Fatalf("degraded search must be observed once, got %v", monitor.degraded)
	}
}

func TestSearchRejectsNegativeOffset(t *testing.T) {
	engine, err := NewExactPassageEngine(NewClient("http://localhost:0", time.Second), testExecutor(), nil, testLogger(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = engine.Search(context.Background(), "flood", domain.SearchOptions{Limit: 10, Offset: -1})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestConstructorRejectsMalformedFilters(t *testing.T) {
	bad := []FilterGroup{{Operator: "xor"}}
	if _, err := NewExactPassageEngine(NewClient("http://localhost:0", time.Second), testExecutor(), bad, testLogger(), nil); !errors.Is(err, domain.ErrQueryBuild) {
		t.Fatalf("expected ErrQueryBuild, got %v", err)
	}
}
