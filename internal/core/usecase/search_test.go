package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/evgraham/corpus-search/internal/core/domain"
)

type engineFake struct {
	name    string
	opts    domain.SearchOptions
	results []domain.Passage
	err     error
}

func (f *engineFake) Name() string { return f.name }
func (f *engineFake) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.Passage, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// countingEngineFake additionally supports exact totals.
type countingEngineFake struct {
	engineFake
	total    int
	countErr error
}

func (f *countingEngineFake) Count(context.Context, string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.total, nil
}

func passages(n int) []domain.Passage {
	out := make([]domain.Passage, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Passage{Text: string(rune('a' + i)), DocumentID: "2sgknw32"})
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSearchPageTranslatesPageToOffset(t *testing.T) {
	engine := &engineFake{name: "fake", results: passages(10)}
	uc := NewSearchUseCase[domain.Passage](engine, testLogger())

	page, err := uc.SearchPage(context.Background(), domain.PageRequest{SearchTerms: "flood", Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("SearchPage() error = %v", err)
	}
	if engine.opts.Limit != 10 || engine.opts.Offset != 20 {
		t.Fatalf("engine options = %+v, want limit 10 offset 20", engine.opts)
	}
	if !page.Full {
		t.Fatal("a page holding page_size results is full")
	}
	if !page.HasPrevious {
		t.Fatal("page 3 has a previous page")
	}
}

func TestSearchPagePartialPageIsNotFull(t *testing.T) {
	engine := &engineFake{name: "fake", results: passages(3)}
	uc := NewSearchUseCase[domain.Passage](engine, testLogger())

	page, err := uc.SearchPage(context.Background(), domain.PageRequest{SearchTerms: "flood", PageSize: 10})
	if err != nil {
		t.Fatalf("SearchPage() error = %v", err)
	}
	if page.Full {
		t.Fatal("3 of 10 results must not read as full")
	}
	if page.HasPrevious {
		t.Fatal("the first page has no previous page")
	}
	if page.Page != domain.DefaultPage || page.PageSize != 10 {
		t.Fatalf("page metadata = %d/%d", page.Page, page.PageSize)
	}
}

func TestSearchPageValidatesRequest(t *testing.T) {
	uc := NewSearchUseCase[domain.Passage](&engineFake{name: "fake"}, testLogger())

	cases := []domain.PageRequest{
		{SearchTerms: "", Page: 1, PageSize: 10},
		{SearchTerms: "x", Page: -1, PageSize: 10},
		{SearchTerms: "x", Page: 1, PageSize: domain.MaxPageSize + 1},
	}
	for _, req := range cases {
		if _, err := uc.SearchPage(context.Background(), req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("request %+v: expected ErrInvalidInput, got %v", req, err)
		}
	}
}

func TestSearchPageCountOptIn(t *testing.T) {
	engine := &countingEngineFake{engineFake: engineFake{name: "fake", results: passages(10)}, total: 42}
	uc := NewSearchUseCase[domain.Passage](engine, testLogger())

	page, err := uc.SearchPage(context.Background(), domain.PageRequest{SearchTerms: "flood", PageSize: 10, WithCount: true})
	if err != nil {
		t.Fatalf("SearchPage() error = %v", err)
	}
	if page.TotalResults == nil || *page.TotalResults != 42 {
		t.Fatalf("total results = %v", page.TotalResults)
	}
	if page.TotalPages == nil || *page.TotalPages != 5 {
		t.Fatalf("total pages = %v", page.TotalPages)
	}
}

func TestSearchPageCountSkippedWithoutOptIn(t *testing.T) {
	engine := &countingEngineFake{engineFake: engineFake{name: "fake", results: passages(1)}, countErr: errors.New("should not be called")}
	uc := NewSearchUseCase[domain.Passage](engine, testLogger())

	page, err := uc.SearchPage(context.Background(), domain.PageRequest{SearchTerms: "flood"})
	if err != nil {
		t.Fatalf("SearchPage() error = %v", err)
	}
	if page.TotalResults != nil || page.TotalPages != nil {
		t.Fatal("totals must stay unset without the count opt-in")
	}
}

func TestSearchPageCountUnsupported(t *testing.T) {
	uc := NewSearchUseCase[domain.Passage](&engineFake{name: "fake"}, testLogger())

	_, err := uc.SearchPage(context.Background(), domain.PageRequest{SearchTerms: "flood", WithCount: true})
	if !errors.Is(err, domain.ErrCountUnsupported) {
		t.Fatalf("expected ErrCountUnsupported, got %v", err)
	}
}
