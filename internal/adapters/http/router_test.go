package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/evgraham/corpus-search/internal/core/domain"
	"github.com/evgraham/corpus-search/internal/observability/metrics"
)

type searchServiceFake[T domain.Record] struct {
	page *domain.Page[T]
	err  error
	req  domain.PageRequest
}

func (f *searchServiceFake[T]) SearchPage(_ context.Context, req domain.PageRequest) (*domain.Page[T], error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func newTestRouter(
	docs *searchServiceFake[domain.Document],
	passages *searchServiceFake[domain.Passage],
	labels *searchServiceFake[domain.Label],
) http.Handler {
	if docs == nil {
		docs = &searchServiceFake[domain.Document]{page: &domain.Page[domain.Document]{Page: 1, PageSize: 10}}
	}
	if passages == nil {
		passages = &searchServiceFake[domain.Passage]{page: &domain.Page[domain.Passage]{Page: 1, PageSize: 10}}
	}
	if labels == nil {
		labels = &searchServiceFake[domain.Label]{page: &domain.Page[domain.Label]{Page: 1, PageSize: 10}}
	}
	return NewRouter(docs, passages, labels, metrics.NewHTTPServerMetrics("test"), 0, 0).Handler()
}

func TestSearchRouteRecordsSearchMetrics(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/passages?search_terms=flood&count=true", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	scrape := httptest.NewRecorder()
	handler.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()

	for _, metric := range []string{
		`corpus_search_requests_total{engine="unknown",record_kind="passage",service="corpus-search-api",status="ok"} 1`,
		`corpus_search_count_requests_total{record_kind="passage",service="corpus-search-api",status="ok"} 1`,
		"corpus_search_results_per_page_count",
		"corpus_search_duration_seconds_count",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("metrics exposition missing %q:\n%s", metric, body)
		}
	}
}

func TestSearchRouteParsesPaginationParams(t *testing.T) {
	passages := &searchServiceFake[domain.Passage]{page: &domain.Page[domain.Passage]{Page: 3, PageSize: 25}}
	handler := newTestRouter(nil, passages, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/passages?search_terms=flood&page=3&page_size=25&count=true", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	want := domain.PageRequest{SearchTerms: "flood", Page: 3, PageSize: 25, WithCount: true}
	if passages.req != want {
		t.Fatalf("parsed request = %+v, want %+v", passages.req, want)
	}
}

func TestSearchRouteRejectsMalformedParams(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)
	for _, target := range []string{
		"/v1/documents?search_terms=x&page=abc",
		"/v1/documents?search_terms=x&page_size=abc",
		"/v1/documents?search_terms=x&count=maybe",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, res.Code)
		}
	}
}

func TestSearchRouteMapsErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "search", errDummy), http.StatusBadRequest},
		{"count unsupported", domain.WrapError(domain.ErrCountUnsupported, "count", errDummy), http.StatusNotImplemented},
		{"temporary", domain.WrapError(domain.ErrTemporary, "search", errDummy), http.StatusServiceUnavailable},
		{"unknown", errDummy, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			labels := &searchServiceFake[domain.Label]{err: tc.err}
			handler := newTestRouter(nil, nil, labels)

			req := httptest.NewRequest(http.MethodGet, "/v1/labels?search_terms=x", nil)
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func TestSearchRouteMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents?search_terms=x", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestFullPageSynthesisesNextLink(t *testing.T) {
	docs := &searchServiceFake[domain.Document]{page: &domain.Page[domain.Document]{
		Results:     []domain.Document{{Title: "a", SourceURL: "https://a"}, {Title: "b", SourceURL: "https://b"}},
		Page:        2,
		PageSize:    2,
		Full:        true,
		HasPrevious: true,
	}}
	handler := newTestRouter(docs, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents?search_terms=act&page=2&page_size=2", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	var body struct {
		Next     string `json:"next"`
		Previous string `json:"previous"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	next, err := url.Parse(body.Next)
	if err != nil {
		t.Fatalf("parse next link: %v", err)
	}
	if got := next.Query().Get("page"); got != "3" {
		t.Fatalf("next page = %s, want 3", got)
	}
	if got := next.Query().Get("search_terms"); got != "act" {
		t.Fatalf("next link must carry the terms, got %q", got)
	}
	prev, err := url.Parse(body.Previous)
	if err != nil {
		t.Fatalf("parse previous link: %v", err)
	}
	if got := prev.Query().Get("page"); got != "1" {
		t.Fatalf("previous page = %s, want 1", got)
	}
}

func TestPartialPageOmitsNextLink(t *testing.T) {
	docs := &searchServiceFake[domain.Document]{page: &domain.Page[domain.Document]{
		Results:  []domain.Document{{Title: "a", SourceURL: "https://a"}},
		Page:     1,
		PageSize: 10,
	}}
	handler := newTestRouter(docs, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents?search_terms=act", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if strings.Contains(res.Body.String(), `"next"`) {
		t.Fatalf("partial page must not link a next page: %s", res.Body.String())
	}
	if strings.Contains(res.Body.String(), `"previous"`) {
		t.Fatalf("first page must not link a previous page: %s", res.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if got := res.Header().Get(requestIDHeader); got != "req-123" {
		t.Fatalf("request id = %q, want req-123", got)
	}
}

var errDummy = errDummyType{}

type errDummyType struct{}

func (errDummyType) Error() string { return "dummy failure" }
