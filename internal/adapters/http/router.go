// Package httpadapter exposes the record searches over HTTP. One
// generic handler serves all three record kinds; the engine behind
// each route is whatever the bootstrap wired in.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/evgraham/corpus-search/internal/core/domain"
	"github.com/evgraham/corpus-search/internal/core/ports"
	"github.com/evgraham/corpus-search/internal/observability/metrics"
)

const serviceName = "corpus-search-api"

type Router struct {
	documents ports.RecordSearchService[domain.Document]
	passages  ports.RecordSearchService[domain.Passage]
	labels    ports.RecordSearchService[domain.Label]
	metrics   *metrics.HTTPServerMetrics

	rateLimitRPS   float64
	rateLimitBurst int
}

func NewRouter(
	documents ports.RecordSearchService[domain.Document],
	passages ports.RecordSearchService[domain.Passage],
	labels ports.RecordSearchService[domain.Label],
	m *metrics.HTTPServerMetrics,
	rateLimitRPS float64,
	rateLimitBurst int,
) *Router {
	return &Router{
		documents:      documents,
		passages:       passages,
		labels:         labels,
		metrics:        m,
		rateLimitRPS:   rateLimitRPS,
		rateLimitBurst: rateLimitBurst,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.Handle("/v1/documents", searchHandler(rt.metrics, "document", rt.documents))
	mux.Handle("/v1/passages", searchHandler(rt.metrics, "passage", rt.passages))
	mux.Handle("/v1/labels", searchHandler(rt.metrics, "label", rt.labels))

	var handler http.Handler = mux
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	handler = rt.metrics.Middleware(serviceName, handler)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// searchHandler adapts one record kind's search service to the shared
// pagination surface and instruments every search it serves.
func searchHandler[T domain.Record](m *metrics.HTTPServerMetrics, recordKind string, svc ports.RecordSearchService[T]) http.HandlerFunc {
	engine := "unknown"
	if named, ok := svc.(interface{ EngineName() string }); ok {
		engine = named.EngineName()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}

		req, err := parsePageRequest(r)
		if err != nil {
			writeError(w, err)
			return
		}

		start := time.Now()
		page, err := svc.SearchPage(r.Context(), req)
		if req.WithCount {
			m.RecordCountRequest(serviceName, recordKind, err)
		}
		if err != nil {
			m.RecordSearch(serviceName, recordKind, engine, 0, time.Since(start), err)
			writeError(w, err)
			return
		}
		m.RecordSearch(serviceName, recordKind, engine, len(page.Results), time.Since(start), nil)
		writeJSON(w, http.StatusOK, newPageResponse(r, page))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
