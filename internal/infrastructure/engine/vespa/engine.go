package vespa

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evgraham/corpus-search/internal/core/domain"
	"github.com/evgraham/corpus-search/internal/infrastructure/resilience"
)

const (
	defaultSearchLimit = 20

	rankingSofttimeoutFactor = "0.7"
	searchSummary            = "search_summary"

	passageSource  = "document_passage"
	documentSource = "family_document"

	profileExactNotStemmed = "exact_not_stemmed"
	profileHybrid          = "hybrid"
	profileBM25Title       = "bm25_document_title"

	embeddingModel          = "msmarco-distilbert-dot-v5"
	hybridTargetHits        = 1000
	hybridDistanceThreshold = 0.24
)

// Monitor observes engine health events. Implementations must be safe
// for concurrent use.
type Monitor interface {
	SearchDegraded(engine string)
}

// Engine runs one ranking strategy against the remote ranked-search
// service. Building the query is infallible plumbing around a strategy
// function; executing it goes through the shared resilience executor
// so a struggling remote trips the breaker instead of stacking
// timeouts. Result counting is not offered: the remote's totalCount is
// an estimate under soft timeouts, not a contract.
type Engine[T domain.Record] struct {
	name    string
	client  *Client
	exec    *resilience.Executor
	filters string
	build   func(terms string, limit, offset int, filters string) (map[string]any, error)
	parse   func(*QueryResponse) []T
	log     *slog.Logger
	monitor Monitor
}

func (e *Engine[T]) Name() string { return e.name }

// Search builds and executes the ranked query. Query-construction
// failures are the caller's bug and propagate; transport failures
// degrade to an empty result with a logged warning so one struggling
// backend does not take the serving path down with it.
func (e *Engine[T]) Search(ctx context.Context, terms string, opts domain.SearchOptions) ([]T, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if opts.Offset < 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "vespa search",
			fmt.Errorf("offset must not be negative, got %d", opts.Offset))
	}

	body, err := e.build(terms, limit, opts.Offset, e.filters)
	if err != nil {
		return nil, domain.WrapError(domain.ErrQueryBuild, "build ranked query", err)
	}

	var resp *QueryResponse
	err = e.exec.Execute(ctx, e.name, func(ctx context.Context) error {
		r, qerr := e.client.Query(ctx, body)
		if qerr != nil {
			return qerr
		}
		resp = r
		return nil
	})
	if err != nil {
		e.log.Warn("remote search degraded to empty result",
			"engine", e.name,
			"error", err)
		if e.monitor != nil {
			e.monitor.SearchDegraded(e.name)
		}
		return []T{}, nil
	}
	return e.parse(resp), nil
}

// NewExactPassageEngine matches passages whose unstemmed text contains
// the search terms verbatim.
func NewExactPassageEngine(client *Client, exec *resilience.Executor, filters []FilterGroup, log *slog.Logger, monitor Monitor) (*Engine[domain.Passage], error) {
	expr, err := BuildFilterExpression(filters)
	if err != nil {
		return nil, domain.WrapError(domain.ErrQueryBuild, "build passage filters", err)
	}
	return &Engine[domain.Passage]{
		name:    "vespa/passage_exact",
		client:  client,
		exec:    exec,
		filters: expr,
		build:   buildExactPassageQuery,
		parse:   parsePassages,
		log:     log,
		monitor: monitor,
	}, nil
}

// NewHybridPassageEngine blends lexical matching with embedding
// nearest-neighbour retrieval over passage text.
func NewHybridPassageEngine(client *Client, exec *resilience.Executor, filters []FilterGroup, log *slog.Logger, monitor Monitor) (*Engine[domain.Passage], error) {
	expr, err := BuildFilterExpression(filters)
	if err != nil {
		return nil, domain.WrapError(domain.ErrQueryBuild, "build passage filters", err)
	}
	return &Engine[domain.Passage]{
		name:    "vespa/passage_hybrid",
		client:  client,
		exec:    exec,
		filters: expr,
		build:   buildHybridPassageQuery,
		parse:   parsePassages,
		log:     log,
		monitor: monitor,
	}, nil
}

// NewBM25TitleDocumentEngine ranks documents by BM25 over their titles.
func NewBM25TitleDocumentEngine(client *Client, exec *resilience.Executor, filters []FilterGroup, log *slog.Logger, monitor Monitor) (*Engine[domain.Document], error) {
	expr, err := BuildFilterExpression(filters)
	if err != nil {
		return nil, domain.WrapError(domain.ErrQueryBuild, "build document filters", err)
	}
	return &Engine[domain.Document]{
		name:    "vespa/document_bm25_title",
		client:  client,
		exec:    exec,
		filters: expr,
		build:   buildBM25TitleDocumentQuery,
		parse:   parseDocuments,
		log:     log,
		monitor: monitor,
	}, nil
}

func buildExactPassageQuery(terms string, limit, offset int, filters string) (map[string]any, error) {
	predicate := "(text_block_not_stemmed contains ({stem: false}@query_string))"
	yql, err := assembleYQL(passageSource, predicate, filters, limit, offset)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"yql":                        yql,
		"query_string":               terms,
		"ranking.profile":            profileExactNotStemmed,
		"ranking.softtimeout.factor": rankingSofttimeoutFactor,
		"summary":                    searchSummary,
	}, nil
}

func buildHybridPassageQuery(terms string, limit, offset int, filters string) (map[string]any, error) {
	predicate := fmt.Sprintf(
		"(userInput(@query_string) or ({targetHits: %d, distanceThreshold: %v}nearestNeighbor(text_embedding, query_embedding)))",
		hybridTargetHits, hybridDistanceThreshold)
	yql, err := assembleYQL(passageSource, predicate, filters, limit, offset)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"yql":                          yql,
		"query_string":                 terms,
		"ranking.profile":              profileHybrid,
		"ranking.softtimeout.factor":   rankingSofttimeoutFactor,
		"summary":                      searchSummary,
		"input.query(query_embedding)": fmt.Sprintf("embed(%s, @query_string)", embeddingModel),
	}, nil
}

func buildBM25TitleDocumentQuery(terms string, limit, offset int, filters string) (map[string]any, error) {
	predicate := "(document_title_index contains (@query_string))"
	yql, err := assembleYQL(documentSource, predicate, filters, limit, offset)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"yql":                        yql,
		"query_string":               terms,
		"ranking.profile":            profileBM25Title,
		"ranking.softtimeout.factor": rankingSofttimeoutFactor,
		"summary":                    searchSummary,
	}, nil
}

func assembleYQL(source, predicate, filters string, limit, offset int) (string, error) {
	if limit < 1 {
		return "", fmt.Errorf("limit must be positive, got %d", limit)
	}
	if offset < 0 {
		return "", fmt.Errorf("offset must not be negative, got %d", offset)
	}
	yql := fmt.Sprintf("select * from sources %s where %s", source, predicate)
	if filters != "" {
		yql += " and " + filters
	}
	yql += fmt.Sprintf(" limit %d offset %d", limit, offset)
	return yql, nil
}

func parseDocuments(resp *QueryResponse) []domain.Document {
	docs := make([]domain.Document, 0, len(resp.Root.Children))
	for _, hit := range resp.Root.Children {
		docs = append(docs, domain.Document{
			Title:              fieldString(hit.Fields, "family_name"),
			Description:        fieldString(hit.Fields, "family_description"),
			SourceURL:          fieldString(hit.Fields, "document_source_url"),
			OriginalDocumentID: fieldString(hit.Fields, "document_import_id"),
		})
	}
	return docs
}

func parsePassages(resp *QueryResponse) []domain.Passage {
	passages := make([]domain.Passage, 0, len(resp.Root.Children))
	for _, hit := range resp.Root.Children {
		parent := domain.Document{
			Title:     fieldString(hit.Fields, "family_name"),
			SourceURL: fieldString(hit.Fields, "document_source_url"),
		}
		passages = append(passages, domain.Passage{
			Text:              fieldString(hit.Fields, "text_block"),
			DocumentID:        parent.ID(),
			OriginalPassageID: fieldString(hit.Fields, "text_block_id"),
		})
	}
	return passages
}

// fieldString reads a summary field, tolerating hits that omit it. A
// missing or non-string value reads as the empty string so parsing
// never fails on partial summaries.
func fieldString(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
