package relevance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/evgraham/corpus-search/internal/core/domain"
	"github.com/evgraham/corpus-search/internal/core/ports"
)

// Result is the recorded outcome of one case against one engine.
type Result[T domain.Record] struct {
	CaseID     domain.Identifier
	CaseName   string
	Category   string
	EngineName string
	Passed     bool
	Results    []T
}

// RunSuite runs every case against the engine, logging each outcome.
// A case that errors aborts the run: a broken case is a bug in the
// suite, not a relevance failure to record.
func RunSuite[T domain.Record](ctx context.Context, engine ports.SearchEngine[T], cases []Case[T], log *slog.Logger) ([]Result[T], error) {
	results := make([]Result[T], 0, len(cases))
	for _, c := range cases {
		passed, found, err := c.Run(ctx, engine)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name(), err)
		}

		log.Info("relevance_case_finished",
			"case", c.Name(),
			"category", c.Category(),
			"engine", engine.Name(),
			"passed", passed,
			"results", len(found))

		results = append(results, Result[T]{
			CaseID:     c.CaseID(),
			CaseName:   c.Name(),
			Category:   c.Category(),
			EngineName: engine.Name(),
			Passed:     passed,
			Results:    found,
		})
	}
	return results, nil
}

// CaseOutcome is the persistable projection of one result: identity
// and judgement, without the full records.
type CaseOutcome struct {
	CaseID    string   `json:"case_id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Passed    bool     `json:"passed"`
	ResultIDs []string `json:"result_ids"`
}

// RunRecord is one fingerprinted suite run. RunID is derived from the
// engine name and every outcome, so re-running an unchanged suite over
// unchanged data yields the same record.
type RunRecord struct {
	RunID      domain.Identifier `json:"run_id"`
	EngineName string            `json:"engine_name"`
	RanAt      time.Time         `json:"ran_at"`
	Outcomes   []CaseOutcome     `json:"outcomes"`
}

// NewRunRecord assembles the persistable record for a finished run.
// Outcomes are ordered by case ID so the fingerprint does not depend
// on suite file ordering.
func NewRunRecord[T domain.Record](engineName string, results []Result[T], ranAt time.Time) (RunRecord, error) {
	outcomes := make([]CaseOutcome, 0, len(results))
	for _, r := range results {
		ids := make([]string, 0, len(r.Results))
		for _, rec := range r.Results {
			ids = append(ids, rec.RecordID())
		}
		outcomes = append(outcomes, CaseOutcome{
			CaseID:    string(r.CaseID),
			Name:      r.CaseName,
			Category:  r.Category,
			Passed:    r.Passed,
			ResultIDs: ids,
		})
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].CaseID < outcomes[j].CaseID })

	runID, err := RunID(engineName, outcomes)
	if err != nil {
		return RunRecord{}, err
	}
	return RunRecord{
		RunID:      runID,
		EngineName: engineName,
		RanAt:      ranAt.UTC(),
		Outcomes:   outcomes,
	}, nil
}

// RunID fingerprints a run. Two runs with the same engine, cases and
// per-case result identifiers share an ID; any difference in outcome
// or ranking yields a new one.
func RunID(engineName string, outcomes []CaseOutcome) (domain.Identifier, error) {
	parts := make([]any, 0, len(outcomes)+1)
	parts = append(parts, engineName)
	for _, o := range outcomes {
		parts = append(parts, o)
	}
	id, err := domain.GenerateID(parts...)
	if err != nil {
		return "", fmt.Errorf("fingerprint run: %w", err)
	}
	return id, nil
}

// CategoryMetrics counts outcomes for one grouping.
type CategoryMetrics struct {
	Total  int
	Passed int
}

func (m CategoryMetrics) PassRate() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Passed) / float64(m.Total)
}

type Metrics struct {
	Overall    CategoryMetrics
	ByCategory map[string]CategoryMetrics
}

// ComputeMetrics aggregates pass counts overall and per category.
func ComputeMetrics[T domain.Record](results []Result[T]) Metrics {
	m := Metrics{ByCategory: make(map[string]CategoryMetrics)}
	for _, r := range results {
		m.Overall.Total++
		cat := m.ByCategory[r.Category]
		cat.Total++
		if r.Passed {
			m.Overall.Passed++
			cat.Passed++
		}
		m.ByCategory[r.Category] = cat
	}
	return m
}
