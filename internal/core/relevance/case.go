// Package relevance runs curated search quality checks against any
// engine and fingerprints the outcome so identical runs are logged
// once. Cases are data plus a judgement, not assertions: a failing
// case is a recorded result, never a panic.
package relevance

import (
	"context"
	"fmt"
	"strings"

	"github.com/evgraham/corpus-search/internal/core/domain"
	"github.com/evgraham/corpus-search/internal/core/ports"
)

const defaultTopK = 20

// Case is one relevance check against one engine. CaseID is derived
// from the case's defining inputs, so the same case always carries the
// same identifier across runs and processes.
type Case[T domain.Record] interface {
	Name() string
	Category() string
	SearchTerms() string
	Description() string
	CaseID() domain.Identifier
	Run(ctx context.Context, engine ports.SearchEngine[T]) (passed bool, results []T, err error)
}

// NormaliseCategory folds a free-form category into the canonical
// lowercase-with-underscores form used for grouping metrics.
func NormaliseCategory(category string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(category), " ", "_"))
}

// RecallCase passes when every expected record appears in the top K
// results and no forbidden record does. Extra results are fine.
type RecallCase[T domain.Record] struct {
	CaseName     string
	CaseCategory string
	Terms        string
	Desc         string
	ExpectedIDs  []string
	ForbiddenIDs []string
	// K bounds how deep in the ranking expected records must appear.
	// Zero means the default depth.
	K int
}

func (c *RecallCase[T]) Name() string        { return c.CaseName }
func (c *RecallCase[T]) Category() string    { return NormaliseCategory(c.CaseCategory) }
func (c *RecallCase[T]) SearchTerms() string { return c.Terms }
func (c *RecallCase[T]) Description() string { return c.Desc }

func (c *RecallCase[T]) CaseID() domain.Identifier {
	// Expected and forbidden IDs and the depth are identity: editing any
	// of them defines a new case, and with it a new run fingerprint, even
	// when the judgement comes out the same. Absent lists hash as empty.
	expected := append([]string{}, c.ExpectedIDs...)
	forbidden := append([]string{}, c.ForbiddenIDs...)
	id, _ := domain.GenerateID("recall", c.Category(), c.CaseName, c.Terms,
		expected, forbidden, c.depth())
	return id
}

func (c *RecallCase[T]) depth() int {
	if c.K <= 0 {
		return defaultTopK
	}
	return c.K
}

func (c *RecallCase[T]) Run(ctx context.Context, engine ports.SearchEngine[T]) (bool, []T, error) {
	if err := c.validate(); err != nil {
		return false, nil, err
	}
	results, err := engine.Search(ctx, c.Terms, domain.SearchOptions{Limit: c.depth()})
	if err != nil {
		return false, nil, fmt.Errorf("run recall case %q: %w", c.CaseName, err)
	}

	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.RecordID()] = true
	}
	for _, want := range c.ExpectedIDs {
		if !seen[want] {
			return false, results, nil
		}
	}
	for _, banned := range c.ForbiddenIDs {
		if seen[banned] {
			return false, results, nil
		}
	}
	return true, results, nil
}

func (c *RecallCase[T]) validate() error {
	if strings.TrimSpace(c.CaseName) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "recall case", fmt.Errorf("name is required"))
	}
	if strings.TrimSpace(c.Terms) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "recall case", fmt.Errorf("search terms are required"))
	}
	if len(c.ExpectedIDs) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "recall case", fmt.Errorf("at least one expected id is required"))
	}
	return nil
}

type Quantifier string

const (
	QuantifierAll Quantifier = "all"
	QuantifierAny Quantifier = "any"
)

// FieldCharacteristicsCase passes when the returned records satisfy a
// predicate under the chosen quantifier. An empty result set fails
// either way: a predicate that never got to look at a record has not
// been satisfied.
type FieldCharacteristicsCase[T domain.Record] struct {
	CaseName     string
	CaseCategory string
	Terms        string
	Desc         string
	Quantifier   Quantifier
	Predicate    func(T) bool
	K            int
}

func (c *FieldCharacteristicsCase[T]) Name() string        { return c.CaseName }
func (c *FieldCharacteristicsCase[T]) Category() string    { return NormaliseCategory(c.CaseCategory) }
func (c *FieldCharacteristicsCase[T]) SearchTerms() string { return c.Terms }
func (c *FieldCharacteristicsCase[T]) Description() string { return c.Desc }

func (c *FieldCharacteristicsCase[T]) CaseID() domain.Identifier {
	id, _ := domain.GenerateID("field_characteristics", c.Category(), c.CaseName, c.Terms,
		string(c.Quantifier), c.depth())
	return id
}

func (c *FieldCharacteristicsCase[T]) depth() int {
	if c.K <= 0 {
		return defaultTopK
	}
	return c.K
}

func (c *FieldCharacteristicsCase[T]) Run(ctx context.Context, engine ports.SearchEngine[T]) (bool, []T, error) {
	if c.Predicate == nil {
		return false, nil, domain.WrapError(domain.ErrInvalidInput, "field characteristics case", fmt.Errorf("predicate is required"))
	}
	switch c.Quantifier {
	case QuantifierAll, QuantifierAny:
	default:
		return false, nil, domain.WrapError(domain.ErrInvalidInput, "field characteristics case",
			fmt.Errorf("unknown quantifier %q", c.Quantifier))
	}

	results, err := engine.Search(ctx, c.Terms, domain.SearchOptions{Limit: c.depth()})
	if err != nil {
		return false, nil, fmt.Errorf("run field characteristics case %q: %w", c.CaseName, err)
	}
	if len(results) == 0 {
		return false, results, nil
	}

	matched := 0
	for _, r := range results {
		if c.Predicate(r) {
			matched++
		}
	}
	switch c.Quantifier {
	case QuantifierAny:
		return matched > 0, results, nil
	default:
		return matched == len(results), results, nil
	}
}
