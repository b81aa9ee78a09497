package vespa

import (
	"fmt"
	"strings"
)

type GroupOperator string

const (
	GroupAnd GroupOperator = "and"
	GroupOr  GroupOperator = "or"
)

type ConditionOperator string

const (
	OpContains    ConditionOperator = "contains"
	OpNotContains ConditionOperator = "not_contains"
)

// Condition restricts one field to contain, or not contain, any of the
// given values. Multiple values under one condition are alternatives.
type Condition struct {
	Field    string
	Operator ConditionOperator
	Values   []string
}

// FilterGroup combines conditions with a single operator. Groups
// themselves always combine with "and": the overall expression is
// (or-groups) and (and-groups) and not (negated conditions).
type FilterGroup struct {
	Operator   GroupOperator
	Conditions []Condition
}

// BuildFilterExpression renders filter groups as a query predicate
// fragment. All values are quoted and escaped before inclusion.
func BuildFilterExpression(groups []FilterGroup) (string, error) {
	var clauses []string
	for _, g := range groups {
		switch g.Operator {
		case GroupAnd, GroupOr:
		default:
			return "", fmt.Errorf("unknown group operator %q", g.Operator)
		}

		var positive, negative []string
		for _, c := range g.Conditions {
			rendered, err := renderCondition(c)
			if err != nil {
				return "", err
			}
			if c.Operator == OpNotContains {
				negative = append(negative, rendered)
			} else {
				positive = append(positive, rendered)
			}
		}

		if len(positive) > 0 {
			joined := strings.Join(positive, fmt.Sprintf(" %s ", g.Operator))
			if len(positive) > 1 {
				joined = "(" + joined + ")"
			}
			clauses = append(clauses, joined)
		}
		// Negated conditions always attach conjunctively so a
		// forbidden value cannot be reintroduced by an or-group.
		for _, n := range negative {
			clauses = append(clauses, "!("+n+")")
		}
	}
	return strings.Join(clauses, " and "), nil
}

func renderCondition(c Condition) (string, error) {
	if c.Field == "" {
		return "", fmt.Errorf("filter condition missing field")
	}
	if len(c.Values) == 0 {
		return "", fmt.Errorf("filter condition on %q has no values", c.Field)
	}
	switch c.Operator {
	case OpContains, OpNotContains:
	default:
		return "", fmt.Errorf("unknown condition operator %q on %q", c.Operator, c.Field)
	}

	terms := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		terms = append(terms, fmt.Sprintf("%s contains %s", c.Field, quoteValue(v)))
	}
	joined := strings.Join(terms, " or ")
	if len(terms) > 1 {
		joined = "(" + joined + ")"
	}
	return joined, nil
}

func quoteValue(v string) string {
	escaped := strings.ReplaceAll(v, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
