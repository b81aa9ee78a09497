package relevance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/evgraham/corpus-search/internal/core/domain"
)

// Suite is the YAML form of a recall suite. Field characteristics
// cases carry code predicates and are declared in Go, not YAML.
type Suite struct {
	Category string      `yaml:"category"`
	Cases    []suiteCase `yaml:"cases"`
}

type suiteCase struct {
	Name         string   `yaml:"name"`
	SearchTerms  string   `yaml:"search_terms"`
	Description  string   `yaml:"description"`
	ExpectedIDs  []string `yaml:"expected_ids"`
	ForbiddenIDs []string `yaml:"forbidden_ids"`
	K            int      `yaml:"k"`
}

// LoadSuite reads recall cases for records of type T from a YAML file.
func LoadSuite[T domain.Record](path string) ([]Case[T], error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite file: %w", err)
	}

	var suite Suite
	if err := yaml.Unmarshal(raw, &suite); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse suite file", err)
	}
	if len(suite.Cases) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse suite file",
			fmt.Errorf("%s declares no cases", path))
	}

	cases := make([]Case[T], 0, len(suite.Cases))
	for i, sc := range suite.Cases {
		if sc.Name == "" || sc.SearchTerms == "" || len(sc.ExpectedIDs) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse suite file",
				fmt.Errorf("case %d in %s needs name, search_terms and expected_ids", i, path))
		}
		cases = append(cases, &RecallCase[T]{
			CaseName:     sc.Name,
			CaseCategory: suite.Category,
			Terms:        sc.SearchTerms,
			Desc:         sc.Description,
			ExpectedIDs:  sc.ExpectedIDs,
			ForbiddenIDs: sc.ForbiddenIDs,
			K:            sc.K,
		})
	}
	return cases, nil
}
