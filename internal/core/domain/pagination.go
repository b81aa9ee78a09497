package domain

import "fmt"

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest carries the pagination query parameters for a search.
type PageRequest struct {
	// SearchTerms is the user query. Required, minimum length 1.
	SearchTerms string

	// Page is the 1-based page number.
	Page int

	// PageSize is the number of results per page, 1 to MaxPageSize.
	PageSize int

	// WithCount additionally requests a true total count and total-page
	// number. Expensive on large corpora; the page-fullness signal is the
	// default and preferred way to detect a next page.
	WithCount bool
}

// Normalised applies defaults for zero values and validates the request.
func (r PageRequest) Normalised() (PageRequest, error) {
	out := r
	if out.Page == 0 {
		out.Page = DefaultPage
	}
	if out.PageSize == 0 {
		out.PageSize = DefaultPageSize
	}

	if out.SearchTerms == "" {
		return out, WrapError(ErrInvalidInput, "normalise page request",
			fmt.Errorf("search_terms is required"))
	}
	if out.Page < 1 {
		return out, WrapError(ErrInvalidInput, "normalise page request",
			fmt.Errorf("page must be >= 1, got %d", out.Page))
	}
	if out.PageSize < 1 || out.PageSize > MaxPageSize {
		return out, WrapError(ErrInvalidInput, "normalise page request",
			fmt.Errorf("page_size must be between 1 and %d, got %d", MaxPageSize, out.PageSize))
	}
	return out, nil
}

// Offset translates the page number into a result offset.
func (r PageRequest) Offset() int {
	return r.PageSize * (r.Page - 1)
}

// Page is one page of search results.
type Page[T Record] struct {
	Results  []T  `json:"results"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`

	// Full reports whether the page holds exactly PageSize results, the
	// cheap signal used to synthesise a next-page link.
	Full bool `json:"-"`

	// HasPrevious is true for every page after the first, independent of
	// result fullness.
	HasPrevious bool `json:"-"`

	// TotalResults and TotalPages are only set when the request opted in
	// to an explicit count.
	TotalResults *int `json:"total_results,omitempty"`
	TotalPages   *int `json:"total_pages,omitempty"`
}
