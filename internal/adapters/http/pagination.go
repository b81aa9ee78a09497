package httpadapter

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/evgraham/corpus-search/internal/core/domain"
)

const (
	paramSearchTerms = "search_terms"
	paramPage        = "page"
	paramPageSize    = "page_size"
	paramCount       = "count"
)

func parsePageRequest(r *http.Request) (domain.PageRequest, error) {
	q := r.URL.Query()
	req := domain.PageRequest{SearchTerms: q.Get(paramSearchTerms)}

	var err error
	if req.Page, err = parseIntParam(q, paramPage); err != nil {
		return domain.PageRequest{}, err
	}
	if req.PageSize, err = parseIntParam(q, paramPageSize); err != nil {
		return domain.PageRequest{}, err
	}

	if raw := q.Get(paramCount); raw != "" {
		withCount, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.PageRequest{}, domain.WrapError(domain.ErrInvalidInput, "parse page request",
				fmt.Errorf("%s must be a boolean, got %q", paramCount, raw))
		}
		req.WithCount = withCount
	}
	return req, nil
}

func parseIntParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse page request",
			fmt.Errorf("%s must be an integer, got %q", name, raw))
	}
	return value, nil
}

// pageResponse is the wire envelope: the page plus navigation links.
type pageResponse[T domain.Record] struct {
	*domain.Page[T]
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

// newPageResponse synthesises next/previous links from the request URL.
// A next link appears only when the current page is full; the last
// full page therefore still links one page past the data, which yields
// an empty page, and that is the documented contract.
func newPageResponse[T domain.Record](r *http.Request, page *domain.Page[T]) pageResponse[T] {
	resp := pageResponse[T]{Page: page}
	if page.Full {
		resp.Next = pageURL(r, page.Page+1, page.PageSize)
	}
	if page.HasPrevious {
		resp.Previous = pageURL(r, page.Page-1, page.PageSize)
	}
	return resp
}

func pageURL(r *http.Request, number, pageSize int) string {
	u := *r.URL
	q := u.Query()
	q.Set(paramPage, strconv.Itoa(number))
	q.Set(paramPageSize, strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()
	return u.String()
}
