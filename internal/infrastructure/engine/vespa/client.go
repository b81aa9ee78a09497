// Package vespa implements the remote ranked-retrieval backend. Queries
// are declarative documents (source, predicate, ranking profile,
// limit/offset) sent over HTTP; user terms travel as a bound query
// parameter, never spliced into the query text. Transient failures
// degrade to an empty result at the engine boundary.
package vespa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/evgraham/corpus-search/internal/core/domain"
)

const defaultRequestTimeout = 20 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for one ranked-search endpoint. Every
// outbound call runs under the given timeout; zero means the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// QueryResponse is the remote service's heterogeneous result structure:
// hits grouped under root.children, each carrying a flat field map.
type QueryResponse struct {
	Root struct {
		Fields struct {
			TotalCount int `json:"totalCount"`
		} `json:"fields"`
		Children []Hit `json:"children"`
	} `json:"root"`
}

type Hit struct {
	ID        string         `json:"id"`
	Relevance float64        `json:"relevance"`
	Fields    map[string]any `json:"fields"`
}

// Query posts a structured query body to the search endpoint. Network
// and server failures are ErrTemporary-kinded so callers can tell them
// apart from query-construction bugs.
func (c *Client) Query(ctx context.Context, body map[string]any) (*QueryResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "vespa query request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, domain.WrapError(domain.ErrTemporary, "vespa query",
			fmt.Errorf("unexpected status: %s", resp.Status))
	}

	var queryResp QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "vespa query",
			fmt.Errorf("decode response: %w", err))
	}
	return &queryResp, nil
}
