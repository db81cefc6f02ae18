// Package retrieval implements the context lookup port against the
// retrieval sidecar's HTTP API, with an in-process snippet cache.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/TaskForge/internal/port/cache"
	"github.com/Strob0t/TaskForge/internal/port/retrieval"
	"github.com/Strob0t/TaskForge/internal/resilience"
)

// Client implements retrieval.Lookuper over HTTP.
type Client struct {
	baseURL    string
	topK       int
	cacheTTL   time.Duration
	httpClient *http.Client
	cache      cache.Cache
	breaker    *resilience.Breaker
	logger     *slog.Logger
}

// NewClient creates a retrieval client. cache may be nil to disable caching.
func NewClient(baseURL string, topK int, cacheTTL time.Duration, c cache.Cache, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		topK:     topK,
		cacheTTL: cacheTTL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache:  c,
		logger: logger,
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Lookup fetches context snippets for the query. Results are cached per
// owner and query; cache failures are ignored.
func (c *Client) Lookup(ctx context.Context, ownerID, query string) ([]retrieval.Snippet, error) {
	key := "retrieval:" + ownerID + ":" + query

	if c.cache != nil {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			var snippets []retrieval.Snippet
			if err := json.Unmarshal(data, &snippets); err == nil {
				return snippets, nil
			}
		}
	}

	body, err := json.Marshal(map[string]any{
		"owner_id": ownerID,
		"query":    query,
		"top_k":    c.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal lookup request: %w", err)
	}

	var snippets []retrieval.Snippet
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("retrieval API error %d: %s", resp.StatusCode, string(data))
		}

		var result struct {
			Snippets []retrieval.Snippet `json:"snippets"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("unmarshal snippets: %w", err)
		}
		snippets = result.Snippets
		return nil
	}

	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}

	if c.cache != nil {
		if data, err := json.Marshal(snippets); err == nil {
			if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
				c.logger.Warn("snippet cache set failed", "error", err)
			}
		}
	}
	return snippets, nil
}
