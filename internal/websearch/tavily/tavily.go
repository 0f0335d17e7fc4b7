// Package tavily is a web search provider backed by the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"ragchat/internal/domain"
)

// Client is a minimal REST client for Tavily search.
type Client struct {
	baseURL     string
	apiKey      string
	searchDepth string
	client      *http.Client
	limiter     *rate.Limiter
	maxRetries  int
}

// Config configures the Tavily client.
type Config struct {
	BaseURL           string
	APIKeyEnv         string
	SearchDepth       string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
}

// NewClient creates a new search client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tavily.com"
	}
	if cfg.SearchDepth == "" {
		cfg.SearchDepth = "basic"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      key,
		searchDepth: cfg.SearchDepth,
		client:      &http.Client{Timeout: t},
		limiter:     rate.NewLimiter(limit, 1),
		maxRetries:  cfg.MaxRetries,
	}, nil
}

type searchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Results []struct {
		Title   string   `json:"title"`
		URL     string   `json:"url"`
		Content string   `json:"content"`
		Score   *float64 `json:"score"`
	} `json:"results"`
}

// Search returns up to maxResults ranked snippets for query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	data, err := json.Marshal(searchRequest{Query: query, MaxResults: maxResults, SearchDepth: c.searchDepth})
	if err != nil {
		return nil, err
	}
	url := c.baseURL + "/search"
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		payload, retryAfter, err := c.post(ctx, url, data)
		if err == nil {
			return decode(payload)
		}
		if retryAfter < 0 || attempt >= c.maxRetries {
			return nil, err
		}
		if retryAfter == 0 {
			retryAfter = retryDelay(attempt)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryAfter):
		}
	}
}

// post performs one request. A negative delay marks the error as not retryable.
func (c *Client) post(ctx context.Context, url string, data []byte) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, -1, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, -1, err
		}
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		var wait time.Duration
		// Respect Retry-After if provided
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait = time.Duration(secs) * time.Second
		}
		return nil, wait, fmt.Errorf("tavily search failed: %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return nil, -1, fmt.Errorf("tavily search failed: %s", resp.Status)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return payload, 0, nil
}

func decode(payload []byte) ([]domain.WebResult, error) {
	var out searchResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}
	results := make([]domain.WebResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, domain.WebResult{Title: r.Title, URL: r.URL, Content: r.Content, Score: r.Score})
	}
	return results, nil
}

const maxBackoffShift = 5

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s; the shift is bounded so it cannot overflow
	d := base << min(attempt, maxBackoffShift)
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
