package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autopress/internal/core"
	"autopress/internal/logger"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// TavilyProvider implements the Provider interface using the Tavily search API.
type TavilyProvider struct {
	apiKey   string
	client   *http.Client
	endpoint string
}

// NewTavilyProvider creates a new Tavily search provider
func NewTavilyProvider(apiKey string) *TavilyProvider {
	return &TavilyProvider{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint: tavilyEndpoint,
	}
}

// GetName returns the name of this provider
func (t *TavilyProvider) GetName() string {
	return "Tavily"
}

type tavilyRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title      string `json:"title"`
		URL        string `json:"url"`
		Content    string `json:"content"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
}

// Search performs a search using the Tavily API and returns results.
// Entries with empty titles or descriptions are filtered out, and trailing
// "EOF" markers some feeds leave in titles are stripped.
func (t *TavilyProvider) Search(ctx context.Context, query string, config Config) ([]core.SourceArticle, error) {
	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	depth := config.SearchDepth
	if depth == "" {
		depth = "advanced"
	}

	payload, err := json.Marshal(tavilyRequest{
		Query:         query,
		SearchDepth:   depth,
		IncludeAnswer: false,
		MaxResults:    maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	now := time.Now()
	articles := make([]core.SourceArticle, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		title := strings.TrimSpace(strings.TrimSuffix(r.Title, "EOF"))
		description := r.Content
		if description == "" {
			description = r.RawContent
		}
		if title == "" || description == "" {
			continue
		}
		articles = append(articles, core.SourceArticle{
			Title:       title,
			Description: description,
			URL:         r.URL,
			Source:      "Tavily Search",
			PublishedAt: now, // Tavily does not report publication dates
		})
	}

	logger.Info("Tavily search completed", "query", query, "results_found", len(articles))

	if len(articles) == 0 {
		return nil, ErrNoResults
	}
	return articles, nil
}
