package search

import (
	"context"
	"fmt"
	"time"

	"autopress/internal/core"
)

// MockProvider implements Provider for testing purposes
type MockProvider struct {
	name    string
	results []core.SourceArticle
	err     error
}

// NewMockProvider creates a new mock search provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name: "Mock",
		results: []core.SourceArticle{
			{
				Title:       "Example Article 1",
				Description: "This is a mock search result with enough text to pass validity filters.",
				URL:         "https://example.com/article1",
				Source:      "Mock",
				PublishedAt: time.Now(),
			},
			{
				Title:       "Test Article 2",
				Description: "Another mock search result with different content for variety.",
				URL:         "https://test.org/article2",
				Source:      "Mock",
				PublishedAt: time.Now(),
			},
		},
	}
}

// GetName returns the name of this provider
func (m *MockProvider) GetName() string {
	return m.name
}

// Search returns the configured mock results, tagged with the query
func (m *MockProvider) Search(ctx context.Context, query string, config Config) ([]core.SourceArticle, error) {
	if m.err != nil {
		return nil, m.err
	}

	maxResults := config.MaxResults
	if maxResults <= 0 || maxResults > len(m.results) {
		maxResults = len(m.results)
	}

	results := make([]core.SourceArticle, maxResults)
	for i := 0; i < maxResults; i++ {
		result := m.results[i]
		result.Title = fmt.Sprintf("%s (for query: %s)", result.Title, query)
		results[i] = result
	}

	return results, nil
}

// SetResults allows customization of mock results for testing
func (m *MockProvider) SetResults(results []core.SourceArticle) {
	m.results = results
}

// SetError makes every Search call fail with err
func (m *MockProvider) SetError(err error) {
	m.err = err
}
