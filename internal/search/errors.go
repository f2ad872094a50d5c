package search

import "errors"

var (
	// ErrMissingAPIKey is returned when a provider requires an API key that was not provided
	ErrMissingAPIKey = errors.New("missing API key for search provider")

	// ErrUnsupportedProvider is returned when an unsupported provider type is requested
	ErrUnsupportedProvider = errors.New("unsupported search provider type")

	// ErrNoResults is returned when a search completes but yields no usable results
	ErrNoResults = errors.New("search returned no results")
)
