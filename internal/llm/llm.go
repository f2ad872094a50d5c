// Package llm wraps the Gemini SDK behind the two call shapes the pipeline
// needs: free-text generation with a system instruction, and JSON-schema
// constrained generation for structured output.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"autopress/internal/config"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Client is a thin wrapper around the Gemini SDK client.
type Client struct {
	modelName   string
	temperature float32
	gClient     *genai.Client
}

// NewClient creates a new LLM client from configuration. A missing API key is
// a configuration error and fails immediately; there is no fallback.
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY or ai.gemini.api_key in the config file")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		modelName:   modelName,
		temperature: cfg.Temperature,
		gClient:     gClient,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.modelName
}

// GenerateText sends one user prompt under the given system instruction and
// returns the raw completion text.
func (c *Client) GenerateText(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	return c.generate(ctx, system, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	})
}

// GenerateStructured sends one user prompt constrained to a JSON response
// matching schema and returns the raw JSON text. Callers own parsing so they
// can apply their own fallback on malformed output.
func (c *Client) GenerateStructured(ctx context.Context, system, prompt string, schema *genai.Schema, temperature float32) (string, error) {
	return c.generate(ctx, system, prompt, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
}

func (c *Client) generate(ctx context.Context, system, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	if system != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return text, nil
}
