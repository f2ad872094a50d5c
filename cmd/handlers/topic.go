package handlers

import (
	"context"
	"fmt"

	"autopress/internal/config"
	"autopress/internal/llm"
	"autopress/internal/prompt"
	"autopress/internal/topics"

	"github.com/spf13/cobra"
)

// NewTopicCmd creates the topic command for discovery without publishing
func NewTopicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Discover a blog topic from current news without publishing",
		Long: `Discover a blog topic by generating a news search query, searching
for recent articles and turning one of them into a blog topic.

Useful for previewing what the post command would write about.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopic(cmd.Context())
		},
	}
	return cmd
}

func runTopic(ctx context.Context) error {
	cfg := config.Get()

	llmClient, err := llm.NewClient(ctx, cfg.AI.Gemini)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	docs := prompt.LoadContextDocs(cfg.Context)
	discoverer := topics.New(llmClient, newsProvider(cfg), docs, searchConfig(cfg))

	topic := discoverer.Random(ctx)

	fmt.Printf("Title: %s\n", topic.Title)
	fmt.Printf("Description: %s\n", topic.Description)
	if topic.Source != nil {
		fmt.Printf("Source: %s (%s)\n", topic.Source.Title, topic.Source.URL)
	}
	return nil
}
