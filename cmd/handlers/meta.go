package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"autopress/internal/config"
	"autopress/internal/llm"
	"autopress/internal/logger"
	"autopress/internal/meta"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
)

// NewMetaCmd creates the meta command for re-applying SEO metadata
func NewMetaCmd() *cobra.Command {
	var (
		postID     int
		keyphrases int
	)

	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Generate and apply SEO metadata to an existing post",
		Long: `Generate SEO metadata for an existing WordPress post and apply it
through the metadata fallback chain.

Fetches the post, generates a meta description and keyphrases from its
content, then applies the Yoast fields. Use this to repair posts whose
metadata did not land during publishing.

Examples:
  autopress meta --post-id 123
  autopress meta --post-id 123 --keyphrases 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeta(cmd.Context(), postID, keyphrases)
		},
	}

	cmd.Flags().IntVar(&postID, "post-id", 0, "ID of the post to update (required)")
	cmd.Flags().IntVar(&keyphrases, "keyphrases", 0, "Number of SEO keyphrases to generate")
	_ = cmd.MarkFlagRequired("post-id")

	return cmd
}

func runMeta(ctx context.Context, postID, keyphrases int) error {
	cfg := config.Get()

	if keyphrases <= 0 {
		keyphrases = cfg.Post.Keyphrases
	}

	llmClient, err := llm.NewClient(ctx, cfg.AI.Gemini)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	publisher, wp, err := newPublisher(ctx, cfg)
	if err != nil {
		return err
	}

	post, err := wp.GetPost(ctx, postID)
	if err != nil {
		return err
	}

	title := plainText(post.Title.Rendered)
	logger.Info("Generating metadata for existing post", "id", postID, "title", title)

	mc := meta.Generate(ctx, llmClient, title, post.Content.Rendered, keyphrases)

	result := publisher.UpdateMetadata(ctx, postID, title, post.Content.Rendered, mc)

	logger.Info("Metadata update finished",
		"run_id", result.RunID,
		"id", postID,
		"verified", result.Verified,
		"meta_strategy", result.MetaStrategy,
	)
	if result.Escalation != nil {
		fmt.Fprintln(os.Stderr, result.Escalation.Render())
	}
	return nil
}

// plainText strips any markup from a rendered field.
func plainText(rendered string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return rendered
	}
	return strings.TrimSpace(doc.Text())
}
