package handlers

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autopress/internal/config"
	"autopress/internal/core"
	"autopress/internal/generator"
	"autopress/internal/llm"
	"autopress/internal/logger"
	"autopress/internal/markdown"
	"autopress/internal/meta"
	"autopress/internal/prompt"
	"autopress/internal/publish"
	"autopress/internal/search"
	"autopress/internal/topics"
	"autopress/internal/wordpress"

	"github.com/spf13/cobra"
)

const defaultLoopDelay = 5 * time.Second

// postOptions holds the flags of one post invocation.
type postOptions struct {
	loop         int
	loadFile     string
	outputFile   string
	skipPost     bool
	skipMeta     bool
	keyphrases   int
	status       string
	tags         []string
	categoryID   int
	categoryName string
	length       int
	topic        string
	temperature  float32
}

// NewPostCmd creates the post command, the main generate-and-publish loop
func NewPostCmd() *cobra.Command {
	var opts postOptions

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Generate a blog post and publish it to WordPress",
		Long: `Generate a blog post and publish it to WordPress with SEO metadata.

Without flags, one post is generated from a discovered topic and published
as a draft. The loop flag repeats the whole pipeline with a delay between
iterations, discovering a fresh topic each time.

Examples:
  # Generate and publish one draft post
  autopress post

  # Publish five posts on trending topics
  autopress post --loop 5 --status publish

  # Generate on a fixed topic without posting
  autopress post --topic "The future of edge computing" --skip-post --output-file post.html

  # Publish an existing markdown file
  autopress post --load-file drafts/kubernetes.md --category-name "DevOps"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.loop, "loop", 1, "Number of posts to generate")
	cmd.Flags().StringVar(&opts.loadFile, "load-file", "", "Publish a markdown file instead of generating content")
	cmd.Flags().StringVar(&opts.outputFile, "output-file", "", "Write the generated HTML to a file")
	cmd.Flags().BoolVar(&opts.skipPost, "skip-post", false, "Generate content but do not publish")
	cmd.Flags().BoolVar(&opts.skipMeta, "skip-meta", false, "Publish without SEO metadata")
	cmd.Flags().IntVar(&opts.keyphrases, "keyphrases", 0, "Number of SEO keyphrases to generate")
	cmd.Flags().StringVar(&opts.status, "status", "", "Post status (draft, publish, pending, private)")
	cmd.Flags().StringSliceVar(&opts.tags, "tags", nil, "Tags to attach to the post")
	cmd.Flags().IntVar(&opts.categoryID, "category-id", 0, "Category ID to publish under")
	cmd.Flags().StringVar(&opts.categoryName, "category-name", "", "Category name to publish under")
	cmd.Flags().IntVar(&opts.length, "length", 0, "Target word count (default: random between configured min and max)")
	cmd.Flags().StringVar(&opts.topic, "topic", "", "Fixed topic instead of automatic discovery")
	cmd.Flags().Float32Var(&opts.temperature, "temperature", 0, "Generation temperature override")

	return cmd
}

// pipeline bundles the collaborators one post run needs.
type pipeline struct {
	cfg        *config.Config
	llm        *llm.Client
	gen        *generator.Generator
	discoverer *topics.Discoverer
	publisher  *publish.Publisher
	opts       postOptions
}

func runPost(ctx context.Context, opts postOptions) error {
	cfg := config.Get()

	if opts.status == "" {
		opts.status = cfg.Post.DefaultStatus
	}
	if !core.ValidStatus(core.PostStatus(opts.status)) {
		return fmt.Errorf("invalid status %q: must be draft, publish, pending or private", opts.status)
	}
	if opts.keyphrases <= 0 {
		opts.keyphrases = cfg.Post.Keyphrases
	}
	if opts.temperature <= 0 {
		opts.temperature = cfg.AI.Gemini.Temperature
	}

	llmClient, err := llm.NewClient(ctx, cfg.AI.Gemini)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	docs := prompt.LoadContextDocs(cfg.Context)

	p := &pipeline{
		cfg:  cfg,
		llm:  llmClient,
		gen:  generator.New(llmClient, docs, opts.temperature, cfg.Post.HighlightTerms),
		opts: opts,
	}

	if opts.topic == "" && opts.loadFile == "" {
		p.discoverer = topics.New(llmClient, newsProvider(cfg), docs, searchConfig(cfg))
	}

	if !opts.skipPost {
		p.publisher, _, err = newPublisher(ctx, cfg)
		if err != nil {
			return err
		}
	}

	delay := loopDelay(cfg.Post.LoopDelay)

	for i := 1; i <= opts.loop; i++ {
		logger.Info("Starting post iteration", "iteration", i, "total", opts.loop)

		if err := p.run(ctx, i); err != nil {
			if i < opts.loop {
				logger.Error("Post iteration failed, continuing with next", err, "iteration", i)
			} else {
				return err
			}
		}

		if i < opts.loop {
			logger.Info("Waiting before next iteration", "delay", delay.String())
			time.Sleep(delay)
		}
	}
	return nil
}

// run executes one generate-and-publish iteration.
func (p *pipeline) run(ctx context.Context, iteration int) error {
	post, err := p.buildContent(ctx)
	if err != nil {
		return err
	}

	if p.opts.outputFile != "" {
		path := outputPath(p.opts.outputFile, iteration)
		content := fmt.Sprintf("<h1>%s</h1>\n%s", post.Title, post.HTML)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logger.Info("Wrote generated content", "path", path)
	}

	var mc core.MetaContent
	if !p.opts.skipMeta {
		mc = meta.Generate(ctx, p.llm, post.Title, post.HTML, p.opts.keyphrases)
	}

	if p.opts.skipPost {
		logger.Info("Skipping publication", "title", post.Title)
		return nil
	}

	target := core.PostTarget{
		CategoryID:   p.opts.categoryID,
		CategoryName: p.opts.categoryName,
		Tags:         p.opts.tags,
		Status:       core.PostStatus(p.opts.status),
	}
	if target.CategoryID == 0 && target.CategoryName == "" {
		target.CategoryName = p.cfg.Post.DefaultCategoryName
	}
	if len(target.Tags) == 0 {
		target.Tags = p.cfg.Post.DefaultTags
	}

	result, err := p.publisher.Publish(ctx, post, mc, publish.Options{Target: target, SkipMeta: p.opts.skipMeta})
	if err != nil {
		return err
	}

	logger.Info("Post published",
		"run_id", result.RunID,
		"id", result.PostID,
		"title", post.Title,
		"verified", result.Verified,
		"meta_strategy", result.MetaStrategy,
	)

	if result.Escalation != nil {
		fmt.Fprintln(os.Stderr, result.Escalation.Render())
	}
	return nil
}

// buildContent produces the assembled post, either by generating from a
// topic or by post-processing a markdown file.
func (p *pipeline) buildContent(ctx context.Context) (core.AssembledPost, error) {
	if p.opts.loadFile != "" {
		return p.loadMarkdownFile()
	}

	topic := p.opts.topic
	if topic == "" {
		discovered := p.discoverer.Random(ctx)
		topic = discovered.Title
		if discovered.Description != "" {
			topic = discovered.Title + ". " + discovered.Description
		}
	}

	totalWords := p.opts.length
	if totalWords <= 0 {
		totalWords = p.cfg.Post.MinWords + rand.Intn(p.cfg.Post.MaxWords-p.cfg.Post.MinWords+1)
		logger.Warn("No target length given, using a random word count", "words", totalWords)
	}

	return p.gen.GeneratePost(ctx, topic, totalWords)
}

// loadMarkdownFile converts an existing markdown document into a post.
func (p *pipeline) loadMarkdownFile() (core.AssembledPost, error) {
	data, err := os.ReadFile(p.opts.loadFile)
	if err != nil {
		return core.AssembledPost{}, fmt.Errorf("failed to read file: %w", err)
	}

	title, body := extractTitle(string(data), p.opts.loadFile)

	sections := markdown.ExtractSections(body)
	processed := make([]core.GeneratedSection, 0, len(sections))
	for _, section := range sections {
		processed = append(processed, core.GeneratedSection{
			Title:   section.Title,
			Content: generator.PostProcess(section.Body, p.cfg.Post.HighlightTerms),
		})
	}

	return generator.Assemble(title, processed), nil
}

// extractTitle pulls the document title from a leading H1, falling back to
// the file name.
func extractTitle(content, path string) (title, body string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			body = strings.Join(lines[i+1:], "\n")
			return title, body
		}
		break
	}

	base := filepath.Base(path)
	title = strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.ReplaceAll(title, "-", " ")
	title = strings.ReplaceAll(title, "_", " ")
	return strings.TrimSpace(title), content
}

// outputPath appends the iteration number from the second iteration on, so
// looped runs do not overwrite each other.
func outputPath(path string, iteration int) string {
	if iteration <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), iteration, ext)
}

// newPublisher wires the authenticated WordPress client and publisher from
// configuration.
func newPublisher(ctx context.Context, cfg *config.Config) (*publish.Publisher, *wordpress.Client, error) {
	wp, err := wordpress.NewClient(cfg.WordPress)
	if err != nil {
		return nil, nil, err
	}
	if err := wp.Authenticate(ctx); err != nil {
		return nil, nil, err
	}
	wp.VerifyAuth(ctx)

	policy, err := publish.ParsePolicy(cfg.Post.ConflictPolicy)
	if err != nil {
		return nil, nil, err
	}
	publisher, err := publish.New(wp, policy, cfg.Post.DefaultCategoryID, nil)
	if err != nil {
		return nil, nil, err
	}
	return publisher, wp, nil
}

// newsProvider builds the configured search provider, degrading to nil
// (synthesized fallback results) when it cannot be created.
func newsProvider(cfg *config.Config) search.Provider {
	factory := search.NewProviderFactory()
	provider, err := factory.CreateProvider(
		search.ProviderType(cfg.Search.DefaultProvider),
		map[string]string{
			"api_key":      cfg.Search.Providers.Tavily.APIKey,
			"search_depth": cfg.Search.Providers.Tavily.SearchDepth,
		},
	)
	if err != nil {
		logger.Warn("Search provider unavailable, topic discovery will use fallback results",
			"provider", cfg.Search.DefaultProvider, "error", err.Error())
		return nil
	}
	return provider
}

// searchConfig translates configuration into per-request search settings.
func searchConfig(cfg *config.Config) search.Config {
	timeout, err := time.ParseDuration(cfg.Search.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	return search.Config{
		MaxResults:  cfg.Search.MaxResults,
		SearchDepth: cfg.Search.Providers.Tavily.SearchDepth,
		Timeout:     timeout,
	}
}

func loopDelay(raw string) time.Duration {
	delay, err := time.ParseDuration(raw)
	if err != nil || delay <= 0 {
		return defaultLoopDelay
	}
	return delay
}
