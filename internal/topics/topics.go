// Package topics discovers blog topics from current news: it generates a
// search query from the topic guidelines, searches a news provider, picks a
// candidate article and turns it into a titled topic with a short brief.
// Every failure point degrades to a fallback rather than aborting a run.
package topics

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"autopress/internal/core"
	"autopress/internal/logger"
	"autopress/internal/prompt"
	"autopress/internal/search"
)

// fallbackQuery is used when query generation itself fails.
const fallbackQuery = "latest technology news trends analysis"

// Minimum lengths for a search hit to count as a usable topic source.
const (
	minTitleLen       = 5
	minDescriptionLen = 20
	minTopicTitleLen  = 10
)

// TextGenerator is the LLM call shape topic discovery depends on.
type TextGenerator interface {
	GenerateText(ctx context.Context, system, prompt string, temperature float32) (string, error)
}

// Discoverer produces random topics from news search results.
type Discoverer struct {
	llm          TextGenerator
	provider     search.Provider
	docs         prompt.ContextDocs
	searchConfig search.Config
	rng          *rand.Rand
	now          func() time.Time
}

// New creates a Discoverer.
func New(llm TextGenerator, provider search.Provider, docs prompt.ContextDocs, searchConfig search.Config) *Discoverer {
	return &Discoverer{
		llm:          llm,
		provider:     provider,
		docs:         docs,
		searchConfig: searchConfig,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
	}
}

// Random discovers one topic: query generation, news search, candidate
// filtering, random selection, topic generation. It never returns an error;
// each stage has a fallback and the worst case is the fixed default topic.
func (d *Discoverer) Random(ctx context.Context) core.Topic {
	query := d.generateSearchQuery(ctx)

	articles := d.searchNews(ctx, query)

	valid := articles[:0:0]
	for _, a := range articles {
		if len(a.Title) > minTitleLen && len(a.Description) > minDescriptionLen {
			valid = append(valid, a)
		}
	}
	if len(valid) == 0 {
		logger.Warn("No valid articles found, using default topic", "query", query)
		return d.DefaultTopic(nil)
	}

	selected := valid[d.rng.Intn(len(valid))]
	logger.Info("Selected source article", "title", selected.Title, "source", selected.Source)

	topic := d.generateTopic(ctx, selected)
	if len(topic.Title) < minTopicTitleLen {
		logger.Warn("Generated topic title too short, using default", "title", topic.Title)
		return d.DefaultTopic(&selected)
	}

	logger.Info("Generated blog topic", "title", topic.Title)
	return topic
}

// generateSearchQuery asks the model for a news search query based on a
// randomized subset of the guidelines, with randomized system prompt and
// temperature for diversity.
func (d *Discoverer) generateSearchQuery(ctx context.Context) string {
	guidelines := d.subsetGuidelines(d.docs.Guidelines)
	system := prompt.SearchQuerySystemPrompts[d.rng.Intn(len(prompt.SearchQuerySystemPrompts))]
	temperature := 0.6 + d.rng.Float32()*0.3

	raw, err := d.llm.GenerateText(ctx, system, prompt.SearchQuery(guidelines, d.now()), temperature)
	if err != nil {
		logger.Error("Search query generation failed, using fallback query", err)
		return fallbackQuery
	}

	query := cleanQuery(raw)
	logger.Info("Generated search query", "query", query)
	return query
}

// searchNews runs the provider search, substituting synthesized placeholder
// results when the provider is unavailable or empty.
func (d *Discoverer) searchNews(ctx context.Context, query string) []core.SourceArticle {
	if d.provider != nil {
		articles, err := d.provider.Search(ctx, query, d.searchConfig)
		if err == nil && len(articles) > 0 {
			return articles
		}
		if err != nil {
			logger.Error("News search failed, using fallback results", err, "provider", d.provider.GetName(), "query", query)
		}
	}
	return search.FallbackResults(query)
}

// generateTopic turns a source article into a blog topic via the model,
// parsing the TITLE:/DESCRIPTION: response shape.
func (d *Discoverer) generateTopic(ctx context.Context, article core.SourceArticle) core.Topic {
	raw, err := d.llm.GenerateText(ctx, prompt.SystemTopic, d.docs.Topic(article.Title, article.Description, d.now()), 0.8)
	if err != nil {
		logger.Error("Topic generation failed, using article title", err)
		return core.Topic{
			Title:       article.Title,
			Description: "Generated topic based on current news.",
			Source:      &article,
		}
	}

	title, description := parseTopicResponse(raw)
	return core.Topic{
		Title:       title,
		Description: description,
		Source:      &article,
	}
}

// DefaultTopic returns the fallback topic used when discovery fails. When a
// source article is available the topic is derived from it.
func (d *Discoverer) DefaultTopic(article *core.SourceArticle) core.Topic {
	date := d.now().Format("January 2, 2006")

	if article != nil && article.Title != "" {
		return core.Topic{
			Title:       "Analysis: " + article.Title,
			Description: "A detailed exploration of the implications and context behind this news as of " + date + ".",
			Source:      article,
		}
	}

	return core.Topic{
		Title:       "The Current State of Emerging Technology",
		Description: "An examination of recent trends and developments as of " + date + ", with a focus on their practical implications.",
	}
}

// subsetGuidelines keeps a random subset of guideline paragraphs so repeated
// runs explore different angles of the same document.
func (d *Discoverer) subsetGuidelines(guidelines string) string {
	paragraphs := strings.Split(strings.TrimSpace(guidelines), "\n\n")
	if len(paragraphs) <= 1 {
		return guidelines
	}

	keep := 1 + d.rng.Intn(len(paragraphs)-1)
	d.rng.Shuffle(len(paragraphs), func(i, j int) {
		paragraphs[i], paragraphs[j] = paragraphs[j], paragraphs[i]
	})
	return strings.Join(paragraphs[:keep], "\n\n")
}

// cleanQuery strips quotation and punctuation marks that hurt search recall.
func cleanQuery(query string) string {
	replacer := strings.NewReplacer(
		`"`, "", "'", "", "“", "", "”", "",
		".", "", "!", "", "?", "", ":", "",
	)
	return strings.TrimSpace(replacer.Replace(query))
}

// parseTopicResponse extracts the TITLE:/DESCRIPTION: pair from a model
// response, tolerating missing markers.
func parseTopicResponse(response string) (title, description string) {
	title = response
	if idx := strings.Index(response, "TITLE:"); idx >= 0 {
		title = response[idx+len("TITLE:"):]
	}
	if idx := strings.Index(title, "DESCRIPTION:"); idx >= 0 {
		description = strings.TrimSpace(title[idx+len("DESCRIPTION:"):])
		title = title[:idx]
	}
	return strings.TrimSpace(title), description
}
