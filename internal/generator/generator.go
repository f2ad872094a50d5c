// Package generator turns a parsed outline into finished HTML sections, one
// sequential model call per section, and assembles them into a post.
package generator

import (
	"context"
	"fmt"
	"time"

	"autopress/internal/core"
	"autopress/internal/logger"
	"autopress/internal/outline"
	"autopress/internal/prompt"
)

// TextGenerator is the LLM call shape the generator depends on.
type TextGenerator interface {
	GenerateText(ctx context.Context, system, prompt string, temperature float32) (string, error)
}

// Generator produces blog post content from outlines.
type Generator struct {
	llm            TextGenerator
	docs           prompt.ContextDocs
	temperature    float32
	highlightTerms []string
	now            func() time.Time
}

// New creates a Generator. highlightTerms are literal phrases bolded in
// generated content when they appear outside of existing tags.
func New(llm TextGenerator, docs prompt.ContextDocs, temperature float32, highlightTerms []string) *Generator {
	return &Generator{
		llm:            llm,
		docs:           docs,
		temperature:    temperature,
		highlightTerms: highlightTerms,
		now:            time.Now,
	}
}

// GenerateOutline asks the model for an outline on topic, normalizes and
// parses it. Any failure degrades to the fixed fallback skeleton; outline
// generation never returns an error. The second return value is the outline
// in its canonical text form, used verbatim in section prompts.
func (g *Generator) GenerateOutline(ctx context.Context, topic string) (outline.Outline, string) {
	raw, err := g.llm.GenerateText(ctx, prompt.SystemOutline, g.docs.Outline(topic, g.now()), g.temperature)
	if err != nil {
		logger.Error("Outline generation failed, using fallback skeleton", err, "topic", topic)
		fb := outline.Fallback(topic)
		return fb, outline.Format(fb)
	}

	normalized := outline.Normalize(raw)
	parsed, err := outline.Parse(normalized)
	if err != nil {
		logger.Error("Outline parse failed, using fallback skeleton", err, "topic", topic)
		fb := outline.Fallback(topic)
		return fb, outline.Format(fb)
	}

	if parsed.Title == "" {
		logger.Warn("No title found in outline, using topic as title", "topic", topic)
		parsed.Title = topic
	}
	if len(parsed.Sections) == 0 {
		logger.Warn("No sections found in outline, using default structure", "topic", topic)
		parsed.Sections = outline.Fallback(topic).Sections
	}

	logger.Info("Outline parsed", "title", parsed.Title, "sections", len(parsed.Sections))
	return parsed, normalized
}

// GenerateSections issues one model call per outline section, strictly in
// order, and post-processes each response into the whitelisted HTML subset.
// totalWords is split evenly across sections; a failed section call aborts
// this post (the run driver decides skip-vs-abort across iterations).
func (g *Generator) GenerateSections(ctx context.Context, o outline.Outline, outlineText string, totalWords int) ([]core.GeneratedSection, error) {
	target := prompt.SectionWordTarget(totalWords, len(o.Sections))

	sections := make([]core.GeneratedSection, 0, len(o.Sections))
	for i, s := range o.Sections {
		logger.Info("Generating section", "index", i+1, "total", len(o.Sections), "title", s.Title)

		p := g.docs.Section(o.Title, s.Title, s.Description, outlineText, g.now(), target)
		content, err := g.llm.GenerateText(ctx, prompt.SystemContent, p, g.temperature)
		if err != nil {
			return nil, fmt.Errorf("failed to generate section %q: %w", s.Title, err)
		}

		sections = append(sections, core.GeneratedSection{
			Title:   s.Title,
			Content: PostProcess(content, g.highlightTerms),
		})
	}

	return sections, nil
}

// GeneratePost runs the full outline-then-sections pipeline for a topic and
// returns the assembled post.
func (g *Generator) GeneratePost(ctx context.Context, topic string, totalWords int) (core.AssembledPost, error) {
	o, outlineText := g.GenerateOutline(ctx, topic)

	sections, err := g.GenerateSections(ctx, o, outlineText, totalWords)
	if err != nil {
		return core.AssembledPost{}, err
	}

	post := Assemble(o.Title, sections)
	logger.Info("Blog post assembled", "title", post.Title, "sections", len(sections))
	return post, nil
}
