// Package prompt assembles the model prompts used across the pipeline from
// the goal/knowledge/style context documents and per-call inputs.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"time"

	"autopress/internal/config"
	"autopress/internal/logger"
	"autopress/internal/markdown"
)

const (
	// SystemOutline steers outline generation toward plain markdown with
	// "##" section headers and away from HTML or boilerplate headings.
	SystemOutline = "You are a professional writer for a prestigious institution with expertise in creating persuasive content that drives action. For outlining, use ONLY plain text or markdown formatting with ## for section headers. Be creative and use your own words and style. Do not use boring headers like 'Introduction' or 'Conclusion' or 'Call to Action'. DO NOT use HTML tags or formatting in outlines."

	// SystemContent restricts section output to the whitelisted HTML tags.
	SystemContent = "You are a professional writer for a prestigious institution with expertise in creating persuasive content that drives action. Format your output in clean HTML using ONLY these tags: <p> for paragraphs, <h2> and <h3> for headings, <strong> or <b> for bold text, <em> or <i> for italics, <ul>/<ol> with <li> for lists, and <a> for links. Do not use any other HTML tags."

	// SystemMeta is used for the structured SEO metadata call.
	SystemMeta = "You are an SEO expert who specializes in creating effective meta descriptions and keyphrases."

	// SystemTopic is used when turning a news article into a blog topic.
	SystemTopic = "You are a blog editor specialized in timely, engaging long-form content."
)

// SearchQuerySystemPrompts is the pool of system prompts sampled per search
// query generation to diversify discovered topics.
var SearchQuerySystemPrompts = []string{
	"You are a research assistant helping to find interesting news topics for blog posts.",
	"You are a journalist looking for trending stories in technology and finance.",
	"You are an analyst searching for the latest developments in your field.",
	"You are a researcher exploring emerging trends and their implications.",
	"You are an open source advocate tracking developments in software and technology.",
}

const outlineTemplate = `
[GOALS]
%s

[KNOWLEDGE]
%s

[STYLE]
%s

[INSTRUCTIONS]
Create a detailed outline for a blog post about %s.
Only write the outline, no other text - do not include lines like --- or markdown separators.

On the first line, write the title of the blog post.
For each section title, start with "##" and then the section title.
For each section description, start with a * and then the section description.

Today's date is %s.
Write to accomplish [GOALS].
Use [KNOWLEDGE] to inform your writing.
Write in the style of [STYLE].
`

const sectionTemplate = `
[GOALS]
%s

[KNOWLEDGE]
%s

[STYLE]
%s

[OUTLINE]
%s

[INSTRUCTIONS]
Write a section of a blog post about %s.
Connect %s to [GOALS] and [KNOWLEDGE] using [STYLE].
Today's date is %s.
I need you to write ONLY the following section from [OUTLINE]:
%s

Section description: %s

Target length for this section: approximately %d words

Focus ONLY on writing this section - do not include other sections or a full blog post.
Do not include the heading in your response - just write the content for this section.
`

const topicTemplate = `
[GOALS]
%s

[KNOWLEDGE]
%s

[STYLE]
%s

[TOPIC]
Title: %s
Description: %s

[INSTRUCTIONS]
Today's date is %s. Connect [TOPIC] to [GOALS] and [KNOWLEDGE] using [STYLE].
Generate a specific blog title related to [TOPIC] that would accomplish [GOALS] and align with [KNOWLEDGE] using [STYLE].
Include a brief (2-3 sentence) description of what the article should cover. Make it engaging and aligned with [GOALS].
Do not include the current year or date in the title. Keep the title short and concise.
Optimize the title for SEO by being very short and concise using common search phrases.

Format your response as:
TITLE: [Your title here]
DESCRIPTION: [Your brief description here]
`

const searchQueryTemplate = `
Based on the following guidelines for blog topics, generate a specific news search query
that will find current and relevant articles.

Today's date is %s. IMPORTANT: Please generate a query that will find recent and timely news.
Do NOT include a date in the query.

Guidelines:
%s

Return ONLY the search query string, nothing else. Make it specific enough to find
interesting current news but general enough to return results.
`

const metaTemplate = `
Based on the following blog post title and content, generate:
1. A compelling meta description (150-160 characters maximum)
2. A list of %d relevant keyphrases for SEO purposes

Today's date is %s. Please ensure the meta description and keyphrases are relevant and timely.

Title: %s

Content excerpt:
%s

Ensure the meta description is compelling, accurately summarizes the content, and is 150-160 characters.
The keyphrases should be specific, relevant to the content, and have search value.
`

// Defaults substituted when a context document is missing or has no sections.
const (
	defaultKnowledge = "Assume the reader has basic familiarity with the topic but would benefit from deeper insights."
	defaultStyle     = "Professional but conversational tone with engaging and persuasive writing."
	defaultGoal      = "Write an engaging, well-argued blog post."
)

// ContextDocs holds the goal/knowledge/style documents interpolated into
// every generation prompt, plus the topic guidelines used for discovery.
type ContextDocs struct {
	Goal       string
	Knowledge  string
	Style      string
	Guidelines string
}

// LoadContextDocs reads the configured context files. Missing files degrade
// to empty strings with a warning; they are collaborator inputs, not
// configuration, so their absence is never fatal.
func LoadContextDocs(cfg config.Context) ContextDocs {
	return ContextDocs{
		Goal:       readFile(cfg.GoalFile),
		Knowledge:  readFile(cfg.KnowledgeFile),
		Style:      readFile(cfg.StyleFile),
		Guidelines: readFile(cfg.TopicsFile),
	}
}

func readFile(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read context document", "path", path, "error", err.Error())
		}
		return ""
	}
	return string(data)
}

// goalBlock returns the goal document or its default.
func (d ContextDocs) goalBlock() string {
	if strings.TrimSpace(d.Goal) == "" {
		return defaultGoal
	}
	return d.Goal
}

// knowledgeBlock compiles the knowledge document's sections, skipping the
// introduction, falling back to a generic assumption when empty.
func (d ContextDocs) knowledgeBlock() string {
	if strings.TrimSpace(d.Knowledge) == "" {
		return defaultKnowledge
	}
	return markdown.CompileSections(markdown.ExtractSections(d.Knowledge), defaultKnowledge)
}

// styleBlock compiles the style document's sections the same way.
func (d ContextDocs) styleBlock() string {
	if strings.TrimSpace(d.Style) == "" {
		return defaultStyle
	}
	return markdown.CompileSections(markdown.ExtractSections(d.Style), defaultStyle)
}

// Outline builds the outline generation prompt for a topic.
func (d ContextDocs) Outline(topic string, now time.Time) string {
	return fmt.Sprintf(outlineTemplate,
		d.goalBlock(), d.knowledgeBlock(), d.styleBlock(),
		topic, now.Format("January 2, 2006"))
}

// Section builds the prompt for one section of a post. targetWords should
// come from SectionWordTarget.
func (d ContextDocs) Section(postTitle, sectionTitle, sectionDescription, outlineText string, now time.Time, targetWords int) string {
	return fmt.Sprintf(sectionTemplate,
		d.goalBlock(), d.knowledgeBlock(), d.styleBlock(),
		outlineText,
		postTitle, postTitle, now.Format("January 2, 2006"),
		sectionTitle, sectionDescription, targetWords)
}

// Topic builds the prompt that turns a news article into a blog topic.
func (d ContextDocs) Topic(articleTitle, articleDescription string, now time.Time) string {
	return fmt.Sprintf(topicTemplate,
		d.goalBlock(), d.knowledgeBlock(), d.styleBlock(),
		articleTitle, articleDescription, now.Format("January 2, 2006"))
}

// SearchQuery builds the prompt that generates a news search query from the
// (possibly subsetted) topic guidelines.
func SearchQuery(guidelines string, now time.Time) string {
	return fmt.Sprintf(searchQueryTemplate, now.Format("January 2, 2006"), guidelines)
}

// Meta builds the prompt for the structured SEO metadata call.
func Meta(title, plainText string, maxKeyphrases int, now time.Time) string {
	return fmt.Sprintf(metaTemplate, maxKeyphrases, now.Format("January 2, 2006"), title, plainText)
}

// SectionWordTarget distributes a total word budget evenly across sections
// using integer division. The remainder is not redistributed; each target is
// at least 1.
func SectionWordTarget(totalWords, numSections int) int {
	if numSections < 1 {
		numSections = 1
	}
	target := totalWords / numSections
	if target < 1 {
		target = 1
	}
	return target
}
