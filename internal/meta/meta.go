// Package meta generates SEO metadata for posts and maps it onto the meta
// field fan-out the target CMS's SEO plugins expect.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"google.golang.org/genai"

	"autopress/internal/core"
	"autopress/internal/logger"
	"autopress/internal/prompt"
)

// maxExcerptChars caps the plain-text excerpt sent to the model to stay
// clear of prompt token limits.
const maxExcerptChars = 2000

// StructuredGenerator is the schema-constrained LLM call shape this package
// depends on.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, system, prompt string, schema *genai.Schema, temperature float32) (string, error)
}

// metaSchema constrains the model response to the two fields we need.
var metaSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"meta_description": {Type: genai.TypeString},
		"keyphrases": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"meta_description", "keyphrases"},
}

// Generate produces SEO metadata for a post. The HTML content is rendered to
// plain text and truncated before prompting. The 160-character description
// ceiling is enforced locally regardless of model compliance, and empty
// keyphrase lists fall back to the lowercased title. Generate never fails:
// on any error (network, malformed JSON, missing keys) it returns the
// deterministic title-based fallback.
func Generate(ctx context.Context, llm StructuredGenerator, title, htmlContent string, maxKeyphrases int) core.MetaContent {
	plainText := excerptText(htmlContent)

	raw, err := llm.GenerateStructured(ctx, prompt.SystemMeta, prompt.Meta(title, plainText, maxKeyphrases, time.Now()), metaSchema, 0.7)
	if err != nil {
		logger.Error("Meta generation failed, using title-based fallback", err, "title", title)
		return Fallback(title)
	}

	var parsed struct {
		MetaDescription *string  `json:"meta_description"`
		Keyphrases      []string `json:"keyphrases"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		logger.Error("Meta response is not valid JSON, using title-based fallback", err, "title", title)
		return Fallback(title)
	}
	if parsed.MetaDescription == nil {
		logger.Warn("Meta response missing meta_description, using title-based fallback", "title", title)
		return Fallback(title)
	}

	mc := core.MetaContent{
		MetaDescription: ClampDescription(*parsed.MetaDescription),
		Keyphrases:      parsed.Keyphrases,
	}
	if len(mc.Keyphrases) == 0 {
		mc.Keyphrases = []string{strings.ToLower(title)}
	}

	return mc
}

// Fallback builds deterministic metadata purely from the title.
func Fallback(title string) core.MetaContent {
	return core.MetaContent{
		MetaDescription: ClampDescription(fmt.Sprintf("%s - Learn more about this topic in our detailed blog post.", title)),
		Keyphrases:      []string{strings.ToLower(title)},
	}
}

// ClampDescription enforces the 160-character ceiling, truncating to 157
// characters plus an ellipsis when exceeded. Characters, not bytes: the
// cut must never split a multibyte rune.
func ClampDescription(description string) string {
	runes := []rune(description)
	if len(runes) > core.MaxMetaDescriptionLen {
		return string(runes[:core.MaxMetaDescriptionLen-3]) + "..."
	}
	return description
}

// excerptText strips HTML tags from content and truncates the result on a
// rune boundary.
func excerptText(htmlContent string) string {
	text := htmlContent
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent)); err == nil {
		text = doc.Text()
	}
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > maxExcerptChars {
		return string(runes[:maxExcerptChars]) + "..."
	}
	return text
}
