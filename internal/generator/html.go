package generator

import (
	"fmt"
	"regexp"
	"strings"

	"autopress/internal/core"
)

// Patterns for residual markdown the model emits despite the HTML-only
// system instruction.
var (
	h2Pattern     = regexp.MustCompile(`(?m)^##\s+(.+?)\s*$`)
	h3Pattern     = regexp.MustCompile(`(?m)^###\s+(.+?)\s*$`)
	linkPattern   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	boldPattern   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern = regexp.MustCompile(`\*([^*]+)\*`)
	ulItemPattern = regexp.MustCompile(`^[-*]\s+(.+)$`)
	olItemPattern = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	blankBlock    = regexp.MustCompile(`\n\n+`)
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	slugPattern   = regexp.MustCompile(`[^a-z0-9]+`)
)

// PostProcess converts residual markdown syntax in model output into the
// whitelisted HTML subset and applies highlight-term bolding. It is applied
// to content generations only, never to outlines.
func PostProcess(content string, highlightTerms []string) string {
	content = strings.TrimSpace(content)

	// Headings first so list and paragraph handling see clean lines.
	content = h3Pattern.ReplaceAllString(content, "<h3>$1</h3>")
	content = h2Pattern.ReplaceAllString(content, "<h2>$1</h2>")

	content = convertLists(content)

	content = linkPattern.ReplaceAllString(content, `<a href="$2" target="_blank" rel="noopener noreferrer">$1</a>`)
	content = boldPattern.ReplaceAllString(content, "<strong>$1</strong>")
	content = italicPattern.ReplaceAllString(content, "<em>$1</em>")

	content = wrapParagraphs(content)

	return highlight(content, highlightTerms)
}

// convertLists groups consecutive markdown list items into <ul> or <ol>
// blocks. Non-item lines flush the current list.
func convertLists(content string) string {
	var (
		out     []string
		items   []string
		listTag string
	)

	flush := func() {
		if len(items) == 0 {
			return
		}
		out = append(out, "<"+listTag+">")
		out = append(out, items...)
		out = append(out, "</"+listTag+">")
		items = nil
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := ulItemPattern.FindStringSubmatch(trimmed); m != nil {
			if listTag != "ul" {
				flush()
				listTag = "ul"
			}
			items = append(items, "<li>"+m[1]+"</li>")
		} else if m := olItemPattern.FindStringSubmatch(trimmed); m != nil {
			if listTag != "ol" {
				flush()
				listTag = "ol"
			}
			items = append(items, "<li>"+m[1]+"</li>")
		} else {
			flush()
			out = append(out, line)
		}
	}
	flush()

	return strings.Join(out, "\n")
}

// wrapParagraphs wraps untagged blank-line-separated blocks in <p>. Content
// that already contains <p> tags is left alone.
func wrapParagraphs(content string) string {
	if strings.Contains(content, "<p>") {
		return content
	}

	blocks := blankBlock.Split(content, -1)
	wrapped := make([]string, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if strings.HasPrefix(block, "<") {
			wrapped = append(wrapped, block)
			continue
		}
		wrapped = append(wrapped, "<p>"+strings.ReplaceAll(block, "\n", " ")+"</p>")
	}

	return strings.Join(wrapped, "\n\n")
}

// highlight bolds literal term occurrences in text nodes. Occurrences inside
// markup, or inside elements that already carry emphasis or can't nest
// <strong> (a, strong, b, h2, h3), are left untouched.
func highlight(content string, terms []string) string {
	if len(terms) == 0 {
		return content
	}

	var (
		b     strings.Builder
		stack []string
		last  int
	)

	writeText := func(text string) {
		if text == "" {
			return
		}
		if withinProtectedTag(stack) {
			b.WriteString(text)
			return
		}
		for _, term := range terms {
			if term == "" {
				continue
			}
			text = strings.ReplaceAll(text, term, "<strong>"+term+"</strong>")
		}
		b.WriteString(text)
	}

	for _, loc := range tagPattern.FindAllStringIndex(content, -1) {
		writeText(content[last:loc[0]])

		tag := content[loc[0]:loc[1]]
		b.WriteString(tag)

		name, closing := parseTag(tag)
		if closing {
			if len(stack) > 0 && stack[len(stack)-1] == name {
				stack = stack[:len(stack)-1]
			}
		} else if name != "" {
			stack = append(stack, name)
		}

		last = loc[1]
	}
	writeText(content[last:])

	return b.String()
}

func withinProtectedTag(stack []string) bool {
	for _, name := range stack {
		switch name {
		case "strong", "b", "a", "h2", "h3":
			return true
		}
	}
	return false
}

func parseTag(tag string) (name string, closing bool) {
	inner := strings.Trim(tag, "<>")
	inner = strings.TrimSpace(inner)
	if strings.HasPrefix(inner, "/") {
		closing = true
		inner = strings.TrimPrefix(inner, "/")
	}
	fields := strings.Fields(inner)
	if len(fields) == 0 {
		return "", closing
	}
	return strings.ToLower(strings.TrimSuffix(fields[0], "/")), closing
}

// Slugify converts a section title into an HTML id fragment: lowercase
// alphanumerics with single hyphens, no leading or trailing hyphens.
func Slugify(title string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// Assemble wraps generated sections in <section> blocks inside one
// <article> container. The post title stays out of the body; the CMS renders
// it at the top of the page.
func Assemble(title string, sections []core.GeneratedSection) core.AssembledPost {
	var b strings.Builder
	b.WriteString("<article class=\"blog-post\">\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "<section class=\"content-section\" id=%q>\n", Slugify(s.Title))
		fmt.Fprintf(&b, "<h2>%s</h2>\n", s.Title)
		b.WriteString(s.Content)
		b.WriteString("\n</section>\n\n")
	}
	b.WriteString("</article>")

	return core.AssembledPost{Title: title, HTML: b.String()}
}
