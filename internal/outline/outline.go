// Package outline parses and repairs model-produced blog post outlines.
//
// The expected shape is a title on the first line followed by "##" section
// headers, each with free-text description lines. Model output frequently
// drifts from that shape, so Normalize applies a best-effort repair pass
// before parsing and Fallback provides a fixed skeleton when parsing is
// impossible. Generation never hard-fails on a malformed outline.
package outline

import (
	"fmt"
	"regexp"
	"strings"
)

// HeaderWordLimit is the repair-pass boundary between lines promoted to
// section headers and lines kept as descriptions. The threshold is a
// heuristic with no principled basis; treat changes as product decisions.
const HeaderWordLimit = 8

// Section is one planned section of a blog post.
type Section struct {
	Title       string `json:"title"`       // Section heading, sanitized
	Description string `json:"description"` // What the section should cover
}

// Outline is a parsed blog post plan.
type Outline struct {
	Title    string    `json:"title"`    // Blog post title
	Sections []Section `json:"sections"` // Ordered sections
}

// titleCharset keeps alphanumerics, underscores, colons, periods, whitespace
// and emoji so section titles stay safe as HTML id fragments.
var titleCharset = regexp.MustCompile(`[^:\w\s.\x{1F000}-\x{1F9FF}]`)

var sectionPrefixes = []string{"section", "part", "body", "main point"}

// SanitizeTitle strips characters outside the restricted title charset.
func SanitizeTitle(title string) string {
	return strings.TrimSpace(titleCharset.ReplaceAllString(title, ""))
}

// Parse converts raw outline text into a structured Outline. The first
// non-blank line becomes the title (leading '#' stripped); every line
// starting with "##" opens a new section whose following non-header lines
// accumulate into its description. An error is returned only when no title
// can be extracted at all; callers substitute Fallback and continue.
func Parse(text string) (Outline, error) {
	var (
		out         Outline
		current     string
		description []string
	)

	flush := func() {
		if current == "" {
			return
		}
		out.Sections = append(out.Sections, Section{
			Title:       SanitizeTitle(current),
			Description: strings.Join(description, " "),
		})
		current = ""
		description = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if out.Title == "" {
			out.Title = strings.TrimSpace(strings.TrimLeft(line, "#"))
			continue
		}

		if strings.HasPrefix(line, "##") {
			flush()
			current = strings.TrimSpace(strings.TrimLeft(line, "#"))
			continue
		}

		if current != "" && !strings.HasPrefix(line, "#") {
			description = append(description, strings.TrimSpace(strings.TrimPrefix(line, "* ")))
		}
	}
	flush()

	if out.Title == "" {
		return Outline{}, fmt.Errorf("outline contains no usable title: %q", truncate(text, 120))
	}

	return out, nil
}

// Normalize reshapes raw model output so Parse can handle it. Lines that look
// like section markers ("Section ...", "Part ...") gain a "##" prefix. When
// the text has no headers at all, a repair pass promotes short lines
// (<= HeaderWordLimit words) to headers and splits long lines into a
// synthesized header plus a kept description line. The repair is best effort
// and may produce poor section boundaries; that is accepted behavior.
func Normalize(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	formatted := make([]string, 0, len(lines))
	hasSections := false

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			formatted = append(formatted, "")
			continue
		}

		if looksLikeSectionMarker(line) {
			line = "## " + line
			hasSections = true
		} else if strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "##") {
			hasSections = true
		}

		formatted = append(formatted, line)
	}

	if hasSections {
		return strings.Join(formatted, "\n")
	}

	// Repair pass: no section markers anywhere in the response.
	repaired := make([]string, 0, len(formatted))
	titleSeen := false
	for _, line := range formatted {
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			repaired = append(repaired, line)
		case !titleSeen:
			repaired = append(repaired, line)
			titleSeen = true
		case len(strings.Fields(line)) <= HeaderWordLimit:
			repaired = append(repaired, "## "+line)
		default:
			words := strings.Fields(line)
			repaired = append(repaired, "## "+strings.Join(words[:4], " ")+"...")
			repaired = append(repaired, line)
		}
	}

	return strings.Join(repaired, "\n")
}

// Fallback returns the fixed four-section skeleton used when outline
// generation or parsing fails entirely.
func Fallback(topic string) Outline {
	return Outline{
		Title: topic,
		Sections: []Section{
			{Title: "Introduction", Description: "Introduction to the topic"},
			{Title: "Main Point 1", Description: "First main point about the topic"},
			{Title: "Main Point 2", Description: "Second main point about the topic"},
			{Title: "Conclusion", Description: "Conclusion and summary of the topic"},
		},
	}
}

// Format serializes an Outline back into the canonical text shape. Parsing
// the result of Format yields the same title and section list.
func Format(o Outline) string {
	var b strings.Builder
	b.WriteString(o.Title)
	b.WriteString("\n")
	for _, s := range o.Sections {
		fmt.Fprintf(&b, "\n## %s\n", s.Title)
		if s.Description != "" {
			fmt.Fprintf(&b, "* %s\n", s.Description)
		}
	}
	return b.String()
}

func looksLikeSectionMarker(line string) bool {
	if strings.HasPrefix(line, "#") {
		return false
	}
	lower := strings.ToLower(line)
	for _, p := range sectionPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
