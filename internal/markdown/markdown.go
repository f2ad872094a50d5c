// Package markdown splits heading-delimited markdown documents into ordered
// sections for prompt assembly.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// Section is one heading-delimited block of a markdown document.
type Section struct {
	Title string // Header text, or a synthetic key when no header exists
	Body  string // Text between this header and the next
}

var headerPattern = regexp.MustCompile(`(?m)^#+\s+(.*?)\s*$`)

// ExtractSections splits markdown text into an ordered list of sections keyed
// by header text. Text before the first header is returned under
// "Introduction"; input without any headers is returned whole under "Content".
// It never fails: the result always has at least one entry for non-empty input.
func ExtractSections(text string) []Section {
	var sections []Section

	matches := headerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []Section{{Title: "Content", Body: text}}
	}

	lastPos := 0
	currentHeader := "Introduction"

	for _, m := range matches {
		start, end := m[0], m[1]
		header := text[m[2]:m[3]]

		if lastPos > 0 || strings.TrimSpace(text[:start]) != "" {
			sections = append(sections, Section{
				Title: currentHeader,
				Body:  strings.TrimSpace(text[lastPos:start]),
			})
		}

		currentHeader = header
		lastPos = end
	}

	sections = append(sections, Section{
		Title: currentHeader,
		Body:  strings.TrimSpace(text[lastPos:]),
	})

	return sections
}

// CompileSections re-joins every section except the introduction into a
// "## Title\nbody" block suitable for prompt interpolation. When nothing
// remains, fallback is returned instead.
func CompileSections(sections []Section, fallback string) string {
	var b strings.Builder
	for _, s := range sections {
		if s.Title == "Introduction" {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n%s\n", s.Title, s.Body)
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}
