package markdown

import (
	"reflect"
	"testing"
)

func TestExtractSections(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []Section
	}{
		{
			name:     "no headers",
			input:    "Just some plain text\nwith two lines.",
			expected: []Section{{Title: "Content", Body: "Just some plain text\nwith two lines."}},
		},
		{
			name:  "preamble before first header",
			input: "Some intro text.\n\n# First\nBody one.\n\n## Second\nBody two.",
			expected: []Section{
				{Title: "Introduction", Body: "Some intro text."},
				{Title: "First", Body: "Body one."},
				{Title: "Second", Body: "Body two."},
			},
		},
		{
			name:  "header on first line",
			input: "# Only\nThe body.",
			expected: []Section{
				{Title: "Only", Body: "The body."},
			},
		},
		{
			name:  "empty section body",
			input: "# First\n# Second\ncontent",
			expected: []Section{
				{Title: "First", Body: ""},
				{Title: "Second", Body: "content"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractSections(tc.input)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("ExtractSections() = %+v, expected %+v", got, tc.expected)
			}
		})
	}
}

func TestCompileSections(t *testing.T) {
	sections := []Section{
		{Title: "Introduction", Body: "skip me"},
		{Title: "Topics", Body: "AI and cloud."},
	}

	got := CompileSections(sections, "fallback")
	expected := "\n## Topics\nAI and cloud.\n"
	if got != expected {
		t.Errorf("CompileSections() = %q, expected %q", got, expected)
	}
}

func TestCompileSectionsFallback(t *testing.T) {
	sections := []Section{{Title: "Introduction", Body: "only intro"}}

	if got := CompileSections(sections, "the fallback"); got != "the fallback" {
		t.Errorf("CompileSections() = %q, expected fallback", got)
	}

	if got := CompileSections(nil, "the fallback"); got != "the fallback" {
		t.Errorf("CompileSections(nil) = %q, expected fallback", got)
	}
}
