package generator

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"autopress/internal/core"
)

// allowedTags is the whitelist the system prompt instructs the model to
// stay inside and PostProcess converts residual markdown into.
var allowedTags = map[string]bool{
	"html": true, "head": true, "body": true, // synthesized by the parser
	"p": true, "h2": true, "h3": true,
	"ul": true, "ol": true, "li": true,
	"a": true, "strong": true, "em": true,
}

func TestPostProcessMarkdownConversion(t *testing.T) {
	input := "## Getting Started\n\n" +
		"Some **bold** and *subtle* advice with a [guide](https://example.com/guide).\n\n" +
		"- first item\n" +
		"- second item\n\n" +
		"1. step one\n" +
		"2. step two"

	got := PostProcess(input, nil)

	checks := []string{
		"<h2>Getting Started</h2>",
		"<strong>bold</strong>",
		"<em>subtle</em>",
		`<a href="https://example.com/guide" target="_blank" rel="noopener noreferrer">guide</a>`,
		"<ul>\n<li>first item</li>\n<li>second item</li>\n</ul>",
		"<ol>\n<li>step one</li>\n<li>step two</li>\n</ol>",
	}
	for _, want := range checks {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "**") || strings.Contains(got, "##") {
		t.Errorf("residual markdown left in output:\n%s", got)
	}
}

func TestPostProcessStaysInTagWhitelist(t *testing.T) {
	input := "### Sub heading\n\n" +
		"Paragraph with **emphasis**, *italics* and a [link](https://example.com).\n\n" +
		"- a bullet\n" +
		"* another bullet\n\n" +
		"Closing thoughts here."

	got := PostProcess(input, []string{"bullet"})

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(got))
	if err != nil {
		t.Fatalf("output is not parseable HTML: %v", err)
	}

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		tag := goquery.NodeName(sel)
		if !allowedTags[tag] {
			t.Errorf("disallowed tag <%s> in output:\n%s", tag, got)
		}
	})
}

func TestPostProcessWrapsParagraphs(t *testing.T) {
	got := PostProcess("First block line one\nline two.\n\nSecond block.", nil)

	if !strings.Contains(got, "<p>First block line one line two.</p>") {
		t.Errorf("first paragraph not wrapped:\n%s", got)
	}
	if !strings.Contains(got, "<p>Second block.</p>") {
		t.Errorf("second paragraph not wrapped:\n%s", got)
	}
}

func TestPostProcessKeepsExistingParagraphs(t *testing.T) {
	input := "<p>Already marked up.</p>\n\nLoose text."
	got := PostProcess(input, nil)

	if strings.Count(got, "<p>") != 1 {
		t.Errorf("content with <p> tags should be left alone:\n%s", got)
	}
}

func TestHighlightTerms(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		terms    []string
		expected string
	}{
		{
			name:     "plain text occurrence",
			input:    "<p>Kubernetes changed operations.</p>",
			terms:    []string{"Kubernetes"},
			expected: "<p><strong>Kubernetes</strong> changed operations.</p>",
		},
		{
			name:     "already bold is untouched",
			input:    "<p>Use <strong>Kubernetes</strong> daily.</p>",
			terms:    []string{"Kubernetes"},
			expected: "<p>Use <strong>Kubernetes</strong> daily.</p>",
		},
		{
			name:     "link text is untouched",
			input:    `<p>See <a href="https://kubernetes.io">Kubernetes docs</a>.</p>`,
			terms:    []string{"Kubernetes"},
			expected: `<p>See <a href="https://kubernetes.io">Kubernetes docs</a>.</p>`,
		},
		{
			name:     "heading text is untouched",
			input:    "<h2>Kubernetes Basics</h2><p>Kubernetes wins.</p>",
			terms:    []string{"Kubernetes"},
			expected: "<h2>Kubernetes Basics</h2><p><strong>Kubernetes</strong> wins.</p>",
		},
		{
			name:     "attribute values are untouched",
			input:    `<p><a href="https://kubernetes.io/docs">the docs</a></p>`,
			terms:    []string{"kubernetes"},
			expected: `<p><a href="https://kubernetes.io/docs">the docs</a></p>`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := highlight(tc.input, tc.terms); got != tc.expected {
				t.Errorf("highlight() = %q, expected %q", got, tc.expected)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Step 1: Setup!!", "step-1-setup"},
		{"Hello World", "hello-world"},
		{"Already-Slugged", "already-slugged"},
		{"  Spaces  Everywhere  ", "spaces-everywhere"},
		{"CAPS and 123", "caps-and-123"},
	}

	for _, tc := range testCases {
		if got := Slugify(tc.input); got != tc.expected {
			t.Errorf("Slugify(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestAssemble(t *testing.T) {
	sections := []core.GeneratedSection{
		{Title: "First Part", Content: "<p>one</p>"},
		{Title: "Second Part", Content: "<p>two</p>"},
	}

	post := Assemble("My Post", sections)

	if post.Title != "My Post" {
		t.Errorf("Title = %q", post.Title)
	}
	if strings.Count(post.HTML, "<article") != 1 {
		t.Errorf("expected one <article> wrapper:\n%s", post.HTML)
	}
	if strings.Count(post.HTML, "<section") != 2 {
		t.Errorf("expected two <section> blocks:\n%s", post.HTML)
	}
	if !strings.Contains(post.HTML, `id="first-part"`) {
		t.Errorf("section id not slugified:\n%s", post.HTML)
	}
	if !strings.Contains(post.HTML, "<h2>Second Part</h2>") {
		t.Errorf("section heading missing:\n%s", post.HTML)
	}
}
