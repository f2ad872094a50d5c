package prompt

import (
	"strings"
	"testing"
	"time"

	"autopress/internal/config"
)

func TestSectionWordTarget(t *testing.T) {
	testCases := []struct {
		name       string
		totalWords int
		sections   int
		expected   int
	}{
		{"even split", 4000, 4, 1000},
		{"integer division", 5000, 3, 1666},
		{"zero sections treated as one", 4500, 0, 4500},
		{"negative sections treated as one", 4500, -2, 4500},
		{"floor of one", 3, 7, 1},
		{"zero budget floors to one", 0, 5, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SectionWordTarget(tc.totalWords, tc.sections); got != tc.expected {
				t.Errorf("SectionWordTarget(%d, %d) = %d, expected %d",
					tc.totalWords, tc.sections, got, tc.expected)
			}
		})
	}
}

func TestSectionWordTargetBudget(t *testing.T) {
	// The per-section target times the section count never exceeds the
	// total budget.
	for _, n := range []int{1, 2, 3, 5, 8} {
		total := 4700
		target := SectionWordTarget(total, n)
		if target*n > total {
			t.Errorf("target %d * %d sections exceeds budget %d", target, n, total)
		}
		if target < 1 {
			t.Errorf("target %d below minimum for %d sections", target, n)
		}
	}
}

func TestOutlinePromptDefaults(t *testing.T) {
	var docs ContextDocs
	now := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	p := docs.Outline("The Rise of WebAssembly", now)

	if !strings.Contains(p, "The Rise of WebAssembly") {
		t.Error("prompt is missing the topic")
	}
	if !strings.Contains(p, "March 10, 2025") {
		t.Error("prompt is missing the current date")
	}
	if !strings.Contains(p, defaultGoal) {
		t.Error("empty goal document should fall back to the default goal")
	}
	if !strings.Contains(p, defaultKnowledge) {
		t.Error("empty knowledge document should fall back to the default")
	}
}

func TestSectionPromptIncludesTarget(t *testing.T) {
	docs := ContextDocs{Goal: "Sell more widgets."}
	now := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	p := docs.Section("Post Title", "Section Title", "what to cover", "outline text", now, 1250)

	if !strings.Contains(p, "1250") {
		t.Error("prompt is missing the word target")
	}
	if !strings.Contains(p, "Sell more widgets.") {
		t.Error("prompt is missing the goal document")
	}
	if !strings.Contains(p, "Section Title") {
		t.Error("prompt is missing the section title")
	}
}

func TestLoadContextDocsMissingFiles(t *testing.T) {
	docs := LoadContextDocs(config.Context{GoalFile: "/nonexistent/goal.md"})
	if docs.Goal != "" {
		t.Errorf("missing file should read as empty, got %q", docs.Goal)
	}
}

func TestMetaPrompt(t *testing.T) {
	now := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	p := Meta("A Title", "Body text.", 4, now)

	if !strings.Contains(p, "A Title") || !strings.Contains(p, "Body text.") {
		t.Error("prompt is missing the post content")
	}
	if !strings.Contains(p, "4") {
		t.Error("prompt is missing the keyphrase count")
	}
}
