package handlers

import (
	"testing"
	"time"
)

func TestExtractTitle(t *testing.T) {
	testCases := []struct {
		name          string
		content       string
		path          string
		expectedTitle string
	}{
		{
			name:          "leading h1",
			content:       "# My Draft Post\n\nBody text here.",
			path:          "drafts/post.md",
			expectedTitle: "My Draft Post",
		},
		{
			name:          "h1 after blank lines",
			content:       "\n\n# Another Title\nBody.",
			path:          "x.md",
			expectedTitle: "Another Title",
		},
		{
			name:          "no h1 falls back to file name",
			content:       "Just body text.",
			path:          "drafts/kubernetes-scaling_guide.md",
			expectedTitle: "kubernetes scaling guide",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			title, body := extractTitle(tc.content, tc.path)
			if title != tc.expectedTitle {
				t.Errorf("title = %q, expected %q", title, tc.expectedTitle)
			}
			if body == "" {
				t.Error("body is empty")
			}
		})
	}
}

func TestExtractTitleStripsHeadingFromBody(t *testing.T) {
	_, body := extractTitle("# Title\nThe body.", "f.md")
	if body != "The body." {
		t.Errorf("body = %q, heading line should be removed", body)
	}
}

func TestOutputPath(t *testing.T) {
	testCases := []struct {
		path      string
		iteration int
		expected  string
	}{
		{"out.html", 1, "out.html"},
		{"out.html", 2, "out_2.html"},
		{"dir/post.html", 3, "dir/post_3.html"},
		{"noext", 2, "noext_2"},
	}

	for _, tc := range testCases {
		if got := outputPath(tc.path, tc.iteration); got != tc.expected {
			t.Errorf("outputPath(%q, %d) = %q, expected %q", tc.path, tc.iteration, got, tc.expected)
		}
	}
}

func TestLoopDelay(t *testing.T) {
	testCases := []struct {
		raw      string
		expected time.Duration
	}{
		{"5s", 5 * time.Second},
		{"2m", 2 * time.Minute},
		{"", defaultLoopDelay},
		{"not-a-duration", defaultLoopDelay},
		{"-3s", defaultLoopDelay},
	}

	for _, tc := range testCases {
		if got := loopDelay(tc.raw); got != tc.expected {
			t.Errorf("loopDelay(%q) = %v, expected %v", tc.raw, got, tc.expected)
		}
	}
}
