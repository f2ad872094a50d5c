package publish

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"autopress/internal/core"
)

// ManualEscalation carries everything an operator needs to set the SEO
// metadata by hand after every automated strategy failed.
type ManualEscalation struct {
	RunID           string
	PostID          int
	Title           string
	MetaDescription string
	Keyphrase       string
	Fields          map[string]any
	GeneratedAt     time.Time
}

// NewManualEscalation builds the escalation artifact for a post, tagged
// with the run it came from.
func NewManualEscalation(runID string, postID int, title string, mc core.MetaContent, fields map[string]any) *ManualEscalation {
	keyphrase := ""
	if len(mc.Keyphrases) > 0 {
		keyphrase = mc.Keyphrases[0]
	}
	return &ManualEscalation{
		RunID:           runID,
		PostID:          postID,
		Title:           title,
		MetaDescription: mc.MetaDescription,
		Keyphrase:       keyphrase,
		Fields:          fields,
		GeneratedAt:     time.Now().UTC(),
	}
}

// Render produces the operator instructions: direct SQL, a PHP snippet
// for wp shell or a mu-plugin, and the wp-admin steps.
func (e *ManualEscalation) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "MANUAL SEO METADATA UPDATE REQUIRED\n")
	fmt.Fprintf(&b, "Run ID: %s\n", e.RunID)
	fmt.Fprintf(&b, "Post ID: %d\n", e.PostID)
	fmt.Fprintf(&b, "Title: %s\n", e.Title)
	fmt.Fprintf(&b, "Generated: %s\n\n", e.GeneratedAt.Format(time.RFC3339))

	b.WriteString("Option 1: run this SQL against the WordPress database\n\n")
	for _, key := range e.sortedKeys() {
		value := sqlEscape(fmt.Sprintf("%v", e.Fields[key]))
		fmt.Fprintf(&b, "INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES (%d, '%s', '%s')\n", e.PostID, key, value)
		fmt.Fprintf(&b, "    ON DUPLICATE KEY UPDATE meta_value = '%s';\n", value)
	}

	b.WriteString("\nOption 2: run this PHP via wp shell\n\n")
	b.WriteString("<?php\n")
	for _, key := range e.sortedKeys() {
		value := phpEscape(fmt.Sprintf("%v", e.Fields[key]))
		fmt.Fprintf(&b, "update_post_meta(%d, '%s', '%s');\n", e.PostID, key, value)
	}
	b.WriteString("?>\n")

	b.WriteString("\nOption 3: set the fields in wp-admin\n\n")
	fmt.Fprintf(&b, "1. Open wp-admin and edit post %d\n", e.PostID)
	b.WriteString("2. Scroll to the Yoast SEO panel below the editor\n")
	fmt.Fprintf(&b, "3. Set the meta description to: %s\n", e.MetaDescription)
	fmt.Fprintf(&b, "4. Set the focus keyphrase to: %s\n", e.Keyphrase)
	b.WriteString("5. Update the post\n")

	return b.String()
}

func (e *ManualEscalation) sortedKeys() []string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sqlEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

func phpEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
