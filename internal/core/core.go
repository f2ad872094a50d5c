package core

import "time"

// SourceArticle is a news search hit used as raw material for topic discovery.
type SourceArticle struct {
	Title       string    `json:"title"`        // Headline of the article
	Description string    `json:"description"`  // Snippet or body excerpt
	URL         string    `json:"url"`          // Link to the original article
	Source      string    `json:"source"`       // Provider-specific source name
	PublishedAt time.Time `json:"published_at"` // Publication timestamp, best effort
}

// Topic is a candidate blog topic, either user supplied or discovered from news.
type Topic struct {
	Title       string         `json:"title"`                    // Proposed blog post title
	Description string         `json:"description"`              // 2-3 sentence brief of what the post should cover
	Source      *SourceArticle `json:"source_article,omitempty"` // The news article the topic was derived from, if any
}

// GeneratedSection is one finished section of a blog post. Content is an HTML
// fragment restricted to the allowed tag set; it is immutable once generated.
type GeneratedSection struct {
	Title   string `json:"title"`   // Section heading text
	Content string `json:"content"` // HTML fragment for the section body
}

// AssembledPost is the full post after section assembly.
type AssembledPost struct {
	Title string `json:"title"` // Post title, kept out of the HTML body
	HTML  string `json:"html"`  // One <article> element wrapping all sections
}

// MetaContent holds SEO metadata for a post. MetaDescription never exceeds
// MaxMetaDescriptionLen characters; Keyphrases is never empty (the lowercased
// title is substituted when the model returns none).
type MetaContent struct {
	MetaDescription string   `json:"meta_description"` // SEO meta description, <= 160 chars
	Keyphrases      []string `json:"keyphrases"`       // Ordered keyphrases, primary first
}

// MaxMetaDescriptionLen is the hard ceiling SEO plugins enforce on meta
// descriptions. Oversized descriptions are truncated to 157 chars plus "...".
const MaxMetaDescriptionLen = 160

// PostStatus is the WordPress publication status of a post.
type PostStatus string

const (
	StatusDraft   PostStatus = "draft"
	StatusPublish PostStatus = "publish"
	StatusPending PostStatus = "pending"
	StatusPrivate PostStatus = "private"
)

// ValidStatus reports whether s is one of the statuses WordPress accepts.
func ValidStatus(s PostStatus) bool {
	switch s {
	case StatusDraft, StatusPublish, StatusPending, StatusPrivate:
		return true
	}
	return false
}

// PostTarget describes where and how a post should land in the CMS.
// CategoryID takes precedence over CategoryName when both are set.
type PostTarget struct {
	CategoryID   int        `json:"category_id,omitempty"`   // Numeric category id, bypasses name lookup
	CategoryName string     `json:"category_name,omitempty"` // Category name, resolved against the remote registry
	Tags         []string   `json:"tags,omitempty"`          // Requested tag names
	Status       PostStatus `json:"status"`                  // Publication status
}
