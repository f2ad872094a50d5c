package meta

import (
	"encoding/json"
	"fmt"
	"strings"

	"autopress/internal/core"
)

// SEOPrefix marks the meta keys the verification step and per-field fallback
// care about.
const SEOPrefix = "_yoast"

// relatedKeyphraseLimit caps the premium "related keyphrases" list.
const relatedKeyphraseLimit = 4

// Fields maps MetaContent onto the meta-key fan-out the CMS's SEO plugins
// read. Several near-duplicate keys are set on purpose: Yoast versions and
// alternative plugins (All in One SEO) each look at different ones, and
// unknown keys are ignored server-side.
func Fields(title, content string, mc core.MetaContent) map[string]any {
	fields := map[string]any{}

	description := ClampDescription(mc.MetaDescription)
	if description != "" {
		yoastTitle := fmt.Sprintf("%s %%%%sep%%%% %%%%sitename%%%%", title)

		fields["_yoast_wpseo_metadesc"] = description
		fields["_yoast_wpseo_title"] = yoastTitle

		fields["_yoast_wpseo_opengraph-title"] = title
		fields["_yoast_wpseo_opengraph-description"] = description
		fields["_yoast_wpseo_twitter-title"] = title
		fields["_yoast_wpseo_twitter-description"] = description

		// Non-underscore and legacy variants for older installs.
		fields["yoast_wpseo_metadesc"] = description
		fields["yoast_wpseo_title"] = title
		fields["_yoast_seo_title"] = title
		fields["_yoast_seo_metadesc"] = description

		// All in One SEO.
		fields["_aioseop_description"] = description
		fields["_aioseop_title"] = title

		fields["_yoast_wpseo_meta-robots-noindex"] = "0"
		fields["_yoast_wpseo_meta-robots-nofollow"] = "0"
		fields["_yoast_wpseo_meta-robots-adv"] = "none"
	}

	if len(mc.Keyphrases) > 0 {
		primary := mc.Keyphrases[0]
		fields["_yoast_wpseo_focuskw"] = primary
		fields["focus_keyword"] = primary

		if len(mc.Keyphrases) > 1 {
			fields["_yoast_wpseo_keywordsynonyms"] = strings.Join(mc.Keyphrases[1:], ", ")

			related := make([]map[string]string, 0, relatedKeyphraseLimit)
			for i, kp := range mc.Keyphrases[1:] {
				if i >= relatedKeyphraseLimit {
					break
				}
				related = append(related, map[string]string{
					"value": kp,
					"key":   fmt.Sprintf("additional_keyphrase_%d", i+1),
				})
			}
			if encoded, err := json.Marshal(related); err == nil {
				fields["_yoast_wpseo_focuskeywords"] = string(encoded)
			}
		}
	}

	fields["_yoast_wpseo_content_score"] = "60"
	fields["_yoast_wpseo_schema_article_type"] = "BlogPosting"
	fields["_yoast_wpseo_estimated-reading-time-minutes"] = fmt.Sprintf("%d", readingTimeMinutes(content))

	return fields
}

// Excerpt returns the description trimmed to the excerpt ceiling, used as the
// standard WordPress excerpt backup.
func Excerpt(mc core.MetaContent) string {
	return ClampDescription(mc.MetaDescription)
}

// IsSEOField reports whether a meta key belongs to the SEO plugin family the
// fallback chain targets.
func IsSEOField(key string) bool {
	return strings.HasPrefix(key, SEOPrefix) || strings.HasPrefix(key, "yoast")
}

// readingTimeMinutes estimates reading time at 250 words per minute, never
// below one minute.
func readingTimeMinutes(content string) int {
	minutes := (len(strings.Fields(content)) + 125) / 250
	if minutes < 1 {
		return 1
	}
	return minutes
}
