package publish

import (
	"context"
	"fmt"

	"autopress/internal/logger"
	"autopress/internal/meta"
)

// metaStrategy is one way of writing SEO meta fields to a post. Strategies
// run in order and the chain stops at the first one that succeeds.
type metaStrategy struct {
	name  string
	apply func(ctx context.Context, postID int, fields map[string]any) error
}

func (p *Publisher) metaStrategies() []metaStrategy {
	return []metaStrategy{
		{name: "bulk-update", apply: p.applyBulk},
		{name: "per-field-update", apply: p.applyPerField},
		{name: "meta-endpoint", apply: p.applyMetaEndpoint},
		{name: "custom-endpoint", apply: p.applyCustomEndpoint},
		{name: "admin-ajax", apply: p.applyAdminAjax},
	}
}

// applyMeta walks the fallback chain. Returns the name of the strategy
// that succeeded, or false when every strategy failed.
func (p *Publisher) applyMeta(ctx context.Context, postID int, fields map[string]any) (string, bool) {
	for _, strategy := range p.metaStrategies() {
		if err := strategy.apply(ctx, postID, fields); err != nil {
			logger.Warn("Metadata strategy failed, trying next", "strategy", strategy.name, "error", err.Error())
			continue
		}
		logger.Info("Metadata applied", "strategy", strategy.name, "post_id", postID)
		return strategy.name, true
	}
	return "", false
}

// applyBulk writes the full meta map in one post update.
func (p *Publisher) applyBulk(ctx context.Context, postID int, fields map[string]any) error {
	return p.wp.UpdatePost(ctx, postID, map[string]any{"meta": fields})
}

// applyPerField updates each SEO field individually. Some installs
// register only a subset of the keys, so any field landing counts.
func (p *Publisher) applyPerField(ctx context.Context, postID int, fields map[string]any) error {
	succeeded := 0
	for key, value := range fields {
		if !meta.IsSEOField(key) {
			continue
		}
		if err := p.wp.UpdatePost(ctx, postID, map[string]any{"meta": map[string]any{key: value}}); err != nil {
			logger.Debug("Per-field meta update failed", "key", key, "error", err.Error())
			continue
		}
		succeeded++
	}
	if succeeded == 0 {
		return fmt.Errorf("no SEO field accepted by per-field updates")
	}
	return nil
}

// applyMetaEndpoint writes the two core fields through the per-post meta
// route.
func (p *Publisher) applyMetaEndpoint(ctx context.Context, postID int, fields map[string]any) error {
	succeeded := 0
	for _, key := range coreFieldKeys(fields) {
		if err := p.wp.PostMetaField(ctx, postID, key, fields[key]); err != nil {
			logger.Debug("Meta endpoint write failed", "key", key, "error", err.Error())
			continue
		}
		succeeded++
	}
	if succeeded == 0 {
		return fmt.Errorf("meta endpoint accepted no field")
	}
	return nil
}

// applyCustomEndpoint writes through the wp-meta plugin route when the
// site exposes it.
func (p *Publisher) applyCustomEndpoint(ctx context.Context, postID int, fields map[string]any) error {
	if !p.wp.ProbeCustomMetaEndpoint(ctx) {
		return fmt.Errorf("custom meta endpoint not available")
	}

	succeeded := 0
	for _, key := range coreFieldKeys(fields) {
		if err := p.wp.CustomMetaUpdate(ctx, postID, key, fields[key]); err != nil {
			logger.Debug("Custom endpoint write failed", "key", key, "error", err.Error())
			continue
		}
		succeeded++
	}
	if succeeded == 0 {
		return fmt.Errorf("custom endpoint accepted no field")
	}
	return nil
}

// applyAdminAjax is the last resort: form posts through admin-ajax.php.
func (p *Publisher) applyAdminAjax(ctx context.Context, postID int, fields map[string]any) error {
	succeeded := 0
	for _, key := range coreFieldKeys(fields) {
		value := fmt.Sprintf("%v", fields[key])
		ok, err := p.wp.AdminAjaxMetaUpdate(ctx, postID, key, value)
		if err != nil {
			logger.Debug("admin-ajax write failed", "key", key, "error", err.Error())
			continue
		}
		if ok {
			succeeded++
		}
	}
	if succeeded == 0 {
		return fmt.Errorf("admin-ajax accepted no field")
	}
	return nil
}

// coreFieldKeys picks the description and title keys the narrow fallback
// paths write, in a stable order. Only these two are critical; the full
// fan-out goes through the bulk and per-field strategies.
func coreFieldKeys(fields map[string]any) []string {
	var keys []string
	for _, key := range []string{"_yoast_wpseo_metadesc", "_yoast_wpseo_title"} {
		if _, ok := fields[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}
