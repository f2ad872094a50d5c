// Package publish orchestrates submitting an assembled post to WordPress:
// category and tag resolution, the post payload, the metadata fallback
// chain, verification and the manual escalation artifact.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"autopress/internal/core"
	"autopress/internal/logger"
	"autopress/internal/meta"
	"autopress/internal/wordpress"
)

// ErrAborted is returned when category resolution fails and the conflict
// policy forbids publishing without the requested category.
var ErrAborted = errors.New("publishing aborted: requested category could not be resolved")

// CategoryConflictPolicy decides what happens when a requested category
// name does not exist on the site.
type CategoryConflictPolicy string

const (
	PolicyAutoCreate CategoryConflictPolicy = "auto-create"
	PolicyUseDefault CategoryConflictPolicy = "use-default"
	PolicyAbort      CategoryConflictPolicy = "abort"
	PolicyCallback   CategoryConflictPolicy = "callback"
)

// ParsePolicy validates a policy string from configuration.
func ParsePolicy(s string) (CategoryConflictPolicy, error) {
	switch CategoryConflictPolicy(s) {
	case PolicyAutoCreate, PolicyUseDefault, PolicyAbort, PolicyCallback:
		return CategoryConflictPolicy(s), nil
	case "":
		return PolicyUseDefault, nil
	}
	return "", fmt.Errorf("invalid conflict policy %q: must be auto-create, use-default, abort or callback", s)
}

// ConflictOutcome is a caller decision for PolicyCallback.
type ConflictOutcome int

const (
	OutcomeCreate ConflictOutcome = iota
	OutcomeUseDefault
	OutcomeSkipCategory
	OutcomeAbort
)

// ConflictFunc is consulted under PolicyCallback with the unresolved
// category name.
type ConflictFunc func(name string) ConflictOutcome

// Publisher drives the publishing flow against one WordPress site.
type Publisher struct {
	wp                *wordpress.Client
	policy            CategoryConflictPolicy
	onConflict        ConflictFunc
	defaultCategoryID int
}

// Result reports what a publishing run accomplished.
type Result struct {
	RunID        string
	PostID       int
	Verified     bool
	MetaStrategy string            // fallback strategy that applied the metadata, "" if none
	Escalation   *ManualEscalation // set when no strategy could be verified
}

// New creates a Publisher. onConflict may be nil unless policy is
// PolicyCallback.
func New(wp *wordpress.Client, policy CategoryConflictPolicy, defaultCategoryID int, onConflict ConflictFunc) (*Publisher, error) {
	if policy == PolicyCallback && onConflict == nil {
		return nil, fmt.Errorf("conflict policy %q requires a callback", policy)
	}
	return &Publisher{
		wp:                wp,
		policy:            policy,
		onConflict:        onConflict,
		defaultCategoryID: defaultCategoryID,
	}, nil
}

// Options controls one publishing run.
type Options struct {
	Target   core.PostTarget
	SkipMeta bool // create the post without SEO metadata
}

// Publish submits the post and applies its SEO metadata. Metadata failures
// never fail the run: an unverified post is reported through the Result
// with an escalation artifact attached.
func (p *Publisher) Publish(ctx context.Context, post core.AssembledPost, mc core.MetaContent, opts Options) (*Result, error) {
	categoryID, err := p.resolveCategory(ctx, opts.Target)
	if err != nil {
		return nil, err
	}

	tagIDs := p.resolveTags(ctx, opts.Target.Tags)

	payload := map[string]any{
		"title":   post.Title,
		"content": post.HTML,
		"status":  opts.Target.Status,
	}
	if !opts.SkipMeta {
		payload["excerpt"] = meta.Excerpt(mc)
		payload["meta"] = meta.Fields(post.Title, post.HTML, mc)
	}
	if categoryID > 0 {
		payload["categories"] = []int{categoryID}
	}
	if len(tagIDs) > 0 {
		payload["tags"] = tagIDs
	}

	postID, err := p.submit(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	logger.Info("Post created", "id", postID, "status", opts.Target.Status)

	if opts.SkipMeta {
		return &Result{RunID: uuid.New().String(), PostID: postID}, nil
	}
	return p.UpdateMetadata(ctx, postID, post.Title, post.HTML, mc), nil
}

// UpdateMetadata runs the metadata fallback chain and verification against
// an existing post. Never errors: chain exhaustion produces an escalation
// artifact in the Result instead.
func (p *Publisher) UpdateMetadata(ctx context.Context, postID int, title, content string, mc core.MetaContent) *Result {
	fields := meta.Fields(title, content, mc)
	result := &Result{RunID: uuid.New().String(), PostID: postID}

	strategy, applied := p.applyMeta(ctx, postID, fields)
	if applied {
		result.MetaStrategy = strategy
		result.Verified = p.VerifyMeta(ctx, postID)
	}

	if !result.Verified {
		result.Escalation = NewManualEscalation(result.RunID, postID, title, mc, fields)
		logger.Warn("SEO metadata could not be verified, manual update required", "post_id", postID)
	}
	return result
}

// resolveCategory turns the target into a category ID, applying the
// conflict policy when the requested name does not exist. Returns 0 when
// the post should carry no category.
func (p *Publisher) resolveCategory(ctx context.Context, target core.PostTarget) (int, error) {
	if target.CategoryID > 0 {
		return target.CategoryID, nil
	}
	if target.CategoryName == "" {
		return p.defaultCategoryID, nil
	}

	id, err := p.wp.FindCategory(ctx, target.CategoryName)
	if err != nil {
		logger.Warn("Category lookup failed", "name", target.CategoryName, "error", err.Error())
	}
	if id > 0 {
		return id, nil
	}

	logger.Info("Category not found", "name", target.CategoryName, "policy", string(p.policy))

	switch p.policy {
	case PolicyAutoCreate:
		return p.createOrDefault(ctx, target.CategoryName), nil
	case PolicyUseDefault:
		return p.defaultCategoryID, nil
	case PolicyAbort:
		return 0, fmt.Errorf("%w: %q", ErrAborted, target.CategoryName)
	case PolicyCallback:
		switch p.onConflict(target.CategoryName) {
		case OutcomeCreate:
			return p.createOrDefault(ctx, target.CategoryName), nil
		case OutcomeUseDefault:
			return p.defaultCategoryID, nil
		case OutcomeSkipCategory:
			return 0, nil
		case OutcomeAbort:
			return 0, fmt.Errorf("%w: %q", ErrAborted, target.CategoryName)
		}
	}
	return p.defaultCategoryID, nil
}

func (p *Publisher) createOrDefault(ctx context.Context, name string) int {
	id, err := p.wp.CreateCategory(ctx, name)
	if err != nil {
		logger.Warn("Category creation failed, using default", "name", name, "error", err.Error())
		return p.defaultCategoryID
	}
	return id
}

// resolveTags looks up or creates each tag. Tag failures degrade to
// publishing without that tag.
func (p *Publisher) resolveTags(ctx context.Context, names []string) []int {
	var ids []int
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		id, err := p.wp.FindTag(ctx, name)
		if err != nil {
			logger.Warn("Tag lookup failed, skipping", "tag", name, "error", err.Error())
			continue
		}
		if id == 0 {
			id, err = p.wp.CreateTag(ctx, name)
			if err != nil {
				logger.Warn("Tag creation failed, skipping", "tag", name, "error", err.Error())
				continue
			}
		}
		ids = append(ids, id)
	}
	return ids
}

// submit creates the post with two targeted one-shot retries: dropping the
// category assignment when the API rejects the term, and rebuilding the
// basic auth header on an authorization failure. The basic-auth retry is
// terminal either way.
func (p *Publisher) submit(ctx context.Context, payload map[string]any) (int, error) {
	droppedCategories := false

	for {
		postID, err := p.wp.CreatePost(ctx, payload)
		if err == nil {
			return postID, nil
		}

		apiErr, ok := wordpress.AsAPIError(err)
		if !ok {
			return 0, err
		}

		if apiErr.MentionsCategory() && !droppedCategories {
			if _, present := payload["categories"]; present {
				logger.Warn("Post rejected over category terms, retrying without categories", "status", apiErr.StatusCode)
				delete(payload, "categories")
				droppedCategories = true
				continue
			}
		}

		if apiErr.IsAuthError() {
			logger.Warn("Post rejected as unauthorized, retrying with rebuilt basic auth", "status", apiErr.StatusCode)
			return p.wp.CreatePostBasic(ctx, payload)
		}

		return 0, err
	}
}

// VerifyMeta re-fetches the post once and checks that at least one SEO
// meta key landed.
func (p *Publisher) VerifyMeta(ctx context.Context, postID int) bool {
	post, err := p.wp.GetPost(ctx, postID)
	if err != nil {
		logger.Warn("Metadata verification fetch failed", "post_id", postID, "error", err.Error())
		return false
	}

	for key := range post.Meta {
		if strings.HasPrefix(key, meta.SEOPrefix) {
			logger.Info("SEO metadata verified", "post_id", postID, "key", key)
			return true
		}
	}
	return false
}
