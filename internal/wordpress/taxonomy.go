package wordpress

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"autopress/internal/logger"
)

// Category is a category term as returned by the REST API.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Tag is a tag term as returned by the REST API.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FindCategory resolves a category name to its ID using three lookups in
// order: a case-insensitive scan of the full listing, the search parameter,
// and the slugified name. Returns 0 when every lookup comes up empty.
func (c *Client) FindCategory(ctx context.Context, name string) (int, error) {
	var categories []Category
	err := c.doJSON(ctx, "GET", c.apiURL("/categories?per_page=100"), nil, &categories, c.authHeader)
	if err != nil {
		return 0, fmt.Errorf("failed to list categories: %w", err)
	}

	lower := strings.ToLower(name)
	for _, cat := range categories {
		if strings.ToLower(cat.Name) == lower {
			return cat.ID, nil
		}
	}

	var found []Category
	searchURL := c.apiURL("/categories?search=" + url.QueryEscape(name))
	if err := c.doJSON(ctx, "GET", searchURL, nil, &found, c.authHeader); err == nil {
		for _, cat := range found {
			if strings.ToLower(cat.Name) == lower {
				return cat.ID, nil
			}
		}
	}

	var bySlug []Category
	slugURL := c.apiURL("/categories?slug=" + url.QueryEscape(Slugify(name)))
	if err := c.doJSON(ctx, "GET", slugURL, nil, &bySlug, c.authHeader); err == nil && len(bySlug) > 0 {
		return bySlug[0].ID, nil
	}

	return 0, nil
}

// CreateCategory creates a category with a slug derived from the name and
// returns its ID.
func (c *Client) CreateCategory(ctx context.Context, name string) (int, error) {
	payload := map[string]string{
		"name": name,
		"slug": Slugify(name),
	}

	var created Category
	if err := c.doJSON(ctx, "POST", c.apiURL("/categories"), payload, &created, c.authHeader); err != nil {
		return 0, fmt.Errorf("failed to create category %q: %w", name, err)
	}

	logger.Info("Created category", "name", name, "id", created.ID)
	return created.ID, nil
}

// FindTag resolves a tag name to its ID, or 0 when it does not exist.
func (c *Client) FindTag(ctx context.Context, name string) (int, error) {
	var tags []Tag
	searchURL := c.apiURL("/tags?search=" + url.QueryEscape(name))
	if err := c.doJSON(ctx, "GET", searchURL, nil, &tags, c.authHeader); err != nil {
		return 0, fmt.Errorf("failed to search tags: %w", err)
	}

	lower := strings.ToLower(name)
	for _, tag := range tags {
		if strings.ToLower(tag.Name) == lower {
			return tag.ID, nil
		}
	}
	return 0, nil
}

// CreateTag creates a tag and returns its ID.
func (c *Client) CreateTag(ctx context.Context, name string) (int, error) {
	var created Tag
	if err := c.doJSON(ctx, "POST", c.apiURL("/tags"), map[string]string{"name": name}, &created, c.authHeader); err != nil {
		return 0, fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	return created.ID, nil
}

// Slugify turns a term name into a WordPress slug.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
