package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"autopress/internal/logger"
)

// Rendered is a WordPress rendered field wrapper.
type Rendered struct {
	Rendered string `json:"rendered"`
}

// Post is the subset of a post resource the pipeline reads back.
type Post struct {
	ID      int            `json:"id"`
	Status  string         `json:"status"`
	Link    string         `json:"link"`
	Title   Rendered       `json:"title"`
	Content Rendered       `json:"content"`
	Meta    map[string]any `json:"meta"`
}

// CreatePost submits a new post and returns its ID. The payload is the
// REST post object the orchestrator assembled.
func (c *Client) CreatePost(ctx context.Context, payload map[string]any) (int, error) {
	return c.createPost(ctx, payload, c.authHeader)
}

// CreatePostBasic retries post creation with a freshly built basic auth
// header, for sites that reject the JWT or cached header shape.
func (c *Client) CreatePostBasic(ctx context.Context, payload map[string]any) (int, error) {
	return c.createPost(ctx, payload, c.basicAuthHeader())
}

func (c *Client) createPost(ctx context.Context, payload map[string]any, authHeader string) (int, error) {
	var created Post
	if err := c.doJSON(ctx, "POST", c.apiURL("/posts"), payload, &created, authHeader); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("post created but response carried no ID")
	}
	return created.ID, nil
}

// GetPost fetches a post including its registered meta fields.
func (c *Client) GetPost(ctx context.Context, postID int) (*Post, error) {
	var post Post
	getURL := c.apiURL(fmt.Sprintf("/posts/%d?context=edit", postID))
	if err := c.doJSON(ctx, "GET", getURL, nil, &post, c.authHeader); err != nil {
		return nil, fmt.Errorf("failed to fetch post %d: %w", postID, err)
	}
	return &post, nil
}

// UpdatePost applies a partial update to an existing post.
func (c *Client) UpdatePost(ctx context.Context, postID int, payload map[string]any) error {
	updateURL := c.apiURL(fmt.Sprintf("/posts/%d", postID))
	return c.doJSON(ctx, "PUT", updateURL, payload, nil, c.authHeader)
}

// PostMetaField writes one meta key through the per-post meta endpoint.
// Not every install routes this endpoint; callers treat failures as a
// signal to try the next path.
func (c *Client) PostMetaField(ctx context.Context, postID int, key string, value any) error {
	metaURL := c.apiURL(fmt.Sprintf("/posts/%d/meta", postID))
	payload := map[string]any{"key": key, "value": value}
	return c.doJSON(ctx, "POST", metaURL, payload, nil, c.authHeader)
}

// ProbeCustomMetaEndpoint checks whether the site exposes the custom
// wp-meta update route. A 404 or transport failure means it does not.
func (c *Client) ProbeCustomMetaEndpoint(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "OPTIONS", c.baseURL+"/wp-json/wp-meta/v1/update", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode != http.StatusNotFound
}

// CustomMetaUpdate writes one meta key through the custom wp-meta plugin
// route.
func (c *Client) CustomMetaUpdate(ctx context.Context, postID int, key string, value any) error {
	payload := map[string]any{
		"post_id":    postID,
		"meta_key":   key,
		"meta_value": value,
	}
	return c.doJSON(ctx, "POST", c.baseURL+"/wp-json/wp-meta/v1/update", payload, nil, c.authHeader)
}

// AdminAjaxMetaUpdate writes one meta key through admin-ajax.php. The
// endpoint answers 200 for unknown actions, so success is read from the
// response body rather than the status code.
func (c *Client) AdminAjaxMetaUpdate(ctx context.Context, postID int, key string, value string) (bool, error) {
	form := url.Values{}
	form.Set("action", "update_post_meta")
	form.Set("post_id", strconv.Itoa(postID))
	form.Set("meta_key", key)
	form.Set("meta_value", value)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/wp-admin/admin-ajax.php", strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to create admin-ajax request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("admin-ajax request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read admin-ajax response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return false, &APIError{StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(raw, &result); err == nil {
		return result.Success, nil
	}

	// Some installs answer with plain text.
	if strings.Contains(strings.ToLower(string(raw)), "success") {
		return true, nil
	}

	logger.Debug("admin-ajax response did not indicate success", "body", truncateBody(raw))
	return false, nil
}
