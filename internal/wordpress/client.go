// Package wordpress is a client for the WordPress REST API surface the
// publishing pipeline uses: posts, categories, tags and post meta, with the
// three authentication header shapes WordPress installs commonly accept.
package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autopress/internal/config"
	"autopress/internal/logger"
)

const (
	authProbeTimeout = 10 * time.Second
	requestTimeout   = 30 * time.Second
	maxErrorBody     = 500
)

// APIError is a non-2xx response from the REST API. The orchestrator
// inspects it to pick a targeted retry.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wordpress API error: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether the response indicates an authentication
// problem.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// MentionsCategory reports whether the error body points at a category or
// taxonomy term problem.
func (e *APIError) MentionsCategory() bool {
	lower := strings.ToLower(e.Body)
	return strings.Contains(lower, "term") || strings.Contains(lower, "category")
}

// Client talks to one WordPress site. Credentials are read-only after
// construction.
type Client struct {
	baseURL    string
	username   string
	password   string
	authMethod string
	authHeader string
	httpClient *http.Client
}

// NewClient creates a Client from configuration. Missing URL or credentials
// are configuration errors and fail immediately.
func NewClient(cfg config.WordPress) (*Client, error) {
	if cfg.URL == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("wordpress credentials not found: set WP_URL, WP_USERNAME and WP_PASSWORD")
	}

	method := cfg.AuthMethod
	if method == "" {
		method = "basic"
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		authMethod: method,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	c.authHeader = c.basicAuthHeader()
	return c, nil
}

// BaseURL returns the site root URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) apiURL(path string) string {
	return c.baseURL + "/wp-json/wp/v2" + path
}

func (c *Client) basicAuthHeader() string {
	credentials := c.username + ":" + c.password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}

// Authenticate builds the Authorization header for the configured method.
// JWT failures fall back to basic auth with a warning rather than aborting;
// the posting call surfaces any real authorization problem.
func (c *Client) Authenticate(ctx context.Context) error {
	logger.Info("Authenticating to WordPress REST API", "url", c.baseURL, "method", c.authMethod)

	switch c.authMethod {
	case "jwt":
		token, err := c.requestJWT(ctx)
		if err != nil {
			logger.Warn("JWT authentication failed, falling back to basic auth", "error", err.Error())
			c.authHeader = c.basicAuthHeader()
		} else {
			c.authHeader = "Bearer " + token
		}
	case "application", "basic":
		// Application passwords use the basic header shape with the
		// application password as the secret.
		c.authHeader = c.basicAuthHeader()
	default:
		return fmt.Errorf("unsupported auth method %q", c.authMethod)
	}

	return nil
}

func (c *Client) requestJWT(ctx context.Context) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/wp-json/jwt-auth/v1/token", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned HTTP %d", resp.StatusCode)
	}

	var tokenInfo struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenInfo.Token == "" {
		return "", fmt.Errorf("token endpoint returned an empty token")
	}
	return tokenInfo.Token, nil
}

// VerifyAuth probes the authenticated users/me endpoint with a short
// timeout. Failures are logged with diagnostics but never fatal: the
// header may still work for posting.
func (c *Client) VerifyAuth(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, authProbeTimeout)
	defer cancel()

	err := c.doJSON(probeCtx, "GET", c.apiURL("/users/me"), nil, nil, c.authHeader)
	if err == nil {
		logger.Info("WordPress authentication verified")
		return
	}

	if apiErr, ok := AsAPIError(err); ok && apiErr.IsAuthError() {
		logger.Warn("Authentication test rejected; credentials may be wrong or the site may require application passwords",
			"status", apiErr.StatusCode)
		c.checkRESTReachable(ctx)
		return
	}

	logger.Warn("Authentication test failed, continuing anyway", "error", err.Error())
}

// checkRESTReachable hits the public API root to distinguish auth problems
// from an unreachable or disabled REST API.
func (c *Client) checkRESTReachable(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, authProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, "GET", c.baseURL+"/wp-json", nil)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("REST API root is unreachable; the site may be down", "error", err.Error())
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		logger.Warn("REST API is accessible; the problem is authentication, not connectivity")
	} else {
		logger.Warn("REST API root check failed; the site may not have the REST API enabled", "status", resp.StatusCode)
	}
}

// doJSON performs one JSON request/response cycle. Non-2xx responses are
// returned as *APIError with a truncated body for inspection.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any, authHeader string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func truncateBody(raw []byte) string {
	s := string(raw)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

// AsAPIError extracts an *APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
