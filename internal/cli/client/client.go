package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkdesk-dev/inkdesk/internal/cli/auth"
)

const (
	// DefaultTimeout bounds every request, generation endpoints can be slow
	DefaultTimeout = 300 * time.Second

	// LoginLocation is where an invalidated session is sent
	LoginLocation = "/login"
)

// Invalidation is published when the backend rejects the stored token.
// Intended is the location the user was on, Redirect the login location to go to.
type Invalidation struct {
	Intended string
	Redirect string
}

// Error is the only error shape returned by Client calls.
// Message is a single human-readable string; Status is 0 for transport failures.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the backend
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client represents an HTTP client for the inkdesk API
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	tokens         auth.TokenStore
	location       func() string
	onInvalidation func(Invalidation)
	log            zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout overrides the overall request timeout. It applies to a copy of
// the HTTP client, whichever order the options come in.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLocation supplies the current location (path+query+fragment) used for login redirects
func WithLocation(location func() string) Option {
	return func(c *Client) {
		c.location = location
	}
}

// WithInvalidationHandler registers the callback that receives session invalidations.
// The callback owns navigation; the client never depends on the router.
func WithInvalidationHandler(fn func(Invalidation)) Option {
	return func(c *Client) {
		c.onInvalidation = fn
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a new API client
func New(baseURL string, tokens auth.TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// BaseURL returns the API base address
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: fmt.Sprintf("failed to marshal request: %v", err)}
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &Error{Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("Request failed")
		return &Error{Message: transportMessage(err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("API request")

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidate()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}
	return nil
}

// authorize attaches the bearer token when one is stored
func (c *Client) authorize(req *http.Request) {
	token, err := c.tokens.Get()
	if err != nil {
		c.log.Warn().Err(err).Msg("Token store unavailable, sending request unauthenticated")
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// invalidate clears the token and hands the login redirect to the registered handler
func (c *Client) invalidate() {
	if err := c.tokens.Clear(); err != nil {
		c.log.Error().Err(err).Msg("Failed to clear token after 401")
	}

	current := ""
	if c.location != nil {
		current = c.location()
	}
	if isLoginLocation(current) {
		return
	}

	inv := Invalidation{Intended: current, Redirect: LoginLocation}
	if current != "" {
		inv.Redirect = LoginLocation + "?" + url.Values{"redirect": {current}}.Encode()
	}

	c.log.Info().Str("redirect", inv.Redirect).Msg("Session invalidated")
	if c.onInvalidation != nil {
		c.onInvalidation(inv)
	}
}

func isLoginLocation(location string) bool {
	path := location
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return path == LoginLocation
}

// errorMessage prefers the backend's "detail" field over a generic status message
func errorMessage(status int, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			if detail != "" {
				return detail
			}
		} else if string(payload.Detail) != "null" {
			var compact bytes.Buffer
			if err := json.Compact(&compact, payload.Detail); err == nil {
				return compact.String()
			}
		}
	}
	return fmt.Sprintf("request failed with status code %d", status)
}

func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return "request timed out"
		}
		return urlErr.Err.Error()
	}
	return err.Error()
}
