// Package remote holds the HTTP plumbing shared by the naming and DPS
// clients: a JSON request helper and decoding of the service error format.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds a single remote call when no client is supplied.
const DefaultTimeout = 30 * time.Second

// Error categories reported by the naming registry and the DPS.
const (
	CategoryObjectNotFound  = "OBJECT_NOT_FOUND"
	CategorySessionNotFound = "SESSION_NOT_FOUND"
	CategoryNameNotBound    = "NAME_NOT_BOUND"
	CategoryRouteNotFound   = "ROUTE_NOT_FOUND"
)

// Client issues JSON requests against the naming registry and the DPS.
type Client struct {
	http      *http.Client
	authToken string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithAuthToken sends the token as a Bearer credential on every request.
func WithAuthToken(token string) ClientOption {
	return func(c *Client) { c.authToken = token }
}

// NewClient returns a Client whose transport is instrumented for tracing.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DoJSON sends body (if non-nil) as JSON and decodes a 2xx response into out
// (if non-nil). Non-2xx responses are returned as *Error.
func (c *Client) DoJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// Error is a non-2xx response from a remote service.
type Error struct {
	StatusCode    int    `json:"-"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
	Category      string `json:"category"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Category != "" {
		msg = e.Category + ": " + msg
	}
	if e.CorrelationID != "" {
		return fmt.Sprintf("remote error %d (%s) [correlation id %s]", e.StatusCode, msg, e.CorrelationID)
	}
	return fmt.Sprintf("remote error %d (%s)", e.StatusCode, msg)
}

// IsStatus reports whether err is a remote *Error with the given status code
// and, when category is non-empty, the given error category.
func IsStatus(err error, code int, category string) bool {
	var rerr *Error
	if !errors.As(err, &rerr) {
		return false
	}
	if rerr.StatusCode != code {
		return false
	}
	return category == "" || rerr.Category == category
}

func decodeError(resp *http.Response) error {
	rerr := &Error{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(body) > 0 {
		if err := json.Unmarshal(body, rerr); err != nil {
			rerr.Message = string(bytes.TrimSpace(body))
		}
	}
	rerr.StatusCode = resp.StatusCode
	return rerr
}
