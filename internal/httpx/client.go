// Package httpx provides the JSON-over-HTTP client used for every outbound call:
// market-data feeds, agent platforms and launchpad indexers.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 0
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
	DefaultUserAgent   = "token-launchpad/1.0"

	maxErrorBody = 4096
)

// StatusError is returned for non-2xx responses.
// Message carries the upstream's own error text when the body provides one.
type StatusError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// UpstreamMessage returns the upstream's verbatim error message for err,
// falling back to err.Error().
func UpstreamMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}

// Client performs JSON requests with bounded timeouts and optional retries.
// Retries apply only to idempotent methods (GET, HEAD).
type Client struct {
	client      *http.Client
	headers     map[string]string
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for idempotent requests.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// New creates a new JSON client.
func New(opts ...ClientOption) *Client {
	c := &Client{
		client:      &http.Client{Timeout: DefaultTimeout},
		headers:     map[string]string{"User-Agent": DefaultUserAgent},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one outbound call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    interface{}   // marshalled as JSON when non-nil
	Timeout time.Duration // per-call bound; 0 uses the client timeout
}

// GetJSON performs a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url}, out)
}

// PostJSON performs a POST with a JSON body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body, out interface{}, timeout time.Duration) error {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: url, Headers: headers, Body: body, Timeout: timeout}, out)
}

// GetText performs a GET and returns the raw body (used for HTML pages).
func (c *Client) GetText(ctx context.Context, url string, timeout time.Duration) (string, error) {
	var raw []byte
	err := c.do(ctx, Request{Method: http.MethodGet, URL: url, Timeout: timeout}, func(b []byte) error {
		raw = b
		return nil
	})
	return string(raw), err
}

// Do performs the request and decodes a JSON response into out (if non-nil).
func (c *Client) Do(ctx context.Context, r Request, out interface{}) error {
	return c.do(ctx, r, func(body []byte) error {
		if out == nil || len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	})
}

func (c *Client) do(ctx context.Context, r Request, handle func([]byte) error) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var payload []byte
	if r.Body != nil {
		var err error
		payload, err = json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	retries := 0
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		retries = c.maxRetries
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range r.Headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			if ctx.Err() != nil {
				return lastErr
			}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = newStatusError(resp.StatusCode, respBody)
			// Rate limiting and server errors are retried; client errors are not
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return lastErr
		}

		return handle(respBody)
	}

	if retries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// newStatusError extracts the most specific error message from a JSON body.
// Agent platforms disagree on the field name, so several are tried.
func newStatusError(code int, body []byte) *StatusError {
	se := &StatusError{StatusCode: code}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	se.Body = string(body)

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, key := range []string{"error", "message", "detail", "hint"} {
			switch v := parsed[key].(type) {
			case string:
				if v != "" {
					se.Message = v
					return se
				}
			case map[string]interface{}:
				if msg, ok := v["message"].(string); ok && msg != "" {
					se.Message = msg
					return se
				}
			}
		}
		return se
	}

	text := strings.TrimSpace(string(body))
	if text != "" && !strings.HasPrefix(text, "<") {
		se.Message = text
	}
	return se
}
