// Package apiclient talks to the catalogue backend over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"syscall"
	"time"

	"shophub/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes caps how much of a backend response is read.
const maxBodyBytes = 10 << 20

// Response is a successful backend response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client sends requests to the backend API. It carries a cookie jar so
// session cookies set by the backend are sent back on later requests.
type Client struct {
	baseURL string
	http    *http.Client
	maxBody int64
	logger  zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = rt
	}
}

// WithMaxBodyBytes caps how much of a successful response body is accepted.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		c.maxBody = n
	}
}

// New creates a client for the backend at baseURL. Every request is bounded
// by timeout.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		maxBody: maxBodyBytes,
		logger:  logger.With().Str("component", "api-client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends a request to path (relative to the base URL, already escaped).
// A non-2xx status is returned as *model.ServerError and transport failures
// as *model.NetworkError.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*Response, error) {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("url", endpoint).Msg("request configuration error")
		return nil, fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", endpoint).
		Str("content_type", contentType).
		Msg("api request")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		netErr := c.classify(err)
		c.logger.Error().
			Err(err).
			Str("method", method).
			Str("url", endpoint).
			Bool("timeout", netErr.Timeout).
			Dur("duration", time.Since(start)).
			Msg("api error")
		return nil, netErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		netErr := c.classify(err)
		c.logger.Error().
			Err(err).
			Str("method", method).
			Str("url", endpoint).
			Int("status", resp.StatusCode).
			Msg("failed to read api response")
		return nil, netErr
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("api response")

	tooLarge := int64(len(data)) > c.maxBody
	if tooLarge {
		data = data[:c.maxBody]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serverErr := &model.ServerError{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(data),
		}
		c.logger.Error().
			Str("method", method).
			Str("url", endpoint).
			Int("status", resp.StatusCode).
			Str("server_message", serverErr.Message).
			Msg("api error")
		return nil, serverErr
	}

	if tooLarge {
		c.logger.Error().
			Str("method", method).
			Str("url", endpoint).
			Int64("limit", c.maxBody).
			Msg("api response too large")
		return nil, &model.MalformedResponseError{
			Message: fmt.Sprintf("invalid response format: response larger than %d bytes", c.maxBody),
		}
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// classify turns a transport failure into a NetworkError with a message the
// user can act on.
func (c *Client) classify(err error) *model.NetworkError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		return &model.NetworkError{
			Message: "request timeout: server took too long to respond",
			Timeout: true,
			Err:     err,
		}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &model.NetworkError{
			Message: fmt.Sprintf("cannot connect to server: ensure the server is running at %s", c.baseURL),
			Err:     err,
		}
	default:
		return &model.NetworkError{
			Message: "network error: check your connection and server status",
			Err:     err,
		}
	}
}

// serverMessage extracts the message the backend put in an error body.
func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}

	return ""
}
