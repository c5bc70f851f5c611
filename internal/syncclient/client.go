// Package syncclient talks to the remote record store over HTTP.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/tillsync/internal/http/auth"
)

// DefaultMaxResponseBytes caps how much of a response body is read.
const DefaultMaxResponseBytes = 32 << 20

// ErrRejected is returned when the remote store answers 2xx but does not
// report success or sends a body that cannot be read.
var ErrRejected = errors.New("remote store rejected request")

// ErrResponseTooLarge is returned when a response body exceeds the
// client's size cap.
var ErrResponseTooLarge = errors.New("remote store response too large")

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote store returned %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	maxBytes   int64
	logger     *slog.Logger

	deviceID string
	secret   []byte
	tokenTTL time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxResponseBytes overrides DefaultMaxResponseBytes.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithDeviceAuth signs a short-lived bearer token for every request.
func WithDeviceAuth(deviceID string, secret []byte, ttl time.Duration) Option {
	return func(c *Client) {
		c.deviceID = deviceID
		c.secret = secret
		c.tokenTTL = ttl
	}
}

// New returns a client whose requests time out after timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   DefaultMaxResponseBytes,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Ping checks the remote store's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader

	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}

		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if len(c.secret) > 0 {
		token, err := auth.Sign(c.secret, c.deviceID, c.tokenTTL, time.Now())
		if err != nil {
			return err
		}

		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if int64(len(raw)) > c.maxBytes {
		c.logger.Warn("remote response exceeds size cap",
			"method", method,
			"path", path,
			"limit_bytes", c.maxBytes,
		)

		return fmt.Errorf("%s %s: %w: more than %d bytes", method, path, ErrResponseTooLarge, c.maxBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrRejected, err)
	}

	return nil
}
