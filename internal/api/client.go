// Package api is the typed client for the community-service backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Client calls the backend REST API. A Client is safe for concurrent use;
// WithToken and WithCache return copies.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	cache   *Cache
	logger  *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// WithToken returns a copy that sends "Authorization: Bearer <token>".
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// WithCache returns a copy whose GETs go through cache. A nil cache
// disables caching.
func (c *Client) WithCache(cache *Cache) *Client {
	cp := *c
	cp.cache = cache
	return &cp
}

func (c *Client) do(ctx context.Context, method, path string, in any) (*http.Response, []byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	c.logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, data, newAPIError(path, resp.StatusCode, data)
	}
	return resp, data, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if data, ok := c.cache.get(ctx, c.token, path); ok {
		return decode(path, data, out)
	}
	_, data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	c.cache.put(ctx, c.token, path, data)
	return decode(path, data, out)
}

// post sends in and returns the server's message, if any.
func (c *Client) post(ctx context.Context, path string, in any) (string, error) {
	_, data, err := c.do(ctx, http.MethodPost, path, in)
	if err != nil {
		return "", err
	}
	return ackMessage(data), nil
}

func decode(path string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// ackMessage reads a success body that is either {"message": "..."} or
// plain text.
func ackMessage(data []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &env) == nil {
		return env.Message
	}
	return strings.TrimSpace(string(data))
}
