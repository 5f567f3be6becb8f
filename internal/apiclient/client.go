// Package apiclient is the storefront's typed client for the labelshop REST API.
// Every request goes through a session.Refresher, so an expired access cookie is
// renewed transparently at most once per call.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"labelshop/internal/logging"
	"labelshop/internal/session"
)

const refreshPath = "/api/auth/refresh"

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	doer       *session.Refresher
	flag       *session.Flag
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client. A client without a cookie jar gets one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithFlag wires the session heuristic: set on login and refresh, cleared on logout.
func WithFlag(f *session.Flag) Option {
	return func(c *Client) { c.flag = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	c := &Client{baseURL: u}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger).Named("apiclient")
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	refreshOpts := []session.Option{session.WithLogger(c.logger)}
	if c.flag != nil {
		refreshOpts = append(refreshOpts, session.WithFlag(c.flag))
	}
	c.doer = session.NewRefresher(c.httpClient, c.endpoint(refreshPath), refreshOpts...)
	return c, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// do sends a JSON request and decodes a 2xx JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.endpoint(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &session.NetworkError{Method: method, URL: target, Err: fmt.Errorf("reading response body: %w", err)}
	}
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	apiErr := &APIError{Status: status}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.Message
	}
	return apiErr
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
