// Package http implements the default devdraft.Transport on top of
// go-retryablehttp. It performs exactly one physical exchange per call;
// retries belong to the retry engine.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/devdraft/saligen/internal/constants"
	"github.com/devdraft/saligen/pkg/devdraft"
)

// Client sends single requests.
type Client struct {
	httpClient *retryablehttp.Client
	logger     devdraft.Logger
	debug      bool
}

// Ensure Client implements the interface
var _ devdraft.Transport = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the destination of debug lines.
func WithLogger(logger devdraft.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every request and response.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithHTTPClient sends requests through a copy of httpClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient == nil {
			return
		}

		clone := *httpClient
		timeout := c.httpClient.HTTPClient.Timeout
		clone.Timeout = timeout
		c.httpClient.HTTPClient = &clone
	}
}

// WithTimeout bounds each exchange, connect and body read included.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// NewClient creates a transport with the default timeout.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.CheckRetry = noRetry
	retryClient.HTTPClient = &http.Client{Timeout: constants.DefaultHTTPTimeout}

	client := &Client{httpClient: retryClient}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// noRetry keeps go-retryablehttp to a single attempt while still surfacing
// context errors.
func noRetry(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return false, nil
}

// Do performs one exchange. Any failure to complete it is a *devdraft.TransportError.
func (c *Client) Do(ctx context.Context, req *devdraft.Request) (*devdraft.Response, error) {
	target, err := buildURL(req.URL, req.Query)
	if err != nil {
		return nil, &devdraft.TransportError{Op: req.Method, URL: req.URL, Err: err}
	}

	var body interface{}
	if req.Body != nil {
		body = req.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, &devdraft.TransportError{Op: req.Method, URL: target, Err: err}
	}

	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	start := time.Now()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  req.Method,
			"url":     target,
			"attempt": req.Attempt + 1,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &devdraft.TransportError{Op: req.Method, URL: target, Err: err}
	}

	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &devdraft.TransportError{Op: "read " + req.Method, URL: target, Err: err}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":   req.Method,
			"url":      target,
			"status":   httpResp.StatusCode,
			"duration": time.Since(start).String(),
			"size":     len(data),
		})
	}

	return &devdraft.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}, nil
}

// buildURL merges query into any query string already present on rawURL.
func buildURL(rawURL string, query url.Values) (string, error) {
	if len(query) == 0 {
		return rawURL, nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	merged := parsed.Query()
	for key, values := range query {
		merged.Del(key)

		for _, value := range values {
			merged.Add(key, value)
		}
	}

	parsed.RawQuery = merged.Encode()

	return parsed.String(), nil
}
