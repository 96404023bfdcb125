package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ClientOption configures Client.
type ClientOption func(*Client)

// Client issues read-only requests to upstream data APIs.
type Client struct {
	timeout   time.Duration
	proxy     string
	userAgent string
	transport http.RoundTripper
	client    *http.Client
}

// NewClient builds a client with a 30s timeout unless overridden.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if c.proxy != "" {
			if u, err := url.Parse(c.proxy); err == nil {
				tr.Proxy = http.ProxyURL(u)
			}
		}
		c.transport = tr
	}
	c.client = &http.Client{Timeout: c.timeout, Transport: c.transport}
	return c
}

// Get sends a GET for rawURL with query appended. The caller owns the
// response body whatever the status code.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.timeout = timeout }
}

// WithProxy routes requests through proxyURL. Ignored when empty or when a
// custom transport is set.
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) { c.proxy = proxyURL }
}

// WithUserAgent sets the User-Agent header. Some data APIs reject the Go
// default.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) { c.transport = rt }
}
