//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/artesanomultimedia/grelo-installer/internal/config"
)

// Client downloads remote resources over HTTP(S).
type Client struct {
	// http is the underlying transport.
	http *http.Client
	// userAgent is sent with every request.
	userAgent string
	// timeout bounds a whole request including the body read. Zero disables it.
	timeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithTimeout sets a timeout for every download.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

var (
	// ErrBadHTTPStatus is returned when the server answers with anything but 200.
	ErrBadHTTPStatus = errors.New("unexpected http status")
	// errURLRequired is returned when an empty URL is requested.
	errURLRequired = errors.New("url must be provided")
)

// NewClient builds a Client with the provided options.
func NewClient(opts ...Option) *Client {
	client := &Client{
		http:      http.DefaultClient,
		userAgent: config.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Get requests url and returns the response body.
// The caller must close the body. Closing it also releases the request timeout.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	if url == "" {
		return nil, errURLRequired
	}

	reqCtx, cancel := c.requestContext(ctx)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	response, err := c.http.Do(req)
	if err != nil {
		cancel()

		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()

		cancel()

		return nil, fmt.Errorf("%s, %s: %w", url, response.Status, ErrBadHTTPStatus)
	}

	return &cancelOnClose{ReadCloser: response.Body, cancel: cancel}, nil
}

// requestContext returns a context with the client's timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.timeout)
}

// cancelOnClose releases the request context once the body is closed.
type cancelOnClose struct {
	io.ReadCloser

	cancel context.CancelFunc
}

// Close closes the body and cancels the request context.
func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()

	return err
}
