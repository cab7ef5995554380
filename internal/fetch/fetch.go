// Package fetch talks to the origin server: proxied round trips for the server and plain
// page downloads for the CLI.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default origin request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent by Get when no other user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (compatible; GenerativeProxy/1.0)"

// Result holds the raw content of a page download.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error talking to the origin.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the failure was a deadline.
func (e *Error) Timeout() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(e.Cause, &netErr) && netErr.Timeout()
}

// Options configures a Client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// FollowRedirects makes the client follow redirects. Proxied round trips leave it off so
	// the redirect reaches the browser.
	FollowRedirects bool
	Transport       http.RoundTripper
}

// DefaultOptions returns defaults for page downloads.
func DefaultOptions() *Options {
	return &Options{
		Timeout:         DefaultTimeout,
		UserAgent:       DefaultUserAgent,
		FollowRedirects: true,
	}
}

// Client sends requests to the origin.
type Client struct {
	client *http.Client
	opts   *Options
}

// NewClient creates a Client. Nil options mean DefaultOptions.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	hc := &http.Client{
		Timeout:   opts.Timeout,
		Transport: opts.Transport,
	}
	if !opts.FollowRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &Client{client: hc, opts: opts}
}

// Do sends req to the origin. Transport failures are returned as *Error. The caller closes
// the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     req.URL.String(),
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	return resp, nil
}

// ReadBody reads and closes resp.Body.
func ReadBody(resp *http.Response) (string, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{
			URL:     resp.Request.URL.String(),
			Message: "failed to read response body",
			Cause:   err,
		}
	}
	return string(body), nil
}

// Get downloads a page. Non-200 responses return the Result together with an *Error.
func (c *Client) Get(ctx context.Context, urlStr string) (*Result, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	body, err := ReadBody(resp)
	if err != nil {
		return nil, err
	}

	result := &Result{
		URL:         urlStr,
		HTML:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	return result, nil
}

// URL downloads a page with the given options.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	return NewClient(opts).Get(ctx, urlStr)
}
