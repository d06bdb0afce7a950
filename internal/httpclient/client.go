// Package httpclient issues HTTP requests and follows redirects itself so
// the method rewriting rules for each redirect status are explicit.
//
// 301, 302 and 303 responses are followed with GET and no body. 307 and 308
// responses are followed with the original method, body and headers.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/logging"
)

const (
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "torfetch/1.0"
	// DefaultMaxRedirects bounds the number of redirect hops per request
	DefaultMaxRedirects = 20
)

// Client issues requests and follows redirects.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxRedirects int
	timeout      time.Duration
	hasTimeout   bool
	logger       logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying *http.Client. Its CheckRedirect is
// replaced on a copy; the caller's client is left untouched.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxRedirects sets the hop limit. A negative value disables the limit.
func WithMaxRedirects(n int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = n
	}
}

// WithTimeout sets an overall timeout per request, redirects and body
// transfer included. Zero means no timeout. It takes precedence over the
// Timeout of a client given with WithHTTPClient, in either order.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
		c.hasTimeout = true
	}
}

// WithLogger sets the logger used for per-hop debug output.
func WithLogger(l logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logging.OrNop(l)
	}
}

// New creates a Client.
func New(opts ...ClientOption) *Client {
	c := &Client{
		userAgent:    DefaultUserAgent,
		maxRedirects: DefaultMaxRedirects,
		logger:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	var hc http.Client
	if c.httpClient != nil {
		hc = *c.httpClient
	}
	if c.hasTimeout {
		hc.Timeout = c.timeout
	}
	hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.httpClient = &hc

	return c
}

// Option configures a single request.
type Option func(*request)

type request struct {
	method string
	body   []byte
	header http.Header
}

// WithMethod sets the request method. The default is GET.
func WithMethod(method string) Option {
	return func(r *request) {
		r.method = method
	}
}

// WithBody sets the request body.
func WithBody(body []byte) Option {
	return func(r *request) {
		r.body = body
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) Option {
	return func(r *request) {
		r.header.Add(key, value)
	}
}

func newRequest(opts []Option) *request {
	r := &request{method: http.MethodGet, header: http.Header{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// asGet returns the request used after a 301, 302 or 303 response.
func (r *request) asGet() *request {
	header := r.header.Clone()
	header.Del("Content-Type")
	header.Del("Content-Length")
	return &request{method: http.MethodGet, header: header}
}

// Request performs the request and returns the response body as text.
func (c *Client) Request(ctx context.Context, rawURL string, opts ...Option) (string, error) {
	resp, err := c.do(ctx, rawURL, newRequest(opts))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	return string(body), nil
}

// RequestStream performs the request and copies the response body into
// sink. It returns once sink has been closed, so a nil error means the data
// was flushed. sink is closed on every path.
func (c *Client) RequestStream(ctx context.Context, sink io.WriteCloser, rawURL string, opts ...Option) error {
	resp, err := c.do(ctx, rawURL, newRequest(opts))
	if err != nil {
		sink.Close()
		return err
	}
	defer resp.Body.Close()

	n, copyErr := io.Copy(sink, resp.Body)
	closeErr := sink.Close()
	if copyErr != nil {
		return fmt.Errorf("copy response body: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close sink: %w", closeErr)
	}

	c.logger.Debug("stream complete", "url", rawURL, "bytes", n)
	return nil
}

// do runs the redirect loop and returns a 2xx response with an open body.
func (c *Client) do(ctx context.Context, rawURL string, req *request) (*http.Response, error) {
	current, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	for hops := 0; ; hops++ {
		resp, err := c.send(ctx, current, req)
		if err != nil {
			return nil, err
		}

		status := resp.StatusCode
		if status <= 0 {
			resp.Body.Close()
			return nil, ErrMissingStatusCode
		}

		if isRedirect(status) {
			location := resp.Header.Get("Location")
			resp.Body.Close()
			if location == "" {
				return nil, fmt.Errorf("%w: %d from %s", ErrMissingLocation, status, current)
			}
			if c.maxRedirects >= 0 && hops >= c.maxRedirects {
				return nil, fmt.Errorf("%w: stopped after %d hops at %s", ErrTooManyRedirects, hops, current)
			}

			next, err := current.Parse(location)
			if err != nil {
				return nil, fmt.Errorf("parse Location %q: %w", location, err)
			}
			if err := checkScheme(next); err != nil {
				return nil, err
			}
			if forcesGet(status) {
				req = req.asGet()
			}

			c.logger.Debug("following redirect", "status", status, "from", current.String(), "to", next.String(), "method", req.method)
			current = next
			continue
		}

		if status/100 != 2 {
			resp.Body.Close()
			httpErr, err := NewHTTPError(statusText(resp), status)
			if err != nil {
				return nil, err
			}
			return nil, httpErr
		}

		return resp, nil
	}
}

func (c *Client) send(ctx context.Context, u *url.URL, r *request) (*http.Response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = r.header.Clone()
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if err := checkScheme(u); err != nil {
		return nil, err
	}
	return u, nil
}

func checkScheme(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// forcesGet reports whether a redirect status rewrites the method to GET.
func forcesGet(status int) bool {
	return status == http.StatusMovedPermanently ||
		status == http.StatusFound ||
		status == http.StatusSeeOther
}

// statusText returns the reason phrase of resp, e.g. "Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
