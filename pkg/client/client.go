// Package client fetches topology documents from the backend.
//
// The backend serves one JSON document at GET {base}/api/topology_data.
// [Client.Fetch] returns it parsed and validated, or an error whose code
// tells the two failure classes apart:
//
//   - FETCH_ERROR: transport failure, cancellation, or a non-2xx status.
//     The body of a failed response is never parsed.
//   - SCHEMA_ERROR: the response was 2xx but the body is not a complete
//     topology document.
//
// No partial document is ever returned.
package client

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/topoview/pkg/buildinfo"
	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/httputil"
	"github.com/matzehuels/topoview/pkg/observability"
	"github.com/matzehuels/topoview/pkg/topology"
)

// TopologyPath is the endpoint path appended to the base URL.
const TopologyPath = "/api/topology_data"

// MaxBodySize bounds the bytes read from one response.
const MaxBodySize = 32 << 20

// Client fetches topology documents from one backend.
// It is safe for concurrent use.
type Client struct {
	http     *http.Client
	endpoint string
	host     string
	headers  map[string]string
	retry    httputil.Policy
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. Zero keeps the transport default
// (no client-side timeout).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(p httputil.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// New creates a client for the backend at baseURL, e.g.
// "http://localhost:5000". A trailing slash is ignored.
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, _ := url.Parse(strings.TrimRight(baseURL, "/"))

	c := &Client{
		http:     &http.Client{},
		endpoint: u.String() + TopologyPath,
		host:     u.Host,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": buildinfo.UserAgent(),
		},
		retry: httputil.NoRetry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the full URL the client fetches.
func (c *Client) Endpoint() string { return c.endpoint }

// Fetch retrieves, parses and validates the current topology document.
func (c *Client) Fetch(ctx context.Context) (*topology.Document, error) {
	var doc *topology.Document
	err := httputil.Retry(ctx, c.retry, func(ctx context.Context) error {
		body, err := c.doRequest(ctx)
		if err != nil {
			return err
		}
		defer body.Close()

		doc, err = topology.Decode(io.LimitReader(body, MaxBodySize))
		return err
	})
	if err == nil {
		return doc, nil
	}

	var re *httputil.RetryableError
	if stderrors.As(err, &re) {
		err = re.Err
	}
	if errors.GetCode(err) == "" {
		err = errors.Wrap(errors.ErrCodeFetch, err, "GET %s", c.endpoint)
	}
	return nil, err
}

func (c *Client) doRequest(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetch, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, c.host, TopologyPath)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, c.host, TopologyPath, err)
		fetchErr := errors.Wrap(errors.ErrCodeFetch, err, "GET %s", c.endpoint)
		if ctx.Err() != nil {
			return nil, fetchErr
		}
		return nil, &httputil.RetryableError{Err: fetchErr}
	}
	hooks.OnResponse(ctx, http.MethodGet, c.host, TopologyPath, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	err := errors.New(errors.ErrCodeFetch, "backend returned %d %s", code, http.StatusText(code))
	if httputil.RetryableStatus(code) {
		return &httputil.RetryableError{Err: err}
	}
	return err
}
