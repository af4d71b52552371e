// Package gateway is the single outgoing path to the lead-scoring REST API.
// Every call goes through the same interceptor chain, which attaches the
// bearer token and signs the user out when the backend rejects it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the local development backend
const DefaultBaseURL = "http://127.0.0.1:8000/api/v1"

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Client represents an HTTP client for the lead-scoring API
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

type options struct {
	transport http.RoundTripper
	timeout   time.Duration
	log       zerolog.Logger
	extra     []Interceptor
}

// Option configures a Client.
type Option func(*options)

// WithTransport sets the innermost RoundTripper (default http.DefaultTransport).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithTimeout sets the per-request timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger used by the client and its interceptors.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithInterceptors adds interceptors inside the standard ones, closest to the
// transport.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(o *options) { o.extra = append(o.extra, interceptors...) }
}

// New creates a new API client. An empty baseURL falls back to
// DefaultBaseURL. nav may be nil, in which case a 401 only clears the store.
func New(baseURL string, store SessionStore, nav Navigator, opts ...Option) *Client {
	o := options{
		timeout: 30 * time.Second,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}

	chain := NewChain(
		RequestID(),
		Logging(o.log),
		Bearer(store),
		Unauthorized(store, nav, o.log),
	).Append(o.extra...)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   o.timeout,
			Transport: chain.Then(o.transport),
		},
		log: o.log,
	}
}

// BaseURL returns the API base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// newRequest builds a request for path relative to the base URL. Requests
// default to JSON; contentType overrides it.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType == "" {
		contentType = contentTypeJSON
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentTypeJSON)
	return req, nil
}

// newJSONRequest marshals in as the request body.
func (c *Client) newJSONRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.newRequest(ctx, method, path, nil, bytes.NewReader(data), contentTypeJSON)
}

// Do sends req through the interceptor chain. A non-2xx status becomes an
// *APIError; by the time it is returned the interceptors have already run,
// so after a 401 the session store is already empty. On success the body is
// decoded into out unless out is nil.
func (c *Client) Do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return newAPIError(resp.StatusCode, body)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
