// Package remote is the HTTP client of the dispatch service.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/pkg/options"
)

var (
	_ core.RosterAPI  = (*Client)(nil)
	_ core.ProfileAPI = (*Client)(nil)
	_ core.RoomAPI    = (*Client)(nil)
)

// maxErrorBody caps how much of a failed response is kept as the error message.
const maxErrorBody = 4 << 10

// Client talks to the dispatch REST API.
type Client struct {
	baseURL string
	token   string
	cookie  string

	tlsConfig *tls.Config

	// http carries the request timeout; stream carries none.
	http   *http.Client
	stream *http.Client
}

// New creates a Client from opts.
func New(opts *options.APIOptions) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		token:     opts.Token,
		cookie:    opts.Cookie,
		tlsConfig: transport.TLSClientConfig,
		http:      &http.Client{Timeout: opts.Timeout, Transport: transport},
		stream:    &http.Client{Transport: transport},
	}
}

// URL resolves path against the base URL. Absolute http(s) URLs are returned as is.
func (c *Client) URL(path string) string {
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Header returns the credentials headers configured for the client.
func (c *Client) Header() http.Header {
	h := http.Header{}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != "" {
		h.Set("Cookie", c.cookie)
	}
	return h
}

// StreamClient returns an http.Client without a request timeout, sharing the
// transport of c. It is meant for long-lived streaming responses.
func (c *Client) StreamClient() *http.Client {
	return c.stream
}

// TLSConfig returns the TLS settings of the client, or nil for the defaults.
func (c *Client) TLSConfig() *tls.Config {
	return c.tlsConfig
}

// NewRequest builds a request against path with the default headers set.
// A non-nil body is encoded as JSON.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), r)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.Header() {
		req.Header[k] = vs
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends req and returns the response body of a 2xx answer. Any other status
// is turned into a *StatusError.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil, ResponseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// ResponseError reads the body of a failed response into a StatusError.
func ResponseError(resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}
