// Package api is the HTTP client for the construction budget REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8000/api/v1"
	// DefaultTimeout bounds each request, including reading the body.
	DefaultTimeout = 15 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
	userAgent      = "sitebudget/1.0"
)

// Credentials supplies the bearer token and is cleared on 401.
type Credentials interface {
	Token() string
	Clear()
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Credentials Credentials
	// OnAuthRequired runs after a 401 has cleared the credentials.
	OnAuthRequired func()
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client performs JSON requests against the API.
type Client struct {
	baseURL        string
	timeout        time.Duration
	creds          Credentials
	onAuthRequired func()
	http           *http.Client
	log            *slog.Logger
}

// New creates a client from opts.
func New(opts Options) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		timeout:        opts.Timeout,
		creds:          opts.Credentials,
		onAuthRequired: opts.OnAuthRequired,
		http:           opts.HTTPClient,
		log:            opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Request is a logical API call.
type Request struct {
	Method string
	Path   string
	Body   any
	Query  url.Values
}

// Response is a successful API response. Data is nil when the server sent
// no JSON body (e.g. 204 No Content).
type Response struct {
	StatusCode int
	Data       json.RawMessage
}

// Empty reports whether the response carried no JSON payload.
func (r *Response) Empty() bool {
	return r == nil || len(r.Data) == 0
}

// Decode unmarshals the payload into v. It is a no-op on an empty response.
func (r *Response) Decode(v any) error {
	if r.Empty() || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("api: decoding response: %w", err)
	}
	return nil
}

// Do sends req and normalizes the outcome into a Response or one of
// ErrAuthRequired, *RequestError or *NetworkError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.url(req.Path, req.Query)

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("api: encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		if tok := c.creds.Token(); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug("request failed", "method", method, "url", target, "request_id", requestID, "err", err)
		return nil, &NetworkError{Method: method, URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{Method: method, URL: target, Err: err}
	}
	c.log.Debug("request", "method", method, "url", target, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		if c.creds != nil {
			c.creds.Clear()
		}
		if c.onAuthRequired != nil {
			c.onAuthRequired()
		}
		return nil, ErrAuthRequired
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	out := &Response{StatusCode: resp.StatusCode}
	if isJSON(resp.Header.Get("Content-Type")) && len(bytes.TrimSpace(data)) > 0 {
		out.Data = data
	}
	return out, nil
}

// Get fetches path and decodes the JSON payload into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Post sends body to path and decodes the reply into out (which may be nil).
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Put replaces the resource at path and decodes the reply into out (which may be nil).
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
	return err
}

func (c *Client) url(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// errorMessage pulls a human-readable message out of an error body.
// FastAPI validation errors carry a list under "detail"; the first msg is used.
func errorMessage(status int, body []byte) string {
	fallback := fmt.Sprintf("request failed (HTTP %d)", status)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return fallback
	}
	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var list []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0].Msg != "" {
			return list[0].Msg
		}
	}
	return fallback
}
