// Package transport performs the network requests whose results the cache
// stores.
//
// [HTTP] wraps an injectable *http.Client so tests can point it at an
// httptest server; [Func] adapts a plain function for stub transports.
// Transports never retry: a failed request is returned to the caller as is.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RequestOptions describes a request beyond its URL. Its JSON form is part of
// the cache key for fetched responses, so field order and tags are stable.
type RequestOptions struct {
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// Response is the outcome of a request that reached the server.
type Response struct {
	StatusCode int
	Status     string // reason phrase, e.g. "Not Found"
	Body       []byte
}

// OK reports whether the status is in the 2xx-3xx success range.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// Transport performs a single request. Cancelling ctx cancels the request.
type Transport interface {
	Do(ctx context.Context, url string, opts RequestOptions) (Response, error)
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, url string, opts RequestOptions) (Response, error)

func (f Func) Do(ctx context.Context, url string, opts RequestOptions) (Response, error) {
	return f(ctx, url, opts)
}

const defaultTimeout = 30 * time.Second

// HTTP is a Transport over net/http.
type HTTP struct {
	client    *http.Client
	userAgent string
}

// NewHTTP returns an HTTP transport using client, or a client with a 30s
// timeout when client is nil.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTP{client: client}
}

// WithUserAgent sets the User-Agent sent when opts carry none.
func (h *HTTP) WithUserAgent(ua string) *HTTP {
	h.userAgent = ua
	return h
}

func (h *HTTP) Do(ctx context.Context, url string, opts RequestOptions) (Response, error) {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if opts.Body != "" {
		body = bytes.NewReader([]byte(opts.Body))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if h.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}

	return Response{
		StatusCode: resp.StatusCode,
		Status:     reasonPhrase(resp),
		Body:       respBody,
	}, nil
}

// reasonPhrase returns the reason the server sent, falling back to the
// standard text for the code.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
