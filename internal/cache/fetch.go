package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dylanmikesell/sitecache/internal/redact"
	"github.com/dylanmikesell/sitecache/internal/transport"
)

// FetchErrorKind classifies a CachedFetch failure.
type FetchErrorKind int

const (
	// FetchNetwork means the request never produced a response.
	FetchNetwork FetchErrorKind = iota + 1
	// FetchStatus means the server answered outside the success range.
	FetchStatus
	// FetchParse means the response body was not valid JSON.
	FetchParse
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchNetwork:
		return "network"
	case FetchStatus:
		return "status"
	case FetchParse:
		return "parse"
	default:
		return "unknown"
	}
}

// FetchError is returned by CachedFetch. Nothing is cached when it occurs.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchStatus:
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
	case FetchParse:
		return fmt.Sprintf("parsing response: %v", e.Err)
	default:
		return fmt.Sprintf("fetch failed: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is a transport-level fetch failure.
func IsNetworkError(err error) bool { return fetchKind(err) == FetchNetwork }

// IsStatusError reports whether err is a non-success HTTP status.
func IsStatusError(err error) bool { return fetchKind(err) == FetchStatus }

// IsParseError reports whether err is an unparsable response body.
func IsParseError(err error) bool { return fetchKind(err) == FetchParse }

func fetchKind(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// FetchKey derives the logical cache key for a request:
// "fetch_" + url + "_" + the JSON form of opts.
func FetchKey(url string, opts transport.RequestOptions) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings and a string map cannot fail.
	_ = enc.Encode(opts)
	return "fetch_" + url + "_" + string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// Fetch is CachedFetch with the default TTL.
func (c *Cache) Fetch(ctx context.Context, url string, opts transport.RequestOptions) (json.RawMessage, error) {
	return c.CachedFetch(ctx, url, opts, c.defaultTTL)
}

// CachedFetch returns the parsed JSON body of the request, serving it from
// the cache while a live entry exists. On a miss it performs the request and
// caches a successful, parsable response for ttl. Cancelling ctx cancels the
// in-flight request.
func (c *Cache) CachedFetch(ctx context.Context, url string, opts transport.RequestOptions, ttl time.Duration) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "cache.fetch",
		trace.WithAttributes(attribute.String("url.full", redact.Key(url))))
	defer span.End()

	key := FetchKey(url, opts)
	if data, ok := c.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return data, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	data, err := c.fetch(ctx, url, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Error().Err(err).Str("url", redact.Key(url)).Msg("cached fetch failed")
		return nil, err
	}
	c.SetTTL(key, data, ttl)
	return data, nil
}

func (c *Cache) fetch(ctx context.Context, url string, opts transport.RequestOptions) (json.RawMessage, error) {
	resp, err := c.transport.Do(ctx, url, opts)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, URL: url, Err: err}
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if !resp.OK() {
		status := resp.Status
		if status == "" {
			status = http.StatusText(resp.StatusCode)
		}
		return nil, &FetchError{Kind: FetchStatus, URL: url, StatusCode: resp.StatusCode, Status: status}
	}

	var data json.RawMessage
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return nil, &FetchError{Kind: FetchParse, URL: url, StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}
	return data, nil
}
