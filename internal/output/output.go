package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dylanmikesell/sitecache/internal/cache"
)

// CheckResult describes a storage availability probe.
type CheckResult struct {
	Backend   string `json:"backend"`
	Prefix    string `json:"prefix"`
	Available bool   `json:"available"`
}

// FetchResult is the outcome of fetching a single URL.
type FetchResult struct {
	URL   string          `json:"url"`
	Data  json.RawMessage `json:"data,omitempty"`
	Kind  string          `json:"errorKind,omitempty"`
	Error string          `json:"error,omitempty"`
}

// OK reports whether the fetch produced data.
func (r FetchResult) OK() bool { return r.Error == "" }

// Writer renders command results in a specific format.
type Writer interface {
	Value(w io.Writer, key string, value json.RawMessage) error
	Count(w io.Writer, action string, n int) error
	Stats(w io.Writer, prefix string, s cache.Stats) error
	Check(w io.Writer, r CheckResult) error
	Fetch(w io.Writer, results []FetchResult) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
