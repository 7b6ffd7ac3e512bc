package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dylanmikesell/sitecache/internal/cache"
)

// JSONWriter outputs results as indented JSON documents.
type JSONWriter struct{}

func (j *JSONWriter) Value(w io.Writer, key string, value json.RawMessage) error {
	return writeJSON(w, struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}{key, value})
}

func (j *JSONWriter) Count(w io.Writer, action string, n int) error {
	return writeJSON(w, struct {
		Action  string `json:"action"`
		Removed int    `json:"removed"`
	}{action, n})
}

func (j *JSONWriter) Stats(w io.Writer, prefix string, s cache.Stats) error {
	return writeJSON(w, struct {
		Prefix string `json:"prefix"`
		cache.Stats
	}{prefix, s})
}

func (j *JSONWriter) Check(w io.Writer, r CheckResult) error {
	return writeJSON(w, r)
}

func (j *JSONWriter) Fetch(w io.Writer, results []FetchResult) error {
	if results == nil {
		results = []FetchResult{}
	}
	return writeJSON(w, results)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
