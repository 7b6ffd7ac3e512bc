package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dylanmikesell/sitecache/internal/cache"
)

func TestJSONWriter_Stats(t *testing.T) {
	stats := cache.Stats{TotalEntries: 3, ExpiredEntries: 1, ActiveEntries: 2, TotalSizeBytes: 300, TotalSizeKB: 0.29}

	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Stats(&buf, "dmsite_cache_", stats); err != nil {
		t.Fatalf("Stats error: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed["prefix"] != "dmsite_cache_" {
		t.Errorf("prefix = %v", parsed["prefix"])
	}
	if parsed["totalEntries"] != float64(3) {
		t.Errorf("totalEntries = %v, want 3", parsed["totalEntries"])
	}
	if parsed["totalSizeKB"] != 0.29 {
		t.Errorf("totalSizeKB = %v, want 0.29", parsed["totalSizeKB"])
	}
}

func TestJSONWriter_Value(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Value(&buf, "profile", json.RawMessage(`{"name":"x"}`)); err != nil {
		t.Fatalf("Value error: %v", err)
	}

	var parsed struct {
		Key   string `json:"key"`
		Value struct {
			Name string `json:"name"`
		} `json:"value"`
	}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.Key != "profile" || parsed.Value.Name != "x" {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestJSONWriter_FetchEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Fetch(&buf, nil); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if buf.String() != "[]\n" {
		t.Errorf("Fetch(nil) = %q, want %q", buf.String(), "[]\n")
	}
}

func TestJSONWriter_FetchResults(t *testing.T) {
	results := []FetchResult{
		{URL: "https://a", Data: json.RawMessage(`{"ok":true}`)},
		{URL: "https://b", Kind: "network", Error: "connection refused"},
	}
	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Fetch(&buf, results); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	var parsed []FetchResult
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("len = %d, want 2", len(parsed))
	}
	if !parsed[0].OK() || parsed[1].OK() {
		t.Errorf("OK flags wrong: %+v", parsed)
	}
	if parsed[1].Kind != "network" {
		t.Errorf("Kind = %q", parsed[1].Kind)
	}
}
