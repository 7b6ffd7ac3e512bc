package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dylanmikesell/sitecache/internal/cache"
)

// TextWriter outputs human-readable text.
type TextWriter struct{}

// Value prints the stored JSON indented, without the key.
func (t *TextWriter) Value(w io.Writer, key string, value json.RawMessage) error {
	ew := &errWriter{w: w}
	var buf bytes.Buffer
	if err := json.Indent(&buf, value, "", "  "); err != nil {
		ew.println(string(value))
		return ew.err
	}
	ew.println(buf.String())
	return ew.err
}

func (t *TextWriter) Count(w io.Writer, action string, n int) error {
	ew := &errWriter{w: w}
	ew.printf("%s: %s %s removed\n", action, humanize.Comma(int64(n)), plural(n, "entry", "entries"))
	return ew.err
}

func (t *TextWriter) Stats(w io.Writer, prefix string, s cache.Stats) error {
	ew := &errWriter{w: w}
	ew.printf("Cache namespace %q\n", prefix)
	ew.println(strings.Repeat("─", 40))
	ew.printf("  Entries:  %s total (%s active, %s expired)\n",
		humanize.Comma(int64(s.TotalEntries)),
		humanize.Comma(int64(s.ActiveEntries)),
		humanize.Comma(int64(s.ExpiredEntries)),
	)
	size := int64(0)
	if s.TotalSizeBytes > 0 {
		size = s.TotalSizeBytes
	}
	ew.printf("  Size:     %s (%.2f KB)\n", humanize.Bytes(uint64(size)), s.TotalSizeKB)
	return ew.err
}

func (t *TextWriter) Check(w io.Writer, r CheckResult) error {
	ew := &errWriter{w: w}
	state := "available"
	if !r.Available {
		state = "UNAVAILABLE"
	}
	ew.printf("Storage %s (namespace %q): %s\n", r.Backend, r.Prefix, state)
	return ew.err
}

func (t *TextWriter) Fetch(w io.Writer, results []FetchResult) error {
	ew := &errWriter{w: w}
	failed := 0
	for _, r := range results {
		if r.OK() {
			ew.printf("[ok]   %s  %s\n", r.URL, humanize.Bytes(uint64(len(r.Data))))
			continue
		}
		failed++
		ew.printf("[fail] %s  %s (%s)\n", r.URL, r.Error, r.Kind)
	}
	ew.printf("%d fetched, %d failed\n", len(results)-failed, failed)
	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
