// Package output formats sitecache command results for display or machine
// consumption.
//
// Two formats are supported:
//   - text: human-readable terminal output (default), sizes via go-humanize
//   - json: indented JSON documents
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// the method matching the command result with an [io.Writer].
package output
