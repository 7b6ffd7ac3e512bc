// Package cli wires together the Cobra command tree for the sitecache binary.
//
// The root command loads configuration, opens the storage backend and builds
// a cache before each cache subcommand (get, set, delete, clear, clean, stats,
// check, fetch). Commands that write sweep expired entries afterwards. config
// and version run without touching storage. [Run] returns a deterministic
// exit code.
package cli
