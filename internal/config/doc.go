// Package config loads and merges sitecache configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (SITECACHE_PREFIX, SITECACHE_BACKEND, SITECACHE_TTL_SECONDS, etc.)
//  3. Config file ($XDG_CONFIG_HOME/sitecache/config.json, or config.yaml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single dotted key such as "cache.prefix".
package config
