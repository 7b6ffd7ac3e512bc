package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrQuotaExceeded is returned by Set when the substrate is full.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrUnavailable is returned when the substrate refuses access entirely.
	ErrUnavailable = errors.New("storage unavailable")
)

// Store is a persistent string-keyed storage substrate.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	// Keys lists every key in the substrate.
	Keys() ([]string, error)
}

// PrefixLister is implemented by substrates that can list keys sharing a
// prefix without scanning the whole key space.
type PrefixLister interface {
	KeysWithPrefix(prefix string) ([]string, error)
}

// KeysWithPrefix lists the keys of s that start with prefix, using the
// substrate's own prefix scan when it has one.
func KeysWithPrefix(s Store, prefix string) ([]string, error) {
	if pl, ok := s.(PrefixLister); ok {
		return pl.KeysWithPrefix(prefix)
	}
	all, err := s.Keys()
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendDir    = "dir"
	BackendSQLite = "sqlite"
)

// Open creates a Store by backend name. path is the cache directory for the
// dir backend and the database file for sqlite; an empty path selects the
// default location. quota bounds the memory backend in bytes (0 = unbounded).
func Open(backend, path string, quota int) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemory(quota), nil
	case BackendDir:
		return OpenDir(path)
	case BackendSQLite:
		if path == "" {
			dir, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "cache.db")
		}
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

// Close releases resources held by s, if it holds any.
func Close(s Store) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
