package storage

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
)

// dirRecord is the on-disk form of one key. The file name is a hash, so the
// key itself is stored alongside the value for listing.
type dirRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Dir is a Store that keeps one JSON file per key in a directory.
type Dir struct {
	dir string
}

// OpenDir opens (creating if needed) a directory-backed store. If dir is
// empty, the default cache directory is used.
func OpenDir(dir string) (*Dir, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Dir{dir: dir}, nil
}

// Path returns the directory the store writes into.
func (d *Dir) Path() string {
	return d.dir
}

func (d *Dir) Get(key string) (string, bool, error) {
	rec, err := d.read(d.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return rec.Value, true, nil
}

func (d *Dir) Set(key, value string) error {
	data, err := json.Marshal(dirRecord{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	tmp, err := os.CreateTemp(d.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", mapDiskErr(err))
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing record: %w", mapDiskErr(err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing record: %w", mapDiskErr(err))
	}
	if err := os.Rename(tmp.Name(), d.entryPath(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming record: %w", err)
	}
	return nil
}

func (d *Dir) Remove(key string) error {
	if err := os.Remove(d.entryPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing record: %w", err)
	}
	return nil
}

func (d *Dir) Keys() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		rec, err := d.read(filepath.Join(d.dir, e.Name()))
		if err != nil {
			// Removed concurrently or not one of ours.
			continue
		}
		keys = append(keys, rec.Key)
	}
	return keys, nil
}

func (d *Dir) read(path string) (dirRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dirRecord{}, err
	}
	var rec dirRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return dirRecord{}, fmt.Errorf("parsing record %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

func (d *Dir) entryPath(key string) string {
	return filepath.Join(d.dir, HashKey(key)+".json")
}

// HashKey returns the hex SHA-256 of key.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

func mapDiskErr(err error) error {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	if os.IsPermission(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// DefaultDir returns the platform-appropriate cache directory for sitecache.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "sitecache"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "sitecache"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "sitecache", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "sitecache", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "sitecache"), nil
	}
}
