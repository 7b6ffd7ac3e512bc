package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// Config represents the sitecache configuration.
type Config struct {
	Format  string        `json:"format" mapstructure:"format"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Fetch   FetchConfig   `json:"fetch" mapstructure:"fetch"`
	Log     LogConfig     `json:"log" mapstructure:"log"`
}

// CacheConfig controls the cache namespace and expiry.
type CacheConfig struct {
	Prefix      string `json:"prefix" mapstructure:"prefix"`
	TTLSeconds  int    `json:"ttlSeconds" mapstructure:"ttlSeconds"`
	CleanOnOpen bool   `json:"cleanOnOpen" mapstructure:"cleanOnOpen"`
}

// StorageConfig selects the storage substrate.
type StorageConfig struct {
	Backend    string `json:"backend" mapstructure:"backend"`
	Path       string `json:"path,omitempty" mapstructure:"path"`
	QuotaBytes int    `json:"quotaBytes,omitempty" mapstructure:"quotaBytes"`
}

// FetchConfig controls network requests made by the fetch command.
type FetchConfig struct {
	TimeoutSeconds int    `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
	UserAgent      string `json:"userAgent" mapstructure:"userAgent"`
	Concurrency    int    `json:"concurrency" mapstructure:"concurrency"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// envConfig mirrors the settings that may come from SITECACHE_* variables.
type envConfig struct {
	Format       string `env:"SITECACHE_FORMAT"`
	Prefix       string `env:"SITECACHE_PREFIX"`
	TTLSeconds   int    `env:"SITECACHE_TTL_SECONDS"`
	CleanOnOpen  *bool  `env:"SITECACHE_CLEAN_ON_OPEN"`
	Backend      string `env:"SITECACHE_BACKEND"`
	Path         string `env:"SITECACHE_PATH"`
	QuotaBytes   int    `env:"SITECACHE_QUOTA_BYTES"`
	FetchTimeout int    `env:"SITECACHE_FETCH_TIMEOUT_SECONDS"`
	UserAgent    string `env:"SITECACHE_USER_AGENT"`
	Concurrency  int    `env:"SITECACHE_FETCH_CONCURRENCY"`
	LogLevel     string `env:"SITECACHE_LOG_LEVEL"`
	LogFormat    string `env:"SITECACHE_LOG_FORMAT"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Format: "text",
		Cache: CacheConfig{
			Prefix:      "dmsite_cache_",
			TTLSeconds:  86400,
			CleanOnOpen: true,
		},
		Storage: StorageConfig{
			Backend: "dir",
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 30,
			UserAgent:      "sitecache",
			Concurrency:    4,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "auto",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for sitecache.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sitecache"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "sitecache"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "sitecache"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "sitecache"), nil
	default:
		return filepath.Join(home, ".config", "sitecache"), nil
	}
}

// ConfigPath returns the full path to the config file written by Save.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// readFile loads the first config file found in the config directory
// (config.json, config.yaml, config.yml). It returns nil when none exists.
func readFile() (*viper.Viper, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return v, nil
	}
	return nil, nil
}

// LoadFile loads config from the config file. Returns zero Config and nil error if file doesn't exist.
func LoadFile() (Config, error) {
	v, err := readFile()
	if err != nil || v == nil {
		return Config{}, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags and uses SetField key names; empty
// values are ignored.
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	v, err := readFile()
	if err != nil {
		return Config{}, err
	}
	if v != nil {
		var fileCfg Config
		if err := v.Unmarshal(&fileCfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
		mergeFile(&cfg, fileCfg, v.IsSet)
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile copies non-zero values from src. Booleans are copied only when
// the file sets them, since false is also the zero value.
func mergeFile(dst *Config, src Config, isSet func(string) bool) {
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.Cache.Prefix != "" {
		dst.Cache.Prefix = src.Cache.Prefix
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	if isSet("cache.cleanOnOpen") {
		dst.Cache.CleanOnOpen = src.Cache.CleanOnOpen
	}
	if src.Storage.Backend != "" {
		dst.Storage.Backend = src.Storage.Backend
	}
	if src.Storage.Path != "" {
		dst.Storage.Path = src.Storage.Path
	}
	if src.Storage.QuotaBytes > 0 {
		dst.Storage.QuotaBytes = src.Storage.QuotaBytes
	}
	if src.Fetch.TimeoutSeconds > 0 {
		dst.Fetch.TimeoutSeconds = src.Fetch.TimeoutSeconds
	}
	if src.Fetch.UserAgent != "" {
		dst.Fetch.UserAgent = src.Fetch.UserAgent
	}
	if src.Fetch.Concurrency > 0 {
		dst.Fetch.Concurrency = src.Fetch.Concurrency
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
}

func mergeEnv(cfg *Config) error {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if e.Format != "" {
		cfg.Format = e.Format
	}
	if e.Prefix != "" {
		cfg.Cache.Prefix = e.Prefix
	}
	if e.TTLSeconds > 0 {
		cfg.Cache.TTLSeconds = e.TTLSeconds
	}
	if e.CleanOnOpen != nil {
		cfg.Cache.CleanOnOpen = *e.CleanOnOpen
	}
	if e.Backend != "" {
		cfg.Storage.Backend = e.Backend
	}
	if e.Path != "" {
		cfg.Storage.Path = e.Path
	}
	if e.QuotaBytes > 0 {
		cfg.Storage.QuotaBytes = e.QuotaBytes
	}
	if e.FetchTimeout > 0 {
		cfg.Fetch.TimeoutSeconds = e.FetchTimeout
	}
	if e.UserAgent != "" {
		cfg.Fetch.UserAgent = e.UserAgent
	}
	if e.Concurrency > 0 {
		cfg.Fetch.Concurrency = e.Concurrency
	}
	if e.LogLevel != "" {
		cfg.Log.Level = e.LogLevel
	}
	if e.LogFormat != "" {
		cfg.Log.Format = e.LogFormat
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	// Sorted so the first reported error is deterministic.
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if overrides[k] == "" {
			continue
		}
		if err := SetField(cfg, k, overrides[k]); err != nil {
			return err
		}
	}
	return nil
}

// Keys lists the names accepted by SetField.
func Keys() []string {
	return []string{
		"format",
		"cache.prefix", "cache.ttlSeconds", "cache.cleanOnOpen",
		"storage.backend", "storage.path", "storage.quotaBytes",
		"fetch.timeoutSeconds", "fetch.userAgent", "fetch.concurrency",
		"log.level", "log.format",
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "format":
		cfg.Format = value
	case "cache.prefix":
		cfg.Cache.Prefix = value
	case "cache.ttlSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache.ttlSeconds must be an integer: %w", err)
		}
		cfg.Cache.TTLSeconds = n
	case "cache.cleanOnOpen":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache.cleanOnOpen must be a boolean: %w", err)
		}
		cfg.Cache.CleanOnOpen = b
	case "storage.backend":
		cfg.Storage.Backend = value
	case "storage.path":
		cfg.Storage.Path = value
	case "storage.quotaBytes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("storage.quotaBytes must be an integer: %w", err)
		}
		cfg.Storage.QuotaBytes = n
	case "fetch.timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("fetch.timeoutSeconds must be an integer: %w", err)
		}
		cfg.Fetch.TimeoutSeconds = n
	case "fetch.userAgent":
		cfg.Fetch.UserAgent = value
	case "fetch.concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("fetch.concurrency must be an integer: %w", err)
		}
		cfg.Fetch.Concurrency = n
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Validate checks enumerated and numeric fields.
func (c Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q (want text or json)", c.Format)
	}
	switch c.Storage.Backend {
	case "memory", "dir", "sqlite":
	default:
		return fmt.Errorf("invalid storage.backend %q (want memory, dir or sqlite)", c.Storage.Backend)
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttlSeconds must be positive")
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be positive")
	}
	if c.Fetch.TimeoutSeconds < 0 {
		return fmt.Errorf("fetch.timeoutSeconds must not be negative")
	}
	return nil
}
