package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Cache.Prefix != "dmsite_cache_" {
		t.Errorf("Default prefix = %q, want %q", cfg.Cache.Prefix, "dmsite_cache_")
	}
	if cfg.Cache.TTLSeconds != 86400 {
		t.Errorf("Default ttlSeconds = %d, want 86400", cfg.Cache.TTLSeconds)
	}
	if !cfg.Cache.CleanOnOpen {
		t.Error("Default cleanOnOpen should be true")
	}
	if cfg.Storage.Backend != "dir" {
		t.Errorf("Default backend = %q, want %q", cfg.Storage.Backend, "dir")
	}
	if cfg.Format != "text" {
		t.Errorf("Default format = %q, want %q", cfg.Format, "text")
	}
	if cfg.Fetch.Concurrency != 4 {
		t.Errorf("Default concurrency = %d, want 4", cfg.Fetch.Concurrency)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestMergeEnv(t *testing.T) {
	t.Setenv("SITECACHE_PREFIX", "env_")
	t.Setenv("SITECACHE_BACKEND", "sqlite")
	t.Setenv("SITECACHE_PATH", "/tmp/cache.db")
	t.Setenv("SITECACHE_TTL_SECONDS", "60")
	t.Setenv("SITECACHE_CLEAN_ON_OPEN", "false")
	t.Setenv("SITECACHE_FORMAT", "json")
	t.Setenv("SITECACHE_LOG_LEVEL", "debug")
	t.Setenv("SITECACHE_FETCH_CONCURRENCY", "8")

	cfg := Default()
	if err := mergeEnv(&cfg); err != nil {
		t.Fatalf("mergeEnv error: %v", err)
	}

	if cfg.Cache.Prefix != "env_" {
		t.Errorf("Prefix = %q, want %q", cfg.Cache.Prefix, "env_")
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Backend = %q, want %q", cfg.Storage.Backend, "sqlite")
	}
	if cfg.Storage.Path != "/tmp/cache.db" {
		t.Errorf("Path = %q, want %q", cfg.Storage.Path, "/tmp/cache.db")
	}
	if cfg.Cache.TTLSeconds != 60 {
		t.Errorf("TTLSeconds = %d, want 60", cfg.Cache.TTLSeconds)
	}
	if cfg.Cache.CleanOnOpen {
		t.Error("CleanOnOpen should be false from env")
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Fetch.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Fetch.Concurrency)
	}
}

func TestMergeEnv_UnsetLeavesDefaults(t *testing.T) {
	cfg := Default()
	if err := mergeEnv(&cfg); err != nil {
		t.Fatalf("mergeEnv error: %v", err)
	}
	if !cfg.Cache.CleanOnOpen {
		t.Error("CleanOnOpen should keep its default when the variable is unset")
	}
}

func TestMergeEnv_InvalidTTL(t *testing.T) {
	t.Setenv("SITECACHE_TTL_SECONDS", "not-a-number")
	cfg := Default()
	if err := mergeEnv(&cfg); err == nil {
		t.Error("Expected error for non-integer SITECACHE_TTL_SECONDS")
	}
}

func TestMergeOverrides(t *testing.T) {
	cfg := Default()
	overrides := map[string]string{
		"cache.prefix":     "flag_",
		"cache.ttlSeconds": "120",
		"storage.backend":  "memory",
		"format":           "json",
		"log.level":        "",
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		t.Fatalf("mergeOverrides error: %v", err)
	}

	if cfg.Cache.Prefix != "flag_" {
		t.Errorf("Prefix = %q, want %q", cfg.Cache.Prefix, "flag_")
	}
	if cfg.Cache.TTLSeconds != 120 {
		t.Errorf("TTLSeconds = %d, want 120", cfg.Cache.TTLSeconds)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Backend = %q, want %q", cfg.Storage.Backend, "memory")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("empty override should be ignored, Log.Level = %q", cfg.Log.Level)
	}
}

func TestMergeOverrides_Nil(t *testing.T) {
	cfg := Default()
	if err := mergeOverrides(&cfg, nil); err != nil {
		t.Fatalf("mergeOverrides error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Config changed with nil overrides")
	}
}

func TestSetField(t *testing.T) {
	cfg := Default()
	for _, key := range Keys() {
		value := "x"
		switch key {
		case "cache.ttlSeconds", "storage.quotaBytes", "fetch.timeoutSeconds", "fetch.concurrency":
			value = "7"
		case "cache.cleanOnOpen":
			value = "false"
		}
		if err := SetField(&cfg, key, value); err != nil {
			t.Errorf("SetField(%q) error: %v", key, err)
		}
	}
	if cfg.Cache.TTLSeconds != 7 || cfg.Fetch.Concurrency != 7 || cfg.Storage.QuotaBytes != 7 {
		t.Errorf("numeric fields not set: %+v", cfg)
	}
	if cfg.Cache.CleanOnOpen {
		t.Error("CleanOnOpen should be false")
	}
	if cfg.Fetch.UserAgent != "x" || cfg.Log.Format != "x" {
		t.Errorf("string fields not set: %+v", cfg)
	}
}

func TestSetField_UnknownKey(t *testing.T) {
	cfg := Default()
	if err := SetField(&cfg, "provider", "anthropic"); err == nil {
		t.Error("Expected error for unknown key")
	}
}

func TestSetField_InvalidValues(t *testing.T) {
	cfg := Default()
	if err := SetField(&cfg, "cache.ttlSeconds", "abc"); err == nil {
		t.Error("Expected error for non-integer ttlSeconds")
	}
	if err := SetField(&cfg, "cache.cleanOnOpen", "maybe"); err == nil {
		t.Error("Expected error for non-boolean cleanOnOpen")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad format", func(c *Config) { c.Format = "xml" }},
		{"bad backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"zero ttl", func(c *Config) { c.Cache.TTLSeconds = 0 }},
		{"zero concurrency", func(c *Config) { c.Fetch.Concurrency = 0 }},
		{"negative timeout", func(c *Config) { c.Fetch.TimeoutSeconds = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestConfigPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := Default()
	cfg.Cache.Prefix = "file_"
	cfg.Storage.Backend = "sqlite"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	t.Setenv("SITECACHE_PREFIX", "env_")

	got, err := Load(map[string]string{"storage.backend": "memory"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Cache.Prefix != "env_" {
		t.Errorf("env should beat file: Prefix = %q", got.Cache.Prefix)
	}
	if got.Storage.Backend != "memory" {
		t.Errorf("overrides should beat file: Backend = %q", got.Storage.Backend)
	}
}

func TestMergeFile_BoolFields(t *testing.T) {
	dst := Default()
	src := Config{Cache: CacheConfig{CleanOnOpen: false}}

	mergeFile(&dst, src, func(key string) bool { return key == "cache.cleanOnOpen" })
	if dst.Cache.CleanOnOpen {
		t.Error("CleanOnOpen should be false when file explicitly sets it")
	}
}

func TestMergeFile_BoolFields_Unset(t *testing.T) {
	dst := Default()
	mergeFile(&dst, Config{}, func(string) bool { return false })
	if !dst.Cache.CleanOnOpen {
		t.Error("CleanOnOpen should keep its default when the file omits it")
	}
	if dst != Default() {
		t.Errorf("empty file should change nothing, got %+v", dst)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir error: %v", err)
	}
	if dir != "/tmp/xdg-test/sitecache" {
		t.Errorf("ConfigDir = %q, want %q", dir, "/tmp/xdg-test/sitecache")
	}

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath error: %v", err)
	}
	if path != "/tmp/xdg-test/sitecache/config.json" {
		t.Errorf("ConfigPath = %q, want %q", path, "/tmp/xdg-test/sitecache/config.json")
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Cache.Prefix = "saved_"
	cfg.Cache.CleanOnOpen = false
	cfg.Fetch.Concurrency = 9

	if err := Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.Cache.Prefix != "saved_" {
		t.Errorf("Prefix = %q, want %q", loaded.Cache.Prefix, "saved_")
	}
	if loaded.Fetch.Concurrency != 9 {
		t.Errorf("Concurrency = %d, want 9", loaded.Fetch.Concurrency)
	}

	merged, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if merged.Cache.CleanOnOpen {
		t.Error("explicit false in file should survive the merge")
	}
}

func TestLoadFile_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, "sitecache")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "cache:\n  prefix: yaml_\n  ttlSeconds: 300\nstorage:\n  backend: memory\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Cache.Prefix != "yaml_" || cfg.Cache.TTLSeconds != 300 || cfg.Storage.Backend != "memory" {
		t.Errorf("YAML config not applied: %+v", cfg)
	}
}

func TestLoadFile_NoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	// Should return zero config, not defaults
	if cfg.Cache.Prefix != "" {
		t.Errorf("Prefix should be empty for missing file, got %q", cfg.Cache.Prefix)
	}
}

func TestLoad_InvalidOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Load(map[string]string{"storage.backend": "redis"}); err == nil {
		t.Error("Expected validation error for unknown backend")
	}
}
