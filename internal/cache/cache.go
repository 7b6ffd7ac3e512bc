package cache

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dylanmikesell/sitecache/internal/redact"
	"github.com/dylanmikesell/sitecache/internal/storage"
	"github.com/dylanmikesell/sitecache/internal/transport"
)

const (
	// DefaultPrefix namespaces entries written by this cache.
	DefaultPrefix = "dmsite_cache_"
	// DefaultTTL applies when no TTL is given.
	DefaultTTL = 24 * time.Hour

	probeKey   = "__cache_test__"
	tracerName = "github.com/dylanmikesell/sitecache/internal/cache"
)

// Options configures a Cache. Zero fields take their defaults.
type Options struct {
	Prefix     string
	DefaultTTL time.Duration
	Logger     zerolog.Logger
	Transport  transport.Transport
	// Now is the clock used for expiry; time.Now when nil.
	Now func() time.Time
	// CleanOnOpen sweeps expired entries once during New.
	CleanOnOpen bool
}

// Cache is an expiring key-value cache over a storage.Store.
type Cache struct {
	store      storage.Store
	prefix     string
	defaultTTL time.Duration
	transport  transport.Transport
	log        zerolog.Logger
	now        func() time.Time
	tracer     trace.Tracer
}

// New creates a Cache over store. Configuration is fixed for its lifetime.
func New(store storage.Store, opts Options) *Cache {
	c := &Cache{
		store:      store,
		prefix:     opts.Prefix,
		defaultTTL: opts.DefaultTTL,
		transport:  opts.Transport,
		log:        opts.Logger.With().Str("component", "cache").Logger(),
		now:        opts.Now,
		tracer:     otel.Tracer(tracerName),
	}
	if c.prefix == "" {
		c.prefix = DefaultPrefix
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = DefaultTTL
	}
	if c.transport == nil {
		c.transport = transport.NewHTTP(nil)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if opts.CleanOnOpen {
		c.CleanExpired()
	}
	return c
}

// Prefix returns the namespace prepended to every key.
func (c *Cache) Prefix() string {
	return c.prefix
}

// DefaultTTL returns the TTL used by Set and Fetch.
func (c *Cache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) bool {
	return c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key, replacing any previous entry. It reports
// false if value cannot be serialized or the substrate rejects the write.
// A non-positive ttl produces an entry that is already expired.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", redact.Key(key)).Msg("cache set failed")
		return false
	}
	now := c.now()
	raw, err := json.Marshal(Entry{
		Data:      data,
		Expiry:    now.Add(ttl).UnixMilli(),
		Timestamp: now.UnixMilli(),
	})
	if err != nil {
		c.log.Warn().Err(err).Str("key", redact.Key(key)).Msg("cache set failed")
		return false
	}
	if err := c.store.Set(c.prefix+key, string(raw)); err != nil {
		c.log.Warn().Err(err).Str("key", redact.Key(key)).Msg("cache set failed")
		return false
	}
	c.log.Debug().
		Str("key", redact.Key(key)).
		Int64("ttl_minutes", int64(math.Round(ttl.Minutes()))).
		Msg("cache set")
	return true
}

// Get returns the data stored under key if the entry is live. Expired and
// corrupt entries are removed and reported as a miss.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	raw, ok, err := c.store.Get(c.prefix + key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", redact.Key(key)).Msg("cache get failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	entry, err := decodeEntry(raw)
	if err != nil {
		c.log.Warn().Err(err).Str("key", redact.Key(key)).Msg("removing corrupt cache entry")
		c.Delete(key)
		return nil, false
	}
	if entry.Expired(c.now()) {
		c.Delete(key)
		c.log.Debug().Str("key", redact.Key(key)).Msg("cache expired")
		return nil, false
	}
	c.log.Debug().Str("key", redact.Key(key)).Msg("cache hit")
	return entry.Data, true
}

// GetAs is Get followed by decoding the data into T. Data that does not
// decode into T is a miss; the entry itself is left in place.
func GetAs[T any](c *Cache, key string) (T, bool) {
	var v T
	data, ok := c.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.Warn().Err(err).Str("key", redact.Key(key)).Msg("cache value has unexpected shape")
		return v, false
	}
	return v, true
}

// Delete removes key. Deleting an absent key is a no-op.
func (c *Cache) Delete(key string) {
	if err := c.store.Remove(c.prefix + key); err != nil {
		c.log.Warn().Err(err).Str("key", redact.Key(key)).Msg("cache delete failed")
		return
	}
	c.log.Debug().Str("key", redact.Key(key)).Msg("cache deleted")
}

// Clear removes every entry under the prefix and returns how many were removed.
func (c *Cache) Clear() int {
	keys, err := storage.KeysWithPrefix(c.store, c.prefix)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache clear failed")
		return 0
	}
	removed := 0
	for _, k := range keys {
		if err := c.store.Remove(k); err != nil {
			c.log.Warn().Err(err).Str("key", redact.Key(k)).Msg("cache clear: remove failed")
			continue
		}
		removed++
	}
	c.log.Info().Int("removed", removed).Msg("cache cleared")
	return removed
}

// CleanExpired removes expired and corrupt entries under the prefix and
// returns how many were removed. A failure on one key does not stop the scan.
func (c *Cache) CleanExpired() int {
	keys, err := storage.KeysWithPrefix(c.store, c.prefix)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache cleaning failed")
		return 0
	}
	now := c.now()
	removed := 0
	for _, k := range keys {
		raw, ok, err := c.store.Get(k)
		if err != nil {
			c.log.Warn().Err(err).Str("key", redact.Key(k)).Msg("cache cleaning: read failed")
			continue
		}
		if !ok {
			continue
		}
		if entry, err := decodeEntry(raw); err == nil && !entry.Expired(now) {
			continue
		}
		if err := c.store.Remove(k); err != nil {
			c.log.Warn().Err(err).Str("key", redact.Key(k)).Msg("cache cleaning: remove failed")
			continue
		}
		removed++
	}
	if removed > 0 {
		c.log.Info().Int("removed", removed).Msg("cache cleaned")
	}
	return removed
}

// IsAvailable probes the substrate with a throwaway write and remove.
func (c *Cache) IsAvailable() bool {
	key := probeKey + uuid.NewString()
	if err := c.store.Set(key, "test"); err != nil {
		c.log.Debug().Err(err).Msg("storage unavailable")
		return false
	}
	if err := c.store.Remove(key); err != nil {
		c.log.Debug().Err(err).Msg("storage unavailable")
		return false
	}
	return true
}
