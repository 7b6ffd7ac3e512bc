package cache

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/dylanmikesell/sitecache/internal/redact"
	"github.com/dylanmikesell/sitecache/internal/storage"
)

// Entry is the envelope persisted for every key.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Expiry    int64           `json:"expiry"`    // epoch ms
	Timestamp int64           `json:"timestamp"` // epoch ms, informational
}

// Expired reports whether the entry's TTL has elapsed at now. Reaching the
// expiry instant counts as expired.
func (e Entry) Expired(now time.Time) bool {
	return now.UnixMilli() >= e.Expiry
}

var errMissingData = errors.New("cache entry has no data")

func decodeEntry(raw string) (Entry, error) {
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, err
	}
	if len(e.Data) == 0 {
		return Entry{}, errMissingData
	}
	return e, nil
}

// Stats summarises the entries under the cache prefix.
type Stats struct {
	TotalEntries   int     `json:"totalEntries"`
	ExpiredEntries int     `json:"expiredEntries"`
	ActiveEntries  int     `json:"activeEntries"`
	TotalSizeBytes int64   `json:"totalSizeBytes"`
	TotalSizeKB    float64 `json:"totalSizeKB"`
}

// GetStats scans the namespace without modifying it. Corrupt entries count
// as expired. It reports false only when the substrate cannot list keys.
func (c *Cache) GetStats() (Stats, bool) {
	keys, err := storage.KeysWithPrefix(c.store, c.prefix)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache stats failed")
		return Stats{}, false
	}
	now := c.now()
	var s Stats
	for _, k := range keys {
		raw, ok, err := c.store.Get(k)
		if err != nil {
			c.log.Warn().Err(err).Str("key", redact.Key(k)).Msg("cache stats: read failed")
			continue
		}
		if !ok {
			continue
		}
		s.TotalEntries++
		s.TotalSizeBytes += int64(len(raw))
		if entry, err := decodeEntry(raw); err != nil || entry.Expired(now) {
			s.ExpiredEntries++
		}
	}
	s.ActiveEntries = s.TotalEntries - s.ExpiredEntries
	s.TotalSizeKB = math.Round(float64(s.TotalSizeBytes)/1024*100) / 100
	return s, true
}
