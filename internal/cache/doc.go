// Package cache provides a namespaced, TTL-bounded key-value cache over a
// persistent string-keyed substrate.
//
// Every entry is stored under prefix+key as a JSON envelope:
//
//	{"data": <value>, "expiry": <epoch ms>, "timestamp": <epoch ms>}
//
// An entry is live while now < expiry. Expired and unparsable entries are
// treated as absent by every read path and are removed lazily on [Cache.Get]
// or in bulk by [Cache.CleanExpired]. The cache keeps no in-memory copy; the
// substrate is the only owner of entries, and an entry the substrate dropped
// on its own is an ordinary miss.
//
// Apart from [Cache.CachedFetch], operations never return errors: failures
// degrade to false, zero or a miss and are logged. CachedFetch returns a
// [*FetchError] that distinguishes network, HTTP status and parse failures,
// and caches nothing when it fails.
//
// Multi-key operations (Clear, CleanExpired, GetStats) walk the namespace
// key by key and are not atomic with respect to concurrent writers.
// Concurrent misses for the same fetch key are not de-duplicated.
package cache
