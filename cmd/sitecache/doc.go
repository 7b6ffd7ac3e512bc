// Sitecache is a CLI for inspecting and maintaining an expiring JSON cache.
//
// Entries live under a namespace prefix in a storage backend (a directory of
// JSON files, a SQLite database, or process memory) and expire after a TTL.
//
// Usage:
//
//	sitecache set profile '{"name":"x"}' --ttl 2h   # store a value
//	sitecache get profile                          # print a live value
//	sitecache fetch https://example.com/pubs.json  # fetch JSON through the cache
//	sitecache stats                                # entry counts and size
//	sitecache clean                                # drop expired entries
//	sitecache check                                # probe the backend
package main
