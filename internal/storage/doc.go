// Package storage provides the persistent string-keyed substrates the cache
// writes its entries into.
//
// Every substrate implements [Store]: synchronous, process-local get, set,
// remove and key listing. Single-key operations are atomic; nothing spans
// more than one key. Substrates that can enumerate keys by prefix without a
// full scan also implement [PrefixLister].
//
// Three substrates are provided:
//   - memory: in-process radix tree with an optional byte quota
//   - dir: one JSON file per key under a cache directory
//   - sqlite: a single-table SQLite database
//
// Use [Open] to obtain a Store by backend name.
package storage
