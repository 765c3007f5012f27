// Package imagecache stores encoded image bytes keyed by normalized URL.
//
// Three implementations share the Cache interface:
//   - Memory: bounded in-process LRU
//   - SQLite: persistent store with a time-to-live, backed by a pure-Go driver
//   - Tiered: ordered tiers, promoting hits to faster tiers and writing through
//
// Writes are idempotent and best effort. Callers treat a Put error as a log line,
// never as a failure of the image load that produced the bytes.
package imagecache
