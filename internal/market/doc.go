// Package market keeps the current batch of gift market records.
//
// The Registry:
//   - Loads records from a Source (PostgreSQL or a JSON file) on startup
//   - Reloads them periodically, replacing the whole batch at once
//   - Keeps the last good batch when a reload fails
//   - Signals subscribers after every successful load
package market
