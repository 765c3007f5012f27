// Package model defines shared data types used across the gift heatmap engine.
//
// Conventions:
//   - Prices: float64 in the record's currency (TON or USD)
//   - Market caps: compact display strings as published by the market feed ("203.07K", "1.5M")
//   - Historical prices: nil pointer means "not reported", never zero
//   - Image keys: normalized absolute URLs
//   - IDs: uuid.UUID for export jobs
package model
