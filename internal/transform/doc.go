// Package transform turns market records into treemap visualization items.
//
// Transform is pure: it never returns an error and never panics on bad input.
// Malformed market caps parse as zero, missing history reads as "unchanged",
// and a zero reference price yields a zero change.
//
// Sizing per mode:
//
//	movement:        max(6, |pc| < 4 ? 12 : 3*(|pc|+1)^1.4)
//	capitalization:  sqrt(marketCap) / 100
//	holding:         max(10, sqrt(price) * 5)
package transform
