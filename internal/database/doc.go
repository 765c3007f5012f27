// Package database manages the PostgreSQL pool that backs the market feed.
//
// The gift_market table holds one row per gift, refreshed by the upstream
// collector or by the heatmap CLI's import command.
package database
