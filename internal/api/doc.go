// Package api exposes the heatmap over HTTP with gin.
//
// Routes:
//   - GET  /health
//   - GET  /api/v1/heatmap             preview PNG
//   - POST /api/v1/heatmap/export      full-resolution export
//   - GET  /api/v1/heatmap/items.xlsx  spreadsheet of the cells
//   - GET  /api/v1/exports/:name       saved export artifacts
//   - POST /api/send-image             relay an image to a Telegram user
//
// Requests carrying a valid X-Telegram-Init-Data header export as the
// embedded host platform; all others export standalone.
package api
