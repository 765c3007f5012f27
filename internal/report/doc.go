// Package report writes visualization items as an xlsx workbook, one row per
// heatmap cell in render order.
package report
