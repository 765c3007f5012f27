// Package render draws treemap cells.
//
// Layout is a pure function from a cell rectangle, one visualization item and
// the item's image state to a CellLayout: every box it returns lies inside
// the cell. DrawCell replays a layout onto a Surface. RenderChart draws all
// cells in order, isolating per-cell panics, and finishes with one watermark.
//
// Canvas is the raster Surface used for previews and exports. It is backed by
// *image.RGBA and draws with golang.org/x/image (vector paths, scaled images,
// Go fonts).
package render
