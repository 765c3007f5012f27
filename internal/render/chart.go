package render

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/rickgao/gift-heatmap/internal/model"
)

// Partitioner assigns one rectangle per size within bounds, in input order.
type Partitioner interface {
	Partition(sizes []float64, bounds Rect) []Rect
}

// ImageSource returns the current state of an image without blocking.
type ImageSource interface {
	Lookup(ref string) model.ResolvedImage
}

// Cell pairs an item with its partitioned rectangle.
type Cell struct {
	Rect Rect
	Item model.VisualizationItem
}

// Cells partitions items within bounds.
func Cells(p Partitioner, items []model.VisualizationItem, bounds Rect) []Cell {
	sizes := make([]float64, len(items))
	for i, it := range items {
		sizes[i] = it.Size
	}
	rects := p.Partition(sizes, bounds)

	cells := make([]Cell, 0, len(items))
	for i, it := range items {
		if i >= len(rects) {
			break
		}
		cells = append(cells, Cell{Rect: rects[i], Item: it})
	}
	return cells
}

// ChartOptions configures one full chart render.
type ChartOptions struct {
	Layout    LayoutOptions
	Watermark string
	Logger    *slog.Logger
}

// Stats summarizes a chart render.
type Stats struct {
	Cells        int
	Drawn        int
	Failed       int // cells skipped after a panic
	Images       int
	Placeholders int
	Watermark    bool
}

// RenderChart draws every cell in order, then the watermark. A panic while
// drawing one cell is logged and that cell is skipped.
func RenderChart(s Surface, cells []Cell, images ImageSource, opts ChartOptions) Stats {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stats := Stats{Cells: len(cells)}
	for i, c := range cells {
		mode, err := drawCellSafe(s, c, images, opts.Layout)
		if err != nil {
			stats.Failed++
			logger.Warn("cell render failed", "index", i, "name", c.Item.Name, "error", err)
			continue
		}
		stats.Drawn++
		switch mode {
		case ImageDraw:
			stats.Images++
		case ImagePlaceholder:
			stats.Placeholders++
		}
	}

	if opts.Watermark != "" {
		if err := drawWatermarkSafe(s, opts.Watermark, opts.Layout); err != nil {
			logger.Warn("watermark render failed", "error", err)
		} else {
			stats.Watermark = true
		}
	}
	return stats
}

func drawCellSafe(s Surface, c Cell, images ImageSource, opts LayoutOptions) (mode ImageMode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	var img model.ResolvedImage
	if images != nil {
		img = images.Lookup(c.Item.ImageRef)
	}
	l := Layout(c.Rect, c.Item, img, opts)
	DrawCell(s, l, img)
	return l.ImageMode, nil
}

// DrawCell replays a layout. img must be the state the layout was computed from.
func DrawCell(s Surface, l CellLayout, img model.ResolvedImage) {
	if l.Cell.Empty() {
		return
	}
	s.FillRoundRect(l.Cell, l.Radius, l.Fill)
	if l.Stroke > 0 {
		s.StrokeRoundRect(l.Cell, l.Radius, l.Stroke, ColorBorder)
	}

	switch l.ImageMode {
	case ImageDraw:
		s.DrawImage(img.Image, l.ImageBox)
	case ImagePlaceholder:
		s.FillRoundRect(l.ImageBox, math.Min(l.ImageBox.W, l.ImageBox.H)/6, ColorPlaceholder)
	}

	for _, line := range l.Lines {
		textBox := line.Box
		if line.Glyph != GlyphNone {
			s.FillDiamond(line.GlyphBox, line.Color)
			shift := line.GlyphBox.W * 1.3
			textBox.X += shift
			textBox.W -= shift
		}
		s.DrawText(line.Text, line.Size, line.Bold, textBox, line.Color)
	}
}

// WatermarkBox returns where a watermark of the given text sits: anchored to
// the bottom-right corner of bounds, inset by a margin.
func WatermarkBox(m Measurer, text string, bounds Rect, scale float64) (Rect, float64) {
	if scale <= 0 || !finite(scale) {
		scale = 1
	}
	size := clamp(bounds.MinDim()/40, 8, 28) * scale
	margin := size * 0.6
	w := m.Measure(text, size, true)
	h := m.LineHeight(size, true)
	box := Rect{X: bounds.Right() - margin - w, Y: bounds.Bottom() - margin - h, W: w, H: h}
	return box.Intersect(bounds), size
}

func drawWatermarkSafe(s Surface, text string, opts LayoutOptions) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	box, size := WatermarkBox(opts.Fonts, text, s.Bounds(), opts.Scale)
	s.DrawText(text, size, true, box, ColorWatermark)
	return nil
}
