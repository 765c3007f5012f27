package render

import (
	"image"
	"image/color"
)

// Surface receives draw calls. Implementations clip to their own bounds.
type Surface interface {
	Bounds() Rect
	FillRoundRect(r Rect, radius float64, c color.Color)
	StrokeRoundRect(r Rect, radius, width float64, c color.Color)
	FillDiamond(r Rect, c color.Color)
	DrawImage(img image.Image, dst Rect)
	DrawText(text string, size float64, bold bool, box Rect, c color.Color)
}
