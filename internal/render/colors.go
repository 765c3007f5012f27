package render

import "image/color"

var (
	ColorPositive = color.RGBA{0x01, 0x8f, 0x35, 0xff}
	ColorNegative = color.RGBA{0xdc, 0x26, 0x26, 0xff}
	ColorNeutral  = color.RGBA{0x8f, 0x97, 0x79, 0xff}

	ColorBackground  = color.RGBA{0x0b, 0x0f, 0x14, 0xff}
	ColorBorder      = color.RGBA{0x0b, 0x0f, 0x14, 0xff}
	ColorText        = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ColorPlaceholder = color.RGBA{0x33, 0x33, 0x33, 0x33} // premultiplied translucent white
	ColorWatermark   = color.RGBA{0x99, 0x99, 0x99, 0x99}
)

// ColorFor returns the cell fill for a percent change.
func ColorFor(pc float64) color.RGBA {
	switch {
	case pc > 0:
		return ColorPositive
	case pc < 0:
		return ColorNegative
	default:
		return ColorNeutral
	}
}
