package render

import (
	"image/color"
	"math"

	"github.com/rickgao/gift-heatmap/internal/model"
)

// Layout constants. Sizes are in pixels before the render scale is applied.
const (
	CornerRadius       = 4.0
	BorderWidth        = 2.0
	MinStroke          = 1.0
	MinTitleSize       = 4.0
	MinBodySize        = 3.0
	MaxTitleSize       = 24.0
	HighScaleThreshold = 2.0
	HighScaleReduction = 0.85
	ImageFraction      = 0.3
	MinImageEdge       = 22.0
	PlaceholderMinCell = 30.0
	MarketCapMinDim    = 60.0
	HeightBudget       = 0.95
	WidthBudget        = 0.9
)

// ImageMode says what occupies the image slot of a cell.
type ImageMode int

const (
	ImageNone ImageMode = iota
	ImageDraw
	ImagePlaceholder
)

// Glyph is a small shape drawn before a text line.
type Glyph int

const (
	GlyphNone Glyph = iota
	GlyphTON        // rhombus standing in for the TON mark
)

// LayoutOptions carries what is shared by every cell of one render.
type LayoutOptions struct {
	Scale     float64 // render scale, 1 for previews
	ChartType model.ChartType
	Currency  model.Currency
	Fonts     Measurer
}

// TextLine is one positioned line of text.
type TextLine struct {
	Text     string
	Size     float64
	Bold     bool
	Color    color.RGBA
	Box      Rect // line box including the glyph
	Glyph    Glyph
	GlyphBox Rect
}

// CellLayout is everything DrawCell needs for one cell.
type CellLayout struct {
	Cell      Rect
	Fill      color.RGBA
	Radius    float64
	Stroke    float64
	ImageMode ImageMode
	ImageBox  Rect
	Lines     []TextLine
}

type lineRole int

const (
	roleTitle lineRole = iota
	roleValue
	roleSecondary
)

type lineSpec struct {
	text  string
	role  lineRole
	bold  bool
	glyph Glyph
}

// Layout computes the content of one cell. It never returns a box outside
// rect. Rectangles smaller than one pixel in either dimension get an empty layout.
func Layout(rect Rect, item model.VisualizationItem, img model.ResolvedImage, opts LayoutOptions) CellLayout {
	l := CellLayout{Cell: rect, Fill: ColorFor(item.PercentChange)}
	if rect.Empty() || rect.W < 1 || rect.H < 1 {
		return l
	}

	scale := opts.Scale
	if !finite(scale) || scale <= 0 {
		scale = 1
	}
	minDim := rect.MinDim()

	l.Radius = math.Min(CornerRadius*scale, minDim/4)
	l.Stroke = math.Min(math.Max(MinStroke, BorderWidth*scale), minDim/2)

	title := clamp(minDim/8, MinTitleSize, MaxTitleSize) * scale
	value := 0.75 * title
	secondary := 0.6 * title
	if scale >= HighScaleThreshold {
		title = math.Max(title*HighScaleReduction, MinTitleSize)
		value = math.Max(value*HighScaleReduction, MinBodySize)
		secondary = math.Max(secondary*HighScaleReduction, MinBodySize)
	}
	spacing := clamp(minDim/50, 1, 10) * scale

	imgW, imgH := 0.0, 0.0
	edge := math.Max(minDim*ImageFraction, MinImageEdge)
	switch {
	case img.Loaded():
		l.ImageMode = ImageDraw
		imgW, imgH = edge, edge
		if img.Width > 0 && img.Height > 0 {
			ratio := float64(img.Width) / float64(img.Height)
			if ratio >= 1 {
				imgH = edge / ratio
			} else {
				imgW = edge * ratio
			}
		}
	case rect.W >= PlaceholderMinCell && rect.H >= PlaceholderMinCell:
		l.ImageMode = ImagePlaceholder
		imgW, imgH = edge, edge
	}
	// The image shares the width budget with text.
	if maxW := rect.W * WidthBudget; imgW > maxW {
		imgH *= maxW / imgW
		imgW = maxW
	}

	specs := lineSpecs(item, opts, minDim)
	m := opts.Fonts

	sizeOf := func(role lineRole, k float64) float64 {
		switch role {
		case roleTitle:
			return math.Max(title*k, MinTitleSize)
		case roleValue:
			return math.Max(value*k, MinBodySize)
		default:
			return math.Max(secondary*k, MinBodySize)
		}
	}
	heightOf := func(k float64, specs []lineSpec, withImage bool) float64 {
		h := 0.0
		for i, s := range specs {
			if i > 0 {
				h += spacing * k
			}
			h += m.LineHeight(sizeOf(s.role, k), s.bold)
		}
		if withImage {
			h += imgH * k
			if len(specs) > 0 {
				h += spacing * k
			}
		}
		return h
	}

	budget := rect.H * HeightBudget
	k := 1.0
	withImage := l.ImageMode != ImageNone
	for heightOf(k, specs, withImage) > budget {
		if k == 1 {
			k = budget / heightOf(1, specs, withImage)
			continue
		}
		// Floors keep the shrunken content too tall: drop lines from the
		// bottom, then the image, then the title.
		switch {
		case len(specs) > 1:
			specs = specs[:len(specs)-1]
		case withImage:
			withImage = false
		default:
			specs = nil
		}
	}
	if !withImage {
		l.ImageMode = ImageNone
	}
	if len(specs) == 0 && !withImage {
		return l
	}

	cx := rect.X + rect.W/2
	y := rect.Y + (rect.H-heightOf(k, specs, withImage))/2

	if withImage {
		w, h := imgW*k, imgH*k
		l.ImageBox = Rect{X: cx - w/2, Y: y, W: w, H: h}
		y += h + spacing*k
	}

	maxW := rect.W * WidthBudget
	for _, s := range specs {
		size := sizeOf(s.role, k)
		lh := m.LineHeight(size, s.bold)

		glyphW, gap := 0.0, 0.0
		if s.glyph != GlyphNone {
			glyphW = lh * 0.6
			gap = glyphW * 0.3
		}

		text := FitText(m, s.text, size, s.bold, maxW-glyphW-gap)
		w := m.Measure(text, size, s.bold) + glyphW + gap
		if w > rect.W || text == "" {
			// Not even one character fits; keep the slot so spacing stays stable.
			y += lh + spacing*k
			continue
		}

		line := TextLine{
			Text:  text,
			Size:  size,
			Bold:  s.bold,
			Color: ColorText,
			Box:   Rect{X: cx - w/2, Y: y, W: w, H: lh},
			Glyph: s.glyph,
		}
		if s.glyph != GlyphNone {
			line.GlyphBox = Rect{X: line.Box.X, Y: y + (lh-glyphW)/2, W: glyphW, H: glyphW}
		}
		l.Lines = append(l.Lines, line)
		y += lh + spacing*k
	}
	return l
}

// lineSpecs returns the text lines for an item, top to bottom.
func lineSpecs(item model.VisualizationItem, opts LayoutOptions, minDim float64) []lineSpec {
	glyph := GlyphNone
	if opts.Currency == model.CurrencyTON {
		glyph = GlyphTON
	}
	price := lineSpec{text: FormatPrice(item.Price, opts.Currency), glyph: glyph}

	specs := []lineSpec{{text: item.DisplayName, role: roleTitle, bold: true}}

	if opts.ChartType == model.ChartCapitalization {
		if item.HasMarketCap() {
			specs = append(specs, lineSpec{text: item.MarketCap, role: roleValue, bold: true})
		}
		price.role = roleSecondary
		return append(specs, price)
	}

	price.role = roleValue
	specs = append(specs,
		lineSpec{text: FormatPercent(item.PercentChange), role: roleValue, bold: true},
		price,
	)
	if item.HasMarketCap() && minDim > MarketCapMinDim {
		specs = append(specs, lineSpec{text: "MC " + item.MarketCap, role: roleSecondary})
	}
	return specs
}
