package render

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Measurer measures text for layout.
type Measurer interface {
	// Measure returns the advance width of text in pixels.
	Measure(text string, size float64, bold bool) float64
	// LineHeight returns ascent plus descent in pixels.
	LineHeight(size float64, bold bool) float64
}

type faceKey struct {
	size float64
	bold bool
}

// FontCache parses the Go fonts once and caches faces per size.
// Faces are not safe for concurrent use, so every measurement and draw
// holds the cache lock.
type FontCache struct {
	mu      sync.Mutex
	regular *opentype.Font
	bold    *opentype.Font
	faces   map[faceKey]font.Face
}

// NewFontCache creates a cache over the embedded Go fonts. If parsing fails
// the cache falls back to a fixed 7x13 bitmap face.
func NewFontCache() *FontCache {
	fc := &FontCache{faces: make(map[faceKey]font.Face)}
	if f, err := opentype.Parse(goregular.TTF); err == nil {
		fc.regular = f
	}
	if f, err := opentype.Parse(gobold.TTF); err == nil {
		fc.bold = f
	}
	return fc
}

// quantize rounds sizes to half pixels so the face map stays small.
func quantize(size float64) float64 {
	if !finite(size) || size < 1 {
		return 1
	}
	return math.Round(size*2) / 2
}

// face returns a cached face. Callers hold fc.mu.
func (fc *FontCache) face(size float64, bold bool) font.Face {
	key := faceKey{size: quantize(size), bold: bold}
	if f, ok := fc.faces[key]; ok {
		return f
	}

	src := fc.regular
	if bold && fc.bold != nil {
		src = fc.bold
	}
	if src == nil {
		return basicfont.Face7x13
	}

	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    key.size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	fc.faces[key] = f
	return f
}

// Measure implements Measurer.
func (fc *FontCache) Measure(text string, size float64, bold bool) float64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fixedToFloat(font.MeasureString(fc.face(size, bold), text))
}

// LineHeight implements Measurer.
func (fc *FontCache) LineHeight(size float64, bold bool) float64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	m := fc.face(size, bold).Metrics()
	return fixedToFloat(m.Ascent + m.Descent)
}

// DrawString draws text with its line box's top-left at (x, top).
func (fc *FontCache) DrawString(dst *image.RGBA, text string, size float64, bold bool, x, top float64, c color.Color) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	f := fc.face(size, bold)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: f,
		Dot:  fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(top) + f.Metrics().Ascent},
	}
	d.DrawString(text)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
