package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// MaxCanvasPixels bounds off-screen canvases (8K UHD).
const MaxCanvasPixels = 7680 * 4320

// Canvas is an off-screen raster Surface. It has no input handling.
type Canvas struct {
	img   *image.RGBA
	fonts *FontCache
}

// NewCanvas allocates a w by h canvas.
func NewCanvas(w, h int, fonts *FontCache) (*Canvas, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", w, h)
	}
	if w*h > MaxCanvasPixels {
		return nil, fmt.Errorf("canvas %dx%d exceeds %d pixels", w, h, MaxCanvasPixels)
	}
	if fonts == nil {
		fonts = NewFontCache()
	}
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h)), fonts: fonts}, nil
}

// Image returns the backing image, nil after Release.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Release drops the pixel buffer. Further draws are no-ops.
func (c *Canvas) Release() { c.img = nil }

// Bounds implements Surface.
func (c *Canvas) Bounds() Rect {
	if c.img == nil {
		return Rect{}
	}
	return RectFrom(c.img.Bounds())
}

// Clear fills the whole canvas.
func (c *Canvas) Clear(col color.Color) {
	if c.img == nil {
		return
	}
	xdraw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, xdraw.Src)
}

// FillRoundRect implements Surface.
func (c *Canvas) FillRoundRect(r Rect, radius float64, col color.Color) {
	c.fillPath(r, col, func(z *vector.Rasterizer, ox, oy float64) {
		roundRectPath(z, r.X-ox, r.Y-oy, r.W, r.H, radius, false)
	})
}

// StrokeRoundRect implements Surface. The stroke lies inside r.
func (c *Canvas) StrokeRoundRect(r Rect, radius, width float64, col color.Color) {
	inner := r.Inset(width)
	c.fillPath(r, col, func(z *vector.Rasterizer, ox, oy float64) {
		roundRectPath(z, r.X-ox, r.Y-oy, r.W, r.H, radius, false)
		if inner.W > 0 && inner.H > 0 {
			roundRectPath(z, inner.X-ox, inner.Y-oy, inner.W, inner.H, max(radius-width, 0), true)
		}
	})
}

// FillDiamond implements Surface.
func (c *Canvas) FillDiamond(r Rect, col color.Color) {
	c.fillPath(r, col, func(z *vector.Rasterizer, ox, oy float64) {
		x, y := r.X-ox, r.Y-oy
		z.MoveTo(float32(x+r.W/2), float32(y))
		z.LineTo(float32(x+r.W), float32(y+r.H/2))
		z.LineTo(float32(x+r.W/2), float32(y+r.H))
		z.LineTo(float32(x), float32(y+r.H/2))
		z.ClosePath()
	})
}

// DrawImage implements Surface. The image is scaled to fill dst.
func (c *Canvas) DrawImage(src image.Image, dst Rect) {
	dr, ok := c.clip(dst)
	if !ok || src == nil {
		return
	}
	sub := c.img.SubImage(dr).(*image.RGBA)
	xdraw.BiLinear.Scale(sub, dst.Pixels(), src, src.Bounds(), xdraw.Over, nil)
}

// DrawText implements Surface. Glyphs outside box are clipped.
func (c *Canvas) DrawText(text string, size float64, bold bool, box Rect, col color.Color) {
	dr, ok := c.clip(box)
	if !ok || text == "" {
		return
	}
	sub := c.img.SubImage(dr).(*image.RGBA)
	c.fonts.DrawString(sub, text, size, bold, box.X, box.Y, col)
}

// EncodeJPEG encodes the canvas at the given quality (1-100).
func (c *Canvas) EncodeJPEG(quality int) ([]byte, error) {
	if c.img == nil {
		return nil, errors.New("canvas released")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, c.img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes the canvas losslessly.
func (c *Canvas) EncodePNG() ([]byte, error) {
	if c.img == nil {
		return nil, errors.New("canvas released")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// clip converts r to pixels intersected with the canvas.
func (c *Canvas) clip(r Rect) (image.Rectangle, bool) {
	if c.img == nil || r.Empty() {
		return image.Rectangle{}, false
	}
	px := r.Pixels().Intersect(c.img.Bounds())
	return px, !px.Empty()
}

// fillPath rasterizes the path built by fn over r's pixels. fn receives the
// rasterizer origin so it can emit coordinates relative to it.
func (c *Canvas) fillPath(r Rect, col color.Color, fn func(z *vector.Rasterizer, ox, oy float64)) {
	px, ok := c.clip(r)
	if !ok {
		return
	}
	z := vector.NewRasterizer(px.Dx(), px.Dy())
	fn(z, float64(px.Min.X), float64(px.Min.Y))
	z.Draw(c.img, px, image.NewUniform(col), image.Point{})
}

// roundRectPath adds a rounded rectangle. reverse winds it the other way so
// it cuts a hole in a path wound forward.
func roundRectPath(z *vector.Rasterizer, x, y, w, h, rad float64, reverse bool) {
	rad = min(rad, w/2, h/2)
	if rad < 0 {
		rad = 0
	}
	f := func(v float64) float32 { return float32(v) }
	x1, y1 := x+w, y+h

	z.MoveTo(f(x+rad), f(y))
	if !reverse {
		z.LineTo(f(x1-rad), f(y))
		z.QuadTo(f(x1), f(y), f(x1), f(y+rad))
		z.LineTo(f(x1), f(y1-rad))
		z.QuadTo(f(x1), f(y1), f(x1-rad), f(y1))
		z.LineTo(f(x+rad), f(y1))
		z.QuadTo(f(x), f(y1), f(x), f(y1-rad))
		z.LineTo(f(x), f(y+rad))
		z.QuadTo(f(x), f(y), f(x+rad), f(y))
	} else {
		z.QuadTo(f(x), f(y), f(x), f(y+rad))
		z.LineTo(f(x), f(y1-rad))
		z.QuadTo(f(x), f(y1), f(x+rad), f(y1))
		z.LineTo(f(x1-rad), f(y1))
		z.QuadTo(f(x1), f(y1), f(x1), f(y1-rad))
		z.LineTo(f(x1), f(y+rad))
		z.QuadTo(f(x1), f(y), f(x1-rad), f(y))
		z.LineTo(f(x+rad), f(y))
	}
	z.ClosePath()
}
