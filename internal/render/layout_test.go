package render

import (
	"fmt"
	"image"
	"math"
	"strings"
	"testing"

	"github.com/rickgao/gift-heatmap/internal/model"
)

// fixedMeasurer gives every rune a width of half the font size.
type fixedMeasurer struct{}

func (fixedMeasurer) Measure(text string, size float64, _ bool) float64 {
	return 0.5 * size * float64(len([]rune(text)))
}

func (fixedMeasurer) LineHeight(size float64, _ bool) float64 {
	return 1.2 * size
}

var testItem = model.VisualizationItem{
	Name:          "Plush Pepe",
	DisplayName:   "Plush Pepe",
	PercentChange: 12.5,
	Size:          40,
	ImageRef:      "pepe",
	Price:         1234.56,
	MarketCap:     "203.07K",
}

func loadedImage(w, h int) model.ResolvedImage {
	return model.ResolvedImage{
		Image:  image.NewRGBA(image.Rect(0, 0, w, h)),
		Status: model.ImageLoaded,
		Width:  w,
		Height: h,
	}
}

func checkInside(t *testing.T, name string, l CellLayout) {
	t.Helper()
	const eps = 1e-6
	if l.ImageMode != ImageNone && !l.Cell.Contains(l.ImageBox, eps) {
		t.Errorf("%s: image box %+v outside cell %+v", name, l.ImageBox, l.Cell)
	}
	for _, line := range l.Lines {
		if !l.Cell.Contains(line.Box, eps) {
			t.Errorf("%s: line %q box %+v outside cell %+v", name, line.Text, line.Box, l.Cell)
		}
		if line.Glyph != GlyphNone && !line.Box.Contains(line.GlyphBox, eps) {
			t.Errorf("%s: glyph box %+v outside line %+v", name, line.GlyphBox, line.Box)
		}
	}
	if l.Stroke > l.Cell.MinDim()/2+eps {
		t.Errorf("%s: stroke %v wider than half the cell", name, l.Stroke)
	}
}

func TestLayoutStaysInsideCell(t *testing.T) {
	fonts := NewFontCache()
	sizes := [][2]float64{
		{1, 1}, {1, 200}, {200, 1}, {2, 2}, {3, 3}, {7.5, 13.25}, {15, 40},
		{29, 29}, {30, 30}, {45, 12}, {61, 61}, {100, 20}, {300, 200}, {1000, 800}, {3840, 40},
	}
	images := map[string]model.ResolvedImage{
		"wide":    loadedImage(100, 50),
		"tall":    loadedImage(20, 80),
		"unknown": {Image: image.NewRGBA(image.Rect(0, 0, 5, 5)), Status: model.ImageLoaded},
		"pending": {Status: model.ImagePending},
		"failed":  {Status: model.ImageFailed},
	}
	long := testItem
	long.DisplayName = strings.Repeat("Extraordinarily Long Gift Name ", 4)

	for _, sz := range sizes {
		for _, scale := range []float64{1, 1.5, 2, 3} {
			for _, chart := range []model.ChartType{model.ChartMovement, model.ChartCapitalization} {
				for _, cur := range []model.Currency{model.CurrencyTON, model.CurrencyUSD} {
					for imgName, img := range images {
						for _, item := range []model.VisualizationItem{testItem, long} {
							rect := Rect{X: 10.3, Y: 7.7, W: sz[0], H: sz[1]}
							opts := LayoutOptions{Scale: scale, ChartType: chart, Currency: cur, Fonts: fonts}
							name := fmt.Sprintf("%vx%v@%v/%v/%v/%s", sz[0], sz[1], scale, chart, cur, imgName)
							checkInside(t, name, Layout(rect, item, img, opts))
						}
					}
				}
			}
		}
	}
}

func TestLayoutDegenerate(t *testing.T) {
	opts := LayoutOptions{Scale: 1, Fonts: fixedMeasurer{}}
	for _, r := range []Rect{
		{W: 0.5, H: 10},
		{W: 10, H: 0},
		{W: -5, H: 10},
		{W: math.NaN(), H: 10},
		{W: math.Inf(1), H: 10},
	} {
		l := Layout(r, testItem, loadedImage(4, 4), opts)
		if len(l.Lines) != 0 || l.ImageMode != ImageNone {
			t.Errorf("Layout(%+v) = %d lines, image mode %v, want empty", r, len(l.Lines), l.ImageMode)
		}
	}

	l := Layout(Rect{W: 1, H: 1}, testItem, loadedImage(4, 4), opts)
	if len(l.Lines) != 0 {
		t.Errorf("1x1 layout has %d lines, want 0", len(l.Lines))
	}
	if l.Stroke <= 0 {
		t.Errorf("1x1 stroke = %v, want > 0", l.Stroke)
	}
}

func TestLayoutTypography(t *testing.T) {
	tests := []struct {
		name      string
		rect      Rect
		scale     float64
		wantTitle float64
		wantValue float64
	}{
		{"preview", Rect{W: 160, H: 160}, 1, 20, 15},
		{"clamped", Rect{W: 400, H: 400}, 1, 24, 18},
		{"high scale", Rect{W: 400, H: 400}, 2, 24 * 2 * 0.85, 18 * 2 * 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Layout(tt.rect, testItem, model.ResolvedImage{}, LayoutOptions{Scale: tt.scale, Fonts: fixedMeasurer{}})
			if len(l.Lines) != 4 {
				t.Fatalf("len(Lines) = %d, want 4", len(l.Lines))
			}
			if got := l.Lines[0].Size; math.Abs(got-tt.wantTitle) > 1e-9 {
				t.Errorf("title size = %v, want %v", got, tt.wantTitle)
			}
			if got := l.Lines[1].Size; math.Abs(got-tt.wantValue) > 1e-9 {
				t.Errorf("value size = %v, want %v", got, tt.wantValue)
			}
			if l.Lines[0].Text != "Plush Pepe" || l.Lines[1].Text != "+12.5%" {
				t.Errorf("lines = %q, %q", l.Lines[0].Text, l.Lines[1].Text)
			}
			if l.ImageMode != ImagePlaceholder {
				t.Errorf("ImageMode = %v, want placeholder", l.ImageMode)
			}
		})
	}
}

func TestLayoutStroke(t *testing.T) {
	opts := LayoutOptions{Fonts: fixedMeasurer{}}
	for _, tt := range []struct {
		scale float64
		want  float64
	}{{0.25, 1}, {1, 2}, {2, 4}} {
		opts.Scale = tt.scale
		l := Layout(Rect{W: 100, H: 100}, testItem, model.ResolvedImage{}, opts)
		if l.Stroke != tt.want {
			t.Errorf("scale %v: Stroke = %v, want %v", tt.scale, l.Stroke, tt.want)
		}
	}
}

func TestLayoutMarketCapLine(t *testing.T) {
	opts := LayoutOptions{Scale: 1, Fonts: fixedMeasurer{}}

	l := Layout(Rect{W: 60, H: 200}, testItem, model.ResolvedImage{}, opts)
	if len(l.Lines) != 3 {
		t.Errorf("minDim 60: %d lines, want 3", len(l.Lines))
	}

	l = Layout(Rect{W: 61, H: 200}, testItem, model.ResolvedImage{}, opts)
	if len(l.Lines) != 4 || l.Lines[3].Text != "MC 203.07K" {
		t.Errorf("minDim 61: lines = %+v, want market cap line", l.Lines)
	}

	noCap := testItem
	noCap.MarketCap = model.NotApplicable
	l = Layout(Rect{W: 200, H: 200}, noCap, model.ResolvedImage{}, opts)
	if len(l.Lines) != 3 {
		t.Errorf("not applicable: %d lines, want 3", len(l.Lines))
	}
}

func TestLayoutCapitalization(t *testing.T) {
	opts := LayoutOptions{Scale: 1, ChartType: model.ChartCapitalization, Currency: model.CurrencyUSD, Fonts: fixedMeasurer{}}
	l := Layout(Rect{W: 200, H: 200}, testItem, model.ResolvedImage{}, opts)

	var got []string
	for _, line := range l.Lines {
		got = append(got, line.Text)
	}
	want := []string{"Plush Pepe", "203.07K", "$1234.6"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}
	if l.Lines[2].Glyph != GlyphNone {
		t.Error("USD price carries a glyph")
	}
}

func TestLayoutDropsLinesWhenFloorsOverflow(t *testing.T) {
	l := Layout(Rect{W: 200, H: 6}, testItem, model.ResolvedImage{}, LayoutOptions{Scale: 1, Fonts: fixedMeasurer{}})
	if len(l.Lines) != 1 {
		t.Fatalf("len(Lines) = %d, want 1", len(l.Lines))
	}
	if l.Lines[0].Size != MinTitleSize {
		t.Errorf("title size = %v, want %v", l.Lines[0].Size, MinTitleSize)
	}
	if l.ImageMode != ImageNone {
		t.Errorf("ImageMode = %v, want none", l.ImageMode)
	}
}

func TestLayoutImageAspect(t *testing.T) {
	opts := LayoutOptions{Scale: 1, Fonts: fixedMeasurer{}}

	l := Layout(Rect{W: 400, H: 400}, testItem, loadedImage(200, 100), opts)
	if l.ImageMode != ImageDraw {
		t.Fatalf("ImageMode = %v, want draw", l.ImageMode)
	}
	if got := l.ImageBox.W / l.ImageBox.H; math.Abs(got-2) > 1e-9 {
		t.Errorf("aspect = %v, want 2", got)
	}
	if l.ImageBox.W != 120 {
		t.Errorf("image width = %v, want 120", l.ImageBox.W)
	}

	l = Layout(Rect{W: 20, H: 20}, testItem, model.ResolvedImage{Status: model.ImageFailed}, opts)
	if l.ImageMode != ImageNone {
		t.Errorf("small failed cell ImageMode = %v, want none", l.ImageMode)
	}
}

func TestFitText(t *testing.T) {
	m := fixedMeasurer{}
	tests := []struct {
		text string
		maxW float64
		want string
	}{
		{"Plush Pepe", 100, "Plush Pepe"},
		{"Plush Pepe", 30, "Plush…"},
		{"Plush Pepe", 35, "Plush…"},
		{"Plush Pepe", 10, "P…"},
		{"Plush Pepe", 9, "P"},
		{"Plush Pepe", 0, "P"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		got := FitText(m, tt.text, 10, false, tt.maxW)
		if got != tt.want {
			t.Errorf("FitText(%q, %v) = %q, want %q", tt.text, tt.maxW, got, tt.want)
		}
	}
}

func TestFitTextRealFont(t *testing.T) {
	fonts := NewFontCache()
	text := "Swiss Watch Collector's Edition"
	for maxW := 1.0; maxW < 300; maxW += 7 {
		got := FitText(fonts, text, 14, true, maxW)
		w := fonts.Measure(got, 14, true)
		if len([]rune(got)) > 1 && w > maxW {
			t.Errorf("FitText(maxW=%v) = %q measuring %v", maxW, got, w)
		}
		if got != text && len([]rune(got)) > 1 && !strings.HasSuffix(got, Ellipsis) {
			t.Errorf("FitText(maxW=%v) = %q, want trailing ellipsis", maxW, got)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := FormatPercent(1.5); got != "+1.5%" {
		t.Errorf("FormatPercent(1.5) = %q", got)
	}
	if got := FormatPercent(-4.25); got != "-4.25%" {
		t.Errorf("FormatPercent(-4.25) = %q", got)
	}
	if got := FormatPercent(0); got != "0%" {
		t.Errorf("FormatPercent(0) = %q", got)
	}
	if got := FormatPrice(3.14159, model.CurrencyUSD); got != "$3.14" {
		t.Errorf("FormatPrice(usd) = %q", got)
	}
	if got := FormatPrice(12345.6, model.CurrencyTON); got != "12346" {
		t.Errorf("FormatPrice(ton) = %q", got)
	}
}
