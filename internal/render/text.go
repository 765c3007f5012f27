package render

import (
	"strconv"
	"strings"

	"github.com/rickgao/gift-heatmap/internal/model"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "…"

// FitText trims text until it measures at most maxWidth, appending an
// ellipsis. If not even the first character plus the ellipsis fits, the bare
// first character is returned; the caller decides whether that still fits.
func FitText(m Measurer, text string, size float64, bold bool, maxWidth float64) string {
	if text == "" || m.Measure(text, size, bold) <= maxWidth {
		return text
	}

	runes := []rune(text)
	// Widths grow with the prefix length, so search for the longest prefix that fits.
	lo, hi := 1, len(runes)-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		candidate := strings.TrimRight(string(runes[:mid]), " ") + Ellipsis
		if m.Measure(candidate, size, bold) <= maxWidth {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best == 0 {
		return string(runes[:1])
	}
	return strings.TrimRight(string(runes[:best]), " ") + Ellipsis
}

// FormatPercent renders a change as "+1.5%", "-4.25%" or "0%".
func FormatPercent(pc float64) string {
	s := strconv.FormatFloat(pc, 'f', -1, 64)
	if pc > 0 {
		s = "+" + s
	}
	return s + "%"
}

// FormatPrice renders a price. USD carries a "$" prefix; TON is drawn with a
// glyph beside the number instead.
func FormatPrice(price float64, c model.Currency) string {
	var s string
	switch {
	case price >= 10000:
		s = strconv.FormatFloat(price, 'f', 0, 64)
	case price >= 100:
		s = strconv.FormatFloat(price, 'f', 1, 64)
	default:
		s = strconv.FormatFloat(price, 'f', 2, 64)
	}
	if c == model.CurrencyUSD {
		return "$" + s
	}
	return s
}
