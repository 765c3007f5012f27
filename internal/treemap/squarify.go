package treemap

import (
	"math"
	"sort"

	"github.com/rickgao/gift-heatmap/internal/render"
)

// MinShare is the fraction of the total given to items with no size.
const MinShare = 0.002

// Squarify is a render.Partitioner.
type Squarify struct{}

var _ render.Partitioner = Squarify{}

// Partition implements render.Partitioner. The result is in input order.
func (Squarify) Partition(sizes []float64, bounds render.Rect) []render.Rect {
	out := make([]render.Rect, len(sizes))
	if len(sizes) == 0 || bounds.Empty() {
		return out
	}

	weights := normalize(sizes)
	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return weights[order[a]] > weights[order[b]]
	})

	total := 0.0
	for _, w := range weights {
		total += w
	}
	areaScale := bounds.W * bounds.H / total

	areas := make([]float64, len(order))
	for i, idx := range order {
		areas[i] = weights[idx] * areaScale
	}

	free := bounds
	start := 0
	for start < len(areas) {
		short := math.Min(free.W, free.H)
		end := start + 1
		for end < len(areas) && worst(areas[start:end+1], short) <= worst(areas[start:end], short) {
			end++
		}
		free = layoutRow(areas[start:end], order[start:end], free, out)
		start = end
	}
	return out
}

// normalize replaces non-positive or non-finite sizes with a small share.
func normalize(sizes []float64) []float64 {
	total := 0.0
	for _, s := range sizes {
		if s > 0 && !math.IsInf(s, 0) {
			total += s
		}
	}
	floor := total * MinShare
	if floor == 0 {
		floor = 1
	}

	out := make([]float64, len(sizes))
	for i, s := range sizes {
		if s > 0 && !math.IsInf(s, 0) {
			out[i] = s
		} else {
			out[i] = floor
		}
	}
	return out
}

// worst returns the highest aspect ratio of a row laid along a side of length short.
func worst(row []float64, short float64) float64 {
	sum, hi, lo := 0.0, 0.0, math.Inf(1)
	for _, a := range row {
		sum += a
		hi = math.Max(hi, a)
		lo = math.Min(lo, a)
	}
	if sum == 0 || lo == 0 {
		return math.Inf(1)
	}
	s2, sum2 := short*short, sum*sum
	return math.Max(s2*hi/sum2, sum2/(s2*lo))
}

// layoutRow places a row along the shorter side of free and returns what is left.
func layoutRow(row []float64, idx []int, free render.Rect, out []render.Rect) render.Rect {
	sum := 0.0
	for _, a := range row {
		sum += a
	}

	if free.W >= free.H {
		// Column on the left.
		w := math.Min(sum/free.H, free.W)
		y := free.Y
		for i, a := range row {
			h := a / sum * free.H
			if i == len(row)-1 {
				h = free.Bottom() - y
			}
			out[idx[i]] = render.Rect{X: free.X, Y: y, W: w, H: h}
			y += h
		}
		return render.Rect{X: free.X + w, Y: free.Y, W: free.W - w, H: free.H}
	}

	// Row along the top.
	h := math.Min(sum/free.W, free.H)
	x := free.X
	for i, a := range row {
		w := a / sum * free.W
		if i == len(row)-1 {
			w = free.Right() - x
		}
		out[idx[i]] = render.Rect{X: x, Y: free.Y, W: w, H: h}
		x += w
	}
	return render.Rect{X: free.X, Y: free.Y + h, W: free.W, H: free.H - h}
}
