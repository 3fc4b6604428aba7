// Package layout computes tiled window geometry for a layout demand.
//
// The algorithm splits the usable area into a main area holding the first
// MainAmount views and a stack area holding the rest. Both areas stack their
// views vertically. All arithmetic saturates at zero, so oversized paddings
// produce zero-sized rectangles instead of wrapping around.
package layout

import (
	"iter"
	"math"
)

// Main factor bounds. Values outside are clamped so neither area collapses.
const (
	MinMainFactor = 0.1
	MaxMainFactor = 0.9
)

// Params holds the tunables that shape a layout.
type Params struct {
	MainAmount   uint32
	MainFactor   float64
	ViewPadding  uint32
	OuterPadding uint32
}

// DefaultParams returns the built-in option defaults.
func DefaultParams() Params {
	return Params{
		MainAmount:   1,
		MainFactor:   0.6,
		ViewPadding:  10,
		OuterPadding: 10,
	}
}

// Demand is a single layout request from the compositor.
type Demand struct {
	Views  uint32
	Width  uint32
	Height uint32
	Serial uint32
}

// Rect is the position and size reported for one view.
type Rect struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

// Area returns the rectangle's area in pixels.
func (r Rect) Area() uint64 {
	return uint64(r.Width) * uint64(r.Height)
}

// ClampFactor restricts f to [MinMainFactor, MaxMainFactor]. NaN maps to the
// lower bound.
func ClampFactor(f float64) float64 {
	switch {
	case math.IsNaN(f), f < MinMainFactor:
		return MinMainFactor
	case f > MaxMainFactor:
		return MaxMainFactor
	}
	return f
}

// Usable returns the area left after removing the outer padding on all sides.
func Usable(p Params, width, height uint32) (uint32, uint32) {
	pad := uint64(p.OuterPadding) * 2
	return satSub(uint64(width), pad), satSub(uint64(height), pad)
}

// maxPrealloc bounds the capacity hint taken from a demand's view count.
const maxPrealloc = 256

// Tile computes one rectangle per view, in view index order. It returns an
// empty, non-nil slice when the demand holds no views.
func Tile(p Params, d Demand) []Rect {
	rects := make([]Rect, 0, min(d.Views, maxPrealloc))
	for _, r := range Rects(p, d) {
		rects = append(rects, r)
	}
	return rects
}

// Rects yields the rectangle of every view in index order. Nothing is
// buffered, so the view count does not decide how much memory is used.
func Rects(p Params, d Demand) iter.Seq2[uint32, Rect] {
	return func(yield func(uint32, Rect) bool) {
		if d.Views == 0 {
			return
		}

		width, height := Usable(p, d.Width, d.Height)
		factor := ClampFactor(p.MainFactor)

		var mainWidth, stackWidth uint32
		switch {
		case p.MainAmount == 0:
			mainWidth, stackWidth = 0, width
		case d.Views <= p.MainAmount:
			mainWidth, stackWidth = width, 0
		default:
			mainWidth = uint32(float64(width) * factor)
			stackWidth = width - mainWidth
		}

		offset := uint64(p.OuterPadding) + uint64(p.ViewPadding)
		inset := uint64(p.ViewPadding) * 2

		for i := uint32(0); i < d.Views; i++ {
			var x, y, w, h uint32
			if i < p.MainAmount {
				h = height / min(p.MainAmount, d.Views)
				x, w = 0, mainWidth
				y = i * h
			} else {
				h = height / (d.Views - p.MainAmount)
				x, w = mainWidth, stackWidth
				y = (i - p.MainAmount) * h
			}

			r := Rect{
				X:      clampInt32(uint64(x) + offset),
				Y:      clampInt32(uint64(y) + offset),
				Width:  satSub(uint64(w), inset),
				Height: satSub(uint64(h), inset),
			}
			if !yield(i, r) {
				return
			}
		}
	}
}

func satSub(a, b uint64) uint32 {
	if b >= a {
		return 0
	}
	return uint32(a - b)
}

func clampInt32(v uint64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}
