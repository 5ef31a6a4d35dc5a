package viewport

import (
	"math"

	"circuitmap/internal/domain"
)

// ToPixel converts a normalized position to pixels at dims
func ToPixel(p domain.Point2D, dims domain.Dimensions) domain.Point2D {
	return domain.Point2D{X: p.X * dims.Width, Y: p.Y * dims.Height}
}

// ToNormalized converts a pixel position to the normalized frame. ok is
// false when dims has a zero or negative side.
func ToNormalized(px domain.Point2D, dims domain.Dimensions) (domain.Point2D, bool) {
	if !dims.Positive() {
		return domain.Point2D{}, false
	}
	return domain.Point2D{X: px.X / dims.Width, Y: px.Y / dims.Height}, true
}

// ClampPixel limits px to [padding, dimension-padding] on both axes. The
// padding shrinks to half the dimension on viewports too small to hold it.
func ClampPixel(px domain.Point2D, dims domain.Dimensions, padding float64) domain.Point2D {
	return domain.Point2D{
		X: clampAxis(px.X, dims.Width, padding),
		Y: clampAxis(px.Y, dims.Height, padding),
	}
}

func clampAxis(v, size, padding float64) float64 {
	pad := min(max(padding, 0), size/2)
	lo, hi := pad, size-pad
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
