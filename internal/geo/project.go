package geo

import (
	"math"

	"circuitmap/internal/domain"
)

// Bounds is the lat/lon bounding box of a point set
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	empty          bool
}

// NewBounds computes the bounding box of points. An empty set yields an
// empty Bounds that projects every point to the centre.
func NewBounds(points ...domain.GeoPoint) Bounds {
	if len(points) == 0 {
		return Bounds{empty: true}
	}
	b := Bounds{
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
	}
	for _, p := range points {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

// Empty reports whether the bounds were built from no points
func (b Bounds) Empty() bool {
	return b.empty
}

// Project maps p into the unit square with an equirectangular projection.
// Longitude is scaled by the cosine of the mid latitude so that distances
// keep their proportions, and the larger of the two spans fills [0,1] while
// the other is centred. North is up (y grows southward).
func (b Bounds) Project(p domain.GeoPoint) domain.Point2D {
	if b.empty {
		return domain.Point2D{X: 0.5, Y: 0.5}
	}

	midLat := DegToRad((b.MinLat + b.MaxLat) / 2)
	kx := math.Cos(midLat)

	spanX := (b.MaxLon - b.MinLon) * kx
	spanY := b.MaxLat - b.MinLat
	span := math.Max(spanX, spanY)
	if span < 1e-9 {
		return domain.Point2D{X: 0.5, Y: 0.5}
	}

	x := (p.Lon - b.MinLon) * kx / span
	y := (b.MaxLat - p.Lat) / span

	// Centre the shorter axis
	x += (1 - spanX/span) / 2
	y += (1 - spanY/span) / 2

	return domain.Point2D{X: x, Y: y}
}
