package domain

import "math"

// Frame identifies the coordinate space a set of positions is expressed in
type Frame string

const (
	FrameNormalized Frame = "normalized"
	FramePixel      Frame = "pixel"
)

// Point2D is a position in either the normalized or the pixel frame
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Clamp limits both axes to [lo, hi]
func (p Point2D) Clamp(lo, hi float64) Point2D {
	return Point2D{X: clamp(p.X, lo, hi), Y: clamp(p.Y, lo, hi)}
}

// Add returns p + q
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{X: p.X + q.X, Y: p.Y + q.Y}
}

// Scale returns p scaled by f on both axes
func (p Point2D) Scale(f float64) Point2D {
	return Point2D{X: p.X * f, Y: p.Y * f}
}

// Midpoint returns the point halfway between p and q
func Midpoint(p, q Point2D) Point2D {
	return Point2D{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Distance returns the euclidean distance between p and q
func Distance(p, q Point2D) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Dimensions is the size of a viewport in pixels
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Positive reports whether both sides are strictly positive
func (d Dimensions) Positive() bool {
	return d.Width > 0 && d.Height > 0
}

// GeoPoint is a WGS84 coordinate in degrees
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" yaml:"lon" validate:"gte=-180,lte=180"`
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
