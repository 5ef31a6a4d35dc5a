// Package geo holds the great-circle math used by the geographic layout.
// Every function is total: degenerate input is clamped, never rejected.
package geo

import (
	"math"

	"github.com/dustin/go-humanize"

	"circuitmap/internal/domain"
)

const (
	// EarthRadiusKm is the mean Earth radius
	EarthRadiusKm = 6371.0
	// MilesPerKm converts kilometres to statute miles
	MilesPerKm = 0.621371
)

// DegToRad converts degrees to radians
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// HaversineKm returns the great-circle distance between a and b in kilometres
func HaversineKm(a, b domain.GeoPoint) float64 {
	lat1 := DegToRad(a.Lat)
	lat2 := DegToRad(b.Lat)
	dLat := lat2 - lat1
	dLon := DegToRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// Floating-point overshoot near identical or antipodal points can push
	// h slightly outside the domain of sqrt/asin.
	h = math.Max(0, math.Min(1, h))
	if math.IsNaN(h) {
		h = 0
	}

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// KmToMiles converts kilometres to miles. Use at presentation boundaries only.
func KmToMiles(km float64) float64 {
	return km * MilesPerKm
}

// FormatMiles renders a distance label such as "1,234.5 mi"
func FormatMiles(mi float64) string {
	if math.IsNaN(mi) || mi < 0 {
		mi = 0
	}
	return humanize.FormatFloat("#,###.#", mi) + " mi"
}
