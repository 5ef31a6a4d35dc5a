package layout

import (
	"math"

	"circuitmap/internal/domain"
)

const (
	// CommitMin and CommitMax bound persisted normalized coordinates so that
	// nodes stay clear of the viewport edge.
	CommitMin = 0.05
	CommitMax = 0.95
)

// FitToFrame maps unit-space band positions into the normalized frame
// [margin, 1-margin]. Band y values map linearly from the configured band
// range, so a band keeps its height whether or not its neighbours have
// nodes. x is scaled around zero by the widest band so that every band stays
// centred. Degenerate ranges centre the axis.
func FitToFrame(nodes []domain.Node, cfg BandConfig, margin float64) []domain.Node {
	out := make([]domain.Node, len(nodes))
	copy(out, nodes)
	if len(out) == 0 {
		return out
	}

	maxAbsX := 0.0
	for _, n := range out {
		maxAbsX = math.Max(maxAbsX, math.Abs(n.Position.X))
	}

	minY := math.Min(cfg.HyperscalerY, math.Min(cfg.FacilityY, cfg.SiteY))
	maxY := math.Max(cfg.HyperscalerY, math.Max(cfg.FacilityY, cfg.SiteY))
	rangeY := maxY - minY

	half := 0.5 - margin
	span := 1 - 2*margin

	for i := range out {
		p := out[i].Position

		x := 0.5
		if maxAbsX > 1e-9 {
			x = 0.5 + (p.X/maxAbsX)*half
		}

		y := 0.5
		if rangeY > 1e-9 {
			y = margin + ((p.Y-minY)/rangeY)*span
		}

		out[i].Position = domain.Point2D{X: x, Y: y}
	}

	return out
}

// ClampCommitted limits a normalized position to [CommitMin, CommitMax]
func ClampCommitted(p domain.Point2D) domain.Point2D {
	return p.Clamp(CommitMin, CommitMax)
}

// applyPinned moves every site that carries persisted coordinates to them
func applyPinned(nodes []domain.Node, sites []domain.Site) {
	coords := make(map[string]domain.Point2D, len(sites))
	for _, s := range sites {
		if s.Coordinates != nil {
			coords[s.ID] = *s.Coordinates
		}
	}
	for i := range nodes {
		if !nodes[i].IsSite() {
			continue
		}
		if c, ok := coords[nodes[i].ID]; ok {
			nodes[i].Position = ClampCommitted(c)
			nodes[i].Pinned = true
		}
	}
}

// UniqueSites drops sites with an empty or repeated ID, keeping the first
// occurrence. The second return value is the number of sites dropped.
func UniqueSites(sites []domain.Site) ([]domain.Site, int) {
	seen := make(map[string]bool, len(sites))
	out := make([]domain.Site, 0, len(sites))
	for _, s := range sites {
		if s.ID == "" || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out, len(sites) - len(out)
}
