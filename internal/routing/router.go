package routing

import (
	"math"

	"github.com/rs/zerolog"

	"circuitmap/internal/domain"
)

// Options tunes curve geometry. The values are cosmetic; what matters is
// that links sharing a target separate and that the separation side does not
// flip while a site moves horizontally past its target.
//
// A fan is centred on BaseBow rather than on zero: slot i of n bends by
// BaseBow + (i-(n-1)/2)*FanStep, so a lone link still curves and a fan of
// three at the defaults bends by -0.08, 0.12 and 0.32. Set BaseBow to 0 for a
// fan symmetric about the straight line.
type Options struct {
	// FanStep is the angle in radians between neighbouring links of a fan
	FanStep float64 `yaml:"fan_step" validate:"gte=0,lte=1"`
	// BaseBow is the angle in radians every curved link bends by
	BaseBow float64 `yaml:"base_bow" validate:"gte=0,lte=1"`
	// MaxAngle bounds the total bend so control points stay finite
	MaxAngle float64 `yaml:"max_angle" validate:"gt=0,lt=1.5"`
}

// DefaultOptions returns the stock curve settings
func DefaultOptions() Options {
	return Options{
		FanStep:  0.2,
		BaseBow:  0.12,
		MaxAngle: 1.2,
	}
}

// Emphasis names the nodes the renderer highlights
type Emphasis struct {
	Selected string `json:"selected,omitempty"`
	Hovered  string `json:"hovered,omitempty"`
}

// Router resolves and shapes edges
type Router struct {
	opts   Options
	logger zerolog.Logger
}

// NewRouter creates a router. Zero options fall back to DefaultOptions.
func NewRouter(opts Options, logger zerolog.Logger) *Router {
	if opts.MaxAngle <= 0 {
		opts = DefaultOptions()
	}
	return &Router{
		opts:   opts,
		logger: logger.With().Str("component", "router").Logger(),
	}
}

// Options returns the router's curve settings
func (r *Router) Options() Options {
	return r.opts
}

// Route resolves and shapes in one step
func (r *Router) Route(sites []domain.Site, nodes []domain.Node, resolver Resolver, uplinks []Uplink, emphasis Emphasis) ([]domain.Edge, []Link, Stats) {
	roles := make(map[string]domain.NodeRole, len(nodes))
	positions := make(map[string]domain.Point2D, len(nodes))
	for _, n := range nodes {
		roles[n.ID] = n.Role
		positions[n.ID] = n.Position
	}

	links, stats := r.Resolve(sites, roles, resolver, uplinks)
	return r.Shape(links, positions, emphasis), links, stats
}

// Shape computes edge geometry from positions. Links with an endpoint
// missing from positions are dropped.
func (r *Router) Shape(links []Link, positions map[string]domain.Point2D, emphasis Emphasis) []domain.Edge {
	edges := make([]domain.Edge, 0, len(links))

	for _, l := range links {
		from, okFrom := positions[l.From]
		to, okTo := positions[l.To]
		if !okFrom || !okTo {
			continue
		}

		edge := domain.Edge{
			ID:               domain.EdgeID(l.From, l.To, l.Kind, l.Ordinal),
			From:             l.From,
			To:               l.To,
			Kind:             l.Kind,
			ConnectionType:   l.Connection.Type,
			Bandwidth:        l.Connection.Bandwidth,
			Provider:         l.Connection.ProviderName(),
		}
		edge.SelectedEndpoint = edge.Touches(emphasis.Selected)
		edge.HoveredEndpoint = edge.Touches(emphasis.Hovered)

		if l.Kind.Straight() {
			edge.Path = []domain.Point2D{from, to}
		} else {
			angle, control := r.curve(from, to, l.FanIndex, l.FanSize)
			edge.Curvature = angle
			edge.Control = &control
			edge.Path = []domain.Point2D{from, control, to}
		}

		edges = append(edges, edge)
	}

	return edges
}

// FanAngle returns the unsigned bend for slot index of a fan of size count.
// Large fans compress the step so every slot keeps a distinct angle inside
// MaxAngle.
func (r *Router) FanAngle(index, count int) float64 {
	if count < 1 {
		count = 1
	}
	step := r.opts.FanStep
	if count > 1 {
		spread := 2 * (r.opts.MaxAngle - r.opts.BaseBow)
		if spread > 0 && step*float64(count-1) > spread {
			step = spread / float64(count-1)
		}
	}
	offset := (float64(index) - float64(count-1)/2) * step
	return clampAngle(r.opts.BaseBow+offset, r.opts.MaxAngle)
}

// curve returns the signed bend angle and quadratic control point of a link
// from -> to. The control point sits on the normal through the midpoint at
// (d/2)*tan(angle), which makes the curve leave from at exactly angle off the
// straight line.
func (r *Router) curve(from, to domain.Point2D, index, count int) (float64, domain.Point2D) {
	mid := domain.Midpoint(from, to)
	dx := to.X - from.X
	dy := to.Y - from.Y
	d := math.Hypot(dx, dy)
	if d < 1e-9 {
		return 0, mid
	}

	dir := math.Atan2(dy, dx)
	normal := domain.Point2D{X: -math.Sin(dir), Y: math.Cos(dir)}

	// Sites below (or level with) their target fan one way, sites above the
	// other. The rule depends on the vertical relation only, so dragging a
	// site across the target's vertical midline keeps the fan steady.
	side := 1.0
	if from.Y < to.Y {
		side = -1
	}

	angle := side * r.FanAngle(index, count)
	offset := (d / 2) * math.Tan(angle)

	return angle, mid.Add(normal.Scale(offset))
}

func clampAngle(a, limit float64) float64 {
	if a > limit {
		return limit
	}
	if a < -limit {
		return -limit
	}
	return a
}
