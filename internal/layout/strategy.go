package layout

import (
	"circuitmap/internal/domain"
	"circuitmap/internal/geo"
	"circuitmap/internal/routing"
)

// FacilityNodeIDPrefix prefixes the node IDs of facilities placed in the
// geographic layout
const FacilityNodeIDPrefix = "facility:"

// DefaultMargin keeps placed nodes away from the frame edge
const DefaultMargin = 0.05

// FacilityNodeID returns the scene node ID of a facility
func FacilityNodeID(facilityID string) string {
	return FacilityNodeIDPrefix + facilityID
}

// Strategy places nodes for one layout mode and tells the router where
// connections land
type Strategy interface {
	Mode() domain.Mode
	Place(sites []domain.Site, facilities []domain.Facility) *Placement
}

// Placement is the output of a strategy: normalized node positions plus the
// routing rules that go with them
type Placement struct {
	Mode     domain.Mode
	Nodes    []domain.Node
	Resolver routing.Resolver
	Uplinks  []routing.Uplink

	// Layers is set by the categorical strategy
	Layers []Layer
	// Assignment is set by the geographic strategy
	Assignment *Assignment
}

// demandedTargets returns the targets at least one non point-to-point
// connection of sites classifies to, in band order
func demandedTargets(sites []domain.Site, cloudOnly bool) []routing.Target {
	want := make(map[routing.Target]bool)
	for _, s := range sites {
		for _, c := range s.Connections {
			if c.IsPointToPoint() {
				continue
			}
			t := routing.ClassifyConnection(c)
			if cloudOnly && !t.IsCloud() {
				continue
			}
			want[t] = true
		}
	}

	out := make([]routing.Target, 0, len(want))
	for _, t := range routing.Targets {
		if want[t] {
			out = append(out, t)
		}
	}
	return out
}

func targetNode(t routing.Target) domain.Node {
	role := domain.NodeRoleFacility
	if t.IsCloud() {
		role = domain.NodeRoleHyperscaler
	}
	return domain.NewNode(t.NodeID(), role, t.Label())
}

func siteNode(s domain.Site) domain.Node {
	n := domain.NewNode(s.ID, domain.NodeRoleSite, s.Label())
	n.Category = s.Category
	return n
}

// Categorical lays out sites under the WAN clouds and hyperscalers their
// connections use, in fixed bands
type Categorical struct {
	Bands  BandConfig
	Margin float64
}

// NewCategorical creates the categorical strategy
func NewCategorical(bands BandConfig, margin float64) *Categorical {
	return &Categorical{Bands: bands, Margin: margin}
}

// Mode implements Strategy
func (c *Categorical) Mode() domain.Mode {
	return domain.ModeCategorical
}

// Place implements Strategy
func (c *Categorical) Place(sites []domain.Site, _ []domain.Facility) *Placement {
	targets := demandedTargets(sites, false)

	nodes := make([]domain.Node, 0, len(targets)+len(sites))
	for _, t := range targets {
		nodes = append(nodes, targetNode(t))
	}
	for _, s := range GroupByCategory(sites) {
		nodes = append(nodes, siteNode(s))
	}

	placed, layers := BuildLayers(nodes, c.Bands)
	placed = FitToFrame(placed, c.Bands, c.Margin)
	applyPinned(placed, sites)

	return &Placement{
		Mode:   domain.ModeCategorical,
		Nodes:  placed,
		Layers: layers,
		Resolver: routing.ResolverFunc(func(_ domain.Site, conn domain.Connection) (string, bool) {
			return routing.ClassifyConnection(conn).NodeID(), true
		}),
	}
}

// GeoConfig fixes the regions of the normalized frame the geographic
// strategy draws into
type GeoConfig struct {
	// HyperscalerY is the row holding cloud nodes
	HyperscalerY float64 `yaml:"hyperscaler_y" validate:"gte=0,lte=1"`
	// MapTop and MapBottom bound the projected map vertically
	MapTop    float64 `yaml:"map_top" validate:"gte=0,lte=1"`
	MapBottom float64 `yaml:"map_bottom" validate:"gtfield=MapTop,lte=1"`
	// FallbackY is the row holding sites without a location
	FallbackY float64 `yaml:"fallback_y" validate:"gte=0,lte=1"`
	// Margin bounds the map horizontally
	Margin float64 `yaml:"margin" validate:"gte=0,lt=0.5"`
}

// DefaultGeoConfig returns the stock geographic regions
func DefaultGeoConfig() GeoConfig {
	return GeoConfig{
		HyperscalerY: 0.08,
		MapTop:       0.22,
		MapBottom:    0.82,
		FallbackY:    0.92,
		Margin:       DefaultMargin,
	}
}

// Geographic projects sites and their nearest facilities onto a map, with
// facilities carrying cloud traffic up to the hyperscalers
type Geographic struct {
	Config GeoConfig
}

// NewGeographic creates the geographic strategy
func NewGeographic(cfg GeoConfig) *Geographic {
	return &Geographic{Config: cfg}
}

// Mode implements Strategy
func (g *Geographic) Mode() domain.Mode {
	return domain.ModeGeographic
}

// Place implements Strategy
func (g *Geographic) Place(sites []domain.Site, facilities []domain.Facility) *Placement {
	cfg := g.Config
	assignment := AssignFacilities(sites, facilities)

	byID := make(map[string]domain.Facility, len(facilities))
	for _, f := range facilities {
		if _, ok := byID[f.ID]; !ok {
			byID[f.ID] = f
		}
	}

	points := make([]domain.GeoPoint, 0, len(sites)+len(assignment.Order))
	for _, s := range sites {
		if s.Location != nil {
			points = append(points, *s.Location)
		}
	}
	for _, fid := range assignment.Order {
		points = append(points, byID[fid].Location())
	}
	bounds := geo.NewBounds(points...)

	toFrame := func(p domain.GeoPoint) domain.Point2D {
		u := bounds.Project(p)
		return domain.Point2D{
			X: cfg.Margin + u.X*(1-2*cfg.Margin),
			Y: cfg.MapTop + u.Y*(cfg.MapBottom-cfg.MapTop),
		}
	}

	// Hyperscalers are demanded only through sites that reach a facility
	assigned := make([]domain.Site, 0, len(sites))
	for _, s := range sites {
		if _, ok := assignment.FacilityOf[s.ID]; ok {
			assigned = append(assigned, s)
		}
	}
	clouds := demandedTargets(assigned, true)

	nodes := make([]domain.Node, 0, len(clouds)+len(assignment.Order)+len(sites))

	xs := evenRow(len(clouds), cfg.Margin, 1-cfg.Margin)
	for i, t := range clouds {
		n := targetNode(t)
		n.Position = domain.Point2D{X: xs[i], Y: cfg.HyperscalerY}
		nodes = append(nodes, n)
	}

	for _, fid := range assignment.Order {
		f := byID[fid]
		label := f.Name
		if label == "" {
			label = f.ID
		}
		n := domain.NewNode(FacilityNodeID(fid), domain.NodeRoleFacility, label)
		n.Position = toFrame(f.Location())
		nodes = append(nodes, n)
	}

	unlocated := make([]domain.Site, 0)
	for _, s := range sites {
		if s.Location == nil {
			unlocated = append(unlocated, s)
			continue
		}
		n := siteNode(s)
		n.Position = toFrame(*s.Location)
		if mi, ok := assignment.DistanceMiles[s.ID]; ok {
			d := mi
			n.DistanceMiles = &d
			n.DistanceLabel = geo.FormatMiles(mi)
		}
		nodes = append(nodes, n)
	}

	xs = evenRow(len(unlocated), cfg.Margin, 1-cfg.Margin)
	for i, s := range unlocated {
		n := siteNode(s)
		n.Position = domain.Point2D{X: xs[i], Y: cfg.FallbackY}
		nodes = append(nodes, n)
	}

	applyPinned(nodes, sites)

	return &Placement{
		Mode:       domain.ModeGeographic,
		Nodes:      nodes,
		Uplinks:    geoUplinks(assignment),
		Assignment: assignment,
		Resolver: routing.ResolverFunc(func(site domain.Site, _ domain.Connection) (string, bool) {
			fid, ok := assignment.Facility(site.ID)
			if !ok {
				return "", false
			}
			return FacilityNodeID(fid), true
		}),
	}
}

// geoUplinks links each facility to every hyperscaler its sites reach,
// once per pair
func geoUplinks(a *Assignment) []routing.Uplink {
	uplinks := make([]routing.Uplink, 0)
	for _, fid := range a.Order {
		for _, t := range demandedTargets(a.Groups[fid], true) {
			uplinks = append(uplinks, routing.Uplink{From: FacilityNodeID(fid), To: t.NodeID()})
		}
	}
	return uplinks
}

// evenRow spreads n points across [lo, hi], centred, half a step from each end
func evenRow(n int, lo, hi float64) []float64 {
	xs := make([]float64, n)
	step := (hi - lo) / float64(max(n, 1))
	for i := range xs {
		xs[i] = lo + step*(float64(i)+0.5)
	}
	return xs
}
