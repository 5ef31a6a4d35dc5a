package layout

import (
	"math"
	"testing"

	"circuitmap/internal/domain"
	"circuitmap/internal/routing"
)

func nodeByID(t *testing.T, nodes []domain.Node, id string) domain.Node {
	t.Helper()
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("expected node %s to be placed", id)
	return domain.Node{}
}

func hasNode(nodes []domain.Node, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

func TestCategoricalPlace(t *testing.T) {
	sites := []domain.Site{
		{ID: "hq", Name: "HQ", Category: "office", Connections: []domain.Connection{
			{Type: "MPLS", Bandwidth: "100M"},
			{Type: "DIA", Provider: "AWS Direct Connect"},
		}},
		{ID: "store", Name: "Store", Category: "retail", Connections: []domain.Connection{
			{Type: "Broadband"},
			{Type: "Point to Point", PointToPointEndpoint: "HQ"},
		}},
	}

	s := NewCategorical(DefaultBandConfig(), DefaultMargin)
	if s.Mode() != domain.ModeCategorical {
		t.Errorf("expected categorical mode, got %s", s.Mode())
	}

	p := s.Place(sites, nil)

	if len(p.Nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(p.Nodes))
	}
	for _, target := range []routing.Target{routing.TargetAWS, routing.TargetPrivateWAN, routing.TargetInternet} {
		if !hasNode(p.Nodes, target.NodeID()) {
			t.Errorf("expected demanded target %s", target)
		}
	}
	for _, target := range []routing.Target{routing.TargetAzure, routing.TargetGCP, routing.TargetOracle} {
		if hasNode(p.Nodes, target.NodeID()) {
			t.Errorf("expected undemanded target %s to be absent", target)
		}
	}

	aws := nodeByID(t, p.Nodes, routing.TargetAWS.NodeID())
	wan := nodeByID(t, p.Nodes, routing.TargetPrivateWAN.NodeID())
	hq := nodeByID(t, p.Nodes, "hq")
	if aws.Role != domain.NodeRoleHyperscaler || wan.Role != domain.NodeRoleFacility {
		t.Errorf("expected cloud in hyperscaler band and WAN in facility band, got %s and %s", aws.Role, wan.Role)
	}
	if !(aws.Position.Y < wan.Position.Y && wan.Position.Y < hq.Position.Y) {
		t.Errorf("expected bands ordered top to bottom, got %v %v %v", aws.Position.Y, wan.Position.Y, hq.Position.Y)
	}
	const eps = 1e-9
	for _, n := range p.Nodes {
		if n.Position.X < DefaultMargin-eps || n.Position.X > 1-DefaultMargin+eps || n.Position.Y < DefaultMargin-eps || n.Position.Y > 1-DefaultMargin+eps {
			t.Errorf("expected %s inside the frame, got %v", n.ID, n.Position)
		}
	}

	id, ok := p.Resolver.ResolveTarget(sites[0], sites[0].Connections[0])
	if !ok || id != routing.TargetPrivateWAN.NodeID() {
		t.Errorf("expected MPLS to resolve to private WAN, got %q", id)
	}
	if len(p.Uplinks) != 0 {
		t.Errorf("expected no uplinks, got %v", p.Uplinks)
	}
	if len(p.Layers) != 3 {
		t.Errorf("expected 3 layers, got %d", len(p.Layers))
	}
}

func TestCategoricalPinnedCoordinates(t *testing.T) {
	sites := []domain.Site{
		{ID: "a", Coordinates: &domain.Point2D{X: 0.3, Y: 0.4}},
		{ID: "b", Coordinates: &domain.Point2D{X: 0, Y: 2}},
		{ID: "c"},
	}

	p := NewCategorical(DefaultBandConfig(), DefaultMargin).Place(sites, nil)

	a := nodeByID(t, p.Nodes, "a")
	if !a.Pinned || a.Position != (domain.Point2D{X: 0.3, Y: 0.4}) {
		t.Errorf("expected a pinned at (0.3,0.4), got %v pinned=%v", a.Position, a.Pinned)
	}
	b := nodeByID(t, p.Nodes, "b")
	if b.Position != (domain.Point2D{X: 0.05, Y: 0.95}) {
		t.Errorf("expected b clamped to (0.05,0.95), got %v", b.Position)
	}
	if nodeByID(t, p.Nodes, "c").Pinned {
		t.Error("expected c to keep its band position")
	}
}

func TestCategoricalNoSites(t *testing.T) {
	p := NewCategorical(DefaultBandConfig(), DefaultMargin).Place(nil, nil)
	if len(p.Nodes) != 0 {
		t.Errorf("expected empty placement, got %d nodes", len(p.Nodes))
	}
}

func TestGeographicPlace(t *testing.T) {
	facilities := []domain.Facility{
		{ID: "nyc", Name: "NYC POP", Lat: 40.7128, Lon: -74.0060},
		{ID: "lax", Name: "LAX POP", Lat: 34.0522, Lon: -118.2437},
		{ID: "unused", Name: "Honolulu", Lat: 21.3069, Lon: -157.8583},
	}
	boston := locatedSite("boston", 42.3601, -71.0589)
	boston.Connections = []domain.Connection{{Type: "DIA", Provider: "Azure ExpressRoute"}, {Type: "MPLS"}}
	philly := locatedSite("philly", 39.9526, -75.1652)
	philly.Connections = []domain.Connection{{Type: "AWS Direct Connect"}}
	sd := locatedSite("san-diego", 32.7157, -117.1611)
	sd.Connections = []domain.Connection{{Type: "Broadband"}}
	remote := domain.Site{ID: "remote", Name: "Remote", Connections: []domain.Connection{{Type: "AWS"}}}

	s := NewGeographic(DefaultGeoConfig())
	if s.Mode() != domain.ModeGeographic {
		t.Errorf("expected geographic mode, got %s", s.Mode())
	}

	p := s.Place([]domain.Site{boston, philly, sd, remote}, facilities)

	if hasNode(p.Nodes, FacilityNodeID("unused")) {
		t.Error("expected facility without sites to be omitted")
	}
	nyc := nodeByID(t, p.Nodes, FacilityNodeID("nyc"))
	lax := nodeByID(t, p.Nodes, FacilityNodeID("lax"))
	if nyc.Label != "NYC POP" {
		t.Errorf("expected facility label NYC POP, got %s", nyc.Label)
	}
	if !(lax.Position.X < nyc.Position.X) {
		t.Errorf("expected LAX west of NYC, got %v and %v", lax.Position, nyc.Position)
	}
	if !(lax.Position.Y > nyc.Position.Y) {
		t.Errorf("expected LAX south of NYC, got %v and %v", lax.Position, nyc.Position)
	}

	if hasNode(p.Nodes, routing.TargetGCP.NodeID()) {
		t.Error("expected no GCP node")
	}
	aws := nodeByID(t, p.Nodes, routing.TargetAWS.NodeID())
	azure := nodeByID(t, p.Nodes, routing.TargetAzure.NodeID())
	if aws.Position.Y != DefaultGeoConfig().HyperscalerY || azure.Position.Y != aws.Position.Y {
		t.Errorf("expected hyperscalers on the top row, got %v and %v", aws.Position, azure.Position)
	}

	b := nodeByID(t, p.Nodes, "boston")
	if b.DistanceMiles == nil || *b.DistanceMiles <= 0 {
		t.Fatal("expected boston to carry a distance")
	}
	if b.DistanceLabel == "" {
		t.Error("expected boston to carry a distance label")
	}

	r := nodeByID(t, p.Nodes, "remote")
	if r.Position.Y != DefaultGeoConfig().FallbackY {
		t.Errorf("expected unlocated site on the fallback row, got %v", r.Position)
	}
	if r.DistanceMiles != nil {
		t.Error("expected no distance for unlocated site")
	}

	id, ok := p.Resolver.ResolveTarget(boston, boston.Connections[0])
	if !ok || id != FacilityNodeID("nyc") {
		t.Errorf("expected boston to resolve to nyc, got %q", id)
	}
	if _, ok := p.Resolver.ResolveTarget(remote, remote.Connections[0]); ok {
		t.Error("expected unassigned site to be unresolvable")
	}

	want := []routing.Uplink{
		{From: FacilityNodeID("nyc"), To: routing.TargetAWS.NodeID()},
		{From: FacilityNodeID("nyc"), To: routing.TargetAzure.NodeID()},
	}
	if len(p.Uplinks) != len(want) {
		t.Fatalf("expected %d uplinks, got %v", len(want), p.Uplinks)
	}
	for i := range want {
		if p.Uplinks[i] != want[i] {
			t.Errorf("expected uplink %v, got %v", want[i], p.Uplinks[i])
		}
	}

	if p.Assignment == nil || p.Assignment.FacilityOf["san-diego"] != "lax" {
		t.Error("expected assignment to be exposed")
	}
}

func TestGeographicEmptyCatalog(t *testing.T) {
	a := locatedSite("a", 40, -100)
	a.Connections = []domain.Connection{{Type: "AWS"}}

	p := NewGeographic(DefaultGeoConfig()).Place([]domain.Site{a}, nil)

	if len(p.Nodes) != 1 {
		t.Fatalf("expected only the site node, got %d", len(p.Nodes))
	}
	if n := p.Nodes[0]; math.Abs(n.Position.X-0.5) > 1e-9 || math.Abs(n.Position.Y-0.52) > 1e-9 {
		t.Errorf("expected lone site centred on the map, got %v", n.Position)
	}
	if _, ok := p.Resolver.ResolveTarget(a, a.Connections[0]); ok {
		t.Error("expected no target without facilities")
	}
	if len(p.Uplinks) != 0 {
		t.Errorf("expected no uplinks, got %v", p.Uplinks)
	}
}
