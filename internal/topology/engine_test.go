package topology

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"circuitmap/internal/domain"
	"circuitmap/internal/layout"
	"circuitmap/internal/metrics"
	"circuitmap/internal/routing"
)

func newTestEngine(opts ...Option) *Engine {
	return New(routing.NewRouter(routing.DefaultOptions(), zerolog.Nop()), zerolog.Nop(), opts...)
}

func site(id string, conns ...domain.Connection) domain.Site {
	return domain.Site{ID: id, Name: id, Category: "branch", Connections: conns}
}

func TestBuildSharedMPLS(t *testing.T) {
	e := newTestEngine()
	in := Input{
		Mode: domain.ModeCategorical,
		Sites: []domain.Site{
			site("a", domain.Connection{Type: "mpls"}),
			site("b", domain.Connection{Type: "mpls"}),
			site("c", domain.Connection{Type: "mpls"}),
		},
	}

	res, err := e.Build(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wan := routing.TargetPrivateWAN.NodeID()
	if _, ok := res.Scene.Node(wan); !ok {
		t.Fatal("expected a shared private WAN node")
	}
	if len(res.Scene.Nodes) != 4 {
		t.Errorf("expected 4 nodes, got %d", len(res.Scene.Nodes))
	}
	if len(res.Scene.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(res.Scene.Edges))
	}

	seen := make(map[domain.Point2D]string)
	for _, edge := range res.Scene.Edges {
		if edge.To != wan {
			t.Errorf("expected edge to %s, got %s", wan, edge.To)
		}
		if edge.Control == nil {
			t.Fatalf("expected a control point on %s", edge.From)
		}
		if other, dup := seen[*edge.Control]; dup {
			t.Errorf("expected distinct control points, %s and %s coincide", edge.From, other)
		}
		seen[*edge.Control] = edge.From
	}
}

func TestBuildPointToPointMissingEndpoint(t *testing.T) {
	e := newTestEngine()
	res, err := e.Build(Input{Sites: []domain.Site{
		site("a", domain.Connection{Type: "Point to Point", PointToPointEndpoint: "Ghost"}),
		site("b"),
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Scene.Edges) != 0 {
		t.Errorf("expected no edges, got %d", len(res.Scene.Edges))
	}
	if res.Stats.Dropped[routing.DropUnmatchedSite] != 1 {
		t.Errorf("expected one unmatched drop, got %v", res.Stats.Dropped)
	}
	if res.Scene.Mode != domain.ModeCategorical {
		t.Errorf("expected empty mode to default to categorical, got %s", res.Scene.Mode)
	}
}

func TestBuildGeographic(t *testing.T) {
	e := newTestEngine()
	boston := site("boston", domain.Connection{Type: "AWS Direct Connect"}, domain.Connection{Type: "Broadband"})
	boston.Location = &domain.GeoPoint{Lat: 42.3601, Lon: -71.0589}
	denver := site("denver", domain.Connection{Type: "Broadband"})
	denver.Location = &domain.GeoPoint{Lat: 39.7392, Lon: -104.9903}

	res, err := e.Build(Input{
		Mode:  domain.ModeGeographic,
		Sites: []domain.Site{boston, denver},
		Facilities: []domain.Facility{
			{ID: "nyc", Name: "NYC", Lat: 40.7128, Lon: -74.0060},
			{ID: "den", Name: "Denver", Lat: 39.7392, Lon: -104.9903},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kinds := make(map[domain.EdgeKind]int)
	for _, edge := range res.Scene.Edges {
		kinds[edge.Kind]++
	}
	if kinds[domain.EdgeKindSiteToFacility] != 3 {
		t.Errorf("expected 3 site to facility edges, got %d", kinds[domain.EdgeKindSiteToFacility])
	}
	if kinds[domain.EdgeKindFacilityToHyperscaler] != 1 {
		t.Errorf("expected 1 facility to hyperscaler edge, got %d", kinds[domain.EdgeKindFacilityToHyperscaler])
	}

	d, ok := res.Scene.Node("denver")
	if !ok || d.DistanceMiles == nil || *d.DistanceMiles != 0 {
		t.Errorf("expected denver at zero miles from its facility, got %+v", d)
	}
	if res.Assignment == nil || res.Assignment.FacilityOf["boston"] != "nyc" {
		t.Error("expected boston assigned to nyc")
	}
}

func TestBuildDuplicateSites(t *testing.T) {
	e := newTestEngine()
	res, err := e.Build(Input{Sites: []domain.Site{
		site("a", domain.Connection{Type: "mpls"}),
		site("a", domain.Connection{Type: "aws"}),
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.DuplicateSites != 1 {
		t.Errorf("expected one duplicate, got %d", res.DuplicateSites)
	}
	if _, ok := res.Scene.Node(routing.TargetAWS.NodeID()); ok {
		t.Error("expected the duplicate's connections to be ignored")
	}

	ids := make(map[string]bool)
	for _, n := range res.Scene.Nodes {
		if ids[n.ID] {
			t.Errorf("expected unique node ids, %s repeats", n.ID)
		}
		ids[n.ID] = true
	}
}

func TestBuildUnknownMode(t *testing.T) {
	e := newTestEngine(WithStrategy(layout.NewCategorical(layout.DefaultBandConfig(), layout.DefaultMargin)))

	_, err := e.Build(Input{Mode: domain.ModeGeographic})
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}

	if modes := e.Modes(); len(modes) != 1 || modes[0] != domain.ModeCategorical {
		t.Errorf("expected only categorical, got %v", modes)
	}
}

func TestBuildEdgesNeverDangle(t *testing.T) {
	e := newTestEngine(WithMetrics(metrics.New()))
	res, err := e.Build(Input{Sites: []domain.Site{
		site("a", domain.Connection{Type: "Point to Point", PointToPointEndpoint: "b"}, domain.Connection{Type: "gcp"}),
		site("b", domain.Connection{Type: "Point to Point", PointToPointEndpoint: "a"}, domain.Connection{}),
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, edge := range res.Scene.Edges {
		if _, ok := res.Scene.Node(edge.From); !ok {
			t.Errorf("edge %s starts at missing node %s", edge.ID, edge.From)
		}
		if _, ok := res.Scene.Node(edge.To); !ok {
			t.Errorf("edge %s ends at missing node %s", edge.ID, edge.To)
		}
	}
	if len(res.Links) != len(res.Scene.Edges) {
		t.Errorf("expected a link per edge, got %d links and %d edges", len(res.Links), len(res.Scene.Edges))
	}
}
