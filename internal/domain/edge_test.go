package domain

import "testing"

func TestEdgeKindFor(t *testing.T) {
	tests := []struct {
		from, to NodeRole
		kind     EdgeKind
		ok       bool
	}{
		{NodeRoleSite, NodeRoleSite, EdgeKindPointToPoint, true},
		{NodeRoleSite, NodeRoleFacility, EdgeKindSiteToFacility, true},
		{NodeRoleSite, NodeRoleHyperscaler, EdgeKindSiteToCloud, true},
		{NodeRoleFacility, NodeRoleHyperscaler, EdgeKindFacilityToHyperscaler, true},
		{NodeRoleHyperscaler, NodeRoleSite, "", false},
		{NodeRoleFacility, NodeRoleFacility, "", false},
	}

	for _, tt := range tests {
		kind, ok := EdgeKindFor(tt.from, tt.to)
		if kind != tt.kind || ok != tt.ok {
			t.Errorf("EdgeKindFor(%s, %s) = (%s, %v), want (%s, %v)", tt.from, tt.to, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestEdgeID(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		if EdgeID("a", "b", EdgeKindSiteToFacility, 0) != EdgeID("a", "b", EdgeKindSiteToFacility, 0) {
			t.Error("expected same inputs to generate same ID")
		}
	})

	t.Run("normalizes point-to-point endpoints", func(t *testing.T) {
		if EdgeID("a", "b", EdgeKindPointToPoint, 0) != EdgeID("b", "a", EdgeKindPointToPoint, 0) {
			t.Error("expected reversed point-to-point endpoints to generate same ID")
		}
	})

	t.Run("keeps direction for routed edges", func(t *testing.T) {
		if EdgeID("a", "b", EdgeKindSiteToFacility, 0) == EdgeID("b", "a", EdgeKindSiteToFacility, 0) {
			t.Error("expected reversed routed edges to differ")
		}
	})

	t.Run("ordinal separates parallel edges", func(t *testing.T) {
		if EdgeID("a", "b", EdgeKindSiteToFacility, 0) == EdgeID("a", "b", EdgeKindSiteToFacility, 1) {
			t.Error("expected parallel edges to get different IDs")
		}
	})

	t.Run("generates short hash", func(t *testing.T) {
		id := EdgeID("a", "b", EdgeKindSiteToCloud, 0)
		if len(id) != 16 {
			t.Errorf("expected 16 hex characters, got %d", len(id))
		}
	})
}

func TestEdgeTouches(t *testing.T) {
	e := Edge{From: "site-1", To: "cloud:mpls"}

	if !e.Touches("site-1") || !e.Touches("cloud:mpls") {
		t.Error("expected edge to touch both endpoints")
	}
	if e.Touches("site-2") {
		t.Error("expected edge not to touch unrelated node")
	}
	if e.Touches("") {
		t.Error("expected empty id never to match")
	}
}
