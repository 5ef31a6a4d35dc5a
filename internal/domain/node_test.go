package domain

import "testing"

func TestNewNode(t *testing.T) {
	n := NewNode("site-1", NodeRoleSite, "Branch")

	if n.ID != "site-1" {
		t.Errorf("expected ID 'site-1', got %s", n.ID)
	}
	if n.Role != NodeRoleSite {
		t.Errorf("expected role %s, got %s", NodeRoleSite, n.Role)
	}
	if n.Position != (Point2D{}) {
		t.Errorf("expected origin position, got %+v", n.Position)
	}
	if !n.IsSite() {
		t.Error("expected IsSite to be true")
	}
}

func TestNodeRoleRank(t *testing.T) {
	if !(NodeRoleHyperscaler.Rank() < NodeRoleFacility.Rank() && NodeRoleFacility.Rank() < NodeRoleSite.Rank()) {
		t.Error("expected hyperscaler above facility above site")
	}
}

func TestConnectionIsPointToPoint(t *testing.T) {
	tests := []struct {
		name string
		conn Connection
		want bool
	}{
		{"type mentions point", Connection{Type: "Point to Point"}, true},
		{"lowercase", Connection{Type: "point-to-point"}, true},
		{"explicit endpoint", Connection{Type: "Dark Fiber", PointToPointEndpoint: "HQ"}, true},
		{"blank endpoint", Connection{Type: "MPLS", PointToPointEndpoint: "  "}, false},
		{"mpls", Connection{Type: "MPLS"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conn.IsPointToPoint(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestConnectionProviderName(t *testing.T) {
	if got := (Connection{Provider: "Other", CustomProvider: "Lumen"}).ProviderName(); got != "Lumen" {
		t.Errorf("expected custom provider, got %s", got)
	}
	if got := (Connection{Provider: "AT&T"}).ProviderName(); got != "AT&T" {
		t.Errorf("expected provider, got %s", got)
	}
}

func TestSiteMatches(t *testing.T) {
	s := Site{ID: "s-42", Name: "Chicago DC"}

	tests := []struct {
		ref  string
		want bool
	}{
		{"s-42", true},
		{"Chicago DC", true},
		{"chicago dc", true},
		{" Chicago DC ", true},
		{"Dallas", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := s.Matches(tt.ref); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestSiteLabel(t *testing.T) {
	if (Site{ID: "s1"}).Label() != "s1" {
		t.Error("expected ID fallback")
	}
	if (Site{ID: "s1", Name: "HQ"}).Label() != "HQ" {
		t.Error("expected name")
	}
}
