package domain

import (
	"crypto/sha256"
	"fmt"
)

// EdgeKind classifies an edge by the roles of its endpoints
type EdgeKind string

const (
	EdgeKindSiteToFacility        EdgeKind = "site_to_facility"
	EdgeKindSiteToCloud           EdgeKind = "site_to_cloud"
	EdgeKindFacilityToHyperscaler EdgeKind = "facility_to_hyperscaler"
	EdgeKindPointToPoint          EdgeKind = "point_to_point"
)

// EdgeKindFor derives the edge kind from endpoint roles. The second return
// value is false for role pairs that never form an edge.
func EdgeKindFor(from, to NodeRole) (EdgeKind, bool) {
	switch {
	case from == NodeRoleSite && to == NodeRoleSite:
		return EdgeKindPointToPoint, true
	case from == NodeRoleSite && to == NodeRoleFacility:
		return EdgeKindSiteToFacility, true
	case from == NodeRoleSite && to == NodeRoleHyperscaler:
		return EdgeKindSiteToCloud, true
	case from == NodeRoleFacility && to == NodeRoleHyperscaler:
		return EdgeKindFacilityToHyperscaler, true
	}
	return "", false
}

// Straight reports whether edges of this kind are drawn as straight segments
func (k EdgeKind) Straight() bool {
	return k == EdgeKindPointToPoint
}

// Edge is a derived connection between two placed nodes
type Edge struct {
	ID   string   `json:"id" yaml:"id"`
	From string   `json:"from" yaml:"from"`
	To   string   `json:"to" yaml:"to"`
	Kind EdgeKind `json:"kind" yaml:"kind"`

	// Curvature is the signed fan-out angle in radians. Zero for straight edges.
	Curvature float64 `json:"curvature" yaml:"curvature"`
	// Control is the quadratic control point, nil for straight edges.
	Control *Point2D `json:"control,omitempty" yaml:"control,omitempty"`
	// Path is from -> control -> to, or from -> to when straight.
	Path []Point2D `json:"path" yaml:"path"`

	ConnectionType string `json:"connection_type,omitempty" yaml:"connection_type,omitempty"`
	Bandwidth      string `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty"`
	Provider       string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Emphasis state for the renderer
	SelectedEndpoint bool `json:"selected_endpoint,omitempty" yaml:"selected_endpoint,omitempty"`
	HoveredEndpoint  bool `json:"hovered_endpoint,omitempty" yaml:"hovered_endpoint,omitempty"`
}

// EdgeID creates a deterministic ID for an edge. Endpoints are normalized so
// that point-to-point links declared from either side hash the same.
func EdgeID(fromID, toID string, kind EdgeKind, ordinal int) string {
	from, to := fromID, toID
	if kind == EdgeKindPointToPoint && from > to {
		from, to = to, from
	}

	key := fmt.Sprintf("%s-%s-%s-%d", from, to, kind, ordinal)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

// Touches reports whether the edge has nodeID as an endpoint
func (e Edge) Touches(nodeID string) bool {
	return nodeID != "" && (e.From == nodeID || e.To == nodeID)
}
