package domain

// NodeRole determines which band a node belongs to and how edges attach to it
type NodeRole string

const (
	NodeRoleHyperscaler NodeRole = "hyperscaler" // Cloud provider or application endpoint
	NodeRoleFacility    NodeRole = "facility"    // Point of presence, cloud gateway or WAN cloud
	NodeRoleSite        NodeRole = "site"        // Customer location
)

// Rank orders roles top to bottom
func (r NodeRole) Rank() int {
	switch r {
	case NodeRoleHyperscaler:
		return 0
	case NodeRoleFacility:
		return 1
	default:
		return 2
	}
}

// Node is a placed vertex of the scene graph
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Role     NodeRole `json:"role" yaml:"role"`
	Label    string   `json:"label" yaml:"label"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
	Position Point2D  `json:"position" yaml:"position"`

	// Pinned is set when the position came from persisted site coordinates
	// rather than from the placement strategy.
	Pinned bool `json:"pinned,omitempty" yaml:"pinned,omitempty"`

	// Nearest-facility labelling, geographic mode only
	DistanceMiles *float64 `json:"distance_miles,omitempty" yaml:"distance_miles,omitempty"`
	DistanceLabel string   `json:"distance_label,omitempty" yaml:"distance_label,omitempty"`
}

// NewNode creates a node at the origin
func NewNode(id string, role NodeRole, label string) Node {
	return Node{
		ID:    id,
		Role:  role,
		Label: label,
	}
}

// IsSite reports whether the node represents a customer site
func (n Node) IsSite() bool {
	return n.Role == NodeRoleSite
}
