package domain

// Mode selects the placement strategy of a layout pass
type Mode string

const (
	ModeCategorical Mode = "categorical"
	ModeGeographic  Mode = "geographic"
)

// ParseMode returns the mode for s, defaulting to categorical
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeGeographic:
		return ModeGeographic
	default:
		return ModeCategorical
	}
}

// Scene is the output of one layout pass
type Scene struct {
	Mode  Mode   `json:"mode" yaml:"mode"`
	Frame Frame  `json:"frame" yaml:"frame"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// NewScene creates an empty scene in the given frame
func NewScene(mode Mode, frame Frame) *Scene {
	return &Scene{
		Mode:  mode,
		Frame: frame,
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// Node returns the node with the given ID
func (s *Scene) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Positions returns node positions keyed by node ID
func (s *Scene) Positions() map[string]Point2D {
	positions := make(map[string]Point2D, len(s.Nodes))
	for _, n := range s.Nodes {
		positions[n.ID] = n.Position
	}
	return positions
}

// Roles returns node roles keyed by node ID
func (s *Scene) Roles() map[string]NodeRole {
	roles := make(map[string]NodeRole, len(s.Nodes))
	for _, n := range s.Nodes {
		roles[n.ID] = n.Role
	}
	return roles
}

// Clone returns a deep copy of the scene
func (s *Scene) Clone() *Scene {
	out := &Scene{
		Mode:  s.Mode,
		Frame: s.Frame,
		Nodes: make([]Node, len(s.Nodes)),
		Edges: make([]Edge, len(s.Edges)),
	}
	copy(out.Nodes, s.Nodes)
	for i, e := range s.Edges {
		if e.Control != nil {
			c := *e.Control
			e.Control = &c
		}
		e.Path = append([]Point2D(nil), e.Path...)
		out.Edges[i] = e
	}
	return out
}
