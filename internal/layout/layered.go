package layout

import "circuitmap/internal/domain"

// BandConfig fixes the y coordinate of each band and the horizontal spacing
// of siblings, in an arbitrary unit space. Only the ordering and the even
// spacing are contractual.
type BandConfig struct {
	HyperscalerY float64 `yaml:"hyperscaler_y"`
	FacilityY    float64 `yaml:"facility_y" validate:"gtfield=HyperscalerY"`
	SiteY        float64 `yaml:"site_y" validate:"gtfield=FacilityY"`
	Spacing      float64 `yaml:"spacing" validate:"gt=0"`
}

// DefaultBandConfig returns the stock band positions
func DefaultBandConfig() BandConfig {
	return BandConfig{
		HyperscalerY: 100,
		FacilityY:    300,
		SiteY:        500,
		Spacing:      180,
	}
}

// BandY returns the y coordinate of the band holding role
func (c BandConfig) BandY(role domain.NodeRole) float64 {
	switch role {
	case domain.NodeRoleHyperscaler:
		return c.HyperscalerY
	case domain.NodeRoleFacility:
		return c.FacilityY
	default:
		return c.SiteY
	}
}

// Layer is one horizontal band of the layered layout
type Layer struct {
	Role    domain.NodeRole `json:"role"`
	Y       float64         `json:"y"`
	Members []string        `json:"members"`
}

// SpreadX returns n x coordinates spaced by spacing and centred on zero:
// x_i = -(n-1)*spacing/2 + i*spacing.
func SpreadX(n int, spacing float64) []float64 {
	xs := make([]float64, n)
	start := -float64(n-1) * spacing / 2
	for i := range xs {
		xs[i] = start + float64(i)*spacing
	}
	return xs
}

// BuildLayers places nodes into the hyperscaler, facility and site bands,
// keeping the input order within each band. It returns the placed nodes in
// unit space (x centred on zero) and the three layers, top to bottom. A band
// with no nodes yields an empty layer.
func BuildLayers(nodes []domain.Node, cfg BandConfig) ([]domain.Node, []Layer) {
	roles := []domain.NodeRole{domain.NodeRoleHyperscaler, domain.NodeRoleFacility, domain.NodeRoleSite}

	layers := make([]Layer, len(roles))
	byRole := make(map[domain.NodeRole][]int)
	for i, n := range nodes {
		role := n.Role
		if role.Rank() == 2 {
			role = domain.NodeRoleSite
		}
		byRole[role] = append(byRole[role], i)
	}

	placed := make([]domain.Node, len(nodes))
	copy(placed, nodes)

	for li, role := range roles {
		idxs := byRole[role]
		y := cfg.BandY(role)
		xs := SpreadX(len(idxs), cfg.Spacing)

		layer := Layer{Role: role, Y: y, Members: make([]string, 0, len(idxs))}
		for j, idx := range idxs {
			placed[idx].Position = domain.Point2D{X: xs[j], Y: y}
			layer.Members = append(layer.Members, placed[idx].ID)
		}
		layers[li] = layer
	}

	return placed, layers
}

// GroupByCategory orders sites by category in order of first appearance,
// keeping input order inside each category.
func GroupByCategory(sites []domain.Site) []domain.Site {
	order := make([]string, 0)
	groups := make(map[string][]domain.Site)
	for _, s := range sites {
		if _, ok := groups[s.Category]; !ok {
			order = append(order, s.Category)
		}
		groups[s.Category] = append(groups[s.Category], s)
	}

	out := make([]domain.Site, 0, len(sites))
	for _, c := range order {
		out = append(out, groups[c]...)
	}
	return out
}
