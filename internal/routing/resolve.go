package routing

import (
	"strings"

	"circuitmap/internal/domain"
)

// Resolver names the node a non point-to-point connection lands on.
// Placement strategies supply the implementation.
type Resolver interface {
	ResolveTarget(site domain.Site, conn domain.Connection) (nodeID string, ok bool)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(site domain.Site, conn domain.Connection) (string, bool)

// ResolveTarget calls f
func (f ResolverFunc) ResolveTarget(site domain.Site, conn domain.Connection) (string, bool) {
	return f(site, conn)
}

// ClassifyConnection classifies a connection using its type and both
// provider fields
func ClassifyConnection(conn domain.Connection) Target {
	provider := strings.TrimSpace(conn.Provider + " " + conn.CustomProvider)
	return Classify(conn.Type, provider)
}

// Uplink is an edge the strategy adds between two non-site nodes, such as a
// facility carrying traffic to a hyperscaler
type Uplink struct {
	From string
	To   string
}

// Link is a resolved, not yet shaped edge
type Link struct {
	From       string
	To         string
	Kind       domain.EdgeKind
	Connection domain.Connection

	// Ordinal separates parallel links with the same endpoints and kind
	Ordinal int
	// FanIndex and FanSize place the link among every curved link that
	// converges on the same target node
	FanIndex int
	FanSize  int
}

// DropReason explains why a connection produced no link
type DropReason string

const (
	DropMissingEndpoint DropReason = "missing_endpoint" // point-to-point without an endpoint reference
	DropUnmatchedSite   DropReason = "unmatched_site"   // point-to-point endpoint not in the scene
	DropSelfLink        DropReason = "self_link"        // point-to-point endpoint is the site itself
	DropDuplicate       DropReason = "duplicate"        // other direction of an already routed point-to-point link
	DropUnresolved      DropReason = "unresolved"       // resolver found no target
	DropNoTargetNode    DropReason = "no_target_node"   // target not present in the scene
)

// Stats counts resolution outcomes of one pass
type Stats struct {
	Routed  int                `json:"routed"`
	Dropped map[DropReason]int `json:"dropped,omitempty"`
}

// DroppedTotal returns the number of dropped connections
func (s Stats) DroppedTotal() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

func (s *Stats) drop(reason DropReason) {
	if s.Dropped == nil {
		s.Dropped = make(map[DropReason]int)
	}
	s.Dropped[reason]++
}

// Resolve links every connection of sites to a node in roles. Sites that are
// not themselves in roles are skipped.
func (r *Router) Resolve(sites []domain.Site, roles map[string]domain.NodeRole, resolver Resolver, uplinks []Uplink) ([]Link, Stats) {
	var stats Stats
	links := make([]Link, 0)

	present := make([]domain.Site, 0, len(sites))
	for _, s := range sites {
		if roles[s.ID] == domain.NodeRoleSite {
			present = append(present, s)
		}
	}

	// Point-to-point circuits are often entered on both sites. Per site pair,
	// emit as many links as the busier side declares.
	declared := make(map[[2]string]int)
	emitted := make(map[[2]string]int)

	for _, site := range present {
		for _, conn := range site.Connections {
			if conn.IsPointToPoint() {
				ref := strings.TrimSpace(conn.PointToPointEndpoint)
				if ref == "" {
					stats.drop(DropMissingEndpoint)
					r.logDrop(site.ID, conn, DropMissingEndpoint)
					continue
				}
				other, ok := findSite(present, ref)
				if !ok {
					stats.drop(DropUnmatchedSite)
					r.logDrop(site.ID, conn, DropUnmatchedSite)
					continue
				}
				if other.ID == site.ID {
					stats.drop(DropSelfLink)
					r.logDrop(site.ID, conn, DropSelfLink)
					continue
				}

				directed := [2]string{site.ID, other.ID}
				pair := pairKey(site.ID, other.ID)
				declared[directed]++
				if declared[directed] <= emitted[pair] {
					stats.drop(DropDuplicate)
					continue
				}
				emitted[pair]++

				links = append(links, Link{
					From:       site.ID,
					To:         other.ID,
					Kind:       domain.EdgeKindPointToPoint,
					Connection: conn,
				})
				continue
			}

			if resolver == nil {
				stats.drop(DropUnresolved)
				continue
			}
			targetID, ok := resolver.ResolveTarget(site, conn)
			if !ok {
				stats.drop(DropUnresolved)
				r.logDrop(site.ID, conn, DropUnresolved)
				continue
			}
			role, ok := roles[targetID]
			if !ok {
				stats.drop(DropNoTargetNode)
				r.logDrop(site.ID, conn, DropNoTargetNode)
				continue
			}
			kind, ok := domain.EdgeKindFor(domain.NodeRoleSite, role)
			if !ok {
				stats.drop(DropUnresolved)
				continue
			}

			links = append(links, Link{
				From:       site.ID,
				To:         targetID,
				Kind:       kind,
				Connection: conn,
			})
		}
	}

	for _, up := range uplinks {
		fromRole, okFrom := roles[up.From]
		toRole, okTo := roles[up.To]
		if !okFrom || !okTo {
			stats.drop(DropNoTargetNode)
			continue
		}
		kind, ok := domain.EdgeKindFor(fromRole, toRole)
		if !ok {
			stats.drop(DropUnresolved)
			continue
		}
		links = append(links, Link{From: up.From, To: up.To, Kind: kind})
	}

	assignOrdinals(links)
	assignFans(links)
	stats.Routed = len(links)

	return links, stats
}

func (r *Router) logDrop(siteID string, conn domain.Connection, reason DropReason) {
	r.logger.Debug().
		Str("site_id", siteID).
		Str("type", conn.Type).
		Str("endpoint", conn.PointToPointEndpoint).
		Str("reason", string(reason)).
		Msg("connection dropped")
}

// findSite prefers an exact ID match over a name match
func findSite(sites []domain.Site, ref string) (domain.Site, bool) {
	for _, s := range sites {
		if s.ID == ref {
			return s, true
		}
	}
	for _, s := range sites {
		if s.Matches(ref) {
			return s, true
		}
	}
	return domain.Site{}, false
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func assignOrdinals(links []Link) {
	seen := make(map[[3]string]int)
	for i := range links {
		key := [3]string{links[i].From, links[i].To, string(links[i].Kind)}
		if links[i].Kind == domain.EdgeKindPointToPoint {
			p := pairKey(links[i].From, links[i].To)
			key = [3]string{p[0], p[1], string(links[i].Kind)}
		}
		links[i].Ordinal = seen[key]
		seen[key]++
	}
}

// assignFans groups curved links by target node in input order
func assignFans(links []Link) {
	size := make(map[string]int)
	for _, l := range links {
		if !l.Kind.Straight() {
			size[l.To]++
		}
	}
	next := make(map[string]int)
	for i := range links {
		if links[i].Kind.Straight() {
			continue
		}
		links[i].FanIndex = next[links[i].To]
		links[i].FanSize = size[links[i].To]
		next[links[i].To]++
	}
}
