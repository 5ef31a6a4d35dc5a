// Package routing turns site connections into scene edges.
//
// Routing is split in two phases. Resolve works on topology only: it decides
// which node every connection lands on, drops connections whose target is
// not in the scene, and assigns each link its slot in the fan of links that
// converge on the same node. Shape works on geometry only: given positions in
// any single frame it computes control points and paths. Resolve runs once
// per layout pass; Shape runs again whenever positions move, so fan slots
// never reshuffle while a node is being dragged.
//
// # Target Resolution
//
// For every connection, first match wins:
//
//  1. Point-to-point (type mentions "point" or an endpoint is named): the
//     other site, matched by ID or name. Missing sites drop the link.
//  2. Otherwise the Resolver injected by the placement strategy names the
//     target node. The categorical strategy classifies the connection
//     (MPLS/VPLS, a cloud provider, or Internet); the geographic strategy
//     answers with the site's nearest facility.
//  3. A target with no node in the scene drops the link.
//
// Nothing in this package returns an error. Dropped links are counted in
// Stats for diagnostics.
package routing
