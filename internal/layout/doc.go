// Package layout places scene nodes in the normalized frame. Two strategies
// share the package: a categorical one built on fixed role bands and a
// geographic one built on nearest-facility assignment and a map projection.
package layout
