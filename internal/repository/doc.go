// Package repository defines the data access interfaces for circuitmap.
//
// The repository stores the inventory the layout engine runs on: sites with
// their connections, the facility catalog, and the normalized coordinates
// committed at the end of each drag. Layout results themselves are never
// stored; they are recomputed from this data on every pass.
//
// # SQLite Implementation
//
// The sqlite subpackage implements Repository on SQLite in WAL mode. It
// migrates its schema on open, keeps inventory order through an ordinal
// column, and replaces whole inventories transactionally.
package repository
