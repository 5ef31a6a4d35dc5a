// Package domain defines the core types of the circuitmap topology engine.
//
// The types fall into two groups. Inventory records (Site, Connection,
// Facility) are consumed from the surrounding system and never mutated by the
// engine. Scene types (Node, Edge, Scene) are a pure projection computed on
// every layout pass and are never persisted.
//
// # Coordinate Frames
//
// Point2D carries no frame of its own. A Scene records which frame its
// positions are in: FrameNormalized positions live in [0,1]x[0,1] with the
// origin at the top left and are what callers persist; FramePixel positions
// are viewport-relative and ephemeral. Conversion between frames is always
// explicit.
//
// # Design Principles
//
// - Value types, no database or transport dependencies
// - Deterministic identifiers derived from content
package domain
