// Package viewport mediates live position edits for one viewer.
//
// A State holds the last layout pass in the normalized frame and derives
// pixel positions from the current viewport size. While a site is dragged
// its pixel position is ephemeral; the drag end converts it back, clamps it
// and commits it once to a PositionSink.
package viewport
