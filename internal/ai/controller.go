package ai

import (
	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
)

// Policy picks the next move of one car.
type Policy interface {
	// Decide returns the direction car id should move in this tick.
	// ok is false when the car should stay (stuck, no route, nothing to do).
	// prev is the last committed direction of the car.
	Decide(w *model.WorldSnapshot, id model.CarID, prev geo.Direction) (d geo.Direction, ok bool)
}

// Forgetter is implemented by policies that keep per-car state.
type Forgetter interface {
	// Forget drops state kept for car id.
	Forget(id model.CarID)
}

// Pathfinder finds routes on a passability grid.
// The path runs from the step after start to its last cell and may be empty.
// Status geo.Connected means the path ends at goal.
type Pathfinder interface {
	Search(g *geo.Grid, start, goal geo.Point) ([]geo.Point, geo.SearchStatus)
}
