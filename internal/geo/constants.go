package geo

// Pathfinding configuration.
const (
	// MaxSearchIterations bounds A* node expansions per search.
	MaxSearchIterations = 1 << 16

	// StepCost is the cost of one cardinal move.
	StepCost = 1
)

// SearchStatus reports how a route relates to the requested goal.
type SearchStatus int

const (
	// Connected: the route ends at the goal.
	Connected SearchStatus = 0
	// Partial: the goal was not reached; the route ends at the closest reachable cell.
	Partial SearchStatus = 1
	// Unreachable: no cell closer to the goal than the start is reachable.
	Unreachable SearchStatus = 2
)

// String returns human-readable status name
func (s SearchStatus) String() string {
	switch s {
	case Connected:
		return "connected"
	case Partial:
		return "partial"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}
