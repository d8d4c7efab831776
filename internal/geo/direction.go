package geo

// Direction is a cardinal move direction. Values match the city API move codes.
type Direction int

const (
	North Direction = 0
	East  Direction = 1
	South Direction = 2
	West  Direction = 3
)

// AllDirections lists directions in enumeration order.
var AllDirections = [4]Direction{North, East, South, West}

var opposites = map[Direction]Direction{
	North: South,
	South: North,
	East:  West,
	West:  East,
}

// step offsets; north increases y.
var offsets = map[Direction][2]int{
	North: {0, 1},
	East:  {1, 0},
	South: {0, -1},
	West:  {-1, 0},
}

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	_, ok := opposites[d]
	return ok
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	return opposites[d]
}

// IsOpposite reports whether d and other form a north/south or east/west pair.
// A direction is never its own opposite.
func (d Direction) IsOpposite(other Direction) bool {
	o, ok := opposites[d]
	return ok && o == other
}

// Offset returns the (dx, dy) of one step in d.
func (d Direction) Offset() (int, int) {
	o := offsets[d]
	return o[0], o[1]
}

// DirectionBetween returns the direction of a single cardinal step from 'from' to 'to'.
// ok is false when the cells are not 4-adjacent.
func DirectionBetween(from, to Point) (Direction, bool) {
	dx, dy := to.X-from.X, to.Y-from.Y
	for _, d := range AllDirections {
		o := offsets[d]
		if o[0] == dx && o[1] == dy {
			return d, true
		}
	}
	return 0, false
}

// String returns human-readable direction name
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}
