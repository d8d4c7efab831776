package geo

import (
	"errors"
	"fmt"
)

// ErrGridSize is returned when the passability slice does not cover width*height cells.
var ErrGridSize = errors.New("grid size mismatch")

// Point is a cell coordinate on the city grid.
type Point struct {
	X, Y int
}

// Add returns p shifted by (dx, dy).
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Manhattan returns |dx| + |dy| between p and other.
func (p Point) Manhattan(other Point) int {
	return absInt(p.X-other.X) + absInt(p.Y-other.Y)
}

// Grid is the row-major passability map of the city.
// Index of cell (x, y) is x + Width*y.
// Read-only after construction, safe for concurrent use.
type Grid struct {
	Width  int
	Height int
	cells  []bool
}

// NewGrid wraps cells as a width×height grid.
// The slice is not copied.
func NewGrid(width, height int, cells []bool) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimensions %dx%d", ErrGridSize, width, height)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("%w: %d cells for %dx%d", ErrGridSize, len(cells), width, height)
	}
	return &Grid{Width: width, Height: height, cells: cells}, nil
}

// Len returns the number of cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// IndexToCoords converts a grid index into (x, y).
func (g *Grid) IndexToCoords(i int) Point {
	return Point{X: i % g.Width, Y: i / g.Width}
}

// CoordsToIndex converts (x, y) into a grid index.
func (g *Grid) CoordsToIndex(p Point) int {
	return p.X + g.Width*p.Y
}

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// IsPassable reports whether p is a drivable cell. Out-of-bounds cells are never passable.
func (g *Grid) IsPassable(p Point) bool {
	if !g.InBounds(p) {
		return false
	}
	return g.cells[g.CoordsToIndex(p)]
}

// IndexInBounds reports whether i addresses a cell of the grid.
func (g *Grid) IndexInBounds(i int) bool {
	return i >= 0 && i < len(g.cells)
}

// Neighbor returns the cell one step from p in direction d.
func (g *Grid) Neighbor(p Point, d Direction) Point {
	dx, dy := d.Offset()
	return p.Add(dx, dy)
}

// CanMove reports whether a car at p may step in direction d.
func (g *Grid) CanMove(p Point, d Direction) bool {
	return g.IsPassable(g.Neighbor(p, d))
}

// OpenDirections returns every direction leading to an in-bounds passable cell,
// in enumeration order (north, east, south, west).
func (g *Grid) OpenDirections(p Point) []Direction {
	open := make([]Direction, 0, len(AllDirections))
	for _, d := range AllDirections {
		if g.CanMove(p, d) {
			open = append(open, d)
		}
	}
	return open
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
