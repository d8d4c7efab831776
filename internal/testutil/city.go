package testutil

import (
	"testing"

	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
)

// City builds world snapshots for tests.
type City struct {
	W *model.WorldSnapshot
}

// NewCity builds a snapshot from rows written top (highest y) to bottom (y = 0).
// '.' is a road, anything else is blocked.
func NewCity(t testing.TB, rows ...string) *City {
	t.Helper()

	if len(rows) == 0 {
		t.Fatal("NewCity: no rows")
	}
	height := len(rows)
	width := len(rows[0])
	grid := make(model.Passability, width*height)
	for r, row := range rows {
		if len(row) != width {
			t.Fatalf("NewCity: row %d has %d cells, want %d", r, len(row), width)
		}
		y := height - 1 - r
		for x := range width {
			grid[x+width*y] = row[x] == '.'
		}
	}

	return &City{W: &model.WorldSnapshot{
		Width:     width,
		Height:    height,
		Grid:      grid,
		Cars:      make(map[model.CarID]model.CarState),
		Customers: make(map[model.CustomerID]model.CustomerState),
		Teams:     map[model.TeamID]model.Team{1: {Name: "home"}, 2: {Name: "away"}},
	}}
}

// Index returns the grid index of p.
func (c *City) Index(p geo.Point) int {
	return p.X + c.W.Width*p.Y
}

// Car places a team-1 car with 4 free seats at p.
func (c *City) Car(id model.CarID, p geo.Point) *City {
	return c.CarWith(id, p, 1, 4, 0)
}

// CarWith places a car with explicit team and seats at p.
func (c *City) CarWith(id model.CarID, p geo.Point, team model.TeamID, capacity, used int) *City {
	c.W.Cars[id] = model.CarState{
		Position:     c.Index(p),
		TeamID:       team,
		Capacity:     capacity,
		UsedCapacity: used,
	}
	return c
}

// Waiting adds a waiting customer travelling from origin to dest.
func (c *City) Waiting(id model.CustomerID, origin, dest geo.Point) *City {
	c.W.Customers[id] = model.CustomerState{
		Origin:      c.Index(origin),
		Destination: c.Index(dest),
		Status:      model.CustomerWaiting,
	}
	return c
}

// Riding adds a customer assigned to car travelling from origin to dest.
func (c *City) Riding(id model.CustomerID, car model.CarID, origin, dest geo.Point) *City {
	c.W.Customers[id] = model.CustomerState{
		Origin:      c.Index(origin),
		Destination: c.Index(dest),
		Status:      model.CustomerAssigned,
		CarID:       &car,
	}
	return c
}

// Delivered adds a delivered customer.
func (c *City) Delivered(id model.CustomerID, origin, dest geo.Point) *City {
	c.W.Customers[id] = model.CustomerState{
		Origin:      c.Index(origin),
		Destination: c.Index(dest),
		Status:      model.CustomerDelivered,
	}
	return c
}

// Snapshot returns the built snapshot.
func (c *City) Snapshot() *model.WorldSnapshot {
	return c.W
}

// Clone deep-copies a snapshot; the grid slice is shared (read-only).
func Clone(w *model.WorldSnapshot) *model.WorldSnapshot {
	if w == nil {
		return nil
	}
	out := *w
	out.Cars = make(map[model.CarID]model.CarState, len(w.Cars))
	for id, car := range w.Cars {
		out.Cars[id] = car
	}
	out.Customers = make(map[model.CustomerID]model.CustomerState, len(w.Customers))
	for id, c := range w.Customers {
		out.Customers[id] = c
	}
	out.Teams = make(map[model.TeamID]model.Team, len(w.Teams))
	for id, team := range w.Teams {
		out.Teams[id] = team
	}
	return &out
}
