package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/udisondev/fastcity/internal/geo"
)

// ErrInvalidSnapshot is returned when a world snapshot breaks its own invariants.
var ErrInvalidSnapshot = errors.New("invalid world snapshot")

// CarID identifies a car in the simulation.
type CarID int

// CustomerID identifies a transport request.
type CustomerID int

// TeamID identifies a registered team.
type TeamID int

// CarState is the server view of one car.
type CarState struct {
	Position     int    `json:"position"`
	TeamID       TeamID `json:"team_id"`
	Capacity     int    `json:"capacity"`
	UsedCapacity int    `json:"used_capacity"`
}

// Remaining returns free seats.
func (c CarState) Remaining() int {
	return c.Capacity - c.UsedCapacity
}

// Team is a registered team.
type Team struct {
	Name string `json:"name"`
}

// Passability is the row-major drivable-cell map.
// Accepts booleans or 0/1 numbers on the wire.
type Passability []bool

// UnmarshalJSON implements json.Unmarshaler.
func (p *Passability) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding grid: %w", err)
	}

	cells := make([]bool, len(raw))
	for i, v := range raw {
		switch string(bytes.TrimSpace(v)) {
		case "true", "1":
			cells[i] = true
		case "false", "0":
			cells[i] = false
		default:
			return fmt.Errorf("decoding grid cell %d: unexpected value %s", i, v)
		}
	}
	*p = cells
	return nil
}

// WorldSnapshot is one poll of the simulation state.
// A nil Grid means the round is not running.
type WorldSnapshot struct {
	Width     int                          `json:"width"`
	Height    int                          `json:"height"`
	Grid      Passability                  `json:"grid,omitempty"`
	Cars      map[CarID]CarState           `json:"cars"`
	Customers map[CustomerID]CustomerState `json:"customers"`
	Teams     map[TeamID]Team              `json:"teams"`
}

// DecodeWorld parses a world payload.
func DecodeWorld(data []byte) (*WorldSnapshot, error) {
	var w WorldSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding world: %w", err)
	}
	return &w, nil
}

// Active reports whether a round is running (grid present).
func (w *WorldSnapshot) Active() bool {
	return w != nil && w.Grid != nil
}

// Validate checks the snapshot invariants. Inactive snapshots are valid.
func (w *WorldSnapshot) Validate() error {
	if !w.Active() {
		return nil
	}
	if w.Width <= 0 || w.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidSnapshot, w.Width, w.Height)
	}
	if len(w.Grid) != w.Width*w.Height {
		return fmt.Errorf("%w: grid has %d cells, want %d", ErrInvalidSnapshot, len(w.Grid), w.Width*w.Height)
	}

	cells := len(w.Grid)
	for id, car := range w.Cars {
		if car.Position < 0 || car.Position >= cells {
			return fmt.Errorf("%w: car %d position %d out of range", ErrInvalidSnapshot, id, car.Position)
		}
		if car.UsedCapacity < 0 || car.UsedCapacity > car.Capacity {
			return fmt.Errorf("%w: car %d uses %d of %d seats", ErrInvalidSnapshot, id, car.UsedCapacity, car.Capacity)
		}
	}
	for id, c := range w.Customers {
		if c.Origin < 0 || c.Origin >= cells || c.Destination < 0 || c.Destination >= cells {
			return fmt.Errorf("%w: customer %d route %d->%d out of range", ErrInvalidSnapshot, id, c.Origin, c.Destination)
		}
	}
	return nil
}

// PassabilityGrid wraps the snapshot grid as a coordinate model.
func (w *WorldSnapshot) PassabilityGrid() (*geo.Grid, error) {
	if !w.Active() {
		return nil, fmt.Errorf("%w: round not active", ErrInvalidSnapshot)
	}
	g, err := geo.NewGrid(w.Width, w.Height, w.Grid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return g, nil
}

// CarIDs returns all car ids in ascending order.
func (w *WorldSnapshot) CarIDs() []CarID {
	ids := make([]CarID, 0, len(w.Cars))
	for id := range w.Cars {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CustomerIDs returns all customer ids in ascending order.
func (w *WorldSnapshot) CustomerIDs() []CustomerID {
	ids := make([]CustomerID, 0, len(w.Customers))
	for id := range w.Customers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Car returns the state of car id.
func (w *WorldSnapshot) Car(id CarID) (CarState, bool) {
	car, ok := w.Cars[id]
	return car, ok
}

// TeamByName returns the highest team id registered under name.
// Re-registering a name creates a new id; the newest one owns the cars.
func (w *WorldSnapshot) TeamByName(name string) (TeamID, bool) {
	var (
		best  TeamID
		found bool
	)
	for id, team := range w.Teams {
		if team.Name != name {
			continue
		}
		if !found || id > best {
			best = id
			found = true
		}
	}
	return best, found
}

// TeamCars returns ids of cars owned by team, ascending.
func (w *WorldSnapshot) TeamCars(team TeamID) []CarID {
	var ids []CarID
	for _, id := range w.CarIDs() {
		if w.Cars[id].TeamID == team {
			ids = append(ids, id)
		}
	}
	return ids
}
