package observation

import (
	"errors"
	"fmt"

	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
)

// ErrRoundInactive is returned when the snapshot carries no grid.
var ErrRoundInactive = errors.New("round not active")

// Encode builds the observation of car id from a snapshot.
// A car missing from the snapshot leaves its own channels zero.
func Encode(w *model.WorldSnapshot, id model.CarID) (*Tensor, error) {
	if !w.Active() {
		return nil, ErrRoundInactive
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("encoding car %d: %w", id, err)
	}
	g, err := w.PassabilityGrid()
	if err != nil {
		return nil, fmt.Errorf("encoding car %d: %w", id, err)
	}

	t := NewTensor(g.Width, g.Height)

	passable := t.Channel(ChannelPassable)
	for i, ok := range w.Grid {
		if ok {
			passable[i] = 1
		}
	}

	for _, cid := range w.CustomerIDs() {
		c := w.Customers[cid]
		origin := g.IndexToCoords(c.Origin)
		dest := g.IndexToCoords(c.Destination)
		switch {
		case c.Waiting():
			t.Set(ChannelWaitingOrigins, origin, 1)
			t.Set(ChannelTripDistance, origin, float32(origin.Manhattan(dest)))
		case c.AssignedTo(id):
			t.Set(ChannelOwnDestinations, dest, 1)
		}
	}

	for _, carID := range w.CarIDs() {
		car := w.Cars[carID]
		p := g.IndexToCoords(car.Position)
		if carID == id {
			t.Set(ChannelSelf, p, 1)
			fill(t.Channel(ChannelSelfCapacity), float32(car.Remaining()))
			continue
		}
		t.Set(ChannelOthers, p, 1)
		t.Set(ChannelOthersCapacity, p, float32(car.Remaining()))
	}

	return t, nil
}

// Position returns the designated car cell recorded in t.
func Position(t *Tensor) (geo.Point, bool) {
	cells := t.Cells(ChannelSelf)
	if len(cells) == 0 {
		return geo.Point{}, false
	}
	return cells[0], true
}

func fill(plane []float32, v float32) {
	for i := range plane {
		plane[i] = v
	}
}
