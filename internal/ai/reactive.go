package ai

import (
	"log/slog"

	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
)

// NextDirection picks the move of a car at pos that last moved prev.
//
//	0 open     → none
//	1 open     → that one, even when it reverses
//	2 open     → keep prev if open, else the one not reversing prev
//	3..4 open  → uniform among open minus the reverse of prev
//
// Deterministic for a seeded rng.
func NextDirection(g *geo.Grid, pos geo.Point, prev geo.Direction, rng Rand) (geo.Direction, bool) {
	open := g.OpenDirections(pos)

	if IsDebugEnabled() {
		slog.Debug("open directions", "pos", pos, "previous", prev, "open", open)
	}

	switch len(open) {
	case 0:
		return 0, false

	case 1:
		return open[0], true

	case 2:
		for _, d := range open {
			if d == prev {
				return d, true
			}
		}
		// Forced turn
		for _, d := range open {
			if !prev.IsOpposite(d) {
				return d, true
			}
		}
		return open[0], true

	default:
		candidates := make([]geo.Direction, 0, len(open))
		for _, d := range open {
			if !prev.IsOpposite(d) {
				candidates = append(candidates, d)
			}
		}
		if len(candidates) == 0 {
			candidates = open
		}
		return candidates[rng.IntN(len(candidates))], true
	}
}

// ReactivePolicy drives cars along corridors and turns randomly at intersections.
type ReactivePolicy struct {
	rng Rand
}

// NewReactivePolicy creates a reactive policy drawing intersection choices from rng.
// rng may be shared by concurrent callers.
func NewReactivePolicy(rng Rand) *ReactivePolicy {
	return &ReactivePolicy{rng: &lockedRand{src: rng}}
}

// Decide implements Policy.
func (p *ReactivePolicy) Decide(w *model.WorldSnapshot, id model.CarID, prev geo.Direction) (geo.Direction, bool) {
	car, ok := w.Car(id)
	if !ok {
		return 0, false
	}
	g, err := w.PassabilityGrid()
	if err != nil {
		slog.Warn("reactive policy: bad grid", "carID", id, "err", err)
		return 0, false
	}
	return NextDirection(g, g.IndexToCoords(car.Position), prev, p.rng)
}
