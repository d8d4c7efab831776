package ai

import (
	"log/slog"
	"sync"

	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
	"github.com/udisondev/fastcity/internal/observation"
)

// GoalPolicy routes cars towards customers and their destinations.
//
// Each car keeps a standing target cell across ticks. Carried deliveries win
// over pickups. A target is dropped when reached, when no route leads to it,
// or when the first route step is not a single cardinal move; a new one is
// chosen on the next tick.
//
// An unreachable delivery destination is retried every tick without backoff.
type GoalPolicy struct {
	finder Pathfinder

	mu      sync.Mutex
	targets map[model.CarID]geo.Point
}

// NewGoalPolicy creates a goal-directed policy using finder for routes.
func NewGoalPolicy(finder Pathfinder) *GoalPolicy {
	return &GoalPolicy{
		finder:  finder,
		targets: make(map[model.CarID]geo.Point),
	}
}

// Target returns the standing target of car id.
func (p *GoalPolicy) Target(id model.CarID) (geo.Point, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.targets[id]
	return t, ok
}

func (p *GoalPolicy) setTarget(id model.CarID, t geo.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.targets[id] = t
}

// Forget implements Forgetter.
func (p *GoalPolicy) Forget(id model.CarID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.targets, id)
}

// Decide implements Policy. prev is ignored: routes decide the heading.
func (p *GoalPolicy) Decide(w *model.WorldSnapshot, id model.CarID, _ geo.Direction) (geo.Direction, bool) {
	obs, err := observation.Encode(w, id)
	if err != nil {
		return 0, false
	}
	pos, ok := observation.Position(obs)
	if !ok {
		return 0, false
	}
	g, err := w.PassabilityGrid()
	if err != nil {
		return 0, false
	}

	target, hasTarget := p.Target(id)
	var route []geo.Point

	if dests := obs.Cells(observation.ChannelOwnDestinations); len(dests) > 0 {
		if !hasTarget {
			target = dests[0]
		}
		route, _ = p.finder.Search(g, pos, target)
	} else {
		origins := obs.Cells(observation.ChannelWaitingOrigins)
		if len(origins) == 0 {
			return 0, false
		}
		if hasTarget {
			route, _ = p.finder.Search(g, pos, target)
		} else {
			route = p.selectCustomer(g, pos, origins)
			if len(route) > 0 {
				target = route[len(route)-1]
			}
		}
	}

	if len(route) == 0 {
		p.Forget(id)
		if IsDebugEnabled() {
			slog.Debug("no route, target cleared", "carID", id, "pos", pos, "target", target)
		}
		return 0, false
	}

	if len(route) == 1 {
		// Arrives this tick
		p.Forget(id)
	} else {
		p.setTarget(id, target)
	}

	d, ok := geo.DirectionBetween(pos, route[0])
	if !ok {
		p.Forget(id)
		return 0, false
	}

	if IsDebugEnabled() {
		slog.Debug("goal step", "carID", id, "pos", pos, "target", target, "direction", d, "remaining", len(route))
	}
	return d, true
}

// selectCustomer returns the route to the best waiting customer.
// Shortest connected route wins; otherwise the Manhattan-closest customer's route, possibly partial.
func (p *GoalPolicy) selectCustomer(g *geo.Grid, pos geo.Point, origins []geo.Point) []geo.Point {
	var (
		bestConnected []geo.Point
		haveConnected bool
		closest       []geo.Point
		closestDist   = -1
	)

	for _, origin := range origins {
		route, status := p.finder.Search(g, pos, origin)

		if status == geo.Connected && len(route) > 0 {
			if !haveConnected || len(route) < len(bestConnected) {
				bestConnected = route
				haveConnected = true
			}
		}

		if dist := pos.Manhattan(origin); closestDist < 0 || dist < closestDist {
			closest = route
			closestDist = dist
		}
	}

	if haveConnected {
		return bestConnected
	}
	return closest
}
