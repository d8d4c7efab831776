package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
)

// Call kinds recorded by FakeWorld.
const (
	CallWorld = "world"
	CallMove  = "move"
	CallStart = "start"
	CallStop  = "stop"
	CallScore = "score"
)

// Call is one recorded collaborator call.
type Call struct {
	Kind  string
	Car   model.CarID
	Dir   geo.Direction
	Start time.Time
	End   time.Time
}

// FakeWorld is an in-memory city server.
// Moves are applied to the snapshot when the target cell is a road, and the
// moved car picks up and drops off customers on its new cell.
// Every call is recorded with its time interval; overlapping calls are counted.
type FakeWorld struct {
	// Latency is slept inside every world and move call.
	Latency time.Duration

	mu            sync.Mutex
	world         *model.WorldSnapshot
	initial       *model.WorldSnapshot
	owned         []model.CarID
	calls         []Call
	moveErr       map[model.CarID]error
	endAfterMoves int
	moves         int
	onMove        func(moves int, w *model.WorldSnapshot)

	inside   atomic.Int32
	overlaps atomic.Int32
}

// NewFakeWorld serves w. StartGame restores w.
func NewFakeWorld(w *model.WorldSnapshot) *FakeWorld {
	return &FakeWorld{
		world:   Clone(w),
		initial: Clone(w),
		owned:   w.CarIDs(),
		moveErr: make(map[model.CarID]error),
	}
}

// SetOwned overrides the cars returned by TeamCarIDs.
func (f *FakeWorld) SetOwned(ids ...model.CarID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owned = ids
}

// EndRound removes the grid, as the server does between rounds.
func (f *FakeWorld) EndRound() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.world.Grid = nil
}

// RemoveCar takes car id off the map.
func (f *FakeWorld) RemoveCar(id model.CarID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.world.Cars, id)
}

// EndAfterMoves ends the round once n moves were accepted in total.
func (f *FakeWorld) EndAfterMoves(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endAfterMoves = n
}

// OnMove calls fn with the running move count after every accepted move.
// fn may rewrite the served snapshot.
func (f *FakeWorld) OnMove(fn func(moves int, w *model.WorldSnapshot)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onMove = fn
}

// FailMoves makes every move of car id fail with err (nil clears).
func (f *FakeWorld) FailMoves(id model.CarID, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.moveErr, id)
		return
	}
	f.moveErr[id] = err
}

func (f *FakeWorld) enter() func() {
	if f.inside.Add(1) > 1 {
		f.overlaps.Add(1)
	}
	if f.Latency > 0 {
		time.Sleep(f.Latency)
	}
	return func() { f.inside.Add(-1) }
}

func (f *FakeWorld) record(c Call) {
	c.End = time.Now()
	f.calls = append(f.calls, c)
}

// GetWorld returns a copy of the current snapshot.
func (f *FakeWorld) GetWorld(ctx context.Context) (*model.WorldSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer f.enter()()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Kind: CallWorld, Start: start})
	return Clone(f.world), nil
}

// MoveCar applies one step of car id.
func (f *FakeWorld) MoveCar(ctx context.Context, id model.CarID, d geo.Direction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer f.enter()()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Kind: CallMove, Car: id, Dir: d, Start: start})

	if err := f.moveErr[id]; err != nil {
		return err
	}
	if !f.world.Active() {
		return fmt.Errorf("move car %d: round not active", id)
	}
	car, ok := f.world.Cars[id]
	if !ok {
		return fmt.Errorf("move car %d: unknown car", id)
	}

	g, err := f.world.PassabilityGrid()
	if err != nil {
		return err
	}
	next := g.Neighbor(g.IndexToCoords(car.Position), d)
	if g.IsPassable(next) {
		car.Position = g.CoordsToIndex(next)
		f.world.Cars[id] = f.serve(id, car)
	}

	f.moves++
	if f.onMove != nil {
		f.onMove(f.moves, f.world)
	}
	if f.endAfterMoves > 0 && f.moves >= f.endAfterMoves {
		f.world.Grid = nil
	}
	return nil
}

// serve drops off riders at their destination and picks up waiting customers at the car cell.
func (f *FakeWorld) serve(id model.CarID, car model.CarState) model.CarState {
	for _, cid := range f.world.CustomerIDs() {
		c := f.world.Customers[cid]
		switch {
		case c.AssignedTo(id) && c.Destination == car.Position:
			c.Status = model.CustomerDelivered
			car.UsedCapacity--
		case c.Waiting() && c.Origin == car.Position && car.Remaining() > 0:
			c.Status = model.CustomerAssigned
			c.CarID = &id
			car.UsedCapacity++
		default:
			continue
		}
		f.world.Customers[cid] = c
	}
	return car
}

// StartGame restores the initial snapshot.
func (f *FakeWorld) StartGame(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.record(Call{Kind: CallStart, Start: now})
	f.world = Clone(f.initial)
	f.moves = 0
	return nil
}

// StopGame ends the round.
func (f *FakeWorld) StopGame(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Kind: CallStop, Start: time.Now()})
	f.world.Grid = nil
	return nil
}

// TeamCarIDs returns the owned cars.
func (f *FakeWorld) TeamCarIDs(ctx context.Context) ([]model.CarID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CarID(nil), f.owned...), nil
}

// Score returns the number of accepted moves in this round.
func (f *FakeWorld) Score(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	start := time.Now()
	defer f.enter()()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Kind: CallScore, Start: start})
	return f.moves, nil
}

// Calls returns recorded calls in completion order.
func (f *FakeWorld) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many calls of kind were recorded.
func (f *FakeWorld) Count(kind string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Overlaps returns how many world/move calls started while another was in flight.
func (f *FakeWorld) Overlaps() int {
	return int(f.overlaps.Load())
}

// Current returns a copy of the live snapshot.
func (f *FakeWorld) Current() *model.WorldSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Clone(f.world)
}
