// Package fleet drives the owned cars tick by tick against the remote world.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/udisondev/fastcity/internal/ai"
	"github.com/udisondev/fastcity/internal/config"
	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
	"github.com/udisondev/fastcity/internal/observation"
)

// ObservationSink receives the encoded observation of every decided car.
type ObservationSink func(id model.CarID, obs *observation.Tensor)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObservationSink feeds every per-car observation to sink.
func WithObservationSink(sink ObservationSink) Option {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

// Orchestrator runs the fetch-decide-move loop for the owned fleet.
type Orchestrator struct {
	world  World
	policy ai.Policy
	cfg    *config.Fleet
	memory *Memory
	sink   ObservationSink

	ownedMu sync.Mutex
	owned   map[model.CarID]struct{}

	// worldMu guards world advancement (move + refresh) in concurrent mode.
	worldMu sync.Mutex
	shared  *model.WorldSnapshot
}

// NewOrchestrator creates an orchestrator driving world with policy.
func NewOrchestrator(world World, policy ai.Policy, cfg *config.Fleet, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		world:  world,
		policy: policy,
		cfg:    cfg,
		memory: NewMemory(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Memory exposes navigation memory.
func (o *Orchestrator) Memory() *Memory {
	return o.memory
}

// Run ticks until ctx is canceled. Tick errors are logged, not fatal.
func (o *Orchestrator) Run(ctx context.Context) error {
	interval := o.interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("fleet tick loop started", "interval", interval)

	for {
		if err := o.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("tick failed", "err", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("fleet tick loop stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick performs one sequential fetch-decide-move cycle for every owned car.
// No round running → the game is restarted and nothing moves.
// A failed move keeps the car's previous direction; other cars still move.
func (o *Orchestrator) Tick(ctx context.Context) error {
	w, err := o.world.GetWorld(ctx)
	if err != nil {
		return fmt.Errorf("fetching world: %w", err)
	}

	if !w.Active() {
		slog.Info("game ended, starting again")
		o.resetOwned()
		if err := o.world.StartGame(ctx); err != nil {
			return fmt.Errorf("starting game: %w", err)
		}
		return nil
	}
	if err := w.Validate(); err != nil {
		return err
	}

	ids, err := o.syncCars(ctx, w)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range ids {
		prev, ok := o.memory.Get(id)
		if !ok {
			continue
		}

		d, ok := o.decide(w, id, prev)
		if !ok {
			if ai.IsDebugEnabled() {
				slog.Debug("car cannot move", "carID", id, "direction", prev)
			}
			continue
		}

		if err := o.world.MoveCar(ctx, id, d); err != nil {
			errs = append(errs, fmt.Errorf("moving car %d %s: %w", id, d, err))
			continue
		}
		o.memory.Set(id, d)

		if ai.IsDebugEnabled() {
			slog.Debug("car moved", "carID", id, "direction", d)
		}
	}

	return errors.Join(errs...)
}

// decide runs the policy and feeds the observation sink.
func (o *Orchestrator) decide(w *model.WorldSnapshot, id model.CarID, prev geo.Direction) (geo.Direction, bool) {
	if o.sink != nil {
		obs, err := observation.Encode(w, id)
		if err != nil {
			slog.Warn("encoding observation", "carID", id, "err", err)
		} else {
			o.sink(id, obs)
		}
	}
	return o.policy.Decide(w, id, prev)
}

// syncCars returns owned cars present in w (ascending) and aligns memory with them.
func (o *Orchestrator) syncCars(ctx context.Context, w *model.WorldSnapshot) ([]model.CarID, error) {
	owned, err := o.ownedCars(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]model.CarID, 0, len(owned))
	for _, id := range w.CarIDs() {
		if _, ok := owned[id]; ok {
			ids = append(ids, id)
		}
	}

	for _, id := range o.memory.Sync(ids) {
		o.forget(id)
	}
	return ids, nil
}

// ownedCars resolves the team's cars once per round.
func (o *Orchestrator) ownedCars(ctx context.Context) (map[model.CarID]struct{}, error) {
	o.ownedMu.Lock()
	defer o.ownedMu.Unlock()

	if o.owned != nil {
		return o.owned, nil
	}

	ids, err := o.world.TeamCarIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving team cars: %w", err)
	}

	owned := make(map[model.CarID]struct{}, len(ids))
	for _, id := range ids {
		owned[id] = struct{}{}
	}
	if len(owned) > 0 {
		o.owned = owned
		slog.Info("team cars resolved", "cars", slices.Sorted(maps.Keys(owned)))
	}
	return owned, nil
}

func (o *Orchestrator) interval() time.Duration {
	if o.cfg.TickInterval <= 0 {
		return config.DefaultTickInterval
	}
	return o.cfg.TickInterval
}

func (o *Orchestrator) resetOwned() {
	o.ownedMu.Lock()
	defer o.ownedMu.Unlock()
	o.owned = nil
}

func (o *Orchestrator) forget(id model.CarID) {
	o.memory.Drop(id)
	if f, ok := o.policy.(ai.Forgetter); ok {
		f.Forget(id)
	}
	slog.Info("car left the world", "carID", id)
}
