package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/fastcity/internal/ai"
	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
)

var (
	// ErrGameNotRunning is returned by RunGame when the world has no active round.
	ErrGameNotRunning = errors.New("game not running")

	// ErrUnitPanic wraps a panic recovered from a car unit.
	ErrUnitPanic = errors.New("car unit panicked")
)

// RunConcurrent plays rounds back to back with one unit per owned car,
// restarting the game whenever no round is running. Blocks until ctx is canceled.
func (o *Orchestrator) RunConcurrent(ctx context.Context) error {
	slog.Info("concurrent fleet started", "decide_outside_lock", o.cfg.DecideOutsideLock)

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			slog.Info("concurrent fleet stopping")
			return err
		}

		stats, err := o.RunGame(ctx)
		switch {
		case errors.Is(err, ErrGameNotRunning):
			slog.Info("game not running, starting", "round", round)
			o.resetOwned()
			if err := o.world.StartGame(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("starting game", "err", err)
			}
			if !sleepCtx(ctx, o.interval()) {
				return ctx.Err()
			}
			continue

		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("round finished with failed units", "round", round, "err", err)
		}

		for _, st := range stats {
			slog.Info("car unit finished", "round", round, "carID", st.CarID,
				"moves", st.Moves, "stays", st.Stays, "last_score", st.LastScore, "max_score", st.MaxScore)
		}
		o.resetOwned()
	}
}

// RunGame plays one round: one unit per owned car, until the world reports the round ended.
// A failing unit is logged and ends alone; the first unit error is returned after all units stop.
func (o *Orchestrator) RunGame(ctx context.Context) ([]*UnitStats, error) {
	var w *model.WorldSnapshot
	err := o.withWorld(func() error {
		var err error
		w, err = o.world.GetWorld(ctx)
		if err != nil {
			return fmt.Errorf("fetching world: %w", err)
		}
		o.shared = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !w.Active() {
		return nil, ErrGameNotRunning
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	ids, err := o.syncCars(ctx, w)
	if err != nil {
		return nil, err
	}

	stats := make([]*UnitStats, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		st := &UnitStats{CarID: id}
		stats[i] = st
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("car %d: %w: %v", id, ErrUnitPanic, r)
				}
				if err != nil {
					slog.Error("car unit failed", "carID", id, "err", err)
				}
			}()
			if err := o.runUnit(ctx, id, w, st); err != nil {
				return fmt.Errorf("car %d: %w", id, err)
			}
			return nil
		})
	}

	return stats, g.Wait()
}

// runUnit drives car id until the round ends, the car leaves, or a call fails.
// Move, refresh and score reads always happen under the world lock.
// An invalid refreshed snapshot ends the unit and is never shared.
func (o *Orchestrator) runUnit(ctx context.Context, id model.CarID, cached *model.WorldSnapshot, st *UnitStats) error {
	prev, ok := o.memory.Get(id)
	if !ok {
		prev = DefaultDirection
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		var (
			d       geo.Direction
			move    bool
			decided bool
		)
		if o.cfg.DecideOutsideLock {
			if !cached.Active() {
				return nil
			}
			d, move = o.decide(cached, id, prev)
			decided = true
		}

		done := false
		err := o.withWorld(func() error {
			w := o.shared
			if !w.Active() {
				done = true
				return nil
			}
			if _, present := w.Car(id); !present {
				o.forget(id)
				done = true
				return nil
			}

			if !decided {
				d, move = o.decide(w, id, prev)
			}

			if move {
				if err := o.world.MoveCar(ctx, id, d); err != nil {
					return fmt.Errorf("moving %s: %w", d, err)
				}
				prev = d
				o.memory.Set(id, d)
				st.Moves++
				if ai.IsDebugEnabled() {
					slog.Debug("car moved", "carID", id, "direction", d)
				}
			} else {
				st.Stays++
			}

			fresh, err := o.world.GetWorld(ctx)
			if err != nil {
				return fmt.Errorf("refreshing world: %w", err)
			}
			if err := fresh.Validate(); err != nil {
				return fmt.Errorf("refreshing world: %w", err)
			}
			o.shared = fresh
			cached = fresh

			o.trackScore(ctx, st)
			return nil
		})
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// withWorld runs fn holding the world lock. The lock is released on every
// path; a panic in fn is returned as ErrUnitPanic.
func (o *Orchestrator) withWorld(fn func() error) (err error) {
	o.worldMu.Lock()
	defer o.worldMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnitPanic, r)
		}
	}()
	return fn()
}

func (o *Orchestrator) trackScore(ctx context.Context, st *UnitStats) {
	if !o.cfg.TrackScore {
		return
	}
	scorer, ok := o.world.(Scorer)
	if !ok {
		return
	}
	score, err := scorer.Score(ctx)
	if err != nil {
		slog.Debug("reading score", "carID", st.CarID, "err", err)
		return
	}
	st.observeScore(score)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
