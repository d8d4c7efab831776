package fleet

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/udisondev/fastcity/internal/ai"
	"github.com/udisondev/fastcity/internal/config"
	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
	"github.com/udisondev/fastcity/internal/observation"
	"github.com/udisondev/fastcity/internal/testutil"
)

// recordingPolicy wraps a policy and records Forget calls.
type recordingPolicy struct {
	ai.Policy

	mu        sync.Mutex
	forgotten []model.CarID
}

func (p *recordingPolicy) Forget(id model.CarID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forgotten = append(p.forgotten, id)
}

func (p *recordingPolicy) Forgotten() []model.CarID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.CarID(nil), p.forgotten...)
}

type SequentialSuite struct {
	suite.Suite
	ctx    context.Context
	world  *testutil.FakeWorld
	policy *recordingPolicy
	orch   *Orchestrator
	cfg    config.Fleet
}

func (s *SequentialSuite) SetupTest() {
	s.ctx = context.Background()
	city := testutil.NewCity(s.T(),
		"#####",
		".....",
		"#####",
	).
		Car(1, geo.Point{X: 1, Y: 1}).
		Car(2, geo.Point{X: 3, Y: 1}).
		CarWith(3, geo.Point{X: 2, Y: 1}, 2, 4, 0)

	s.world = testutil.NewFakeWorld(city.Snapshot())
	s.world.SetOwned(1, 2)
	s.policy = &recordingPolicy{Policy: ai.NewReactivePolicy(ai.NewRand(1))}
	s.cfg = config.Default().Fleet
	s.cfg.TickInterval = 5 * time.Millisecond
	s.orch = NewOrchestrator(s.world, s.policy, &s.cfg)
}

func (s *SequentialSuite) movesOf(id model.CarID) []geo.Direction {
	var dirs []geo.Direction
	for _, c := range s.world.Calls() {
		if c.Kind == testutil.CallMove && c.Car == id {
			dirs = append(dirs, c.Dir)
		}
	}
	return dirs
}

func (s *SequentialSuite) TestTickMovesOwnedCars() {
	s.Require().NoError(s.orch.Tick(s.ctx))

	// Heading north in an east-west corridor: forced turn, east comes first.
	s.Equal([]geo.Direction{geo.East}, s.movesOf(1))
	s.Equal([]geo.Direction{geo.East}, s.movesOf(2))
	s.Empty(s.movesOf(3), "car of another team")

	d, ok := s.orch.Memory().Get(1)
	s.True(ok)
	s.Equal(geo.East, d)
	_, ok = s.orch.Memory().Get(3)
	s.False(ok)
}

func (s *SequentialSuite) TestTickContinuesStraight() {
	for range 2 {
		s.Require().NoError(s.orch.Tick(s.ctx))
	}
	// Car 1 went east to x=2, then keeps east.
	s.Equal([]geo.Direction{geo.East, geo.East}, s.movesOf(1))
}

func (s *SequentialSuite) TestTickWithoutGridRestartsGame() {
	s.world.EndRound()

	s.Require().NoError(s.orch.Tick(s.ctx))

	s.Equal(0, s.world.Count(testutil.CallMove))
	s.Equal(1, s.world.Count(testutil.CallStart))
}

func (s *SequentialSuite) TestFailedMoveKeepsPreviousDirection() {
	s.world.FailMoves(1, testutil.ErrSimulated)

	err := s.orch.Tick(s.ctx)
	s.Require().ErrorIs(err, testutil.ErrSimulated)
	s.Contains(err.Error(), "moving car 1")

	d, _ := s.orch.Memory().Get(1)
	s.Equal(geo.North, d, "memory stays at its pre-tick value")
	d, _ = s.orch.Memory().Get(2)
	s.Equal(geo.East, d, "other cars still move")
}

func (s *SequentialSuite) TestStuckCarKeepsMemory() {
	city := testutil.NewCity(s.T(),
		"###",
		"#.#",
		"###",
	).Car(1, geo.Point{X: 1, Y: 1})
	s.world = testutil.NewFakeWorld(city.Snapshot())
	s.orch = NewOrchestrator(s.world, s.policy, &s.cfg)
	s.orch.Memory().Sync([]model.CarID{1})
	s.orch.Memory().Set(1, geo.West)

	s.Require().NoError(s.orch.Tick(s.ctx))

	s.Equal(0, s.world.Count(testutil.CallMove))
	d, _ := s.orch.Memory().Get(1)
	s.Equal(geo.West, d)
}

func (s *SequentialSuite) TestStuckCarLogsOnlyAtDebug() {
	city := testutil.NewCity(s.T(),
		"###",
		"#.#",
		"###",
	).Car(1, geo.Point{X: 1, Y: 1})
	s.world = testutil.NewFakeWorld(city.Snapshot())
	s.orch = NewOrchestrator(s.world, s.policy, &s.cfg)

	prev := slog.Default()
	s.T().Cleanup(func() {
		slog.SetDefault(prev)
		ai.EnableDebugLogging(false)
	})

	tests := []struct {
		level slog.Level
		debug bool
		want  bool
	}{
		{slog.LevelInfo, false, false},
		{slog.LevelDebug, true, true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: tt.level})))
		ai.EnableDebugLogging(tt.debug)

		s.Require().NoError(s.orch.Tick(s.ctx))
		s.Equal(tt.want, strings.Contains(buf.String(), "car cannot move"), "level %s", tt.level)
	}
}

func (s *SequentialSuite) TestVanishedCarIsForgotten() {
	s.Require().NoError(s.orch.Tick(s.ctx))
	s.world.RemoveCar(2)

	s.Require().NoError(s.orch.Tick(s.ctx))

	_, ok := s.orch.Memory().Get(2)
	s.False(ok)
	s.Equal([]model.CarID{2}, s.policy.Forgotten())
	s.Len(s.movesOf(2), 1)
}

func (s *SequentialSuite) TestInvalidSnapshotMovesNothing() {
	broken := &model.WorldSnapshot{Width: 3, Height: 3, Grid: model.Passability{true}}
	s.world = testutil.NewFakeWorld(broken)
	s.orch = NewOrchestrator(s.world, s.policy, &s.cfg)

	err := s.orch.Tick(s.ctx)
	s.Require().ErrorIs(err, model.ErrInvalidSnapshot)
	s.Equal(0, s.world.Count(testutil.CallMove))
}

func (s *SequentialSuite) TestObservationSink() {
	seen := make(map[model.CarID]float32)
	s.orch = NewOrchestrator(s.world, s.policy, &s.cfg, WithObservationSink(func(id model.CarID, obs *observation.Tensor) {
		seen[id] = obs.Sum(observation.ChannelSelf)
	}))

	s.Require().NoError(s.orch.Tick(s.ctx))
	s.Equal(map[model.CarID]float32{1: 1, 2: 1}, seen)
}

func (s *SequentialSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- s.orch.Run(ctx) }()

	s.Eventually(func() bool {
		return s.world.Count(testutil.CallMove) >= 4
	}, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.Fail("Run did not stop")
	}
}

func TestSequentialSuite(t *testing.T) {
	suite.Run(t, new(SequentialSuite))
}
