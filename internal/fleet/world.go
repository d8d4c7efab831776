package fleet

import (
	"context"

	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
)

// World is the remote simulation the fleet drives.
type World interface {
	// GetWorld returns the current snapshot. A snapshot without grid means no round is running.
	GetWorld(ctx context.Context) (*model.WorldSnapshot, error)
	// MoveCar submits one step of car id. A nil error means the move was accepted.
	MoveCar(ctx context.Context, id model.CarID, d geo.Direction) error
	// StartGame starts a new round.
	StartGame(ctx context.Context) error
	// StopGame ends the running round.
	StopGame(ctx context.Context) error
	// TeamCarIDs returns the cars owned by this team.
	TeamCarIDs(ctx context.Context) ([]model.CarID, error)
}

// Scorer is implemented by worlds that report the team score.
type Scorer interface {
	Score(ctx context.Context) (int, error)
}
