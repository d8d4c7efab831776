package fleet

import "github.com/udisondev/fastcity/internal/model"

// UnitStats summarizes one car unit over a round.
// Written only by its unit; read after the unit stops.
type UnitStats struct {
	CarID     model.CarID
	Moves     int
	Stays     int
	LastScore int
	MaxScore  int
	scored    bool
}

func (s *UnitStats) observeScore(score int) {
	s.LastScore = score
	if !s.scored || score > s.MaxScore {
		s.MaxScore = score
	}
	s.scored = true
}
