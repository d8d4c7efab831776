package fleet

import (
	"sync"

	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
)

// DefaultDirection is the heading assumed for a car seen for the first time.
const DefaultDirection = geo.North

// Memory holds the last committed direction of every known car.
// Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	dirs map[model.CarID]geo.Direction
}

// NewMemory creates empty navigation memory.
func NewMemory() *Memory {
	return &Memory{dirs: make(map[model.CarID]geo.Direction)}
}

// Sync makes memory track exactly present: new cars start at DefaultDirection,
// cars no longer present are dropped and returned.
func (m *Memory) Sync(present []model.CarID) (dropped []model.CarID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[model.CarID]struct{}, len(present))
	for _, id := range present {
		seen[id] = struct{}{}
		if _, ok := m.dirs[id]; !ok {
			m.dirs[id] = DefaultDirection
		}
	}
	for id := range m.dirs {
		if _, ok := seen[id]; !ok {
			delete(m.dirs, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

// Get returns the last committed direction of car id.
func (m *Memory) Get(id model.CarID) (geo.Direction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.dirs[id]
	return d, ok
}

// Set commits direction d for car id.
func (m *Memory) Set(id model.CarID, d geo.Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[id] = d
}

// Drop forgets car id.
func (m *Memory) Drop(id model.CarID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dirs, id)
}

// Len returns the number of tracked cars.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.dirs)
}
