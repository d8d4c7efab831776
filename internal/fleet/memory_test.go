package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
)

func TestMemory_Sync(t *testing.T) {
	m := NewMemory()

	dropped := m.Sync([]model.CarID{1, 2})
	assert.Empty(t, dropped)
	assert.Equal(t, 2, m.Len())

	d, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, geo.North, d, "first sighting defaults to north")

	m.Set(1, geo.West)
	dropped = m.Sync([]model.CarID{1, 3})
	assert.Equal(t, []model.CarID{2}, dropped)

	d, _ = m.Get(1)
	assert.Equal(t, geo.West, d, "known cars keep their heading")
	_, ok = m.Get(2)
	assert.False(t, ok)
	_, ok = m.Get(3)
	assert.True(t, ok)
}

func TestMemory_Drop(t *testing.T) {
	m := NewMemory()
	m.Sync([]model.CarID{1})
	m.Drop(1)
	assert.Zero(t, m.Len())
}
