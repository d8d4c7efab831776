package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpposite(t *testing.T) {
	assert.Equal(t, South, North.Opposite())
	assert.Equal(t, North, South.Opposite())
	assert.Equal(t, West, East.Opposite())
	assert.Equal(t, East, West.Opposite())
}

func TestIsOpposite(t *testing.T) {
	for _, d := range AllDirections {
		assert.False(t, d.IsOpposite(d), "%s must not be its own opposite", d)
		assert.True(t, d.IsOpposite(d.Opposite()))
	}

	assert.False(t, North.IsOpposite(East))
	assert.False(t, East.IsOpposite(South))
	assert.False(t, Direction(7).IsOpposite(North))
}

func TestDirectionBetween(t *testing.T) {
	from := Point{X: 3, Y: 3}

	tests := []struct {
		name   string
		to     Point
		want   Direction
		wantOK bool
	}{
		{"north", Point{3, 4}, North, true},
		{"east", Point{4, 3}, East, true},
		{"south", Point{3, 2}, South, true},
		{"west", Point{2, 3}, West, true},
		{"same cell", Point{3, 3}, 0, false},
		{"diagonal", Point{4, 4}, 0, false},
		{"two steps", Point{3, 5}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DirectionBetween(from, tt.to)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "north", North.String())
	assert.Equal(t, "west", West.String())
	assert.Equal(t, "unknown", Direction(9).String())
	assert.False(t, Direction(9).Valid())
	assert.True(t, East.Valid())
}
