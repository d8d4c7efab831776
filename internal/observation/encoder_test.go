package observation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
	"github.com/udisondev/fastcity/internal/testutil"
)

func sampleCity(t *testing.T) *testutil.City {
	return testutil.NewCity(t,
		".....",
		".#.#.",
		".....",
	).
		CarWith(1, geo.Point{X: 0, Y: 0}, 1, 4, 1).
		CarWith(2, geo.Point{X: 4, Y: 2}, 2, 3, 3).
		CarWith(3, geo.Point{X: 2, Y: 1}, 1, 2, 0).
		Waiting(10, geo.Point{X: 4, Y: 0}, geo.Point{X: 0, Y: 2}).
		Waiting(11, geo.Point{X: 2, Y: 2}, geo.Point{X: 2, Y: 0}).
		Riding(12, 1, geo.Point{X: 0, Y: 0}, geo.Point{X: 3, Y: 2}).
		Riding(13, 2, geo.Point{X: 0, Y: 0}, geo.Point{X: 1, Y: 0}).
		Delivered(14, geo.Point{X: 1, Y: 2}, geo.Point{X: 0, Y: 1})
}

func TestEncode_Shape(t *testing.T) {
	obs, err := Encode(sampleCity(t).Snapshot(), 1)
	require.NoError(t, err)

	assert.Equal(t, 5, obs.Width)
	assert.Equal(t, 3, obs.Height)
	assert.Len(t, obs.Data, NumChannels*5*3)
	assert.Equal(t, 8, NumChannels)
}

func TestEncode_Passability(t *testing.T) {
	obs, err := Encode(sampleCity(t).Snapshot(), 1)
	require.NoError(t, err)

	assert.Equal(t, float32(13), obs.Sum(ChannelPassable))
	assert.Zero(t, obs.At(ChannelPassable, geo.Point{X: 1, Y: 1}))
	assert.Equal(t, float32(1), obs.At(ChannelPassable, geo.Point{X: 2, Y: 1}))
}

func TestEncode_Customers(t *testing.T) {
	obs, err := Encode(sampleCity(t).Snapshot(), 1)
	require.NoError(t, err)

	assert.Equal(t, float32(2), obs.Sum(ChannelWaitingOrigins), "one cell per waiting customer")
	assert.Equal(t, float32(1), obs.At(ChannelWaitingOrigins, geo.Point{X: 4, Y: 0}))
	assert.Equal(t, float32(1), obs.At(ChannelWaitingOrigins, geo.Point{X: 2, Y: 2}))

	assert.Equal(t, float32(6), obs.At(ChannelTripDistance, geo.Point{X: 4, Y: 0}))
	assert.Equal(t, float32(2), obs.At(ChannelTripDistance, geo.Point{X: 2, Y: 2}))
	assert.Equal(t, float32(8), obs.Sum(ChannelTripDistance))

	assert.Equal(t, []geo.Point{{X: 3, Y: 2}}, obs.Cells(ChannelOwnDestinations),
		"only destinations of customers riding in car 1")
}

func TestEncode_Cars(t *testing.T) {
	obs, err := Encode(sampleCity(t).Snapshot(), 1)
	require.NoError(t, err)

	assert.Equal(t, float32(1), obs.Sum(ChannelSelf))
	pos, ok := Position(obs)
	require.True(t, ok)
	assert.Equal(t, geo.Point{X: 0, Y: 0}, pos)

	for _, v := range obs.Channel(ChannelSelfCapacity) {
		require.Equal(t, float32(3), v, "remaining capacity is broadcast")
	}

	assert.Equal(t, []geo.Point{{X: 2, Y: 1}, {X: 4, Y: 2}}, obs.Cells(ChannelOthers))
	assert.Equal(t, float32(2), obs.At(ChannelOthersCapacity, geo.Point{X: 2, Y: 1}))
	assert.Zero(t, obs.At(ChannelOthersCapacity, geo.Point{X: 4, Y: 2}), "full car")
	assert.Zero(t, obs.At(ChannelOthers, geo.Point{X: 0, Y: 0}))
}

func TestEncode_AbsentCar(t *testing.T) {
	obs, err := Encode(sampleCity(t).Snapshot(), 42)
	require.NoError(t, err)

	assert.Zero(t, obs.Sum(ChannelSelf))
	assert.Zero(t, obs.Sum(ChannelSelfCapacity))
	assert.Zero(t, obs.Sum(ChannelOwnDestinations))
	assert.Equal(t, float32(3), obs.Sum(ChannelOthers))

	_, ok := Position(obs)
	assert.False(t, ok)
}

func TestEncode_RowIsY(t *testing.T) {
	city := testutil.NewCity(t,
		"...",
		"...",
	).Car(1, geo.Point{X: 2, Y: 1})

	obs, err := Encode(city.Snapshot(), 1)
	require.NoError(t, err)

	plane := obs.Channel(ChannelSelf)
	assert.Equal(t, float32(1), plane[1*3+2], "row 1, column 2")
}

func TestEncode_Inactive(t *testing.T) {
	_, err := Encode(&model.WorldSnapshot{Width: 2, Height: 2}, 1)
	require.ErrorIs(t, err, ErrRoundInactive)
}

func TestEncode_OutOfRangeIndices(t *testing.T) {
	tests := []struct {
		name string
		city func(c *testutil.City)
	}{
		{"customer origin past grid", func(c *testutil.City) {
			c.W.Customers[1] = model.CustomerState{Origin: 6, Destination: 0, Status: model.CustomerWaiting}
		}},
		{"customer destination negative", func(c *testutil.City) {
			c.W.Customers[1] = model.CustomerState{Origin: 0, Destination: -1, Status: model.CustomerWaiting}
		}},
		{"car position past tensor", func(c *testutil.City) {
			c.W.Cars[2] = model.CarState{Position: 100, Capacity: 4}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			city := testutil.NewCity(t,
				"...",
				"...",
			).Car(1, geo.Point{X: 0, Y: 0})
			tt.city(city)

			var (
				obs *Tensor
				err error
			)
			require.NotPanics(t, func() { obs, err = Encode(city.Snapshot(), 1) })
			require.ErrorIs(t, err, model.ErrInvalidSnapshot)
			assert.Nil(t, obs)
		})
	}
}

func TestEncode_InvalidGrid(t *testing.T) {
	w := &model.WorldSnapshot{Width: 2, Height: 2, Grid: model.Passability{true}}
	_, err := Encode(w, 1)
	require.ErrorIs(t, err, model.ErrInvalidSnapshot)
}
