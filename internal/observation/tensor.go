// Package observation encodes world snapshots into dense per-car spatial tensors.
package observation

import "github.com/udisondev/fastcity/internal/geo"

// Channel indexes of the observation tensor.
const (
	ChannelPassable = iota
	ChannelWaitingOrigins
	ChannelTripDistance
	ChannelOwnDestinations
	ChannelSelf
	ChannelSelfCapacity
	ChannelOthers
	ChannelOthersCapacity

	NumChannels
)

// Tensor is a channels × height × width block of float32.
// Row index is y, column index is x, in every channel.
type Tensor struct {
	Width  int
	Height int
	Data   []float32 // len = NumChannels*Height*Width
}

// NewTensor allocates a zeroed tensor.
func NewTensor(width, height int) *Tensor {
	return &Tensor{
		Width:  width,
		Height: height,
		Data:   make([]float32, NumChannels*width*height),
	}
}

func (t *Tensor) offset(ch int, p geo.Point) int {
	return ch*t.Width*t.Height + p.Y*t.Width + p.X
}

// At returns the value of channel ch at p.
func (t *Tensor) At(ch int, p geo.Point) float32 {
	return t.Data[t.offset(ch, p)]
}

// Set writes v into channel ch at p.
func (t *Tensor) Set(ch int, p geo.Point, v float32) {
	t.Data[t.offset(ch, p)] = v
}

// Channel returns the height*width plane of ch (row-major, shares storage).
func (t *Tensor) Channel(ch int) []float32 {
	size := t.Width * t.Height
	return t.Data[ch*size : (ch+1)*size]
}

// Sum returns the sum of all cells of ch.
func (t *Tensor) Sum(ch int) float32 {
	var s float32
	for _, v := range t.Channel(ch) {
		s += v
	}
	return s
}

// Cells returns the non-zero cells of ch in row-major order.
func (t *Tensor) Cells(ch int) []geo.Point {
	var cells []geo.Point
	for i, v := range t.Channel(ch) {
		if v != 0 {
			cells = append(cells, geo.Point{X: i % t.Width, Y: i / t.Width})
		}
	}
	return cells
}
