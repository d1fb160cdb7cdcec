package friction

import (
	"testing"

	"github.com/natevvv/walking-coverage/pkg/grid"
	"github.com/natevvv/walking-coverage/pkg/raster"
	"github.com/natevvv/walking-coverage/pkg/road"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder(t *testing.T, mode Mode) *Builder {
	adapter, err := raster.NewAdapter(raster.MakeGeoTransform(0, 0.01, 0.001, 0.001), 10, 10)
	require.NoError(t, err)
	return NewBuilder(adapter, mode)
}

func segment(b *Builder, id int64, roadType road.RoadType, from, to grid.Cell) *road.Segment {
	return &road.Segment{
		ID:       id,
		Type:     roadType,
		MaxSpeed: roadType.DefaultSpeed(),
		Points:   []orb.Point{b.Adapter.CellCenter(from), b.Adapter.CellCenter(to)},
	}
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("walking")
	require.NoError(t, err)
	assert.Equal(t, Walking, mode)
	mode, err = ParseMode("car")
	require.NoError(t, err)
	assert.Equal(t, Driving, mode)
	_, err = ParseMode("flying")
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Equal(t, "driving", Driving.String())
}

func TestSpeedToFriction(t *testing.T) {
	assert.InDelta(t, 0.01, SpeedToFriction(6), 1e-9)
	assert.InDelta(t, 0.002, SpeedToFriction(30), 1e-9)
}

func TestRasterizeHorizontalRoad(t *testing.T) {
	b := newBuilder(t, Walking)
	friction := b.Rasterize([]*road.Segment{segment(b, 1, road.Residential, grid.Cell{X: 1, Y: 5}, grid.Cell{X: 8, Y: 5})})

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			expected := float32(DefaultBackground)
			if y == 5 && x >= 1 && x <= 8 {
				expected = SpeedToFriction(WalkingSpeed)
			}
			assert.Equal(t, expected, friction.At(x, y), "cell %v,%v", x, y)
		}
	}
	assert.Equal(t, 8, b.BurnedCells())
}

func TestRasterizeDiagonalRoad(t *testing.T) {
	b := newBuilder(t, Driving)
	friction := b.Rasterize([]*road.Segment{segment(b, 1, road.Primary, grid.Cell{X: 0, Y: 0}, grid.Cell{X: 9, Y: 9})})

	for i := 0; i < 10; i++ {
		assert.Equal(t, SpeedToFriction(60), friction.At(i, i))
	}
	assert.GreaterOrEqual(t, b.BurnedCells(), 10)
	assert.LessOrEqual(t, b.BurnedCells(), 28)
	// the line never leaves the band around the diagonal
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x-y > 1 || y-x > 1 {
				assert.Equal(t, float32(DefaultBackground), friction.At(x, y))
			}
		}
	}
}

func TestRasterizeKeepsLowestFriction(t *testing.T) {
	b := newBuilder(t, Driving)
	friction := b.Rasterize([]*road.Segment{
		segment(b, 1, road.Residential, grid.Cell{X: 0, Y: 4}, grid.Cell{X: 9, Y: 4}),
		segment(b, 2, road.Motorway, grid.Cell{X: 4, Y: 0}, grid.Cell{X: 4, Y: 9}),
		segment(b, 3, road.Footway, grid.Cell{X: 0, Y: 4}, grid.Cell{X: 9, Y: 4}),
	})
	assert.Equal(t, SpeedToFriction(100), friction.At(4, 4))
	assert.Equal(t, SpeedToFriction(30), friction.At(2, 4))
	assert.Equal(t, SpeedToFriction(100), friction.At(4, 8))
	assert.Equal(t, 19, b.BurnedCells())
}

func TestRasterizeWalkingCapsSpeed(t *testing.T) {
	b := newBuilder(t, Walking)
	friction := b.Rasterize([]*road.Segment{
		segment(b, 1, road.Motorway, grid.Cell{X: 0, Y: 0}, grid.Cell{X: 9, Y: 0}),
	})
	assert.Equal(t, SpeedToFriction(WalkingSpeed), friction.At(5, 0))
}

func TestRasterizeSkipsUnusableSegments(t *testing.T) {
	b := newBuilder(t, Driving)
	outside := &road.Segment{ID: 2, Type: road.Primary, MaxSpeed: 60, Points: []orb.Point{{1, 1}, {1.1, 1.1}}}
	friction := b.Rasterize([]*road.Segment{
		segment(b, 1, road.Unknown, grid.Cell{X: 0, Y: 0}, grid.Cell{X: 9, Y: 9}),
		outside,
		{ID: 3, Type: road.Primary},
	})
	assert.Equal(t, 2, b.SkippedSegments())
	assert.Equal(t, 0, b.BurnedCells())
	assert.Equal(t, 100, grid.CountFinite(friction))
}

func TestRasterizePartiallyOutside(t *testing.T) {
	b := newBuilder(t, Driving)
	partial := &road.Segment{ID: 1, Type: road.Trunk, MaxSpeed: 70, Points: []orb.Point{
		{-0.0055, 0.0095},
		b.Adapter.CellCenter(grid.Cell{X: 3, Y: 0}),
	}}
	friction := b.Rasterize([]*road.Segment{partial})
	for x := 0; x <= 3; x++ {
		assert.Equal(t, SpeedToFriction(70), friction.At(x, 0))
	}
	assert.Equal(t, 4, b.BurnedCells())
}
