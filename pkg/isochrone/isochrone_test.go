package isochrone

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/natevvv/walking-coverage/pkg/costdistance"
	"github.com/natevvv/walking-coverage/pkg/grid"
	"github.com/natevvv/walking-coverage/pkg/raster"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roughly one meter per pixel at the equator
const meterDegrees = 1.0 / 111111

func newCalculator(t *testing.T, friction *grid.Grid[float32]) *Calculator {
	t.Helper()
	gt := raster.MakeGeoTransform(8.5, float64(friction.Height)/2*meterDegrees, meterDegrees, meterDegrees)
	adapter, err := raster.NewAdapter(gt, friction.Width, friction.Height)
	require.NoError(t, err)
	calculator, err := NewCalculator(adapter, friction)
	require.NoError(t, err)
	return calculator
}

func uniformFriction(t *testing.T, width, height int) *grid.Grid[float32] {
	t.Helper()
	friction, err := grid.NewFilled[float32](width, height, 1)
	require.NoError(t, err)
	return friction
}

func request(maxCost, level float64) Request {
	req := MakeDefaultRequest()
	req.MaxCost = maxCost
	req.Level = level
	return req
}

func TestNewCalculator(t *testing.T) {
	adapter, err := raster.NewAdapter(raster.MakeGeoTransform(0, 1, 0.1, 0.1), 4, 3)
	require.NoError(t, err)

	_, err = NewCalculator(adapter, uniformFriction(t, 3, 4))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = NewCalculator(nil, uniformFriction(t, 4, 3))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	calculator, err := NewCalculator(adapter, uniformFriction(t, 4, 3))
	require.NoError(t, err)
	assert.Equal(t, adapter, calculator.Adapter())
}

func TestComputeValidation(t *testing.T) {
	calculator := newCalculator(t, uniformFriction(t, 5, 5))
	origin := calculator.Adapter().CellCenter(grid.Cell{X: 2, Y: 2})

	_, err := calculator.Compute(origin, request(10, 11))
	assert.ErrorIs(t, err, ErrInvalidLevel)
	_, err = calculator.Compute(origin, request(10, -1))
	assert.ErrorIs(t, err, ErrInvalidLevel)
	_, err = calculator.Compute(origin, request(0, 0))
	assert.ErrorIs(t, err, ErrInvalidLevel)
	_, err = calculator.Compute(origin, request(-1, 0))
	assert.ErrorIs(t, err, costdistance.ErrNegativeMaxCost)

	_, err = calculator.Compute(orb.Point{0, 0}, request(10, 0))
	assert.ErrorIs(t, err, raster.ErrOutOfBounds)
}

func TestComputeSmallGrid(t *testing.T) {
	calculator := newCalculator(t, uniformFriction(t, 5, 5))
	adapter := calculator.Adapter()
	origin := adapter.CellCenter(grid.Cell{X: 2, Y: 2})

	result, err := calculator.Compute(origin, request(1.5, 1.5))
	require.NoError(t, err)
	assert.Equal(t, grid.Cell{X: 2, Y: 2}, result.OriginCell)
	assert.Equal(t, 1.5, result.Level)
	assert.Equal(t, 9, result.Stats.SettledCells)
	assert.Equal(t, 9, grid.CountFinite(result.Cost))

	require.Len(t, result.Polygon, 1)
	ring := result.Polygon[0]
	assert.True(t, ring.Closed())
	assert.Equal(t, 1, result.Stats.ClosedRings)

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			center := adapter.CellCenter(grid.Cell{X: x, Y: y})
			inside := x >= 1 && x <= 3 && y >= 1 && y <= 3
			assert.Equal(t, inside, planar.RingContains(ring, center), "cell %v,%v", x, y)
		}
	}
	assert.Nil(t, result.MultiPolygon)
}

func TestComputeReachesBorder(t *testing.T) {
	calculator := newCalculator(t, uniformFriction(t, 6, 4))
	bound := calculator.Adapter().Bound()
	origin := calculator.Adapter().CellCenter(grid.Cell{X: 0, Y: 0})

	result, err := calculator.Compute(origin, request(50, 0))
	require.NoError(t, err)
	assert.Equal(t, 24, result.Stats.SettledCells)

	require.Len(t, result.Polygon, 1)
	ring := result.Polygon[0]
	assert.True(t, ring.Closed())
	for _, p := range ring {
		assert.True(t, bound.Contains(p), "%v outside of %v", p, bound)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			assert.True(t, planar.RingContains(ring, calculator.Adapter().CellCenter(grid.Cell{X: x, Y: y})))
		}
	}
}

func TestComputeAroundNodata(t *testing.T) {
	friction := uniformFriction(t, 9, 9)
	friction.Set(4, 4, float32(math.Inf(1)))
	calculator := newCalculator(t, friction)
	origin := calculator.Adapter().CellCenter(grid.Cell{X: 0, Y: 0})

	req := request(100, 0)
	req.ClassifyRings = true
	result, err := calculator.Compute(origin, req)
	require.NoError(t, err)
	assert.Len(t, result.Polygon, 2)
	assert.True(t, math.IsInf(float64(result.Cost.At(4, 4)), 1))

	require.Len(t, result.MultiPolygon, 1)
	require.Len(t, result.MultiPolygon[0], 2)
	shell, hole := result.MultiPolygon[0][0], result.MultiPolygon[0][1]
	assert.Equal(t, orb.CCW, shell.Orientation())
	assert.Equal(t, orb.CW, hole.Orientation())

	nodata := calculator.Adapter().CellCenter(grid.Cell{X: 4, Y: 4})
	assert.True(t, planar.RingContains(hole, nodata))
	assert.False(t, planar.MultiPolygonContains(result.MultiPolygon, nodata))
	assert.True(t, planar.MultiPolygonContains(result.MultiPolygon, origin))
}

func TestComputeLevelBelowMaxCost(t *testing.T) {
	calculator := newCalculator(t, uniformFriction(t, 11, 11))
	origin := calculator.Adapter().CellCenter(grid.Cell{X: 5, Y: 5})

	small, err := calculator.Compute(origin, request(4.5, 1.5))
	require.NoError(t, err)
	large, err := calculator.Compute(origin, request(4.5, 0))
	require.NoError(t, err)

	assert.Equal(t, small.Stats.SettledCells, large.Stats.SettledCells)
	require.Len(t, small.Polygon, 1)
	require.Len(t, large.Polygon, 1)
	assert.Less(t, math.Abs(planar.Area(small.Polygon[0])), math.Abs(planar.Area(large.Polygon[0])))
}

func TestComputeSimplify(t *testing.T) {
	calculator := newCalculator(t, uniformFriction(t, 41, 41))
	origin := calculator.Adapter().CellCenter(grid.Cell{X: 20, Y: 20})

	plain, err := calculator.Compute(origin, request(15, 0))
	require.NoError(t, err)

	req := request(15, 0)
	req.Simplify = 0.5 * meterDegrees
	simplified, err := calculator.Compute(origin, req)
	require.NoError(t, err)

	require.Len(t, plain.Polygon, 1)
	require.Len(t, simplified.Polygon, 1)
	assert.Less(t, len(simplified.Polygon[0]), len(plain.Polygon[0]))
	assert.True(t, simplified.Polygon[0].Closed())
}

func TestComputeConcurrently(t *testing.T) {
	calculator := newCalculator(t, uniformFriction(t, 21, 21))
	cells := []grid.Cell{{X: 3, Y: 3}, {X: 10, Y: 10}, {X: 17, Y: 5}, {X: 0, Y: 20}}

	expected := make([]*Result, len(cells))
	for i, cell := range cells {
		result, err := calculator.Compute(calculator.Adapter().CellCenter(cell), request(6, 0))
		require.NoError(t, err)
		expected[i] = result
	}

	got := make([]*Result, len(cells))
	var wg sync.WaitGroup
	for i, cell := range cells {
		wg.Add(1)
		go func(i int, cell grid.Cell) {
			defer wg.Done()
			got[i], _ = calculator.Compute(calculator.Adapter().CellCenter(cell), request(6, 0))
		}(i, cell)
	}
	wg.Wait()

	for i := range cells {
		require.NotNil(t, got[i])
		assert.Equal(t, expected[i].Polygon, got[i].Polygon)
		assert.Equal(t, expected[i].Cost.Data, got[i].Cost.Data)
	}
}

func TestFeature(t *testing.T) {
	calculator := newCalculator(t, uniformFriction(t, 5, 5))
	origin := calculator.Adapter().CellCenter(grid.Cell{X: 2, Y: 2})

	result, err := calculator.Compute(origin, request(1.5, 0))
	require.NoError(t, err)
	f := result.Feature()
	assert.Equal(t, orb.Polygon{}.GeoJSONType(), f.Geometry.GeoJSONType())
	assert.Equal(t, 1.5, f.Properties["level"])
	assert.Equal(t, 1.5, f.Properties["maxCost"])
	assert.NotContains(t, f.Properties, "area")

	req := request(1.5, 0)
	req.ClassifyRings = true
	result, err = calculator.Compute(origin, req)
	require.NoError(t, err)
	f = result.Feature()
	assert.Equal(t, orb.MultiPolygon{}.GeoJSONType(), f.Geometry.GeoJSONType())
	// a ring around 3x3 cells of one square meter
	assert.InDelta(t, 9.0, f.Properties["area"], 6.0)

	fc := FeatureCollection(result, result)
	assert.Len(t, fc.Features, 2)
}

func TestComputeFlatGridScenario(t *testing.T) {
	calculator := newCalculator(t, uniformFriction(t, 5, 5))
	adapter := calculator.Adapter()
	origin := adapter.CellCenter(grid.Cell{X: 2, Y: 2})

	req := Request{MaxCost: 10, MinFriction: 0, Level: 1.5}
	result, err := calculator.Compute(origin, req)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, result.Cost.At(0, 2), 1e-3)
	assert.InDelta(t, 2*math.Sqrt2, result.Cost.At(0, 0), 1e-3)
	assert.Equal(t, 25, result.Stats.SettledCells)

	require.Len(t, result.Polygon, 1)
	ring := result.Polygon[0]
	assert.True(t, ring.Closed())
	assert.Equal(t, 1, result.Stats.ClosedRings)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			inside := x >= 1 && x <= 3 && y >= 1 && y <= 3
			assert.Equal(t, inside, planar.RingContains(ring, adapter.CellCenter(grid.Cell{X: x, Y: y})), "cell %v,%v", x, y)
		}
	}
}

func TestComputeAtPixelSizes(t *testing.T) {
	for _, pixelSize := range []float64{3e-4, 3e-5, 3e-6} {
		t.Run(fmt.Sprint(pixelSize), func(t *testing.T) {
			adapter, err := raster.NewAdapter(raster.MakeGeoTransform(8.5, 47, pixelSize, pixelSize), 41, 41)
			require.NoError(t, err)
			calculator, err := NewCalculator(adapter, uniformFriction(t, 41, 41))
			require.NoError(t, err)

			origin := adapter.CellCenter(grid.Cell{X: 20, Y: 20})
			result, err := calculator.Compute(origin, request(12*adapter.PixelHeightMeters(), 0))
			require.NoError(t, err)

			require.Len(t, result.Polygon, 1)
			assert.Equal(t, 1, result.Stats.ClosedRings)
			ring := result.Polygon[0]
			assert.True(t, ring.Closed())
			assert.True(t, planar.RingContains(ring, origin))
			assert.True(t, planar.RingContains(ring, adapter.CellCenter(grid.Cell{X: 20, Y: 10})))
			assert.False(t, planar.RingContains(ring, adapter.CellCenter(grid.Cell{X: 20, Y: 35})))
			for _, p := range ring {
				assert.True(t, adapter.Bound().Contains(p))
			}
		})
	}
}

func TestSimplifyPolygon(t *testing.T) {
	assert.Empty(t, simplifyPolygon(orb.Polygon{}, 1))
	assert.Nil(t, simplifyPolygon(nil, 1))

	ring := orb.Ring{{0, 0}, {1, 0}, {2, 0.01}, {2, 2}, {0, 2}, {0, 0}}
	assert.Equal(t, orb.Polygon{ring}, simplifyPolygon(orb.Polygon{ring}, 0))
	simplified := simplifyPolygon(orb.Polygon{ring.Clone()}, 0.1)
	require.Len(t, simplified, 1)
	assert.Less(t, len(simplified[0]), len(ring))
	assert.True(t, simplified[0].Closed())
}
