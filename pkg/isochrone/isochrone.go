package isochrone

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/natevvv/walking-coverage/pkg/contour"
	"github.com/natevvv/walking-coverage/pkg/costdistance"
	"github.com/natevvv/walking-coverage/pkg/grid"
	"github.com/natevvv/walking-coverage/pkg/raster"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

var (
	ErrDimensionMismatch = errors.New("isochrone: friction grid does not match the raster size")
	ErrInvalidLevel      = errors.New("isochrone: level must be in (0, max cost]")
)

// Request describes a single isochrone. Costs are in the unit of the friction grid times meters.
type Request struct {
	MaxCost     float64
	MinFriction float64
	Level       float64 // cost of the iso-line, defaults to MaxCost
	Simplify    float64 // Douglas-Peucker threshold in degrees, 0 disables it
	// ClassifyRings nests the rings into shells and holes
	ClassifyRings bool
}

func MakeDefaultRequest() Request {
	return Request{MaxCost: costdistance.DefaultMaxCost, MinFriction: costdistance.DefaultMinFriction}
}

func (r Request) level() float64 {
	if r.Level == 0 {
		return r.MaxCost
	}
	return r.Level
}

func (r Request) validate() error {
	if r.MaxCost < 0 || math.IsNaN(r.MaxCost) {
		return costdistance.ErrNegativeMaxCost
	}
	if level := r.level(); !(level > 0) || level > r.MaxCost {
		return fmt.Errorf("%w: level %v, max cost %v", ErrInvalidLevel, level, r.MaxCost)
	}
	return nil
}

type Stats struct {
	SettledCells int
	PqPops       int
	PqUpdates    int
	RelaxedEdges int
	Segments     int
	Rings        int
	ClosedRings  int

	SolveTime    time.Duration
	ContourTime  time.Duration
	AssembleTime time.Duration
}

type Result struct {
	Origin     orb.Point
	OriginCell grid.Cell
	Level      float64
	MaxCost    float64
	// Cost holds the accumulated cost of every cell, +Inf where MaxCost was not reached in time
	Cost *grid.Grid[float32]
	// Polygon holds every ring of the iso-line, in the order they were assembled
	Polygon orb.Polygon
	// MultiPolygon is only set for requests with ClassifyRings
	MultiPolygon orb.MultiPolygon
	Stats        Stats
}

// Calculator computes isochrones on a fixed friction raster.
// It only reads the raster, so one Calculator can serve concurrent requests.
type Calculator struct {
	adapter    *raster.Adapter
	friction   *grid.Grid[float32]
	debugLevel int
}

func NewCalculator(adapter *raster.Adapter, friction *grid.Grid[float32]) (*Calculator, error) {
	if adapter == nil || friction == nil {
		return nil, ErrDimensionMismatch
	}
	if adapter.Width() != friction.Width || adapter.Height() != friction.Height {
		return nil, fmt.Errorf("%w: raster %dx%d, friction %dx%d",
			ErrDimensionMismatch, adapter.Width(), adapter.Height(), friction.Width, friction.Height)
	}
	return &Calculator{adapter: adapter, friction: friction}, nil
}

func (c *Calculator) Adapter() *raster.Adapter      { return c.adapter }
func (c *Calculator) Friction() *grid.Grid[float32] { return c.friction }
func (c *Calculator) SetDebugLevel(level int)       { c.debugLevel = level }

// Options returns the solver options of req on this raster.
func (c *Calculator) Options(req Request) costdistance.Options {
	return costdistance.MakeDefaultOptions().
		SetPixelSize(c.adapter.PixelWidthMeters(), c.adapter.PixelHeightMeters()).
		SetMaxCost(req.MaxCost).
		SetMinFriction(req.MinFriction)
}

// Compute solves the cost surface from origin and traces the iso-line of the requested level.
func (c *Calculator) Compute(origin orb.Point, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	cell, err := c.adapter.PixelCoords(origin)
	if err != nil {
		return nil, err
	}
	level := req.level()

	// the frontier is needed so that no crossing of the level touches an unreached cell
	solver := costdistance.NewSolver(c.Options(req).SetKeepFrontier(true))
	solver.SetDebugLevel(c.debugLevel - 1)

	start := time.Now()
	cost, err := solver.Solve(c.friction, cell)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Origin:     origin,
		OriginCell: cell,
		Level:      level,
		MaxCost:    req.MaxCost,
		Cost:       cost,
		Stats: Stats{
			SettledCells: solver.GetSettledCells(),
			PqPops:       solver.GetPqPops(),
			PqUpdates:    solver.GetPqUpdates(),
			RelaxedEdges: solver.GetEdgeRelaxations(),
			SolveTime:    time.Since(start),
		},
	}

	start = time.Now()
	padded, xs, ys := surface(cost, level)
	segments, err := contour.Extract(padded, xs, ys, []float64{level})
	if err != nil {
		return nil, err
	}
	assembler := contour.NewAssembler()
	for s := range segments {
		assembler.AddSegment(s.P1, s.P2)
		result.Stats.Segments++
	}
	result.Stats.ContourTime = time.Since(start)

	start = time.Now()
	polygon := c.toGeographic(assembler.Build())
	polygon = simplifyPolygon(polygon, req.Simplify)
	result.Polygon = polygon
	if req.ClassifyRings {
		result.MultiPolygon = contour.Classify(polygon)
	}
	result.Stats.Rings = len(polygon)
	result.Stats.ClosedRings = assembler.ClosedCount()
	result.Stats.AssembleTime = time.Since(start)

	costdistance.DropFrontier(cost, req.MaxCost)

	if c.debugLevel >= 1 {
		log.Printf("Isochrone from %v (cell %v) at level %v: %v settled cells, %v segments, %v rings (%v closed)\n",
			origin, cell, level, result.Stats.SettledCells, result.Stats.Segments, result.Stats.Rings, result.Stats.ClosedRings)
	}

	return result, nil
}

// surface pads the cost grid with a border of cells lying on the raster bounds and replaces
// unreached cells by a value above the level. Every iso-line of a level below that value is
// closed and stays within the raster bounds.
// The returned coordinates are fractional columns and rows, so the assembler tolerance does
// not depend on the size of a pixel.
func surface(cost *grid.Grid[float32], level float64) (*grid.Grid[float32], []float64, []float64) {
	ceiling := float32(2 * level)
	width, height := cost.Width+2, cost.Height+2
	padded, _ := grid.NewFilled(width, height, ceiling)
	for y := 0; y < cost.Height; y++ {
		for x := 0; x < cost.Width; x++ {
			if v := cost.At(x, y); !math.IsInf(float64(v), 0) && !math.IsNaN(float64(v)) {
				padded.Set(x+1, y+1, v)
			}
		}
	}
	return padded, pixelAxis(cost.Width), pixelAxis(cost.Height)
}

// pixelAxis returns the raster edge, the n cell centres and the opposite edge.
func pixelAxis(n int) []float64 {
	axis := make([]float64, n+2)
	for i := 1; i <= n; i++ {
		axis[i] = float64(i) - 0.5
	}
	axis[n+1] = float64(n)
	return axis
}

func (c *Calculator) toGeographic(polygon orb.Polygon) orb.Polygon {
	for _, ring := range polygon {
		for i, p := range ring {
			ring[i] = c.adapter.Position(p[0], p[1])
		}
	}
	return polygon
}

func simplifyPolygon(polygon orb.Polygon, threshold float64) orb.Polygon {
	if threshold <= 0 || len(polygon) == 0 {
		return polygon
	}
	simplified, ok := simplify.DouglasPeucker(threshold).Simplify(polygon).(orb.Polygon)
	if !ok {
		return polygon
	}
	return simplified
}
