package costdistance

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/natevvv/walking-coverage/pkg/grid"
	"github.com/natevvv/walking-coverage/pkg/queue"
	"github.com/natevvv/walking-coverage/pkg/slice"
)

var (
	ErrEmptyGrid         = errors.New("costdistance: friction grid is empty")
	ErrOriginOutOfBounds = errors.New("costdistance: origin outside of the friction grid")
	ErrNegativeMaxCost   = errors.New("costdistance: max cost must not be negative")
	ErrInvalidPixelSize  = errors.New("costdistance: pixel size must be positive")
)

type SearchKPIs struct {
	pqPops             int // amount of pops performed on the priority queue
	pqUpdates          int // each push or decrease-key on the priority queue
	relaxationAttempts int // attempted edge relaxations
	relaxedEdges       int // relaxations which improved the cost of a neighbour
	settledCells       int // cells which got popped, their cost is final
}

// Reset the kpi
func (kpi *SearchKPIs) Reset() {
	*kpi = SearchKPIs{}
}

// Solver computes cost-distance surfaces with Dijkstra's algorithm on the implicit 8-connected grid graph.
// A Solver keeps the KPIs of its last run and must not be used by multiple goroutines at once.
// Every call to Solve starts from fresh state.
type Solver struct {
	options    Options
	kpis       SearchKPIs
	settled    slice.FixedSizeSlice // cells which were popped from the queue during the last search
	debugLevel int
}

func NewSolver(options Options) *Solver {
	return &Solver{options: options}
}

func (s *Solver) Options() Options           { return s.options }
func (s *Solver) SetDebugLevel(level int)    { s.debugLevel = level }
func (s *Solver) GetPqPops() int             { return s.kpis.pqPops }
func (s *Solver) GetPqUpdates() int          { return s.kpis.pqUpdates }
func (s *Solver) GetEdgeRelaxations() int    { return s.kpis.relaxedEdges }
func (s *Solver) GetRelaxationAttempts() int { return s.kpis.relaxationAttempts }
func (s *Solver) GetSettledCells() int       { return s.kpis.settledCells }

// GetSettledRatio returns the share of the grid which was settled in the last search.
func (s *Solver) GetSettledRatio() float64 {
	return s.settled.Ratio()
}

// IsSettled reports whether the cell with the given grid index was finalized in the last search.
func (s *Solver) IsSettled(index int) bool {
	return s.settled.Has(index)
}

func (s *Solver) validate(friction *grid.Grid[float32], origin grid.Cell) error {
	if friction == nil || friction.Width <= 0 || friction.Height <= 0 || len(friction.Data) != friction.Width*friction.Height {
		return ErrEmptyGrid
	}
	if !friction.Contains(origin) {
		return fmt.Errorf("%w: %v not in %dx%d", ErrOriginOutOfBounds, origin, friction.Width, friction.Height)
	}
	if s.options.MaxCost < 0 || math.IsNaN(s.options.MaxCost) {
		return ErrNegativeMaxCost
	}
	if !(s.options.PixelWidth > 0) || !(s.options.PixelHeight > 0) {
		return ErrInvalidPixelSize
	}
	return nil
}

// Solve computes the accumulated cost from origin to every cell of the friction grid.
// Cells which are not reachable below MaxCost hold +Inf, unless KeepFrontier is set: then the
// direct neighbours of expanded cells keep the cost computed while relaxing them.
func (s *Solver) Solve(friction *grid.Grid[float32], origin grid.Cell) (*grid.Grid[float32], error) {
	if err := s.validate(friction, origin); err != nil {
		return nil, err
	}

	width, height := friction.Width, friction.Height
	cost, _ := grid.NewFilled(width, height, float32(math.Inf(1)))

	s.kpis.Reset()
	s.settled = slice.MakeFixedSizeSlice(width * height)

	if s.debugLevel >= 1 {
		log.Printf("New search: origin %v on %dx%d grid, max cost %v\n", origin, width, height, s.options.MaxCost)
	}

	horizCost := float32(s.options.PixelWidth)
	vertCost := float32(s.options.PixelHeight)
	diagCost := float32(math.Sqrt(s.options.PixelWidth*s.options.PixelWidth + s.options.PixelHeight*s.options.PixelHeight))
	maxCost := float32(s.options.MaxCost)
	minFriction := float32(s.options.MinFriction)

	// one handle per cell, nil means the cell was never queued
	handles := make([]*queue.Item, width*height)
	// cells which received a cost at or above maxCost, may contain duplicates
	frontier := make([]int, 0)

	originIndex := cost.Index(origin.X, origin.Y)
	cost.Data[originIndex] = 0
	pq := queue.NewQueue(nil)
	handles[originIndex] = pq.Enqueue(queue.NewQueueItem(originIndex, 0))
	s.kpis.pqUpdates++

	for pq.Len() > 0 {
		current := pq.Dequeue()
		s.kpis.pqPops++
		s.kpis.settledCells++
		s.settled.Add(current.Cell)

		x, y := cost.Coordinate(current.Cell)
		fx := max(friction.Data[current.Cell], minFriction)

		if s.debugLevel >= 3 {
			log.Printf("Settle %v,%v with cost %v\n", x, y, current.Priority)
		}

		for _, offset := range grid.Neighbors8 {
			nx, ny := x+offset.DX, y+offset.DY
			if !cost.InBounds(nx, ny) {
				continue
			}
			s.kpis.relaxationAttempts++

			var edgeLength float32
			switch offset.Direction {
			case grid.Horizontal:
				edgeLength = horizCost
			case grid.Vertical:
				edgeLength = vertCost
			default:
				edgeLength = diagCost
			}

			n := cost.Index(nx, ny)
			fn := max(friction.Data[n], minFriction)
			costFromCurrent := current.Priority + (fx+fn)/2*edgeLength

			if cost.Data[n] <= costFromCurrent {
				continue
			}
			cost.Data[n] = costFromCurrent
			s.kpis.relaxedEdges++

			if costFromCurrent < maxCost {
				if handle := handles[n]; handle == nil {
					handles[n] = pq.Enqueue(queue.NewQueueItem(n, costFromCurrent))
					s.kpis.pqUpdates++
				} else if handle.Index >= 0 {
					pq.Update(handle, costFromCurrent)
					s.kpis.pqUpdates++
				}
			} else if !s.options.KeepFrontier {
				frontier = append(frontier, n)
			}
		}
	}

	for _, n := range frontier {
		if cost.Data[n] >= maxCost {
			cost.Data[n] = float32(math.Inf(1))
		}
	}

	if s.debugLevel >= 1 {
		log.Printf("Finished search: settled %v cells (%.2f %%), %v pq updates, %v relaxed edges\n",
			s.kpis.settledCells, 100*s.GetSettledRatio(), s.kpis.pqUpdates, s.kpis.relaxedEdges)
	}

	return cost, nil
}

// Solve runs a single search with a fresh Solver.
func Solve(friction *grid.Grid[float32], origin grid.Cell, options Options) (*grid.Grid[float32], error) {
	return NewSolver(options).Solve(friction, origin)
}

// EdgeWeight returns the cost of moving between the 8-adjacent cells u and v.
func EdgeWeight(friction *grid.Grid[float32], u, v grid.Cell, options Options) float32 {
	minFriction := float32(options.MinFriction)
	fu := max(friction.At(u.X, u.Y), minFriction)
	fv := max(friction.At(v.X, v.Y), minFriction)
	return (fu + fv) / 2 * EdgeLength(grid.DirectionOf(u, v), options)
}

// EdgeLength returns the physical length of a step in the given direction.
func EdgeLength(direction grid.Direction, options Options) float32 {
	switch direction {
	case grid.Horizontal:
		return float32(options.PixelWidth)
	case grid.Vertical:
		return float32(options.PixelHeight)
	}
	return float32(math.Sqrt(options.PixelWidth*options.PixelWidth + options.PixelHeight*options.PixelHeight))
}

// DropFrontier resets every cell at or above maxCost to +Inf, turning the result of a
// KeepFrontier search into the one of a regular search.
func DropFrontier(cost *grid.Grid[float32], maxCost float64) {
	limit := float32(maxCost)
	for i, c := range cost.Data {
		if c >= limit {
			cost.Data[i] = float32(math.Inf(1))
		}
	}
}
