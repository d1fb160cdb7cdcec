package grid

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyGrid indicates a grid with no columns or no rows.
	ErrEmptyGrid = errors.New("grid: width and height must be positive")
	// ErrSizeMismatch indicates a data slice that does not hold width*height values.
	ErrSizeMismatch = errors.New("grid: data length does not match width*height")
)

// Cell addresses a single grid cell. X grows to the east (columns), Y grows to the south (rows).
type Cell struct {
	X int
	Y int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Grid is a dense, row-major W×H array with its origin at the top-left cell.
type Grid[T any] struct {
	Width  int
	Height int
	Data   []T // index = x + y*Width
}

// New allocates a grid of the given size filled with the zero value of T.
func New[T any](width, height int) (*Grid[T], error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyGrid
	}
	return &Grid[T]{Width: width, Height: height, Data: make([]T, width*height)}, nil
}

// NewFilled allocates a grid and sets every cell to value.
func NewFilled[T any](width, height int, value T) (*Grid[T], error) {
	g, err := New[T](width, height)
	if err != nil {
		return nil, err
	}
	g.Fill(value)
	return g, nil
}

// FromData wraps an existing row-major slice without copying it.
func FromData[T any](width, height int, data []T) (*Grid[T], error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyGrid
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(data), width*height)
	}
	return &Grid[T]{Width: width, Height: height, Data: data}, nil
}

// From2D copies a [row][column] slice into a new grid. All rows must have the same length.
func From2D[T any](rows [][]T) (*Grid[T], error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	width := len(rows[0])
	g, _ := New[T](width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrSizeMismatch, y, len(row), width)
		}
		copy(g.Data[y*width:(y+1)*width], row)
	}
	return g, nil
}

func (g *Grid[T]) Len() int { return len(g.Data) }

func (g *Grid[T]) Index(x, y int) int { return x + y*g.Width }

// Coordinate is the inverse of Index.
func (g *Grid[T]) Coordinate(index int) (x, y int) { return index % g.Width, index / g.Width }

func (g *Grid[T]) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

func (g *Grid[T]) Contains(c Cell) bool { return g.InBounds(c.X, c.Y) }

func (g *Grid[T]) At(x, y int) T { return g.Data[x+y*g.Width] }

func (g *Grid[T]) Set(x, y int, value T) { g.Data[x+y*g.Width] = value }

func (g *Grid[T]) Fill(value T) {
	for i := range g.Data {
		g.Data[i] = value
	}
}

// Clone returns a deep copy of the grid.
func (g *Grid[T]) Clone() *Grid[T] {
	data := make([]T, len(g.Data))
	copy(data, g.Data)
	return &Grid[T]{Width: g.Width, Height: g.Height, Data: data}
}

// SameSize reports whether both grids have identical dimensions.
func SameSize[T, U any](a *Grid[T], b *Grid[U]) bool {
	return a.Width == b.Width && a.Height == b.Height
}

// CountFinite returns the number of cells holding a finite value.
func CountFinite(g *Grid[float32]) int {
	n := 0
	for _, v := range g.Data {
		if !math.IsInf(float64(v), 0) && !math.IsNaN(float64(v)) {
			n++
		}
	}
	return n
}
