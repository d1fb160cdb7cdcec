// Package contour traces iso-lines through a scalar grid with the CONREC algorithm
// and joins the resulting segments into rings.
package contour

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"sort"

	"github.com/natevvv/walking-coverage/pkg/grid"
	"github.com/paulmach/orb"
)

var (
	ErrCoordinateMismatch = errors.New("contour: coordinate arrays do not match the grid size")
	ErrNoLevels           = errors.New("contour: at least one contour level is required")
)

// Segment is an undirected piece of an iso-line.
type Segment struct {
	P1    orb.Point
	P2    orb.Point
	Level float64
}

// corner offsets of the vertices 1..4 of a window, counter-clockwise from the top-left cell
var (
	im = [4]int{0, 1, 1, 0}
	jm = [4]int{0, 0, 1, 1}
)

// castab[sign1+1][sign0+1][sign2+1] describes how the level crosses a triangle whose vertices
// are one window corner, the window centre and the next corner:
//
//	0: no crossing
//	1..3: the line runs along an edge between two vertices
//	4..6: the line runs from a vertex to the opposite side
//	7..9: the line crosses two sides
var castab = [3][3][3]int{
	{{0, 0, 8}, {0, 2, 5}, {7, 6, 9}},
	{{0, 3, 4}, {1, 3, 1}, {4, 3, 0}},
	{{9, 6, 7}, {5, 2, 0}, {8, 0, 0}},
}

// Validate checks that xs holds one coordinate per column and ys one per row.
func Validate(g *grid.Grid[float32], xs, ys []float64) error {
	if g == nil || len(xs) != g.Width || len(ys) != g.Height {
		return ErrCoordinateMismatch
	}
	if g.Width < 2 || g.Height < 2 {
		return fmt.Errorf("%w: contouring needs at least 2x2 cells", ErrCoordinateMismatch)
	}
	return nil
}

// Extract returns the segments of all levels as a lazy, single pass sequence.
// Windows with a non-finite corner are treated as nodata and skipped.
// The same input always yields the same segments in the same order.
func Extract(g *grid.Grid[float32], xs, ys []float64, levels []float64) (iter.Seq[Segment], error) {
	if err := Validate(g, xs, ys); err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	z := make([]float64, len(levels))
	copy(z, levels)
	sort.Float64s(z)

	return func(yield func(Segment) bool) {
		conrec(g, xs, ys, z, yield)
	}, nil
}

// ExtractFunc calls onSegment for every segment, in the order of Extract.
func ExtractFunc(g *grid.Grid[float32], xs, ys []float64, levels []float64, onSegment func(p1, p2 orb.Point, level float64)) error {
	segments, err := Extract(g, xs, ys, levels)
	if err != nil {
		return err
	}
	for s := range segments {
		onSegment(s.P1, s.P2, s.Level)
	}
	return nil
}

func sign(h float64) int {
	if h > 0 {
		return 1
	} else if h < 0 {
		return -1
	}
	return 0
}

// conrec scans every 2x2 window, rows from the bottom up. z must be sorted ascending.
func conrec(g *grid.Grid[float32], xs, ys []float64, z []float64, yield func(Segment) bool) {
	var (
		h  [5]float64
		xh [5]float64
		yh [5]float64
		sh [5]int
		d  [4]float64
	)

	xsect := func(p1, p2 int) float64 {
		return (h[p2]*xh[p1] - h[p1]*xh[p2]) / (h[p2] - h[p1])
	}
	ysect := func(p1, p2 int) float64 {
		return (h[p2]*yh[p1] - h[p1]*yh[p2]) / (h[p2] - h[p1])
	}

	for j := g.Height - 2; j >= 0; j-- {
	window:
		for i := 0; i < g.Width-1; i++ {
			for m := 0; m < 4; m++ {
				d[m] = float64(g.At(i+im[m], j+jm[m]))
				if math.IsNaN(d[m]) || math.IsInf(d[m], 0) {
					continue window
				}
			}
			dmin := math.Min(math.Min(d[0], d[1]), math.Min(d[2], d[3]))
			dmax := math.Max(math.Max(d[0], d[1]), math.Max(d[2], d[3]))
			if dmax < z[0] || dmin > z[len(z)-1] {
				continue
			}

			for _, level := range z {
				if level < dmin || level > dmax {
					continue
				}
				for m := 4; m >= 0; m-- {
					if m > 0 {
						h[m] = d[m-1] - level
						xh[m] = xs[i+im[m-1]]
						yh[m] = ys[j+jm[m-1]]
					} else {
						h[0] = 0.25 * (h[1] + h[2] + h[3] + h[4])
						xh[0] = 0.5 * (xs[i] + xs[i+1])
						yh[0] = 0.5 * (ys[j] + ys[j+1])
					}
					sh[m] = sign(h[m])
				}

				// triangles (m, centre, m+1)
				for m := 1; m <= 4; m++ {
					m1, m2, m3 := m, 0, m+1
					if m == 4 {
						m3 = 1
					}
					var x1, y1, x2, y2 float64
					switch castab[sh[m1]+1][sh[m2]+1][sh[m3]+1] {
					case 0:
						continue
					case 1: // vertices 1 and 2
						x1, y1 = xh[m1], yh[m1]
						x2, y2 = xh[m2], yh[m2]
					case 2: // vertices 2 and 3
						x1, y1 = xh[m2], yh[m2]
						x2, y2 = xh[m3], yh[m3]
					case 3: // vertices 3 and 1
						x1, y1 = xh[m3], yh[m3]
						x2, y2 = xh[m1], yh[m1]
					case 4: // vertex 1 and side 2-3
						x1, y1 = xh[m1], yh[m1]
						x2, y2 = xsect(m2, m3), ysect(m2, m3)
					case 5: // vertex 2 and side 3-1
						x1, y1 = xh[m2], yh[m2]
						x2, y2 = xsect(m3, m1), ysect(m3, m1)
					case 6: // vertex 3 and side 1-2
						x1, y1 = xh[m3], yh[m3]
						x2, y2 = xsect(m1, m2), ysect(m1, m2)
					case 7: // sides 1-2 and 2-3
						x1, y1 = xsect(m1, m2), ysect(m1, m2)
						x2, y2 = xsect(m2, m3), ysect(m2, m3)
					case 8: // sides 2-3 and 3-1
						x1, y1 = xsect(m2, m3), ysect(m2, m3)
						x2, y2 = xsect(m3, m1), ysect(m3, m1)
					case 9: // sides 3-1 and 1-2
						x1, y1 = xsect(m3, m1), ysect(m3, m1)
						x2, y2 = xsect(m1, m2), ysect(m1, m2)
					}
					if !yield(Segment{P1: orb.Point{x1, y1}, P2: orb.Point{x2, y2}, Level: level}) {
						return
					}
				}
			}
		}
	}
}
