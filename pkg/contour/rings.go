package contour

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// minRectSize keeps rtree rectangles of flat rings valid
const minRectSize = 1e-12

type ringEntry struct {
	ring    orb.Ring
	area    float64
	polygon int // index of the polygon this ring was assigned to
	rect    rtreego.Rect
}

func (r *ringEntry) Bounds() rtreego.Rect { return r.rect }

func boundRect(b orb.Bound) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min[0], b.Min[1]},
		[]float64{math.Max(b.Max[0]-b.Min[0], minRectSize), math.Max(b.Max[1]-b.Min[1], minRectSize)},
	)
}

// BuildMultiPolygon builds the rings like Build and nests them by containment:
// rings inside an even number of other rings become shells, the others holes of the
// smallest ring containing them. Shells are counter-clockwise, holes clockwise.
// Rings without area are dropped.
func (a *Assembler) BuildMultiPolygon() orb.MultiPolygon {
	return Classify(a.Build())
}

// Classify nests the rings of p into a MultiPolygon, see Assembler.BuildMultiPolygon.
func Classify(p orb.Polygon) orb.MultiPolygon {
	entries := make([]*ringEntry, 0, len(p))
	for _, ring := range p {
		if len(ring) < 4 {
			continue
		}
		area := math.Abs(planar.Area(ring))
		if area == 0 {
			continue
		}
		rect, err := boundRect(ring.Bound())
		if err != nil {
			continue
		}
		entries = append(entries, &ringEntry{ring: ring, area: area, rect: rect})
	}
	// outer rings first, the input order breaks ties
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].area > entries[j].area })

	tree := rtreego.NewTree(2, 25, 50)
	result := orb.MultiPolygon{}
	for _, entry := range entries {
		var parent *ringEntry
		depth := 0
		for _, candidate := range tree.SearchIntersect(entry.rect) {
			c := candidate.(*ringEntry)
			if !c.ring.Bound().Contains(entry.ring[0]) || !planar.RingContains(c.ring, entry.ring[0]) {
				continue
			}
			depth++
			if parent == nil || c.area < parent.area {
				parent = c
			}
		}

		ring := entry.ring.Clone()
		if depth%2 == 0 {
			if ring.Orientation() != orb.CCW {
				ring.Reverse()
			}
			entry.polygon = len(result)
			result = append(result, orb.Polygon{ring})
		} else {
			if ring.Orientation() != orb.CW {
				ring.Reverse()
			}
			entry.polygon = parent.polygon
			result[parent.polygon] = append(result[parent.polygon], ring)
		}
		tree.Insert(entry)
	}
	return result
}
