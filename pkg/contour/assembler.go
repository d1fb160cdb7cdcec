package contour

import (
	"math"

	"github.com/natevvv/walking-coverage/pkg/slice"
	"github.com/paulmach/orb"
)

// DefaultEpsilon is the squared distance below which two endpoints are considered equal.
const DefaultEpsilon = 1e-10

// sequence is a polyline stored as two stacks so that both ends can grow in O(1):
// the points are reverse(head) followed by tail.
type sequence struct {
	head   []orb.Point
	tail   []orb.Point
	closed bool
	alive  bool
}

func (s *sequence) front() orb.Point {
	if len(s.head) > 0 {
		return s.head[len(s.head)-1]
	}
	return s.tail[0]
}

func (s *sequence) back() orb.Point {
	if len(s.tail) > 0 {
		return s.tail[len(s.tail)-1]
	}
	return s.head[0]
}

func (s *sequence) pushFront(p orb.Point) { s.head = append(s.head, p) }
func (s *sequence) pushBack(p orb.Point)  { s.tail = append(s.tail, p) }
func (s *sequence) reverse()              { s.head, s.tail = s.tail, s.head }
func (s *sequence) len() int              { return len(s.head) + len(s.tail) }

func (s *sequence) points() []orb.Point {
	points := make([]orb.Point, 0, s.len())
	points = append(points, s.head...)
	slice.ReverseInPlace(points)
	return append(points, s.tail...)
}

type bucket [2]int64

// Assembler joins undirected segments into polylines by matching endpoints.
// Every point is expected to have at most two incident segments, which holds for
// the output of a single contour level.
type Assembler struct {
	epsilon   float64 // squared match distance
	cellSize  float64
	sequences []*sequence
	endpoints map[bucket][]int
}

func NewAssembler() *Assembler {
	return NewAssemblerWithEpsilon(DefaultEpsilon)
}

// NewAssemblerWithEpsilon creates an Assembler matching endpoints closer than sqrt(epsilon).
func NewAssemblerWithEpsilon(epsilon float64) *Assembler {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Assembler{
		epsilon:   epsilon,
		cellSize:  math.Sqrt(epsilon),
		sequences: make([]*sequence, 0),
		endpoints: make(map[bucket][]int),
	}
}

func distance2(p, q orb.Point) float64 {
	dx, dy := p[0]-q[0], p[1]-q[1]
	return dx*dx + dy*dy
}

func (a *Assembler) equal(p, q orb.Point) bool {
	return distance2(p, q) < a.epsilon
}

func (a *Assembler) bucketOf(p orb.Point) bucket {
	return bucket{int64(math.Floor(p[0] / a.cellSize)), int64(math.Floor(p[1] / a.cellSize))}
}

func (a *Assembler) register(id int) {
	s := a.sequences[id]
	for _, p := range [2]orb.Point{s.front(), s.back()} {
		b := a.bucketOf(p)
		if !slice.Contains(a.endpoints[b], id) {
			a.endpoints[b] = append(a.endpoints[b], id)
		}
	}
}

func (a *Assembler) unregister(id int) {
	s := a.sequences[id]
	for _, p := range [2]orb.Point{s.front(), s.back()} {
		b := a.bucketOf(p)
		ids := a.endpoints[b]
		for i, other := range ids {
			if other == id {
				ids = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(ids) == 0 {
			delete(a.endpoints, b)
		} else {
			a.endpoints[b] = ids
		}
	}
}

// find returns the open sequence with the endpoint nearest to p within the match distance,
// and whether that endpoint is the front.
// Neighbouring buckets are probed as well since a match may straddle a bucket border.
func (a *Assembler) find(p orb.Point) (int, bool, bool) {
	best, bestFront, bestDist := -1, false, a.epsilon
	b := a.bucketOf(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, id := range a.endpoints[bucket{b[0] + dx, b[1] + dy}] {
				s := a.sequences[id]
				if d := distance2(s.front(), p); d < bestDist {
					best, bestFront, bestDist = id, true, d
				}
				if d := distance2(s.back(), p); d < bestDist {
					best, bestFront, bestDist = id, false, d
				}
			}
		}
	}
	return best, bestFront, best >= 0
}

// AddSegment adds the segment p1-p2. Zero-length segments are ignored.
func (a *Assembler) AddSegment(p1, p2 orb.Point) {
	if a.equal(p1, p2) {
		return
	}

	id1, front1, ok1 := a.find(p1)
	id2, front2, ok2 := a.find(p2)

	switch {
	case !ok1 && !ok2:
		a.sequences = append(a.sequences, &sequence{tail: []orb.Point{p1, p2}, alive: true})
		a.register(len(a.sequences) - 1)

	case ok1 && !ok2:
		a.extend(id1, front1, p2)

	case !ok1 && ok2:
		a.extend(id2, front2, p1)

	case id1 == id2:
		if front1 == front2 {
			// both ends match the same endpoint, nothing sensible to join
			return
		}
		s := a.sequences[id1]
		a.unregister(id1)
		s.pushBack(s.front())
		s.closed = true

	default:
		a.splice(id1, front1, id2, front2)
	}
}

func (a *Assembler) extend(id int, atFront bool, p orb.Point) {
	s := a.sequences[id]
	a.unregister(id)
	if atFront {
		s.pushFront(p)
	} else {
		s.pushBack(p)
	}
	a.register(id)
}

// splice appends the second sequence to the first, so that the new segment joins
// the end of the first at p1 with the start of the second at p2.
func (a *Assembler) splice(id1 int, front1 bool, id2 int, front2 bool) {
	s1, s2 := a.sequences[id1], a.sequences[id2]
	a.unregister(id1)
	a.unregister(id2)

	if front1 {
		s1.reverse()
	}
	if !front2 {
		s2.reverse()
	}
	for _, p := range s2.points() {
		s1.pushBack(p)
	}
	s2.alive = false
	s2.head, s2.tail = nil, nil

	a.register(id1)
}

// Sequences returns the current polylines in creation order.
// Closed sequences repeat their first point at the end.
func (a *Assembler) Sequences() [][]orb.Point {
	result := make([][]orb.Point, 0, len(a.sequences))
	for _, s := range a.sequences {
		if s.alive {
			result = append(result, s.points())
		}
	}
	return result
}

// ClosedCount returns the number of sequences which were closed by a segment.
func (a *Assembler) ClosedCount() int {
	count := 0
	for _, s := range a.sequences {
		if s.alive && s.closed {
			count++
		}
	}
	return count
}

// Build returns every sequence as a ring of a single polygon, in creation order.
// Open sequences are closed by repeating their first point.
func (a *Assembler) Build() orb.Polygon {
	polygon := make(orb.Polygon, 0, len(a.sequences))
	for _, s := range a.sequences {
		if !s.alive {
			continue
		}
		ring := orb.Ring(s.points())
		if !s.closed {
			ring = append(ring, ring[0])
		}
		polygon = append(polygon, ring)
	}
	return polygon
}
