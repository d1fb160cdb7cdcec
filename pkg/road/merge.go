package road

import (
	"github.com/paulmach/orb"
)

// Merger joins segments which continue each other and share type, direction and speed.
// A chain grows at its end first and then at its start, so a road split into pieces is
// rebuilt whatever the order of the pieces.
type Merger struct {
	roads           []*Segment
	starts          map[orb.Point][]*Segment
	ends            map[orb.Point][]*Segment
	merged          map[int64]bool
	mergeCount      int
	unmergableCount int
}

func NewMerger(roads []*Segment) *Merger {
	return &Merger{
		roads: roads,
	}
}

func (m *Merger) index() {
	m.starts = make(map[orb.Point][]*Segment)
	m.ends = make(map[orb.Point][]*Segment)
	m.merged = make(map[int64]bool)

	for _, seg := range m.roads {
		if len(seg.Points) < 2 {
			m.unmergableCount++
			continue
		}
		m.starts[seg.first()] = append(m.starts[seg.first()], seg)
		m.ends[seg.last()] = append(m.ends[seg.last()], seg)
	}
}

func (m *Merger) Merge() {
	m.index()

	var chains []*Segment
	for _, seg := range m.roads {
		if m.merged[seg.ID] || len(seg.Points) < 2 {
			continue
		}
		m.merged[seg.ID] = true

		chain := seg
		for next := m.take(m.starts[chain.last()], chain); next != nil; next = m.take(m.starts[chain.last()], chain) {
			chain = mergeTwoSegments(chain, next)
		}
		for prev := m.take(m.ends[chain.first()], chain); prev != nil; prev = m.take(m.ends[chain.first()], chain) {
			chain = mergeTwoSegments(prev, chain)
		}
		chains = append(chains, chain)
	}

	m.roads = chains
}

// take returns the first candidate which may be merged into chain and marks it as merged.
func (m *Merger) take(candidates []*Segment, chain *Segment) *Segment {
	for _, candidate := range candidates {
		if m.merged[candidate.ID] || !canMerge(chain, candidate) {
			continue
		}
		m.merged[candidate.ID] = true
		m.mergeCount++
		return candidate
	}
	return nil
}

func (s *Segment) first() orb.Point { return s.Points[0] }
func (s *Segment) last() orb.Point  { return s.Points[len(s.Points)-1] }

func canMerge(s1, s2 *Segment) bool {
	return s1.Type == s2.Type &&
		s1.OneWay == s2.OneWay &&
		s1.MaxSpeed == s2.MaxSpeed
}

// mergeTwoSegments appends s2 to s1, s1 must end where s2 starts.
func mergeTwoSegments(s1, s2 *Segment) *Segment {
	merged := &Segment{
		ID:       s1.ID,
		Type:     s1.Type,
		OneWay:   s1.OneWay,
		MaxSpeed: s1.MaxSpeed,
		Tags:     s1.Tags,
		Points:   make([]orb.Point, 0, len(s1.Points)+len(s2.Points)-1),
	}
	merged.Points = append(merged.Points, s1.Points...)
	merged.Points = append(merged.Points, s2.Points[1:]...)
	return merged
}

func (m *Merger) Roads() []*Segment {
	return m.roads
}

func (m *Merger) MergeCount() int {
	return m.mergeCount
}

func (m *Merger) UnmergableRoadCount() int {
	return m.unmergableCount
}
