package grid

// Direction classifies the step between two 8-adjacent cells.
type Direction int

const (
	Horizontal Direction = iota // same row
	Vertical                    // same column
	Diagonal
)

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "HORIZONTAL"
	case Vertical:
		return "VERTICAL"
	case Diagonal:
		return "DIAGONAL"
	}
	return "INVALID"
}

// Offset is a relative step to one of the 8 neighbours of a cell.
type Offset struct {
	DX        int
	DY        int
	Direction Direction
}

// Neighbors8 lists the 8-connected neighbourhood in row-major order (top-left first).
var Neighbors8 = [8]Offset{
	{-1, -1, Diagonal}, {0, -1, Vertical}, {1, -1, Diagonal},
	{-1, 0, Horizontal}, {1, 0, Horizontal},
	{-1, 1, Diagonal}, {0, 1, Vertical}, {1, 1, Diagonal},
}

// DirectionOf returns the step class between a and b. Both cells must be distinct
// and 8-adjacent.
func DirectionOf(a, b Cell) Direction {
	switch {
	case a.Y == b.Y:
		return Horizontal
	case a.X == b.X:
		return Vertical
	default:
		return Diagonal
	}
}

// Adjacent8 reports whether a and b are distinct 8-connected neighbours.
func Adjacent8(a, b Cell) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx == 0 && dy == 0 {
		return false
	}
	return dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1
}
