package friction

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/natevvv/walking-coverage/pkg/grid"
	"github.com/natevvv/walking-coverage/pkg/raster"
	"github.com/natevvv/walking-coverage/pkg/road"
	"github.com/paulmach/orb"
)

var ErrUnknownMode = errors.New("friction: unknown travel mode")

type Mode int

const (
	Walking Mode = iota
	Driving
)

const (
	// DefaultBackground is the off-road friction in minutes per meter (1.2 km/h)
	DefaultBackground = 0.05
	// WalkingSpeed caps the speed on roads in walking mode, km/h
	WalkingSpeed = 6
)

func (m Mode) String() string {
	switch m {
	case Walking:
		return "walking"
	case Driving:
		return "driving"
	}
	return "unknown"
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "walking", "walk", "foot":
		return Walking, nil
	case "driving", "drive", "car":
		return Driving, nil
	}
	return Walking, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// SpeedToFriction converts a speed in km/h into minutes per meter.
func SpeedToFriction(speed float64) float32 {
	return float32(60 / (speed * 1000))
}

// Builder burns road segments into a friction grid covering the raster of Adapter.
type Builder struct {
	Adapter    *raster.Adapter
	Background float64 // minutes per meter of cells without a road
	Mode       Mode

	burnedCells int
	skipped     int
	debugLevel  int
}

func NewBuilder(adapter *raster.Adapter, mode Mode) *Builder {
	return &Builder{Adapter: adapter, Background: DefaultBackground, Mode: mode}
}

func (b *Builder) SetDebugLevel(level int) { b.debugLevel = level }
func (b *Builder) BurnedCells() int        { return b.burnedCells }
func (b *Builder) SkippedSegments() int    { return b.skipped }

// speed returns the travel speed on s in km/h, 0 if s cannot be used.
func (b *Builder) speed(s *road.Segment) float64 {
	speed := float64(s.MaxSpeed)
	if speed <= 0 {
		speed = float64(s.Type.DefaultSpeed())
	}
	if b.Mode == Walking && speed > WalkingSpeed {
		speed = WalkingSpeed
	}
	return speed
}

// Rasterize returns a grid with the background friction, lowered along every road to the
// friction of its speed. Cells crossed by several roads keep the lowest friction.
func (b *Builder) Rasterize(segments []*road.Segment) *grid.Grid[float32] {
	friction, _ := grid.NewFilled(b.Adapter.Width(), b.Adapter.Height(), float32(b.Background))
	b.burnedCells = 0
	b.skipped = 0

	for _, s := range segments {
		speed := b.speed(s)
		if speed <= 0 || len(s.Points) == 0 {
			b.skipped++
			continue
		}
		value := SpeedToFriction(speed)
		burn := func(x, y int) {
			if !friction.InBounds(x, y) {
				return
			}
			if current := friction.At(x, y); value < current {
				if current == float32(b.Background) {
					b.burnedCells++
				}
				friction.Set(x, y, value)
			}
		}
		if len(s.Points) == 1 {
			x, y := b.Adapter.PixelPosition(s.Points[0])
			burn(int(math.Floor(x)), int(math.Floor(y)))
			continue
		}
		for i := 1; i < len(s.Points); i++ {
			b.line(s.Points[i-1], s.Points[i], burn)
		}
	}

	if b.debugLevel >= 1 {
		log.Printf("Rasterized %v segments (%v skipped) into %v road cells\n", len(segments), b.skipped, b.burnedCells)
	}
	return friction
}

// line visits every cell crossed by the segment p-q, walking the grid lines it intersects.
func (b *Builder) line(p, q orb.Point, visit func(x, y int)) {
	x0, y0 := b.Adapter.PixelPosition(p)
	x1, y1 := b.Adapter.PixelPosition(q)

	x, y := int(math.Floor(x0)), int(math.Floor(y0))
	endX, endY := int(math.Floor(x1)), int(math.Floor(y1))
	dx, dy := x1-x0, y1-y0

	stepX, stepY := 1, 1
	if dx < 0 {
		stepX = -1
	}
	if dy < 0 {
		stepY = -1
	}

	// parameter t in [0, 1] at which the next vertical / horizontal grid line is crossed
	tMaxX, tMaxY := math.Inf(1), math.Inf(1)
	tDeltaX, tDeltaY := math.Inf(1), math.Inf(1)
	if dx != 0 {
		next := float64(x)
		if stepX > 0 {
			next++
		}
		tMaxX = (next - x0) / dx
		tDeltaX = float64(stepX) / dx
	}
	if dy != 0 {
		next := float64(y)
		if stepY > 0 {
			next++
		}
		tMaxY = (next - y0) / dy
		tDeltaY = float64(stepY) / dy
	}

	visit(x, y)
	for steps := abs(endX-x) + abs(endY-y); steps > 0; steps-- {
		if tMaxX < tMaxY {
			x += stepX
			tMaxX += tDeltaX
		} else {
			y += stepY
			tMaxY += tDeltaY
		}
		visit(x, y)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
