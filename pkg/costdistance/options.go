package costdistance

// Options of a cost-distance computation.
// Friction is expected in time per meter (minutes per meter in the walking-coverage tool),
// so MaxCost is a time budget in the same unit.
type Options struct {
	PixelWidth  float64 // horizontal cell extent in meters
	PixelHeight float64 // vertical cell extent in meters
	MaxCost     float64 // cells at or above this cost are never expanded
	MinFriction float64 // floor applied to every friction value

	// KeepFrontier keeps the cost of cells which were relaxed but never expanded because
	// their cost reached MaxCost. Without it they are reset to +Inf.
	KeepFrontier bool
}

const (
	DefaultMaxCost     = 180  // 3 hours, in minutes
	DefaultMinFriction = 0.01 // min/m = 6 km/h walking speed
)

// Create Options with unit pixels and the defaults of the walking-coverage tool
func MakeDefaultOptions() Options {
	return Options{PixelWidth: 1, PixelHeight: 1, MaxCost: DefaultMaxCost, MinFriction: DefaultMinFriction}
}

func (o Options) SetPixelSize(width, height float64) Options {
	o.PixelWidth = width
	o.PixelHeight = height
	return o
}

func (o Options) SetMaxCost(maxCost float64) Options {
	o.MaxCost = maxCost
	return o
}

func (o Options) SetMinFriction(minFriction float64) Options {
	o.MinFriction = minFriction
	return o
}

func (o Options) SetKeepFrontier(flag bool) Options {
	o.KeepFrontier = flag
	return o
}
