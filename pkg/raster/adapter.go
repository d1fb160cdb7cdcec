package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/natevvv/walking-coverage/pkg/grid"
	"github.com/paulmach/orb"
)

var (
	ErrNotNorthUp        = errors.New("raster: grid must be normalized north-up")
	ErrInvalidDimensions = errors.New("raster: width and height must be positive")
	ErrOutOfBounds       = errors.New("raster: coordinates out of raster boundaries")
)

// approximate length of one degree of latitude (and of longitude at the equator)
const degreeLengthMeters = 111111.0

// GeoTransform uses the GDAL coefficient order:
//
//	0: top-left x (longitude)   1: pixel width    2: row rotation
//	3: top-left y (latitude)    4: column rotation 5: pixel height (negative when north-up)
type GeoTransform [6]float64

// MakeGeoTransform builds the north-up transform of a grid whose top-left corner is at (lng, lat).
func MakeGeoTransform(lng, lat, pixelWidth, pixelHeight float64) GeoTransform {
	return GeoTransform{lng, pixelWidth, 0, lat, 0, -pixelHeight}
}

func (gt GeoTransform) IsNorthUp() bool {
	return gt[2] == 0 && gt[4] == 0 && gt[1] > 0 && gt[5] < 0
}

// Adapter converts between geographic coordinates and cell indices of a north-up grid.
type Adapter struct {
	transform GeoTransform
	width     int
	height    int
}

func NewAdapter(gt GeoTransform, width, height int) (*Adapter, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !gt.IsNorthUp() {
		return nil, ErrNotNorthUp
	}
	return &Adapter{transform: gt, width: width, height: height}, nil
}

func (a *Adapter) GeoTransform() GeoTransform { return a.transform }
func (a *Adapter) Width() int                 { return a.width }
func (a *Adapter) Height() int                { return a.height }
func (a *Adapter) PixelWidth() float64        { return a.transform[1] }
func (a *Adapter) PixelHeight() float64       { return -a.transform[5] }

func (a *Adapter) TopLeft() orb.Point {
	return orb.Point{a.transform[0], a.transform[3]}
}

func (a *Adapter) BottomRight() orb.Point {
	return orb.Point{
		a.transform[0] + a.transform[1]*float64(a.width),
		a.transform[3] + a.transform[5]*float64(a.height),
	}
}

func (a *Adapter) Bound() orb.Bound {
	tl, br := a.TopLeft(), a.BottomRight()
	return orb.Bound{Min: orb.Point{tl.X(), br.Y()}, Max: orb.Point{br.X(), tl.Y()}}
}

// Contains is inclusive on all four edges.
func (a *Adapter) Contains(p orb.Point) bool {
	return a.Bound().Contains(p)
}

// PixelCoords returns the cell containing p. Points on the east or south edge
// map to the last column or row.
func (a *Adapter) PixelCoords(p orb.Point) (grid.Cell, error) {
	if !a.Contains(p) {
		return grid.Cell{}, fmt.Errorf("%w: %v", ErrOutOfBounds, p)
	}
	tl := a.TopLeft()
	x := int(math.Floor((p.X() - tl.X()) / a.PixelWidth()))
	y := int(math.Floor((p.Y() - tl.Y()) / -a.PixelHeight()))
	if x >= a.width {
		x = a.width - 1
	}
	if y >= a.height {
		y = a.height - 1
	}
	return grid.Cell{X: x, Y: y}, nil
}

// PixelPosition returns the fractional column and row of p without any bounds check.
func (a *Adapter) PixelPosition(p orb.Point) (float64, float64) {
	tl := a.TopLeft()
	return (p.X() - tl.X()) / a.PixelWidth(), (tl.Y() - p.Y()) / a.PixelHeight()
}

// Position maps a fractional column and row back to geographic coordinates.
// It is the inverse of PixelPosition.
func (a *Adapter) Position(x, y float64) orb.Point {
	tl := a.TopLeft()
	return orb.Point{tl.X() + x*a.PixelWidth(), tl.Y() - y*a.PixelHeight()}
}

// CellCenter returns the geographic coordinates of the centre of c.
func (a *Adapter) CellCenter(c grid.Cell) orb.Point {
	return a.Position(float64(c.X)+0.5, float64(c.Y)+0.5)
}

// CellCenters returns the longitudes of all column centres and the latitudes of all row centres.
func (a *Adapter) CellCenters() (xs, ys []float64) {
	xs = make([]float64, a.width)
	ys = make([]float64, a.height)
	tl := a.TopLeft()
	for i := range xs {
		xs[i] = tl.X() + (float64(i)+0.5)*a.PixelWidth()
	}
	for j := range ys {
		ys[j] = tl.Y() - (float64(j)+0.5)*a.PixelHeight()
	}
	return xs, ys
}

// PixelWidthMeters is an equirectangular approximation taken at the mean latitude of the grid.
// It is coarse by nature and degrades towards the poles.
func (a *Adapter) PixelWidthMeters() float64 {
	centerLat := (a.TopLeft().Lat() + a.BottomRight().Lat()) / 2
	return degreeLengthMeters * math.Cos(centerLat*math.Pi/180) * a.PixelWidth()
}

func (a *Adapter) PixelHeightMeters() float64 {
	return degreeLengthMeters * a.PixelHeight()
}

func (a *Adapter) String() string {
	tl := a.TopLeft()
	return fmt.Sprintf("raster %dx%d origin %.6f,%.6f pixel %.6f,%.6f (~%.2fm x %.2fm)",
		a.width, a.height, tl.X(), tl.Y(), a.PixelWidth(), a.PixelHeight(),
		a.PixelWidthMeters(), a.PixelHeightMeters())
}
