package geometry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

var ErrInvalidCoords = errors.New("geometry: invalid coordinates")

// Points are orb points in lng/lat order (X = longitude, Y = latitude).

func MakePoint(lat, lon float64) orb.Point {
	return orb.Point{lon, lat}
}

func NewPoint(lat, lon float64) *orb.Point {
	p := MakePoint(lat, lon)
	return &p
}

// ParseCoords parses a "lng,lat" pair.
func ParseCoords(s string) (orb.Point, error) {
	lng, lat, ok := strings.Cut(s, ",")
	if !ok {
		return orb.Point{}, fmt.Errorf("%w: %q", ErrInvalidCoords, s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("%w: %q", ErrInvalidCoords, s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("%w: %q", ErrInvalidCoords, s)
	}
	if y < -90 || y > 90 || x < -180 || x > 180 {
		return orb.Point{}, fmt.Errorf("%w: %q out of range", ErrInvalidCoords, s)
	}
	return orb.Point{x, y}, nil
}

// ParseBound parses "minLng,minLat,maxLng,maxLat".
func ParseBound(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("%w: bbox %q", ErrInvalidCoords, s)
	}
	lo, err := ParseCoords(parts[0] + "," + parts[1])
	if err != nil {
		return orb.Bound{}, err
	}
	hi, err := ParseCoords(parts[2] + "," + parts[3])
	if err != nil {
		return orb.Bound{}, err
	}
	if lo.X() >= hi.X() || lo.Y() >= hi.Y() {
		return orb.Bound{}, fmt.Errorf("%w: empty bbox %q", ErrInvalidCoords, s)
	}
	return orb.Bound{Min: lo, Max: hi}, nil
}

// DistanceTo returns the great-circle distance in meters.
func DistanceTo(a, b orb.Point) float64 {
	return geo.Distance(a, b)
}

func FormatCoords(p orb.Point) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lon(), p.Lat())
}
