package isochrone

import (
	"github.com/natevvv/walking-coverage/pkg/geometry"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// Geometry returns the classified rings if present, the plain polygon otherwise.
func (r *Result) Geometry() orb.Geometry {
	if r.MultiPolygon != nil {
		return r.MultiPolygon
	}
	return r.Polygon
}

// Feature converts the result into a GeoJSON feature.
func (r *Result) Feature() *geojson.Feature {
	f := geojson.NewFeature(r.Geometry())
	f.Properties["level"] = r.Level
	f.Properties["maxCost"] = r.MaxCost
	f.Properties["origin"] = geometry.FormatCoords(r.Origin)
	f.Properties["rings"] = r.Stats.Rings
	f.Properties["settledCells"] = r.Stats.SettledCells
	if r.MultiPolygon != nil {
		f.Properties["area"] = geo.Area(r.MultiPolygon)
	}
	return f
}

// FeatureCollection wraps the features of several results.
func FeatureCollection(results ...*Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range results {
		fc.Append(r.Feature())
	}
	return fc
}
