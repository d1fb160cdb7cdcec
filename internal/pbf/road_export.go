package pbf

import (
	"encoding/json"
	"io"
	"os"

	"github.com/natevvv/walking-coverage/pkg/road"
	"github.com/paulmach/orb/geojson"
)

// RoadFeatureCollection converts road segments into GeoJSON LineStrings.
func RoadFeatureCollection(roads []*road.Segment) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range roads {
		f := geojson.NewFeature(r.LineString())
		f.ID = r.ID
		f.Properties["highway"] = r.Type.String()
		f.Properties["maxspeed"] = r.MaxSpeed
		f.Properties["oneway"] = r.OneWay
		fc.Append(f)
	}
	return fc
}

func WriteRoadGeoJSON(w io.Writer, roads []*road.Segment) error {
	return json.NewEncoder(w).Encode(RoadFeatureCollection(roads))
}

func ExportRoadGeoJSON(roads []*road.Segment, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteRoadGeoJSON(file, roads)
}
