package pbf

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/natevvv/walking-coverage/pkg/road"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="47.0" lon="8.0"/>
  <node id="2" lat="47.0" lon="8.001"/>
  <node id="3" lat="47.001" lon="8.001"/>
  <node id="4" lat="48.0" lon="9.0"/>
  <node id="5" lat="48.001" lon="9.0"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="residential"/>
    <tag k="maxspeed" v="20"/>
  </way>
  <way id="11">
    <nd ref="1"/>
    <nd ref="3"/>
    <tag k="building" v="yes"/>
  </way>
  <way id="12">
    <nd ref="4"/>
    <nd ref="5"/>
    <tag k="highway" v="footway"/>
    <tag k="oneway" v="yes"/>
  </way>
  <way id="13">
    <nd ref="4"/>
    <nd ref="5"/>
    <tag k="highway" v="proposed"/>
  </way>
</osm>`

func TestXMLRoadImporter(t *testing.T) {
	xi := NewXMLRoadImporter("")
	require.NoError(t, xi.ImportFrom(context.Background(), strings.NewReader(testOSM)))

	roads := xi.Roads()
	require.Len(t, roads, 2)

	assert.Equal(t, int64(10), roads[0].ID)
	assert.Equal(t, road.Residential, roads[0].Type)
	assert.Equal(t, 20, roads[0].MaxSpeed)
	assert.Equal(t, []orb.Point{{8.0, 47.0}, {8.001, 47.0}, {8.001, 47.001}}, roads[0].Points)

	assert.Equal(t, int64(12), roads[1].ID)
	assert.Equal(t, road.Footway, roads[1].Type)
	assert.Equal(t, 6, roads[1].MaxSpeed)
	assert.True(t, roads[1].OneWay)
}

func TestXMLRoadImporterBound(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{7.9, 46.9}, Max: orb.Point{8.1, 47.1}}
	xi := NewXMLRoadImporter("")
	xi.SetBound(&bound)
	require.NoError(t, xi.ImportFrom(context.Background(), strings.NewReader(testOSM)))

	require.Len(t, xi.Roads(), 1)
	assert.Equal(t, int64(10), xi.Roads()[0].ID)
}

func TestNewImporter(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "extract.osm")
	require.NoError(t, os.WriteFile(filename, []byte(testOSM), 0o644))

	importer := NewImporter(filename, nil)
	require.IsType(t, &XMLRoadImporter{}, importer)
	require.NoError(t, importer.Import())
	assert.Len(t, importer.Roads(), 2)

	assert.IsType(t, &RoadImporter{}, NewImporter(filepath.Join(dir, "extract.osm.PBF"), nil))
}

func TestRoadImporterMissingFile(t *testing.T) {
	ri := NewRoadImporter(filepath.Join(t.TempDir(), "missing.pbf"))
	assert.Error(t, ri.Import())

	xi := NewXMLRoadImporter(filepath.Join(t.TempDir(), "missing.osm"))
	assert.Error(t, xi.Import())
}

func TestWriteRoadGeoJSON(t *testing.T) {
	roads := []*road.Segment{
		road.NewSegment(1, map[string]string{"highway": "primary"}, []orb.Point{{8, 47}, {8.1, 47}}),
		road.NewSegment(2, map[string]string{"highway": "path", "oneway": "yes"}, []orb.Point{{8, 47}, {8, 47.1}}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRoadGeoJSON(&buf, roads))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, orb.LineString{{8, 47}, {8.1, 47}}, fc.Features[0].Geometry)
	assert.Equal(t, "primary", fc.Features[0].Properties["highway"])
	assert.Equal(t, 60.0, fc.Features[0].Properties["maxspeed"])
	assert.Equal(t, true, fc.Features[1].Properties["oneway"])
}
