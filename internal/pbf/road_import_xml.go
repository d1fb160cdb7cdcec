package pbf

import (
	"context"
	"io"
	"os"

	"github.com/natevvv/walking-coverage/pkg/geometry"
	"github.com/natevvv/walking-coverage/pkg/road"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"
)

// XMLRoadImporter reads .osm files. Nodes precede ways in OSM XML, so a single pass suffices.
type XMLRoadImporter struct {
	filename string
	bound    *orb.Bound
	roads    []*road.Segment
	nodes    map[osm.NodeID]orb.Point
}

func NewXMLRoadImporter(filename string) *XMLRoadImporter {
	return &XMLRoadImporter{
		filename: filename,
		roads:    make([]*road.Segment, 0),
		nodes:    make(map[osm.NodeID]orb.Point),
	}
}

func (xi *XMLRoadImporter) SetBound(bound *orb.Bound) {
	xi.bound = bound
}

func (xi *XMLRoadImporter) Import() error {
	file, err := os.Open(xi.filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return xi.ImportFrom(context.Background(), file)
}

// ImportFrom reads OSM XML from r.
func (xi *XMLRoadImporter) ImportFrom(ctx context.Context, r io.Reader) error {
	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			xi.nodes[o.ID] = geometry.MakePoint(o.Lat, o.Lon)
		case *osm.Way:
			tags := o.Tags.Map()
			if !keepWay(tags) {
				continue
			}
			points := make([]orb.Point, 0, len(o.Nodes))
			for _, wn := range o.Nodes {
				if point, ok := xi.nodes[wn.ID]; ok {
					points = append(points, point)
				}
			}
			if len(points) > 0 && intersects(xi.bound, points) {
				xi.roads = append(xi.roads, road.NewSegment(int64(o.ID), tags, points))
			}
		}
	}
	return scanner.Err()
}

func (xi *XMLRoadImporter) Roads() []*road.Segment {
	return xi.roads
}
