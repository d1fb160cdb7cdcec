package pbf

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/natevvv/walking-coverage/pkg/geometry"
	"github.com/natevvv/walking-coverage/pkg/road"
	"github.com/paulmach/orb"
	"github.com/qedus/osmpbf"
)

// Importer reads the highways of an OSM extract.
type Importer interface {
	Import() error
	Roads() []*road.Segment
}

// NewImporter picks the importer matching the file extension: .pbf files are decoded
// with osmpbf, everything else is read as OSM XML.
func NewImporter(filename string, bound *orb.Bound) Importer {
	if strings.EqualFold(filepath.Ext(filename), ".pbf") {
		ri := NewRoadImporter(filename)
		ri.SetBound(bound)
		return ri
	}
	xi := NewXMLRoadImporter(filename)
	xi.SetBound(bound)
	return xi
}

// keepWay decides whether a way becomes a road segment.
func keepWay(tags map[string]string) bool {
	highway, ok := tags["highway"]
	return ok && road.ParseHighway(highway) != road.Unknown
}

// intersects reports whether any point of the way lies inside bound. A nil bound keeps everything.
func intersects(bound *orb.Bound, points []orb.Point) bool {
	if bound == nil {
		return true
	}
	for _, p := range points {
		if bound.Contains(p) {
			return true
		}
	}
	return false
}

type RoadImporter struct {
	filename string
	bound    *orb.Bound
	roads    []*road.Segment
	nodes    map[int64]orb.Point
}

func NewRoadImporter(filename string) *RoadImporter {
	return &RoadImporter{
		filename: filename,
		roads:    make([]*road.Segment, 0),
		nodes:    make(map[int64]orb.Point),
	}
}

// SetBound restricts the import to ways with at least one node inside bound.
func (ri *RoadImporter) SetBound(bound *orb.Bound) {
	ri.bound = bound
}

func (ri *RoadImporter) Import() error {
	if err := ri.collectNodes(); err != nil {
		return err
	}

	file, err := os.Open(ri.filename)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := osmpbf.NewDecoder(file)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)

	err = decoder.Start(runtime.GOMAXPROCS(-1))
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	roadsChan := make(chan *road.Segment, 1000)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for segment := range roadsChan {
			ri.roads = append(ri.roads, segment)
		}
	}()

	for {
		v, err := decoder.Decode()
		if err != nil {
			close(roadsChan)
			wg.Wait()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch v := v.(type) {
		case *osmpbf.Way:
			if !keepWay(v.Tags) {
				continue
			}
			points := make([]orb.Point, 0, len(v.NodeIDs))
			for _, nodeID := range v.NodeIDs {
				if point, ok := ri.nodes[nodeID]; ok {
					points = append(points, point)
				}
			}
			if len(points) > 0 && intersects(ri.bound, points) {
				roadsChan <- road.NewSegment(v.ID, v.Tags, points)
			}
		}
	}
}

func (ri *RoadImporter) Roads() []*road.Segment {
	return ri.roads
}

func (ri *RoadImporter) collectNodes() error {
	file, err := os.Open(ri.filename)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := osmpbf.NewDecoder(file)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)

	err = decoder.Start(runtime.GOMAXPROCS(-1))
	if err != nil {
		return err
	}

	for {
		v, err := decoder.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch v := v.(type) {
		case *osmpbf.Node:
			ri.nodes[v.ID] = geometry.MakePoint(v.Lat, v.Lon)
		}
	}
}
