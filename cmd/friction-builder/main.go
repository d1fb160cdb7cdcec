package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/natevvv/walking-coverage/internal/ascgrid"
	"github.com/natevvv/walking-coverage/internal/pbf"
	"github.com/natevvv/walking-coverage/pkg/friction"
	"github.com/natevvv/walking-coverage/pkg/geometry"
	"github.com/natevvv/walking-coverage/pkg/raster"
	"github.com/natevvv/walking-coverage/pkg/road"
	"github.com/paulmach/orb"
)

var flagOsmFile = flag.String("f", "extract.osm.pbf", "OSM extract (.osm.pbf or .osm)")
var flagOutputFile = flag.String("o", "friction.asc", "output friction raster (ESRI ASCII grid)")
var flagRoadsFile = flag.String("roads", "", "also export the merged roads as GeoJSON")
var flagBbox = flag.String("bbox", "", "raster extent as minLng,minLat,maxLng,maxLat (default: extent of the roads)")
var flagCellSize = flag.Float64("cellsize", 0.0001, "cell size in degrees")
var flagMode = flag.String("mode", "walking", "travel mode: walking or driving")
var flagBackground = flag.Float64("background", friction.DefaultBackground, "friction of cells without a road in min/m")
var flagVerbose = flag.Bool("v", false, "verbose output")

func main() {
	flag.Parse()

	mode, err := friction.ParseMode(*flagMode)
	if err != nil {
		log.Fatal(err)
	}
	if !(*flagCellSize > 0) {
		log.Fatal("cell size must be positive")
	}
	var bound *orb.Bound
	if *flagBbox != "" {
		b, err := geometry.ParseBound(*flagBbox)
		if err != nil {
			log.Fatal(err)
		}
		bound = &b
	}

	start := time.Now()

	importer := pbf.NewImporter(*flagOsmFile, bound)
	if err := importer.Import(); err != nil {
		log.Fatal(err)
	}

	elapsed := time.Since(start)
	fmt.Printf("[TIME] Import: %s\n", elapsed)

	start = time.Now()

	merger := road.NewMerger(importer.Roads())
	merger.Merge()

	elapsed = time.Since(start)
	fmt.Printf("[TIME] Merge: %s\n", elapsed)
	fmt.Printf("Road segments: %d\n", len(merger.Roads()))
	fmt.Printf("Merges: %d\n", merger.MergeCount())
	fmt.Printf("Unmergable road segments: %d\n", merger.UnmergableRoadCount())

	if bound == nil {
		b, ok := roadsBound(merger.Roads())
		if !ok {
			log.Fatal("no roads imported, cannot derive the raster extent")
		}
		bound = &b
	}

	start = time.Now()

	adapter, err := adapterFor(*bound, *flagCellSize)
	if err != nil {
		log.Fatal(err)
	}
	builder := friction.NewBuilder(adapter, mode)
	builder.Background = *flagBackground
	if *flagVerbose {
		builder.SetDebugLevel(1)
	}
	frictionGrid := builder.Rasterize(merger.Roads())

	elapsed = time.Since(start)
	fmt.Printf("[TIME] Rasterize: %s\n", elapsed)
	fmt.Printf("%v\n", adapter)
	fmt.Printf("Burned cells: %d, skipped segments: %d\n", builder.BurnedCells(), builder.SkippedSegments())

	start = time.Now()

	if err := ascgrid.WriteFile(*flagOutputFile, frictionGrid, adapter.GeoTransform(), ascgrid.DefaultNoData); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote %s\n", *flagOutputFile)

	if *flagRoadsFile != "" {
		if err := pbf.ExportRoadGeoJSON(merger.Roads(), *flagRoadsFile); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Wrote %s\n", *flagRoadsFile)
	}

	elapsed = time.Since(start)
	fmt.Printf("[TIME] Export: %s\n", elapsed)
}

func roadsBound(roads []*road.Segment) (orb.Bound, bool) {
	var bound orb.Bound
	found := false
	for _, r := range roads {
		if len(r.Points) == 0 {
			continue
		}
		b := r.LineString().Bound()
		if !found {
			bound = b
			found = true
		} else {
			bound = bound.Union(b)
		}
	}
	return bound, found
}

// adapterFor covers bound with square cells, growing it to whole cells to the east and south.
func adapterFor(bound orb.Bound, cellSize float64) (*raster.Adapter, error) {
	width := max(1, int(math.Ceil((bound.Max.X()-bound.Min.X())/cellSize)))
	height := max(1, int(math.Ceil((bound.Max.Y()-bound.Min.Y())/cellSize)))
	gt := raster.MakeGeoTransform(bound.Min.X(), bound.Max.Y(), cellSize, cellSize)
	return raster.NewAdapter(gt, width, height)
}
