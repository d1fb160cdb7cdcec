package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/natevvv/walking-coverage/internal/ascgrid"
	"github.com/natevvv/walking-coverage/pkg/costdistance"
	"github.com/natevvv/walking-coverage/pkg/geometry"
	"github.com/natevvv/walking-coverage/pkg/isochrone"
)

// program exit codes
const (
	exitSuccess     = 0
	exitCommandLine = 1
	exitOther       = 2
)

type options struct {
	rasterPath    string
	costPath      string
	isochronePath string
	origin        string
	maxTime       float64
	minFriction   float64
	level         float64
	simplify      float64
	classify      bool
	verbose       bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("walking-coverage", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.rasterPath, "friction-raster", "", "input friction raster file (ESRI ASCII grid)")
	fs.StringVar(&o.rasterPath, "r", "", "shorthand for -friction-raster")
	fs.StringVar(&o.costPath, "cost-raster", "", "output cost raster file")
	fs.StringVar(&o.costPath, "c", "", "shorthand for -cost-raster")
	fs.StringVar(&o.origin, "origin", "", "coordinates of origin given in lng,lat format")
	fs.StringVar(&o.origin, "o", "", "shorthand for -origin")
	fs.Float64Var(&o.maxTime, "max-time", costdistance.DefaultMaxCost, "maximum time given in minutes")
	fs.Float64Var(&o.maxTime, "m", costdistance.DefaultMaxCost, "shorthand for -max-time")
	fs.Float64Var(&o.minFriction, "min-friction", costdistance.DefaultMinFriction, "minimum friction to consider in min/m")
	fs.Float64Var(&o.minFriction, "f", costdistance.DefaultMinFriction, "shorthand for -min-friction")
	fs.StringVar(&o.isochronePath, "isochrone", "", "output isochrone file (GeoJSON)")
	fs.StringVar(&o.isochronePath, "i", "", "shorthand for -isochrone")
	fs.Float64Var(&o.level, "level", 0, "time of the isochrone in minutes, 0 uses max-time")
	fs.Float64Var(&o.level, "l", 0, "shorthand for -level")
	fs.Float64Var(&o.simplify, "simplify", 0, "simplify the isochrone with this tolerance in degrees")
	fs.BoolVar(&o.classify, "classify", false, "nest the isochrone rings into shells and holes")
	fs.BoolVar(&o.verbose, "v", false, "verbose output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.rasterPath == "" {
		return nil, errors.New("missing friction raster option")
	}
	if o.origin == "" {
		return nil, errors.New("missing origin coordinates")
	}
	return o, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitSuccess
	} else if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		fmt.Fprintln(stderr, "Run with -help for available options")
		return exitCommandLine
	}
	origin, err := geometry.ParseCoords(o.origin)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitCommandLine
	}

	start := time.Now()
	r, err := ascgrid.ReadFile(o.rasterPath)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitOther
	}
	adapter, err := r.Adapter()
	if err != nil {
		fmt.Fprintln(stderr, "ERROR: raster must be normalized 'north-up'")
		return exitOther
	}
	fmt.Fprintf(stdout, "[TIME] Read raster: %s\n", time.Since(start))
	fmt.Fprintf(stdout, "Using friction raster file: %s\n", o.rasterPath)
	fmt.Fprintf(stdout, "%v\n", adapter)
	fmt.Fprintf(stdout, "Using origin at %s\n", geometry.FormatCoords(origin))

	cell, err := adapter.PixelCoords(origin)
	if err != nil {
		fmt.Fprintln(stderr, "ERROR: origin out of raster boundaries")
		return exitOther
	}
	fmt.Fprintf(stdout, "Pixel origin at %v\n", cell)

	if o.costPath == "" && o.isochronePath == "" {
		fmt.Fprintln(stdout, "Nothing to do")
		return exitSuccess
	}

	calculator, err := isochrone.NewCalculator(adapter, r.FrictionGrid())
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitOther
	}
	if o.verbose {
		calculator.SetDebugLevel(2)
	}

	req := isochrone.Request{
		MaxCost:       o.maxTime,
		MinFriction:   o.minFriction,
		Level:         o.level,
		Simplify:      o.simplify,
		ClassifyRings: o.classify,
	}
	result, err := calculator.Compute(origin, req)
	if errors.Is(err, isochrone.ErrInvalidLevel) || errors.Is(err, costdistance.ErrNegativeMaxCost) {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitCommandLine
	} else if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitOther
	}
	fmt.Fprintf(stdout, "[TIME] Cost-distance: %s (%d cells settled)\n", result.Stats.SolveTime, result.Stats.SettledCells)
	fmt.Fprintf(stdout, "[TIME] Contour: %s, Assemble: %s (%d segments, %d rings)\n",
		result.Stats.ContourTime, result.Stats.AssembleTime, result.Stats.Segments, result.Stats.Rings)

	if o.costPath != "" {
		if err := ascgrid.WriteFile(o.costPath, result.Cost, adapter.GeoTransform(), ascgrid.DefaultNoData); err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return exitOther
		}
		fmt.Fprintf(stdout, "Wrote %s\n", o.costPath)
	}

	if o.isochronePath != "" {
		if err := writeIsochrone(o.isochronePath, result); err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return exitOther
		}
		fmt.Fprintf(stdout, "Wrote %s\n", o.isochronePath)
	}

	return exitSuccess
}

func writeIsochrone(filename string, result *isochrone.Result) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(file).Encode(isochrone.FeatureCollection(result)); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
