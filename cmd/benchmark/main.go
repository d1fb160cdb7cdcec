package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/natevvv/walking-coverage/internal/ascgrid"
	"github.com/natevvv/walking-coverage/pkg/costdistance"
	"github.com/natevvv/walking-coverage/pkg/grid"
	"github.com/natevvv/walking-coverage/pkg/isochrone"
	"github.com/natevvv/walking-coverage/pkg/slice"
)

func main() {
	rasterFile := flag.String("r", "friction.asc", "friction raster (ESRI ASCII grid)")
	amountOrigins := flag.Int("n", 100, "How many random origins should get created")
	targetFile := flag.String("targets", "", "Read origins from this file instead of creating random ones")
	storeTargets := flag.String("store", "", "Store the random origins to this file")
	mode := flag.String("search", "isochrone", "What to benchmark: solve (cost-distance only) or isochrone")
	maxCost := flag.Float64("m", costdistance.DefaultMaxCost, "max cost of each search")
	seed := flag.Int64("seed", 0, "seed of the random origins, 0 uses the current time")
	cpuProfile := flag.String("cpu", "", "write cpu profile to file")
	flag.Parse()

	if !slice.Contains([]string{"solve", "isochrone"}, *mode) {
		log.Fatalf("Benchmark mode %q not supported", *mode)
	}

	start := time.Now()

	r, err := ascgrid.ReadFile(*rasterFile)
	if err != nil {
		log.Fatal(err)
	}
	adapter, err := r.Adapter()
	if err != nil {
		log.Fatal(err)
	}
	calculator, err := isochrone.NewCalculator(adapter, r.FrictionGrid())
	if err != nil {
		log.Fatal(err)
	}

	elapsed := time.Since(start)
	fmt.Printf("[TIME-Import] = %s\n", elapsed)
	fmt.Printf("%v\n", adapter)

	var origins []grid.Cell
	if *targetFile != "" {
		origins = readOrigins(*targetFile)
		if *amountOrigins < len(origins) {
			origins = origins[0:*amountOrigins]
		}
	} else {
		origins = createOrigins(*amountOrigins, calculator.Friction(), *seed)
		if *storeTargets != "" {
			writeOrigins(origins, *storeTargets)
		}
	}
	if len(origins) == 0 {
		log.Fatal("No origins to benchmark")
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	req := isochrone.MakeDefaultRequest()
	req.MaxCost = *maxCost
	benchmark(calculator, origins, req, *mode == "solve")
}

func readOrigins(filename string) []grid.Cell {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Split(bufio.ScanLines)

	origins := make([]grid.Cell, 0)

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 1 {
			// skip empty lines
			continue
		} else if line[0] == '#' {
			// skip comments
			continue
		}
		var x, y int
		if _, err := fmt.Sscanf(line, "%d %d", &x, &y); err != nil {
			log.Fatalf("%s: %v", filename, err)
		}
		origins = append(origins, grid.Cell{X: x, Y: y})
	}
	return origins
}

// createOrigins draws n cells with a finite friction.
func createOrigins(n int, friction *grid.Grid[float32], seed int64) []grid.Cell {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	if grid.CountFinite(friction) == 0 {
		return nil
	}
	origins := make([]grid.Cell, 0, n)
	for len(origins) < n {
		index := rng.Intn(friction.Len())
		if math.IsInf(float64(friction.Data[index]), 0) || math.IsNaN(float64(friction.Data[index])) {
			continue
		}
		x, y := friction.Coordinate(index)
		origins = append(origins, grid.Cell{X: x, Y: y})
	}
	return origins
}

func writeOrigins(origins []grid.Cell, filename string) {
	var sb strings.Builder
	sb.WriteString("# x y\n")
	for _, origin := range origins {
		sb.WriteString(fmt.Sprintf("%v %v\n", origin.X, origin.Y))
	}

	file, cErr := os.Create(filename)
	if cErr != nil {
		log.Fatal(cErr)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	writer.WriteString(sb.String())
	writer.Flush()
}

// Run the searches for all origins and report the averaged KPIs
func benchmark(calculator *isochrone.Calculator, origins []grid.Cell, req isochrone.Request, solveOnly bool) {
	var runtime time.Duration = 0
	var contourTime time.Duration = 0
	completed := 0

	pqPops := 0
	pqUpdates := 0
	edgeRelaxations := 0
	settledCells := 0
	rings := 0
	failures := make([]int, 0)

	showResults := func() {
		if completed == 0 {
			fmt.Println("No search completed")
			return
		}
		fmt.Printf("Average runtime: %.3fms, contour: %.3fms\n", float64(int(runtime.Nanoseconds())/completed)/1000000, float64(int(contourTime.Nanoseconds())/completed)/1000000)
		fmt.Printf("Average pq pops: %d\n", pqPops/completed)
		fmt.Printf("Average pq updates: %d\n", pqUpdates/completed)
		fmt.Printf("Average edge relaxations: %d\n", edgeRelaxations/completed)
		fmt.Printf("Average settled cells: %d (%.2f%% of the raster)\n", settledCells/completed, 100*float64(settledCells/completed)/float64(calculator.Friction().Len()))
		if !solveOnly {
			fmt.Printf("Average rings: %.2f\n", float64(rings)/float64(completed))
		}
		fmt.Printf("%v/%v failed searches.\n", len(failures), completed)
		for i, failure := range failures {
			fmt.Printf("%v: Case %v (%v) failed\n", i, failure, origins[failure])
		}
	}

	// catch interrupt to still show already calculated results
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		showResults()
		os.Exit(0)
	}()

	solver := costdistance.NewSolver(calculator.Options(req))

	for i, origin := range origins {
		start := time.Now()
		if solveOnly {
			_, err := solver.Solve(calculator.Friction(), origin)
			elapsed := time.Since(start)
			if err != nil {
				failures = append(failures, i)
			}
			fmt.Printf("[%3v TIME-Solve, PQ Pops, PQ Updates, relaxed Edges, settled] = %12s, %7d, %7d, %7d, %7d\n", i, elapsed, solver.GetPqPops(), solver.GetPqUpdates(), solver.GetEdgeRelaxations(), solver.GetSettledCells())

			pqPops += solver.GetPqPops()
			pqUpdates += solver.GetPqUpdates()
			edgeRelaxations += solver.GetEdgeRelaxations()
			settledCells += solver.GetSettledCells()
			runtime += elapsed
			completed++
			continue
		}

		result, err := calculator.Compute(calculator.Adapter().CellCenter(origin), req)
		elapsed := time.Since(start)
		if err != nil {
			failures = append(failures, i)
			completed++
			continue
		}
		stats := result.Stats
		fmt.Printf("[%3v TIME-Solve, TIME-Contour, PQ Pops, PQ Updates, relaxed Edges, rings] = %12s, %12s, %7d, %7d, %7d, %3d\n", i, stats.SolveTime, stats.ContourTime+stats.AssembleTime, stats.PqPops, stats.PqUpdates, stats.RelaxedEdges, stats.Rings)

		pqPops += stats.PqPops
		pqUpdates += stats.PqUpdates
		edgeRelaxations += stats.RelaxedEdges
		settledCells += stats.SettledCells
		rings += stats.Rings
		runtime += elapsed
		contourTime += stats.ContourTime + stats.AssembleTime
		completed++
	}
	// normal termination, show results
	showResults()
}
