package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/natevvv/walking-coverage/internal/ascgrid"
	"github.com/natevvv/walking-coverage/pkg/costdistance"
	"github.com/natevvv/walking-coverage/pkg/isochrone"
	"github.com/natevvv/walking-coverage/pkg/server/openapi_server"
)

func main() {
	rasterFile := flag.String("r", "friction.asc", "friction raster (ESRI ASCII grid)")
	addr := flag.String("addr", ":8081", "listen address")
	maxCostLimit := flag.Float64("max-cost-limit", costdistance.DefaultMaxCost, "largest maxCost a request may ask for, 0 disables the limit")
	minFriction := flag.Float64("min-friction", costdistance.DefaultMinFriction, "min friction of requests which do not set one")
	debugLevel := flag.Int("debug", 0, "debug level of the computations")
	flag.Parse()

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

	service := openapi_server.NewDefaultApiService(calculator, openapi_server.ServiceConfig{
		MaxCostLimit:       *maxCostLimit,
		DefaultMinFriction: *minFriction,
		DebugLevel:         *debugLevel,
	})
	router := openapi_server.NewRouter(openapi_server.NewDefaultApiController(service), openapi_server.MetricsRouter{})

	log.Printf("Server started on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, router))
}
