package openapi_server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/natevvv/walking-coverage/pkg/costdistance"
	"github.com/natevvv/walking-coverage/pkg/geometry"
	"github.com/natevvv/walking-coverage/pkg/grid"
	"github.com/natevvv/walking-coverage/pkg/isochrone"
	"github.com/natevvv/walking-coverage/pkg/raster"
)

var ErrMaxCostLimit = errors.New("maxCost exceeds the limit of the service")

// DefaultApiService is a service that implements the logic for the DefaultApiServicer
// This service should implement the business logic for every endpoint for the DefaultApi API.
// Include any external packages or services that will be required by this service.
type DefaultApiService struct {
	calculator *isochrone.Calculator
	config     ServiceConfig
}

// NewDefaultApiService creates a default api service
func NewDefaultApiService(calculator *isochrone.Calculator, config ServiceConfig) DefaultApiServicer {
	if config.DefaultMinFriction == 0 {
		config.DefaultMinFriction = costdistance.DefaultMinFriction
	}
	calculator.SetDebugLevel(config.DebugLevel)
	return &DefaultApiService{
		calculator: calculator,
		config:     config,
	}
}

// ComputeIsochrone - Compute the isochrone around an origin
func (s *DefaultApiService) ComputeIsochrone(ctx context.Context, isochroneRequest IsochroneRequest) (ImplResponse, error) {
	if s.config.MaxCostLimit > 0 && isochroneRequest.MaxCost > s.config.MaxCostLimit {
		return Response(http.StatusBadRequest, nil), fmt.Errorf("%w: %v > %v", ErrMaxCostLimit, isochroneRequest.MaxCost, s.config.MaxCostLimit)
	}

	origin := geometry.MakePoint(isochroneRequest.Origin.Lat, isochroneRequest.Origin.Lon)
	req := isochrone.Request{
		MaxCost:       isochroneRequest.MaxCost,
		MinFriction:   isochroneRequest.MinFriction,
		Level:         isochroneRequest.Level,
		Simplify:      isochroneRequest.Simplify,
		ClassifyRings: isochroneRequest.ClassifyRings,
	}
	if req.MinFriction == 0 {
		req.MinFriction = s.config.DefaultMinFriction
	}

	start := time.Now()
	result, err := s.calculator.Compute(origin, req)
	if err != nil {
		switch {
		case errors.Is(err, raster.ErrOutOfBounds):
			return Response(http.StatusUnprocessableEntity, nil), err
		case errors.Is(err, isochrone.ErrInvalidLevel), errors.Is(err, costdistance.ErrNegativeMaxCost):
			return Response(http.StatusBadRequest, nil), err
		}
		return Response(http.StatusInternalServerError, nil), err
	}
	elapsed := time.Since(start)
	isochroneComputeSeconds.Observe(elapsed.Seconds())
	isochroneSettledCells.Observe(float64(result.Stats.SettledCells))

	return Response(http.StatusOK, IsochroneResult{
		Origin:  isochroneRequest.Origin,
		Level:   result.Level,
		Feature: result.Feature(),
		Stats: IsochroneStats{
			SettledCells: int32(result.Stats.SettledCells),
			Segments:     int32(result.Stats.Segments),
			Rings:        int32(result.Stats.Rings),
			SolveMillis:  float64(result.Stats.SolveTime.Microseconds()) / 1000,
			TotalMillis:  float64(elapsed.Microseconds()) / 1000,
		},
	}), nil
}

// GetRaster - Describe the friction raster served
func (s *DefaultApiService) GetRaster(ctx context.Context) (ImplResponse, error) {
	adapter := s.calculator.Adapter()
	bound := adapter.Bound()
	friction := s.calculator.Friction()

	return Response(http.StatusOK, RasterInfo{
		Width:             int32(adapter.Width()),
		Height:            int32(adapter.Height()),
		Bounds:            [4]float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()},
		PixelWidthMeters:  adapter.PixelWidthMeters(),
		PixelHeightMeters: adapter.PixelHeightMeters(),
		ImpassableCells:   int32(friction.Len() - grid.CountFinite(friction)),
	}), nil
}
