// SPDX-License-Identifier: MIT

package openapi_server

import (
	"github.com/paulmach/orb/geojson"
)

type IsochroneStats struct {
	SettledCells int32   `json:"settledCells"`
	Segments     int32   `json:"segments"`
	Rings        int32   `json:"rings"`
	SolveMillis  float64 `json:"solveMillis"`
	TotalMillis  float64 `json:"totalMillis"`
}

type IsochroneResult struct {
	Origin  Point            `json:"origin"`
	Level   float64          `json:"level"`
	Feature *geojson.Feature `json:"feature"`
	Stats   IsochroneStats   `json:"stats"`
}
