// SPDX-License-Identifier: MIT

package openapi_server

type RasterInfo struct {
	Width             int32      `json:"width"`
	Height            int32      `json:"height"`
	Bounds            [4]float64 `json:"bounds"` // minLon, minLat, maxLon, maxLat
	PixelWidthMeters  float64    `json:"pixelWidthMeters"`
	PixelHeightMeters float64    `json:"pixelHeightMeters"`
	ImpassableCells   int32      `json:"impassableCells"`
}
