package openapi_server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/natevvv/walking-coverage/pkg/grid"
	"github.com/natevvv/walking-coverage/pkg/isochrone"
	"github.com/natevvv/walking-coverage/pkg/raster"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *isochrone.Calculator) {
	t.Helper()
	adapter, err := raster.NewAdapter(raster.MakeGeoTransform(8.5, 47.001, 0.0001, 0.0001), 21, 21)
	require.NoError(t, err)
	friction, err := grid.NewFilled[float32](21, 21, 0.01)
	require.NoError(t, err)
	calculator, err := isochrone.NewCalculator(adapter, friction)
	require.NoError(t, err)

	service := NewDefaultApiService(calculator, ServiceConfig{MaxCostLimit: 60})
	return NewRouter(NewDefaultApiController(service), MetricsRouter{}), calculator
}

func post(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/isochrones", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestComputeIsochrone(t *testing.T) {
	router, calculator := newTestRouter(t)
	center := calculator.Adapter().CellCenter(grid.Cell{X: 10, Y: 10})
	body, err := json.Marshal(IsochroneRequest{Origin: Point{Lat: center.Lat(), Lon: center.Lon()}, MaxCost: 0.5, ClassifyRings: true})
	require.NoError(t, err)

	rec := post(router, string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	result := IsochroneResult{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 0.5, result.Level)
	assert.Greater(t, result.Stats.SettledCells, int32(1))
	assert.Equal(t, int32(1), result.Stats.Rings)
	require.NotNil(t, result.Feature)
	mp, ok := result.Feature.Geometry.(orb.MultiPolygon)
	require.True(t, ok)
	assert.Len(t, mp, 1)
}

func TestComputeIsochroneErrors(t *testing.T) {
	router, calculator := newTestRouter(t)
	center := calculator.Adapter().CellCenter(grid.Cell{X: 10, Y: 10})
	origin := `{"lat": ` + jsonNumber(center.Lat()) + `, "lon": ` + jsonNumber(center.Lon()) + `}`

	cases := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"origin": `, http.StatusBadRequest},
		{"unknown field", `{"origin": ` + origin + `, "maxCost": 1, "speed": 3}`, http.StatusBadRequest},
		{"missing max cost", `{"origin": ` + origin + `}`, http.StatusUnprocessableEntity},
		{"missing origin", `{"maxCost": 1}`, http.StatusUnprocessableEntity},
		{"outside of raster", `{"origin": {"lat": 10, "lon": 10}, "maxCost": 1}`, http.StatusUnprocessableEntity},
		{"level above max cost", `{"origin": ` + origin + `, "maxCost": 1, "level": 2}`, http.StatusBadRequest},
		{"negative level", `{"origin": ` + origin + `, "maxCost": 1, "level": -2}`, http.StatusBadRequest},
		{"above limit", `{"origin": ` + origin + `, "maxCost": 61}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := post(router, c.body)
			assert.Equal(t, c.code, rec.Code, rec.Body.String())
		})
	}
}

func jsonNumber(v float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestGetRaster(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raster", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	info := RasterInfo{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, int32(21), info.Width)
	assert.Equal(t, int32(21), info.Height)
	assert.InDelta(t, 8.5, info.Bounds[0], 1e-9)
	assert.InDelta(t, 47.001, info.Bounds[3], 1e-9)
	assert.InDelta(t, 11.11, info.PixelHeightMeters, 0.01)
	assert.Equal(t, int32(0), info.ImpassableCells)
}

func TestMetrics(t *testing.T) {
	router, _ := newTestRouter(t)
	post(router, `{"maxCost": 1}`)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `isochrone_requests_total{status="422"}`)
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/isochrones", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
