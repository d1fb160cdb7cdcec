package openapi_server

import (
	"encoding/json"
	"net/http"
	"strings"
)

// DefaultApiController binds http requests to an api service and writes the service results to the http response
type DefaultApiController struct {
	service      DefaultApiServicer
	errorHandler ErrorHandler
}

// DefaultApiOption for how the controller is set up.
type DefaultApiOption func(*DefaultApiController)

// WithDefaultApiErrorHandler inject ErrorHandler into controller
func WithDefaultApiErrorHandler(h ErrorHandler) DefaultApiOption {
	return func(c *DefaultApiController) {
		c.errorHandler = h
	}
}

// NewDefaultApiController creates a default api controller
func NewDefaultApiController(s DefaultApiServicer, opts ...DefaultApiOption) Router {
	controller := &DefaultApiController{
		service:      s,
		errorHandler: DefaultErrorHandler,
	}

	for _, opt := range opts {
		opt(controller)
	}

	return controller
}

// Routes returns all of the api route for the DefaultApiController
func (c *DefaultApiController) Routes() Routes {
	return Routes{
		{
			"ComputeIsochrone",
			strings.ToUpper("Post"),
			"/isochrones",
			c.ComputeIsochrone,
		},
		{
			"GetRaster",
			strings.ToUpper("Get"),
			"/raster",
			c.GetRaster,
		},
	}
}

// ComputeIsochrone - Compute the isochrone around an origin
func (c *DefaultApiController) ComputeIsochrone(w http.ResponseWriter, r *http.Request) {
	isochroneRequestParam := IsochroneRequest{}
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(&isochroneRequestParam); err != nil {
		isochroneRequests.WithLabelValues(statusLabel(http.StatusBadRequest)).Inc()
		c.errorHandler(w, r, &ParsingError{Err: err}, nil)
		return
	}
	if err := AssertIsochroneRequestRequired(isochroneRequestParam); err != nil {
		isochroneRequests.WithLabelValues(statusLabel(http.StatusUnprocessableEntity)).Inc()
		c.errorHandler(w, r, err, nil)
		return
	}
	result, err := c.service.ComputeIsochrone(r.Context(), isochroneRequestParam)
	isochroneRequests.WithLabelValues(statusLabel(result.Code)).Inc()
	// If an error occurred, encode the error with the status code
	if err != nil {
		c.errorHandler(w, r, err, &result)
		return
	}
	// If no error, encode the body and the result code
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	EncodeJSONResponse(result.Body, &result.Code, w)
}

// GetRaster - Describe the friction raster served
func (c *DefaultApiController) GetRaster(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.GetRaster(r.Context())
	// If an error occurred, encode the error with the status code
	if err != nil {
		c.errorHandler(w, r, err, &result)
		return
	}
	// If no error, encode the body and the result code
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	EncodeJSONResponse(result.Body, &result.Code, w)
}
