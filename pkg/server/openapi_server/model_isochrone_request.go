// SPDX-License-Identifier: MIT

package openapi_server

type IsochroneRequest struct {
	Origin        Point   `json:"origin"`
	MaxCost       float64 `json:"maxCost"`
	Level         float64 `json:"level,omitempty"`
	MinFriction   float64 `json:"minFriction,omitempty"`
	Simplify      float64 `json:"simplify,omitempty"`
	ClassifyRings bool    `json:"classifyRings,omitempty"`
}

// AssertIsochroneRequestRequired checks if the required fields are not zero-ed
func AssertIsochroneRequestRequired(obj IsochroneRequest) error {
	elements := map[string]interface{}{
		"origin":  obj.Origin,
		"maxCost": obj.MaxCost,
	}
	for name, el := range elements {
		if isZero := IsZeroValue(el); isZero {
			return &RequiredError{Field: name}
		}
	}

	return AssertPointRequired(obj.Origin)
}
