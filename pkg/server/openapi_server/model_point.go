// SPDX-License-Identifier: MIT

package openapi_server

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AssertPointRequired checks if the required fields are not zero-ed
func AssertPointRequired(obj Point) error {
	elements := map[string]interface{}{
		"lat": obj.Lat,
		"lon": obj.Lon,
	}
	for name, el := range elements {
		if isZero := IsZeroValue(el); isZero {
			return &RequiredError{Field: name}
		}
	}
	return nil
}
