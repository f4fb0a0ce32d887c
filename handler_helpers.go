package main

import (
	"math"
	"net/http"
	"strconv"
)

const (
	msgMissingCoordinates = "Missing latitude or longitude"
	msgInvalidLatitude    = "Invalid latitude"
	msgInvalidLongitude   = "Invalid longitude"
	msgMethodNotAllowed   = "Method Not Allowed"
)

// parseCoordinates reads the required lat and lon query parameters.
func parseCoordinates(r *http.Request) (lat, lon float64, err error) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		return 0, 0, &ValidationError{Param: "lat,lon", Message: msgMissingCoordinates}
	}

	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
		return 0, 0, &ValidationError{Param: "lat", Message: msgInvalidLatitude}
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil || math.IsNaN(lon) || lon < -180 || lon > 180 {
		return 0, 0, &ValidationError{Param: "lon", Message: msgInvalidLongitude}
	}
	return lat, lon, nil
}

// parseOptionalCoordinates is parseCoordinates for endpoints where a fix is
// optional. ok is false when neither parameter is present.
func parseOptionalCoordinates(r *http.Request) (c Coordinates, ok bool, err error) {
	q := r.URL.Query()
	if q.Get("lat") == "" && q.Get("lon") == "" {
		return Coordinates{}, false, nil
	}
	lat, lon, err := parseCoordinates(r)
	if err != nil {
		return Coordinates{}, false, err
	}
	return Coordinates{Latitude: lat, Longitude: lon}, true, nil
}

// requireMethod writes a 405 and returns false when r does not use method.
func (cfg *apiConfig) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	cfg.respondWithError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed, nil)
	return false
}
