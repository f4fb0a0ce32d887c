package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantLat float64
		wantLon float64
		wantMsg string
	}{
		{name: "Valid", query: "lat=51.1079&lon=17.0385", wantLat: 51.1079, wantLon: 17.0385},
		{name: "Bounds inclusive", query: "lat=-90&lon=180", wantLat: -90, wantLon: 180},
		{name: "Missing lon", query: "lat=51.1", wantMsg: msgMissingCoordinates},
		{name: "Missing both", query: "", wantMsg: msgMissingCoordinates},
		{name: "Latitude not a number", query: "lat=north&lon=17", wantMsg: msgInvalidLatitude},
		{name: "Latitude NaN", query: "lat=NaN&lon=17", wantMsg: msgInvalidLatitude},
		{name: "Latitude out of range", query: "lat=90.5&lon=17", wantMsg: msgInvalidLatitude},
		{name: "Longitude out of range", query: "lat=51&lon=-181", wantMsg: msgInvalidLongitude},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/weather?"+tt.query, nil)

			lat, lon, err := parseCoordinates(req)

			if tt.wantMsg != "" {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantMsg, ve.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLat, lat)
			assert.Equal(t, tt.wantLon, lon)
		})
	}
}

func TestParseOptionalCoordinates(t *testing.T) {
	t.Run("Absent", func(t *testing.T) {
		_, ok, err := parseOptionalCoordinates(httptest.NewRequest(http.MethodGet, "/api/location", nil))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Present", func(t *testing.T) {
		c, ok, err := parseOptionalCoordinates(httptest.NewRequest(http.MethodGet, "/api/location?lat=1.5&lon=2.5", nil))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, Coordinates{Latitude: 1.5, Longitude: 2.5}, c)
	})

	t.Run("Half a fix", func(t *testing.T) {
		_, ok, err := parseOptionalCoordinates(httptest.NewRequest(http.MethodGet, "/api/location?lon=2.5", nil))
		assert.False(t, ok)
		assert.Error(t, err)
	})
}

func TestRequireMethod(t *testing.T) {
	cfg := &apiConfig{logger: discardLogger()}

	rr := httptest.NewRecorder()
	assert.True(t, cfg.requireMethod(rr, httptest.NewRequest(http.MethodPost, "/api/refresh", nil), http.MethodPost))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	assert.False(t, cfg.requireMethod(rr, httptest.NewRequest(http.MethodGet, "/api/refresh", nil), http.MethodPost))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
	assert.JSONEq(t, `{"error":"Method Not Allowed"}`, rr.Body.String())
}

func TestRespondWithFailure(t *testing.T) {
	cfg := &apiConfig{logger: discardLogger()}

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "Validation error",
			err:      fmt.Errorf("weather: %w", &ValidationError{Param: "unit", Message: "Invalid unit parameter"}),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Invalid unit parameter"}`,
		},
		{
			name:     "Bad timezone",
			err:      &InvalidTimezoneError{Timezone: "Mars/Olympus", Err: errors.New("unknown time zone")},
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Invalid timezone parameter"}`,
		},
		{
			name:     "Upstream failure",
			err:      &FetchError{Upstream: "open-meteo", StatusCode: http.StatusBadGateway, Err: errors.New("bad gateway")},
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Failed to fetch weather"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			cfg.respondWithFailure(rr, "Failed to fetch weather", tt.err)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}
