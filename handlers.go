package main

import (
	"errors"
	"net/http"
)

// This file contains the HTTP handlers. The three data endpoints (weather,
// calendar, geocode) are thin: they validate query parameters, call the
// matching service and write its result. The dashboard endpoints expose the
// refresh orchestrator's state.

// @Summary      Get weather
// @Description  Current conditions and the seven days after today for a point.
// @Tags         weather
// @Produce      json
// @Param        lat   query     number  true   "Latitude (e.g., 37.7749)"
// @Param        lon   query     number  true   "Longitude (e.g., -122.4194)"
// @Param        unit  query     string  false  "celsius (default) or fahrenheit"
// @Success      200   {object}  WeatherSnapshot
// @Failure      400   {object}  ErrorResponse "Missing or invalid parameters"
// @Failure      500   {object}  ErrorResponse "Failed to fetch weather"
// @Router       /api/weather [get]
func (cfg *apiConfig) handlerWeather(w http.ResponseWriter, r *http.Request) {
	if !cfg.requireMethod(w, r, http.MethodGet) {
		return
	}

	lat, lon, err := parseCoordinates(r)
	if err != nil {
		cfg.respondWithFailure(w, "", err)
		return
	}
	unit, err := parseTemperatureUnit(r.URL.Query().Get("unit"))
	if err != nil {
		cfg.respondWithFailure(w, "", err)
		return
	}
	cfg.logger.Debug("weather request", "lat", lat, "lon", lon, "unit", unit)

	snapshot, err := cfg.weather.FetchWeather(r.Context(), lat, lon, unit)
	if err != nil {
		cfg.respondWithFailure(w, "Failed to fetch weather", err)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, snapshot)
}

// @Summary      Get calendar events
// @Description  Events overlapping today, or the seven local dates after today, in the given timezone.
// @Tags         calendar
// @Produce      json
// @Param        type      query     string  true  "today or week"
// @Param        timezone  query     string  true  "IANA timezone (e.g., America/Los_Angeles)"
// @Success      200       {array}   CalendarEvent
// @Failure      400       {object}  ErrorResponse "Missing timezone, bad type or unknown timezone"
// @Failure      500       {object}  ErrorResponse "Failed to fetch calendar events"
// @Router       /api/calendar [get]
func (cfg *apiConfig) handlerCalendar(w http.ResponseWriter, r *http.Request) {
	if !cfg.requireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	timezone := q.Get("timezone")
	if timezone == "" {
		cfg.respondWithFailure(w, "", &ValidationError{Param: "timezone", Message: "Missing timezone parameter"})
		return
	}

	var (
		events []CalendarEvent
		err    error
	)
	switch kind := q.Get("type"); kind {
	case "today":
		events, err = cfg.calendar.FetchToday(r.Context(), timezone)
	case "week":
		events, err = cfg.calendar.FetchWeek(r.Context(), timezone)
	default:
		cfg.respondWithFailure(w, "", &ValidationError{Param: "type", Message: "Invalid type parameter. Use 'today' or 'week'"})
		return
	}
	if err != nil {
		cfg.respondWithFailure(w, "Failed to fetch calendar events", err)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, events)
}

// @Summary      Reverse geocode
// @Description  City and country for a point. Both are empty when the point is unknown.
// @Tags         location
// @Produce      json
// @Param        lat  query     number  true  "Latitude"
// @Param        lon  query     number  true  "Longitude"
// @Success      200  {object}  GeocodeResult
// @Failure      400  {object}  ErrorResponse "Missing or invalid parameters"
// @Failure      500  {object}  ErrorResponse "Failed to reverse geocode"
// @Router       /api/geocode [get]
func (cfg *apiConfig) handlerGeocode(w http.ResponseWriter, r *http.Request) {
	if !cfg.requireMethod(w, r, http.MethodGet) {
		return
	}

	lat, lon, err := parseCoordinates(r)
	if err != nil {
		cfg.respondWithFailure(w, "", err)
		return
	}

	result, err := cfg.geocoder.ReverseGeocode(r.Context(), lat, lon)
	if errors.Is(err, ErrNoResultsFound) {
		cfg.respondWithJSON(w, http.StatusOK, GeocodeResult{})
		return
	}
	if err != nil {
		cfg.respondWithFailure(w, "Failed to reverse geocode", err)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, result)
}

// @Summary      Session location
// @Description  The dashboard's resolved location and the tier that produced it. A lat/lon pair
// @Description  reports a device fix, re-runs resolution and refreshes the weather panel.
// @Tags         location
// @Produce      json
// @Param        lat  query     number  false  "Device latitude"
// @Param        lon  query     number  false  "Device longitude"
// @Success      200  {object}  Location
// @Failure      400  {object}  ErrorResponse "Invalid parameters"
// @Router       /api/location [get]
func (cfg *apiConfig) handlerLocation(w http.ResponseWriter, r *http.Request) {
	if !cfg.requireMethod(w, r, http.MethodGet) {
		return
	}

	fix, ok, err := parseOptionalCoordinates(r)
	if err != nil {
		cfg.respondWithFailure(w, "", err)
		return
	}
	if !ok {
		cfg.respondWithJSON(w, http.StatusOK, cfg.dashboard.Location(r.Context()))
		return
	}

	cfg.positioner.Report(fix)
	loc, err := cfg.dashboard.Relocate(r.Context())
	if err != nil {
		cfg.logger.Warn("weather refresh after relocation failed", "error", err)
	}
	cfg.respondWithJSON(w, http.StatusOK, loc)
}

// @Summary      Dashboard view
// @Description  Location, unit and the last known state of each panel.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  DashboardView
// @Router       /api/dashboard [get]
func (cfg *apiConfig) handlerDashboard(w http.ResponseWriter, r *http.Request) {
	if !cfg.requireMethod(w, r, http.MethodGet) {
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, cfg.dashboard.View(r.Context(), cfg.now()))
}

// @Summary      Refresh dashboard
// @Description  Refreshes every panel and returns the view once all have settled. Panel
// @Description  failures are reported in the view, not as an HTTP error.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  DashboardView
// @Router       /api/refresh [post]
func (cfg *apiConfig) handlerRefresh(w http.ResponseWriter, r *http.Request) {
	if !cfg.requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := cfg.dashboard.RefreshAll(r.Context()); err != nil {
		cfg.logger.Warn("manual refresh had failures", "error", err)
	}
	cfg.respondWithJSON(w, http.StatusOK, cfg.dashboard.View(r.Context(), cfg.now()))
}

// @Summary      Set temperature unit
// @Description  Stores the unit preference and refreshes the weather panel only.
// @Tags         dashboard
// @Produce      json
// @Param        unit  query     string  true  "celsius or fahrenheit"
// @Success      200   {object}  DashboardView
// @Failure      400   {object}  ErrorResponse "Unknown unit"
// @Router       /api/unit [post]
func (cfg *apiConfig) handlerUnit(w http.ResponseWriter, r *http.Request) {
	if !cfg.requireMethod(w, r, http.MethodPost) {
		return
	}

	raw := r.URL.Query().Get("unit")
	if raw == "" {
		cfg.respondWithFailure(w, "", &ValidationError{Param: "unit", Message: "Missing unit parameter"})
		return
	}
	unit, err := parseTemperatureUnit(raw)
	if err != nil {
		cfg.respondWithFailure(w, "", err)
		return
	}
	if err := cfg.dashboard.SetUnit(r.Context(), unit); err != nil {
		cfg.logger.Warn("weather refresh after unit change failed", "unit", unit, "error", err)
	}
	cfg.respondWithJSON(w, http.StatusOK, cfg.dashboard.View(r.Context(), cfg.now()))
}

// @Summary      Get application configuration
// @Description  Settings the front end needs: dev mode, refresh schedule, timezone and unit.
// @Tags         configuration
// @Produce      json
// @Success      200  {object}  ConfigResponse
// @Router       /api/config [get]
func (cfg *apiConfig) handlerConfig(w http.ResponseWriter, r *http.Request) {
	if !cfg.requireMethod(w, r, http.MethodGet) {
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, ConfigResponse{
		DevMode:         cfg.devMode,
		RefreshSchedule: cfg.refreshSchedule,
		Timezone:        cfg.timezone,
		Unit:            cfg.dashboard.Unit(),
	})
}

// @Summary      Flush cache (development only)
// @Description  Drops cached weather snapshots and geocode results. Registered in dev mode only.
// @Tags         development
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      500  {object}  ErrorResponse "Failed to flush cache"
// @Router       /dev/reset-cache [post]
func (cfg *apiConfig) handlerResetCache(w http.ResponseWriter, r *http.Request) {
	if !cfg.requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := cfg.cache.Flush(r.Context()); err != nil {
		cfg.respondWithError(w, http.StatusInternalServerError, "Failed to flush cache", err)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, StatusResponse{Status: "cache flushed"})
}

func (cfg *apiConfig) handlerHealth(w http.ResponseWriter, r *http.Request) {
	cfg.respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
