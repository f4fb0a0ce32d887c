package main

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	ometeoCurrentParameters = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m"
	ometeoDailyParameters   = "weather_code,temperature_2m_max,temperature_2m_min"
	// Today plus the seven days shown on the dashboard.
	ometeoForecastDays = 8
)

// wrapForForecast builds the Open-Meteo forecast URL for a coordinate pair.
// Temperatures come back in unit and wind speed in the matching unit system.
func wrapForForecast(baseURL string, lat, lon float64, unit TemperatureUnit) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse forecast base URL: %w", err)
	}

	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current", ometeoCurrentParameters)
	q.Set("daily", ometeoDailyParameters)
	q.Set("temperature_unit", string(unit))
	q.Set("wind_speed_unit", unit.windSpeedUnit())
	q.Set("forecast_days", strconv.Itoa(ometeoForecastDays))
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()

	return u.String(), nil
}
