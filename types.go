package main

import (
	"fmt"
	"strings"
	"time"
)

type LocationSource string

const (
	SourceGeolocation LocationSource = "geolocation"
	SourceIP          LocationSource = "ip"
	SourceEnv         LocationSource = "env"
)

// Location is the place the dashboard reports weather for. Source records
// which resolution tier produced it.
type Location struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	City      string         `json:"city,omitempty"`
	Country   string         `json:"country,omitempty"`
	Source    LocationSource `json:"source"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TemperatureUnit string

const (
	UnitCelsius    TemperatureUnit = "celsius"
	UnitFahrenheit TemperatureUnit = "fahrenheit"
)

// parseTemperatureUnit accepts an empty value as celsius.
func parseTemperatureUnit(s string) (TemperatureUnit, error) {
	switch TemperatureUnit(strings.ToLower(strings.TrimSpace(s))) {
	case "", UnitCelsius:
		return UnitCelsius, nil
	case UnitFahrenheit:
		return UnitFahrenheit, nil
	}
	return "", &ValidationError{Param: "unit", Message: fmt.Sprintf("invalid unit %q, use 'celsius' or 'fahrenheit'", s)}
}

// windSpeedUnit is the Open-Meteo wind unit paired with a temperature unit.
func (u TemperatureUnit) windSpeedUnit() string {
	if u == UnitFahrenheit {
		return "mph"
	}
	return "kmh"
}

type WeatherInfo struct {
	Condition string `json:"condition"`
	Icon      string `json:"icon"`
}

type CurrentConditions struct {
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
	Icon        string `json:"icon"`
	Humidity    int    `json:"humidity"`
	WindSpeed   int    `json:"windSpeed"`
}

type DaySummary struct {
	Date      string `json:"date"`
	DayLabel  string `json:"dayLabel"`
	High      int    `json:"high"`
	Low       int    `json:"low"`
	Condition string `json:"condition"`
	Icon      string `json:"icon"`
}

// WeatherSnapshot does not carry its unit; callers know what they asked for.
type WeatherSnapshot struct {
	Current CurrentConditions `json:"current"`
	Daily   []DaySummary      `json:"daily"`
}

type CalendarEvent struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
	Color         string `json:"color"`
	AllDay        bool   `json:"allDay"`
	Day           string `json:"day,omitempty"`
}

// TimeWindow is a closed interval of instants. Both ends carry the caller's
// zone so each serialises with its own UTC offset.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w TimeWindow) String() string {
	return w.Start.Format(time.RFC3339) + "/" + w.End.Format(time.RFC3339)
}

type GeocodeResult struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type ConfigResponse struct {
	DevMode         bool            `json:"dev_mode"`
	RefreshSchedule string          `json:"refresh_schedule"`
	Timezone        string          `json:"timezone"`
	Unit            TemperatureUnit `json:"unit"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
