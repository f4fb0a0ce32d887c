package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"
)

// ParseForecastOMeteo decodes an Open-Meteo forecast body and reshapes it into
// the dashboard snapshot: current conditions plus the seven days after today.
func ParseForecastOMeteo(body io.Reader, labels dayLabeler) (WeatherSnapshot, error) {
	var response ResponseForecastOMeteo
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return WeatherSnapshot{}, fmt.Errorf("failed to decode forecast response: %w", err)
	}

	d := response.Daily
	n := len(d.Time)
	if n < ometeoForecastDays || len(d.WeatherCode) < n || len(d.Temperature2mMax) < n || len(d.Temperature2mMin) < n {
		return WeatherSnapshot{}, fmt.Errorf("forecast has %d daily entries, need %d", n, ometeoForecastDays)
	}

	current := translateWeatherCode(response.Current.WeatherCode)
	snapshot := WeatherSnapshot{
		Current: CurrentConditions{
			Temperature: roundHalfUp(response.Current.Temperature2m),
			Condition:   current.Condition,
			Icon:        current.Icon,
			Humidity:    roundHalfUp(response.Current.RelativeHumidity2m),
			WindSpeed:   roundHalfUp(response.Current.WindSpeed10m),
		},
		Daily: make([]DaySummary, 0, ometeoForecastDays-1),
	}

	// Index 0 is today, which the current block already covers.
	for i := 1; i < ometeoForecastDays; i++ {
		date, err := time.Parse(time.DateOnly, d.Time[i])
		if err != nil {
			return WeatherSnapshot{}, fmt.Errorf("invalid forecast date %q: %w", d.Time[i], err)
		}
		info := translateWeatherCode(d.WeatherCode[i])
		snapshot.Daily = append(snapshot.Daily, DaySummary{
			Date:      d.Time[i],
			DayLabel:  labels.Weekday(date),
			High:      roundHalfUp(d.Temperature2mMax[i]),
			Low:       roundHalfUp(d.Temperature2mMin[i]),
			Condition: info.Condition,
			Icon:      info.Icon,
		})
	}

	return snapshot, nil
}

type ResponseForecastOMeteo struct {
	Timezone string        `json:"timezone"`
	Current  CurrentOMeteo `json:"current"`
	Daily    DailyOMeteo   `json:"daily"`
}

type CurrentOMeteo struct {
	Time               string  `json:"time"`
	Temperature2m      float64 `json:"temperature_2m"`
	RelativeHumidity2m float64 `json:"relative_humidity_2m"`
	WeatherCode        int     `json:"weather_code"`
	WindSpeed10m       float64 `json:"wind_speed_10m"`
}

type DailyOMeteo struct {
	Time             []string  `json:"time"`
	WeatherCode      []int     `json:"weather_code"`
	Temperature2mMax []float64 `json:"temperature_2m_max"`
	Temperature2mMin []float64 `json:"temperature_2m_min"`
}

// roundHalfUp rounds .5 toward positive infinity, so -2.5 becomes -2.
func roundHalfUp(val float64) int {
	return int(math.Floor(val + 0.5))
}
