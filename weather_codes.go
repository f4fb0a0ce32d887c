package main

// wmoCodes maps WMO weather interpretation codes, as reported by Open-Meteo,
// to the label and glyph shown on the dashboard.
var wmoCodes = map[int]WeatherInfo{
	0:  {Condition: "Clear", Icon: "☀️"},
	1:  {Condition: "Mainly Clear", Icon: "🌤️"},
	2:  {Condition: "Partly Cloudy", Icon: "⛅"},
	3:  {Condition: "Overcast", Icon: "☁️"},
	45: {Condition: "Foggy", Icon: "🌫️"},
	48: {Condition: "Foggy", Icon: "🌫️"},
	51: {Condition: "Light Drizzle", Icon: "🌦️"},
	53: {Condition: "Drizzle", Icon: "🌦️"},
	55: {Condition: "Heavy Drizzle", Icon: "🌦️"},
	61: {Condition: "Light Rain", Icon: "🌧️"},
	63: {Condition: "Rain", Icon: "🌧️"},
	65: {Condition: "Heavy Rain", Icon: "🌧️"},
	71: {Condition: "Light Snow", Icon: "🌨️"},
	73: {Condition: "Snow", Icon: "❄️"},
	75: {Condition: "Heavy Snow", Icon: "❄️"},
	77: {Condition: "Snow Grains", Icon: "🌨️"},
	80: {Condition: "Light Showers", Icon: "🌦️"},
	81: {Condition: "Showers", Icon: "🌧️"},
	82: {Condition: "Heavy Showers", Icon: "🌧️"},
	85: {Condition: "Light Snow Showers", Icon: "🌨️"},
	86: {Condition: "Snow Showers", Icon: "❄️"},
	95: {Condition: "Thunderstorm", Icon: "⛈️"},
	96: {Condition: "Thunderstorm with Hail", Icon: "⛈️"},
	99: {Condition: "Thunderstorm with Hail", Icon: "⛈️"},
}

var unknownWeather = WeatherInfo{Condition: "Unknown", Icon: "❓"}

// translateWeatherCode never fails; codes outside the table map to unknownWeather.
func translateWeatherCode(code int) WeatherInfo {
	if info, ok := wmoCodes[code]; ok {
		return info
	}
	return unknownWeather
}
