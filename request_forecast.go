package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

// This file contains the weather aggregator. It builds the Open-Meteo request,
// fetches and reshapes the response, and caches the resulting snapshot.
// Identical requests in flight at the same time share one upstream call.

const upstreamOpenMeteo = "open-meteo"

// sharedFetchTimeout bounds a coalesced fetch, which outlives any single caller.
const sharedFetchTimeout = 30 * time.Second

type WeatherService struct {
	forecastURL string
	httpClient  *http.Client
	cache       Cache
	labels      dayLabeler
	logger      *slog.Logger
	group       singleflight.Group
}

func NewWeatherService(forecastURL string, httpClient *http.Client, cache Cache, labels dayLabeler, logger *slog.Logger) *WeatherService {
	return &WeatherService{
		forecastURL: forecastURL,
		httpClient:  httpClient,
		cache:       cache,
		labels:      labels,
		logger:      logger,
	}
}

// FetchWeather returns current conditions and the seven-day outlook for the
// coordinates in the requested unit. Upstream failures are *FetchError.
func (s *WeatherService) FetchWeather(ctx context.Context, lat, lon float64, unit TemperatureUnit) (WeatherSnapshot, error) {
	key := coordinateKey("weather", lat, lon, string(unit))

	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return getCachedOrFetch(fetchCtx, s.cache, s.logger, key, weatherCacheTTL, func(ctx context.Context) (WeatherSnapshot, error) {
			return s.requestForecast(ctx, lat, lon, unit)
		})
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return WeatherSnapshot{}, newFetchError(upstreamOpenMeteo, 0, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return WeatherSnapshot{}, res.Err
	}
	if res.Shared {
		s.logger.Debug("weather request coalesced", "key", key)
	}
	return res.Val.(WeatherSnapshot), nil
}

func (s *WeatherService) requestForecast(ctx context.Context, lat, lon float64, unit TemperatureUnit) (WeatherSnapshot, error) {
	url, err := wrapForForecast(s.forecastURL, lat, lon, unit)
	if err != nil {
		return WeatherSnapshot{}, newFetchError(upstreamOpenMeteo, 0, err)
	}

	snapshot, err := fetchFromAPI(ctx, s.httpClient, upstreamOpenMeteo, url, nil, func(body io.Reader) (WeatherSnapshot, error) {
		return ParseForecastOMeteo(body, s.labels)
	})
	if err != nil {
		return WeatherSnapshot{}, err
	}
	s.logger.Debug("forecast fetched", "lat", lat, "lon", lon, "unit", unit)
	return snapshot, nil
}
