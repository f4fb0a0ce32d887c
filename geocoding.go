package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"
)

// This file provides reverse geocoding, turning coordinates into a city and
// country label. The provider sits behind the ReverseGeocoder interface; the
// production implementation talks to OpenStreetMap's Nominatim, whose usage
// policy requires an identifying User-Agent and at most one request a second.

const upstreamNominatim = "nominatim"

// ErrNoResultsFound is returned when the provider knows nothing about a point.
var ErrNoResultsFound = errors.New("no results found for the given query")

type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodeResult, error)
}

type NominatimGeocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	logger     *slog.Logger
}

func NewNominatimGeocoder(baseURL, userAgent string, httpClient *http.Client, cache Cache, logger *slog.Logger) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		cache:      cache,
		logger:     logger,
	}
}

// ReverseGeocode returns the place label for a coordinate pair. Results are
// cached, so the rate limiter only applies to cold lookups.
func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodeResult, error) {
	key := coordinateKey("geocode", lat, lon)
	return getCachedOrFetch(ctx, g.cache, g.logger, key, geocodeCacheTTL, func(ctx context.Context) (GeocodeResult, error) {
		return g.performReverseRequest(ctx, lat, lon)
	})
}

func (g *NominatimGeocoder) performReverseRequest(ctx context.Context, lat, lon float64) (GeocodeResult, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return GeocodeResult{}, newFetchError(upstreamNominatim, 0, fmt.Errorf("failed to parse base geocode URL: %w", err))
	}
	q := u.Query()
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	u.RawQuery = q.Encode()

	if err := g.limiter.Wait(ctx); err != nil {
		return GeocodeResult{}, newFetchError(upstreamNominatim, 0, fmt.Errorf("rate limiter: %w", err))
	}

	header := http.Header{}
	header.Set("User-Agent", g.userAgent)

	return fetchFromAPI(ctx, g.httpClient, upstreamNominatim, u.String(), header, parseNominatimResponse)
}

// parseNominatimResponse picks the most specific populated place name:
// city, then town, then village, then county.
func parseNominatimResponse(body io.Reader) (GeocodeResult, error) {
	var response NominatimResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return GeocodeResult{}, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if response.Error != "" {
		if response.Error == "Unable to geocode" {
			return GeocodeResult{}, ErrNoResultsFound
		}
		return GeocodeResult{}, fmt.Errorf("geocoding API returned error: %s", response.Error)
	}

	a := response.Address
	city := a.City
	for _, candidate := range []string{a.Town, a.Village, a.County} {
		if city != "" {
			break
		}
		city = candidate
	}

	return GeocodeResult{
		City:    cleanLabel(city),
		Country: cleanLabel(a.Country),
	}, nil
}

// NominatimResponse is the subset of the reverse endpoint's JSON we read.
type NominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Address     NominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

type NominatimAddress struct {
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	County      string `json:"county"`
	State       string `json:"state"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}
