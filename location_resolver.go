package main

import (
	"context"
	"log/slog"
	"time"
)

// This file resolves where the dashboard is. Strategies are tried in a fixed
// order (device, IP, configured default) and the first success wins. Failures
// are logged and swallowed, so Resolve always returns a Location.

const (
	devicePositionTimeout = 5 * time.Second
	devicePositionMaxAge  = 5 * time.Minute
)

// locationResult is what a strategy produces: either a location or the reason
// it could not provide one.
type locationResult struct {
	location Location
	err      error
}

type locationStrategy interface {
	name() string
	resolve(ctx context.Context) locationResult
}

type LocationResolver struct {
	strategies []locationStrategy
	logger     *slog.Logger
}

// NewLocationResolver wires the three tiers. device and geocoder may be nil;
// ip may be nil as well, in which case that tier always fails.
func NewLocationResolver(device DevicePositioner, geocoder ReverseGeocoder, ip IPLocator, fallback Location, logger *slog.Logger) *LocationResolver {
	fallback.Source = SourceEnv
	return &LocationResolver{
		strategies: []locationStrategy{
			&deviceStrategy{positioner: device, geocoder: geocoder, logger: logger},
			&ipStrategy{locator: ip},
			staticStrategy{location: fallback},
		},
		logger: logger,
	}
}

// Resolve walks the strategies in order. The static tier cannot fail, so the
// final return is only reached if the chain was built without it.
func (r *LocationResolver) Resolve(ctx context.Context) Location {
	for _, s := range r.strategies {
		res := s.resolve(ctx)
		if res.err != nil {
			r.logger.Warn("location strategy failed", "strategy", s.name(), "error", res.err)
			continue
		}
		locationResolutionsTotal.WithLabelValues(string(res.location.Source)).Inc()
		r.logger.Info("location resolved", "source", res.location.Source, "city", res.location.City)
		return res.location
	}
	return Location{Source: SourceEnv}
}

type deviceStrategy struct {
	positioner DevicePositioner
	geocoder   ReverseGeocoder
	logger     *slog.Logger
}

func (deviceStrategy) name() string { return string(SourceGeolocation) }

func (s *deviceStrategy) resolve(ctx context.Context) locationResult {
	if s.positioner == nil || !s.positioner.Available() {
		return locationResult{err: ErrPositionUnavailable}
	}

	posCtx, cancel := context.WithTimeout(ctx, devicePositionTimeout)
	defer cancel()
	pos, err := s.positioner.CurrentPosition(posCtx, devicePositionMaxAge)
	if err != nil {
		return locationResult{err: err}
	}

	loc := Location{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Source:    SourceGeolocation,
	}
	// Labels are optional; coordinates alone are a successful resolution.
	if s.geocoder != nil {
		place, err := s.geocoder.ReverseGeocode(ctx, pos.Latitude, pos.Longitude)
		if err != nil {
			s.logger.Warn("reverse geocoding failed, keeping coordinates", "error", err)
		} else {
			loc.City = place.City
			loc.Country = place.Country
		}
	}
	return locationResult{location: loc}
}

type ipStrategy struct {
	locator IPLocator
}

func (ipStrategy) name() string { return string(SourceIP) }

func (s *ipStrategy) resolve(ctx context.Context) locationResult {
	if s.locator == nil {
		return locationResult{err: errNoCoordinates}
	}
	loc, err := s.locator.Locate(ctx)
	if err != nil {
		return locationResult{err: err}
	}
	loc.Source = SourceIP
	return locationResult{location: loc}
}

type staticStrategy struct {
	location Location
}

func (staticStrategy) name() string { return string(SourceEnv) }

func (s staticStrategy) resolve(context.Context) locationResult {
	return locationResult{location: s.location}
}
