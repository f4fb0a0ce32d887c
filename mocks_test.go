package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// --- Mocks ---

// mockCache is a mock for the Cache interface. Unset functions behave like an
// empty cache.
type mockCache struct {
	getFunc   func(ctx context.Context, key string) (string, error)
	setFunc   func(ctx context.Context, key string, value any, expiration time.Duration) error
	flushFunc func(ctx context.Context) error
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return "", ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *mockCache) Flush(ctx context.Context) error {
	if m.flushFunc != nil {
		return m.flushFunc(ctx)
	}
	return nil
}

// mockGeocoder is a mock for the ReverseGeocoder interface.
type mockGeocoder struct {
	reverseGeocodeFunc func(ctx context.Context, lat, lon float64) (GeocodeResult, error)
	calls              int
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodeResult, error) {
	m.calls++
	if m.reverseGeocodeFunc != nil {
		return m.reverseGeocodeFunc(ctx, lat, lon)
	}
	return GeocodeResult{}, errors.New("reverseGeocodeFunc not implemented in mock")
}

// mockIPLocator is a mock for the IPLocator interface.
type mockIPLocator struct {
	locateFunc func(ctx context.Context) (Location, error)
	calls      int
}

func (m *mockIPLocator) Locate(ctx context.Context) (Location, error) {
	m.calls++
	if m.locateFunc != nil {
		return m.locateFunc(ctx)
	}
	return Location{}, errors.New("locateFunc not implemented in mock")
}

// mockPositioner is a mock for the DevicePositioner interface.
type mockPositioner struct {
	available    bool
	positionFunc func(ctx context.Context, maxAge time.Duration) (Coordinates, error)
	calls        int
}

func (m *mockPositioner) Available() bool { return m.available }

func (m *mockPositioner) CurrentPosition(ctx context.Context, maxAge time.Duration) (Coordinates, error) {
	m.calls++
	if m.positionFunc != nil {
		return m.positionFunc(ctx, maxAge)
	}
	return Coordinates{}, ErrPositionUnavailable
}

// mockCalendarProvider is a mock for the CalendarProvider interface.
type mockCalendarProvider struct {
	listEventsFunc func(ctx context.Context, window TimeWindow) ([]ProviderEvent, error)
	windows        []TimeWindow
}

func (m *mockCalendarProvider) ListEvents(ctx context.Context, window TimeWindow) ([]ProviderEvent, error) {
	m.windows = append(m.windows, window)
	if m.listEventsFunc != nil {
		return m.listEventsFunc(ctx, window)
	}
	return nil, nil
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
