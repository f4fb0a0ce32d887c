package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// This file contains the refresh orchestrator. The dashboard owns one panel per
// section; each panel refreshes on its own and keeps its last good value when a
// refresh fails, so one broken upstream never blanks the other sections.

const (
	panelWeather = "weather"
	panelToday   = "today"
	panelWeek    = "week"
)

// todayLookback hides timed events that started more than this long ago.
const todayLookback = time.Hour

type weatherFetcher interface {
	FetchWeather(ctx context.Context, lat, lon float64, unit TemperatureUnit) (WeatherSnapshot, error)
}

type calendarFetcher interface {
	FetchToday(ctx context.Context, tz string) ([]CalendarEvent, error)
	FetchWeek(ctx context.Context, tz string) ([]CalendarEvent, error)
}

type locationResolver interface {
	Resolve(ctx context.Context) Location
}

// panel is a refreshable dashboard section.
type panel[T any] struct {
	name   string
	fetch  func(ctx context.Context) (T, error)
	now    func() time.Time
	logger *slog.Logger

	mu        sync.RWMutex
	value     T
	hasValue  bool
	err       error
	updatedAt time.Time
}

func newPanel[T any](name string, fetch func(ctx context.Context) (T, error), now func() time.Time, logger *slog.Logger) *panel[T] {
	return &panel[T]{name: name, fetch: fetch, now: now, logger: logger}
}

// Refresh fetches a new value. On failure the previous value is kept and the
// error is recorded.
func (p *panel[T]) Refresh(ctx context.Context) error {
	v, err := p.fetch(ctx)
	panelRefreshesTotal.WithLabelValues(p.name, outcomeLabel(err)).Inc()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	if err != nil {
		p.logger.Warn("panel refresh failed", "panel", p.name, "error", err)
		return fmt.Errorf("refresh %s: %w", p.name, err)
	}
	p.value = v
	p.hasValue = true
	p.updatedAt = p.now()
	return nil
}

func (p *panel[T]) state() (value T, ok bool, err error, updatedAt time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.hasValue, p.err, p.updatedAt
}

type Dashboard struct {
	weather  *panel[WeatherSnapshot]
	today    *panel[[]CalendarEvent]
	week     *panel[[]CalendarEvent]
	resolver locationResolver
	timezone string
	now      func() time.Time
	logger   *slog.Logger

	// locMu serialises first resolution so the chain runs once.
	locMu    sync.Mutex
	location *Location

	unitMu sync.RWMutex
	unit   TemperatureUnit

	inProgress atomic.Int32
}

func NewDashboard(weather weatherFetcher, calendar calendarFetcher, resolver locationResolver, timezone string, unit TemperatureUnit, now func() time.Time, logger *slog.Logger) *Dashboard {
	if now == nil {
		now = time.Now
	}
	d := &Dashboard{
		resolver: resolver,
		timezone: timezone,
		unit:     unit,
		now:      now,
		logger:   logger,
	}
	d.weather = newPanel(panelWeather, func(ctx context.Context) (WeatherSnapshot, error) {
		loc := d.Location(ctx)
		return weather.FetchWeather(ctx, loc.Latitude, loc.Longitude, d.Unit())
	}, now, logger)
	d.today = newPanel(panelToday, func(ctx context.Context) ([]CalendarEvent, error) {
		return calendar.FetchToday(ctx, d.timezone)
	}, now, logger)
	d.week = newPanel(panelWeek, func(ctx context.Context) ([]CalendarEvent, error) {
		return calendar.FetchWeek(ctx, d.timezone)
	}, now, logger)
	return d
}

// Location returns the session location, resolving it on first use.
func (d *Dashboard) Location(ctx context.Context) Location {
	d.locMu.Lock()
	defer d.locMu.Unlock()
	if d.location == nil {
		loc := d.resolver.Resolve(ctx)
		d.location = &loc
		d.logger.Info("session location resolved", "source", loc.Source, "city", loc.City)
	}
	return *d.location
}

// Relocate discards the session location, runs the resolver chain again and
// refreshes the weather panel for the new place. It is used when the client
// reports a new device fix. The error is the weather refresh failure, if any.
func (d *Dashboard) Relocate(ctx context.Context) (Location, error) {
	d.locMu.Lock()
	d.location = nil
	d.locMu.Unlock()
	loc := d.Location(ctx)
	return loc, d.weather.Refresh(ctx)
}

func (d *Dashboard) Unit() TemperatureUnit {
	d.unitMu.RLock()
	defer d.unitMu.RUnlock()
	return d.unit
}

// SetUnit stores the preference and refreshes only the weather panel.
func (d *Dashboard) SetUnit(ctx context.Context, unit TemperatureUnit) error {
	d.unitMu.Lock()
	d.unit = unit
	d.unitMu.Unlock()
	return d.weather.Refresh(ctx)
}

// Refreshing reports whether any RefreshAll cycle is running.
func (d *Dashboard) Refreshing() bool {
	return d.inProgress.Load() > 0
}

// RefreshAll refreshes every panel concurrently and returns once all have
// settled. Overlapping calls are allowed.
func (d *Dashboard) RefreshAll(ctx context.Context) error {
	d.inProgress.Add(1)
	defer d.inProgress.Add(-1)

	cycle := uuid.NewString()
	start := d.now()
	d.logger.Debug("refresh cycle started", "cycle", cycle)

	refreshers := []func(context.Context) error{d.weather.Refresh, d.today.Refresh, d.week.Refresh}
	errs := make([]error, len(refreshers))

	var wg sync.WaitGroup
	for i, refresh := range refreshers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = refresh(ctx)
		}()
	}
	wg.Wait()

	err := errors.Join(errs...)
	d.logger.Info("refresh cycle finished", "cycle", cycle, "duration", d.now().Sub(start).String(), "failed", err != nil)
	return err
}

// PanelView is the render state of one section. Data is the last good value;
// Message is set when the latest refresh failed.
type PanelView[T any] struct {
	Data      *T         `json:"data,omitempty"`
	Message   string     `json:"message,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type DashboardView struct {
	Location   Location                   `json:"location"`
	Unit       TemperatureUnit            `json:"unit"`
	Timezone   string                     `json:"timezone"`
	Refreshing bool                       `json:"refreshing"`
	Weather    PanelView[WeatherSnapshot] `json:"weather"`
	Today      PanelView[[]CalendarEvent] `json:"today"`
	Week       PanelView[[]CalendarEvent] `json:"week"`
}

const (
	weatherUnavailable  = "Could not load weather at this time."
	calendarUnavailable = "Could not load events at this time."
)

// View renders the current panel states. Today's list hides timed events that
// started more than an hour before now.
func (d *Dashboard) View(ctx context.Context, now time.Time) DashboardView {
	v := DashboardView{
		Location:   d.Location(ctx),
		Unit:       d.Unit(),
		Timezone:   d.timezone,
		Refreshing: d.Refreshing(),
		Weather:    panelView(d.weather, weatherUnavailable),
		Today:      panelView(d.today, calendarUnavailable),
		Week:       panelView(d.week, calendarUnavailable),
	}
	if v.Today.Data != nil {
		loc, err := loadTimezone(d.timezone)
		if err != nil {
			loc = time.UTC
		}
		filtered := filterToday(*v.Today.Data, now, loc)
		v.Today.Data = &filtered
	}
	return v
}

func panelView[T any](p *panel[T], unavailable string) PanelView[T] {
	value, ok, err, updatedAt := p.state()
	var v PanelView[T]
	if ok {
		v.Data = &value
		v.UpdatedAt = &updatedAt
	}
	if err != nil {
		v.Message = unavailable
	}
	return v
}

// filterToday keeps all-day events and timed events starting after
// now minus todayLookback. Events with unreadable starts are kept.
func filterToday(events []CalendarEvent, now time.Time, loc *time.Location) []CalendarEvent {
	cutoff := now.Add(-todayLookback)
	out := make([]CalendarEvent, 0, len(events))
	for _, e := range events {
		if e.AllDay {
			out = append(out, e)
			continue
		}
		start, ok := eventStart(e, loc)
		if !ok || start.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}
