package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// This file turns provider events into dashboard events. The provider returns
// everything overlapping a window, already ordered by start; the normalizer
// fills in missing ids and titles and assigns colours by list position.

// eventPalette holds the CSS classes the front end uses for event chips.
var eventPalette = []string{
	"bg-blue-500",
	"bg-green-500",
	"bg-purple-500",
	"bg-orange-500",
	"bg-pink-500",
	"bg-teal-500",
}

const untitledEvent = "Untitled Event"

// EventTime mirrors the provider shape: Date is set for all-day events,
// DateTime for timed ones.
type EventTime struct {
	Date     string
	DateTime string
}

func (t EventTime) value() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

type ProviderEvent struct {
	ID      string
	Summary string
	Start   EventTime
	End     EventTime
}

// CalendarProvider lists single events (recurrences expanded) overlapping the
// window, ordered by start time.
type CalendarProvider interface {
	ListEvents(ctx context.Context, window TimeWindow) ([]ProviderEvent, error)
}

type CalendarService struct {
	provider CalendarProvider
	now      func() time.Time
	labels   dayLabeler
	logger   *slog.Logger
}

func NewCalendarService(provider CalendarProvider, now func() time.Time, labels dayLabeler, logger *slog.Logger) *CalendarService {
	if now == nil {
		now = time.Now
	}
	return &CalendarService{provider: provider, now: now, labels: labels, logger: logger}
}

// FetchToday returns events overlapping the current local date in tz.
func (s *CalendarService) FetchToday(ctx context.Context, tz string) ([]CalendarEvent, error) {
	return s.fetch(ctx, tz, todayWindow, false)
}

// FetchWeek returns events overlapping the seven local dates after today.
// Each event carries a day label for grouping.
func (s *CalendarService) FetchWeek(ctx context.Context, tz string) ([]CalendarEvent, error) {
	return s.fetch(ctx, tz, weekWindow, true)
}

func (s *CalendarService) fetch(ctx context.Context, tz string, windowFor func(string, time.Time) (TimeWindow, error), withDay bool) ([]CalendarEvent, error) {
	window, err := windowFor(tz, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Debug("fetching calendar events", "timezone", tz, "window", window.String())

	raw, err := s.provider.ListEvents(ctx, window)
	if err != nil {
		return nil, classifyCalendarError(err)
	}

	events := normalizeEvents(raw)
	if withDay {
		loc := window.Start.Location()
		for i := range events {
			events[i].Day = s.dayLabel(events[i].StartDateTime, loc)
		}
	}
	return events, nil
}

// normalizeEvents is pure: colour and fallback id depend only on position.
func normalizeEvents(raw []ProviderEvent) []CalendarEvent {
	events := make([]CalendarEvent, len(raw))
	for i, e := range raw {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("event-%d", i)
		}
		title := cleanLabel(e.Summary)
		if title == "" {
			title = untitledEvent
		}
		events[i] = CalendarEvent{
			ID:            id,
			Title:         title,
			StartDateTime: e.Start.value(),
			EndDateTime:   e.End.value(),
			Color:         eventPalette[i%len(eventPalette)],
			AllDay:        e.Start.DateTime == "" && e.Start.Date != "",
		}
	}
	return events
}

func (s *CalendarService) dayLabel(start string, loc *time.Location) string {
	if t, err := time.Parse(time.RFC3339, start); err == nil {
		return s.labels.Date(t.In(loc))
	}
	if t, err := time.Parse(time.DateOnly, start); err == nil {
		return s.labels.Date(t)
	}
	return ""
}

// classifyCalendarError keeps typed errors and wraps anything else as a fetch
// failure.
func classifyCalendarError(err error) error {
	var authErr *AuthError
	var cfgErr *ConfigError
	var fetchErr *FetchError
	if errors.As(err, &authErr) || errors.As(err, &cfgErr) || errors.As(err, &fetchErr) {
		return err
	}
	return &FetchError{Upstream: "calendar", Err: err}
}

// eventStart parses an event's start for ordering and filtering. All-day
// starts are local midnight in loc.
func eventStart(e CalendarEvent, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, e.StartDateTime); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(time.DateOnly, e.StartDateTime, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}
