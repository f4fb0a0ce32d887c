package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// This file implements a CalendarProvider over a published ICS feed, for
// calendars that are shared by URL rather than through the Google API.
// Recurring events are expanded here since a feed only carries the rules.

const (
	upstreamICS       = "ics"
	icsDateLayout     = "20060102"
	icsDateTimeLayout = "20060102T150405"
	icsUTCLayout      = "20060102T150405Z"
)

type ICSProvider struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewICSProvider(url string, httpClient *http.Client, logger *slog.Logger) *ICSProvider {
	return &ICSProvider{url: url, httpClient: httpClient, logger: logger}
}

func (p *ICSProvider) ListEvents(ctx context.Context, window TimeWindow) ([]ProviderEvent, error) {
	if p.url == "" {
		return nil, &ConfigError{Key: "CALENDAR_ICS_URL"}
	}
	header := http.Header{}
	header.Set("Accept", "text/calendar")
	body, err := fetchFromAPI(ctx, p.httpClient, upstreamICS, p.url, header, io.ReadAll)
	if err != nil {
		return nil, err
	}
	events, err := eventsFromICS(body, window, p.logger)
	if err != nil {
		return nil, newFetchError(upstreamICS, http.StatusOK, err)
	}
	return events, nil
}

// icsOccurrence is one concrete instance of a VEVENT.
type icsOccurrence struct {
	uid     string
	summary string
	start   time.Time
	end     time.Time
	allDay  bool
}

// eventsFromICS parses a feed and returns the occurrences overlapping window,
// sorted by start. Times are rendered in the window's zone.
func eventsFromICS(body []byte, window TimeWindow, logger *slog.Logger) ([]ProviderEvent, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ICS feed: %w", err)
	}
	loc := window.Start.Location()

	var occurrences []icsOccurrence
	for _, ve := range cal.Events() {
		expanded, err := expandVEvent(ve, window, loc)
		if err != nil {
			logger.Warn("skipping unreadable ICS event", "error", err)
			continue
		}
		occurrences = append(occurrences, expanded...)
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].start.Before(occurrences[j].start)
	})

	events := make([]ProviderEvent, len(occurrences))
	for i, o := range occurrences {
		events[i] = o.toProviderEvent(loc)
	}
	return events, nil
}

func expandVEvent(ve *ical.VEvent, window TimeWindow, loc *time.Location) ([]icsOccurrence, error) {
	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return nil, errors.New("missing DTSTART")
	}
	start, allDay, err := parseICSTime(startProp, loc)
	if err != nil {
		return nil, fmt.Errorf("DTSTART: %w", err)
	}

	end := start
	if allDay {
		end = start.AddDate(0, 0, 1)
	}
	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		if t, _, err := parseICSTime(endProp, loc); err == nil && t.After(start) {
			end = t
		}
	} else if durProp := ve.GetProperty(ical.ComponentPropertyDuration); durProp != nil {
		d, err := parseICSDuration(durProp.Value)
		if err != nil {
			return nil, fmt.Errorf("DURATION: %w", err)
		}
		if t := d.addTo(start); t.After(start) {
			end = t
		}
	}

	base := icsOccurrence{start: start, end: end, allDay: allDay}
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		base.uid = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		base.summary = unescapeICSText(p.Value)
	}

	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	if rruleProp == nil {
		if overlaps(base.start, base.end, window) {
			return []icsOccurrence{base}, nil
		}
		return nil, nil
	}

	rule, err := rrule.StrToRRule(rruleProp.Value)
	if err != nil {
		return nil, fmt.Errorf("RRULE: %w", err)
	}
	rule.DTStart(start)

	var set rrule.Set
	set.RRule(rule)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			ex := *p
			ex.Value = strings.TrimSpace(part)
			if t, _, err := parseICSTime(&ex, start.Location()); err == nil {
				set.ExDate(t)
			}
		}
	}

	duration := end.Sub(start)
	// All-day spans are counted in dates so occurrences keep their length across DST.
	spanDays := int(math.Round(duration.Hours() / 24))
	var out []icsOccurrence
	// Occurrences that started before the window may still overlap it.
	for _, occStart := range set.Between(window.Start.Add(-duration), window.End, true) {
		occ := base
		occ.start = occStart
		occ.end = occStart.Add(duration)
		if allDay {
			occ.end = occStart.AddDate(0, 0, spanDays)
		}
		if base.uid != "" {
			occ.uid = base.uid + "_" + occStart.UTC().Format(icsUTCLayout)
		}
		if overlaps(occ.start, occ.end, window) {
			out = append(out, occ)
		}
	}
	return out, nil
}

// parseICSTime handles DATE values, UTC times, TZID-qualified times and
// floating times. Floating and all-day values are taken in loc.
func parseICSTime(prop *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	value := strings.TrimSpace(prop.Value)
	isDate := len(value) == len(icsDateLayout)
	if vs, ok := prop.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		isDate = true
	}

	switch {
	case isDate:
		t, err := time.ParseInLocation(icsDateLayout, value, loc)
		return t, true, err
	case strings.HasSuffix(value, "Z"):
		t, err := time.Parse(icsUTCLayout, value)
		return t, false, err
	}

	zone := loc
	if tzids, ok := prop.ICalParameters["TZID"]; ok && len(tzids) > 0 {
		if l, err := time.LoadLocation(tzids[0]); err == nil {
			zone = l
		}
	}
	t, err := time.ParseInLocation(icsDateTimeLayout, value, zone)
	return t, false, err
}

// icsDuration is an RFC 5545 DURATION. Days and weeks are nominal and are
// added as calendar days; the time part is exact.
type icsDuration struct {
	days  int
	clock time.Duration
}

func (d icsDuration) addTo(t time.Time) time.Time {
	return t.AddDate(0, 0, d.days).Add(d.clock)
}

// parseICSDuration reads values such as "PT2H", "P1D", "P1DT30M" and "P2W".
// Negative durations are rejected.
func parseICSDuration(value string) (icsDuration, error) {
	v := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(value)), "+")
	if !strings.HasPrefix(v, "P") {
		return icsDuration{}, fmt.Errorf("invalid duration %q", value)
	}

	var (
		d      icsDuration
		num    int
		digits bool
		inTime bool
		units  int
	)
	for _, r := range v[1:] {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
			digits = true
			continue
		case r == 'T' && !inTime && !digits:
			inTime = true
			continue
		case !digits:
			return icsDuration{}, fmt.Errorf("invalid duration %q", value)
		case !inTime && r == 'W':
			d.days += 7 * num
		case !inTime && r == 'D':
			d.days += num
		case inTime && r == 'H':
			d.clock += time.Duration(num) * time.Hour
		case inTime && r == 'M':
			d.clock += time.Duration(num) * time.Minute
		case inTime && r == 'S':
			d.clock += time.Duration(num) * time.Second
		default:
			return icsDuration{}, fmt.Errorf("invalid duration %q", value)
		}
		num, digits = 0, false
		units++
	}
	if digits || units == 0 {
		return icsDuration{}, fmt.Errorf("invalid duration %q", value)
	}
	return d, nil
}

// overlaps treats end as exclusive, except for zero-length events which
// overlap when their instant lies inside the window.
func overlaps(start, end time.Time, w TimeWindow) bool {
	if start.After(w.End) {
		return false
	}
	if end.Equal(start) {
		return !start.Before(w.Start)
	}
	return end.After(w.Start)
}

func (o icsOccurrence) toProviderEvent(loc *time.Location) ProviderEvent {
	e := ProviderEvent{ID: o.uid, Summary: o.summary}
	if o.allDay {
		e.Start.Date = o.start.Format(time.DateOnly)
		e.End.Date = o.end.Format(time.DateOnly)
		return e
	}
	e.Start.DateTime = o.start.In(loc).Format(time.RFC3339)
	e.End.DateTime = o.end.In(loc).Format(time.RFC3339)
	return e
}

var icsTextUnescaper = strings.NewReplacer(`\n`, " ", `\N`, " ", `\,`, ",", `\;`, ";", `\\`, `\`)

func unescapeICSText(s string) string {
	return icsTextUnescaper.Replace(s)
}
