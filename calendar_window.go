package main

import (
	"time"
)

// This file computes the instant ranges used to query the calendar provider.
// Boundaries are built from calendar dates in the caller's zone, so a window
// that spans a DST transition has a different UTC offset at each end.

// loadTimezone resolves an IANA identifier. An empty string is rejected even
// though time.LoadLocation would treat it as UTC.
func loadTimezone(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, &InvalidTimezoneError{Timezone: tz, Err: errEmptyTimezone}
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &InvalidTimezoneError{Timezone: tz, Err: err}
	}
	return loc, nil
}

// todayWindow spans the current local date in tz, 00:00:00 through 23:59:59.
func todayWindow(tz string, now time.Time) (TimeWindow, error) {
	loc, err := loadTimezone(tz)
	if err != nil {
		return TimeWindow{}, err
	}
	y, m, d := now.In(loc).Date()
	return TimeWindow{
		Start: startOfDay(y, m, d, loc),
		End:   endOfDay(y, m, d, loc),
	}, nil
}

// weekWindow spans the seven local dates after today: tomorrow 00:00:00
// through today+7 23:59:59.
func weekWindow(tz string, now time.Time) (TimeWindow, error) {
	loc, err := loadTimezone(tz)
	if err != nil {
		return TimeWindow{}, err
	}
	y, m, d := now.In(loc).Date()
	return TimeWindow{
		Start: startOfDay(y, m, d+1, loc),
		End:   endOfDay(y, m, d+7, loc),
	}, nil
}

// time.Date normalises day overflow, so d+7 at month end is fine.
func startOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func endOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 0, loc)
}
