package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const upstreamGoogleCalendar = "google-calendar"

// GoogleCalendarProvider reads one calendar through the Calendar v3 API with a
// service account. Credentials are loaded on every call.
type GoogleCalendarProvider struct {
	calendarID  string
	credentials credentialLoader
	// options are appended after the credentials; tests use them to point
	// the client at a local server.
	options []option.ClientOption
}

func NewGoogleCalendarProvider(calendarID string, credentials credentialLoader, options ...option.ClientOption) *GoogleCalendarProvider {
	return &GoogleCalendarProvider{
		calendarID:  calendarID,
		credentials: credentials,
		options:     options,
	}
}

func (p *GoogleCalendarProvider) ListEvents(ctx context.Context, window TimeWindow) (events []ProviderEvent, err error) {
	raw, err := p.credentials.load()
	if err != nil {
		return nil, err
	}
	if p.calendarID == "" {
		return nil, &ConfigError{Key: envCalendarID, Reason: "not set in environment variables"}
	}

	creds, err := google.CredentialsFromJSON(ctx, raw, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, &AuthError{Reason: "calendar credentials rejected", Err: err}
	}

	opts := append([]option.ClientOption{option.WithCredentials(creds)}, p.options...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, &AuthError{Reason: "could not create calendar client", Err: err}
	}

	defer observeUpstream(upstreamGoogleCalendar, time.Now(), &err)

	call := svc.Events.List(p.calendarID).
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	err = call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			events = append(events, providerEventFromGoogle(item))
		}
		return nil
	})
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, &FetchError{Upstream: upstreamGoogleCalendar, StatusCode: apiErr.Code, Err: err}
		}
		return nil, &FetchError{Upstream: upstreamGoogleCalendar, Err: err}
	}
	return events, nil
}

func providerEventFromGoogle(item *calendar.Event) ProviderEvent {
	e := ProviderEvent{ID: item.Id, Summary: item.Summary}
	if item.Start != nil {
		e.Start = EventTime{Date: item.Start.Date, DateTime: item.Start.DateTime}
	}
	if item.End != nil {
		e.End = EventTime{Date: item.End.Date, DateTime: item.End.DateTime}
	}
	return e
}
