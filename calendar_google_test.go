package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestGoogleProvider(t *testing.T, calendarID string, handler http.HandlerFunc) *GoogleCalendarProvider {
	t.Helper()
	server := setupMockServer(t, handler)
	loader := fakeLoader(map[string]string{envServiceAccountJSON: testServiceAccountJSON}, nil, "")
	return NewGoogleCalendarProvider(calendarID, loader,
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
}

func TestGoogleCalendarProvider_ListEvents(t *testing.T) {
	window := TimeWindow{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC),
	}

	var gotQuery map[string]string
	provider := newTestGoogleProvider(t, "family@group.calendar.google.com", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/family@group.calendar.google.com/events", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"timeMin":      q.Get("timeMin"),
			"timeMax":      q.Get("timeMax"),
			"singleEvents": q.Get("singleEvents"),
			"orderBy":      q.Get("orderBy"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"kind": "calendar#events",
			"items": []map[string]any{
				{"id": "g1", "summary": "Swim practice", "start": map[string]string{"dateTime": "2025-06-01T07:00:00Z"}, "end": map[string]string{"dateTime": "2025-06-01T08:00:00Z"}},
				{"id": "g2", "start": map[string]string{"date": "2025-06-01"}, "end": map[string]string{"date": "2025-06-02"}},
			},
		})
	})

	events, err := provider.ListEvents(context.Background(), window)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"timeMin":      "2025-06-01T00:00:00Z",
		"timeMax":      "2025-06-01T23:59:59Z",
		"singleEvents": "true",
		"orderBy":      "startTime",
	}, gotQuery)
	assert.Equal(t, []ProviderEvent{
		{ID: "g1", Summary: "Swim practice", Start: EventTime{DateTime: "2025-06-01T07:00:00Z"}, End: EventTime{DateTime: "2025-06-01T08:00:00Z"}},
		{ID: "g2", Start: EventTime{Date: "2025-06-01"}, End: EventTime{Date: "2025-06-02"}},
	}, events)
}

func TestGoogleCalendarProvider_Errors(t *testing.T) {
	window := TimeWindow{Start: time.Unix(0, 0).UTC(), End: time.Unix(86399, 0).UTC()}

	t.Run("Missing calendar id", func(t *testing.T) {
		provider := newTestGoogleProvider(t, "", func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		_, err := provider.ListEvents(context.Background(), window)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, envCalendarID, cfgErr.Key)
	})

	t.Run("Credentials checked before calendar id", func(t *testing.T) {
		provider := NewGoogleCalendarProvider("", fakeLoader(nil, nil, ""))
		_, err := provider.ListEvents(context.Background(), window)
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("API rejects the request", func(t *testing.T) {
		provider := newTestGoogleProvider(t, "family", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
		})
		_, err := provider.ListEvents(context.Background(), window)
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusForbidden, fe.StatusCode)
		assert.Equal(t, upstreamGoogleCalendar, fe.Upstream)
	})
}
