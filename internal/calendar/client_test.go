package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakeCalendarAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
}

func (f *fakeCalendarAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	if r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		if f.bodies == nil {
			f.bodies = make(map[string]string)
		}
		f.bodies[r.Method+" "+r.URL.Path] = string(b)
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/users/me/calendarList":
		writeJSON(w, map[string]any{
			"items": []map[string]any{
				{"id": "me@example.com", "summary": "Me", "primary": true, "accessRole": "owner", "timeZone": "Europe/London"},
				{"id": "team@example.com", "summary": "Team", "accessRole": "reader"},
			},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/calendars/primary/events":
		q := r.URL.Query()
		if q.Get("singleEvents") != "true" || q.Get("orderBy") != "startTime" || q.Get("timeMin") == "" || q.Get("timeMax") == "" {
			http.Error(w, `{"error":{"code":400,"message":"bad query"}}`, http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{
			"items": []map[string]any{
				{
					"id": "a1", "summary": "Lunch with Alice", "status": "confirmed",
					"start": map[string]any{"dateTime": "2025-07-26T12:00:00+01:00", "timeZone": "Europe/London"},
					"end":   map[string]any{"dateTime": "2025-07-26T13:00:00+01:00", "timeZone": "Europe/London"},
				},
				{
					"id": "gone", "summary": "Cancelled thing", "status": "cancelled",
					"start": map[string]any{"dateTime": "2025-07-26T14:00:00+01:00"},
					"end":   map[string]any{"dateTime": "2025-07-26T15:00:00+01:00"},
				},
				{
					"id": "h1", "summary": "Holiday", "status": "confirmed",
					"start": map[string]any{"date": "2025-07-26"},
					"end":   map[string]any{"date": "2025-07-27"},
				},
			},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/calendars/primary/events/a1":
		writeJSON(w, map[string]any{
			"id": "a1", "summary": "Lunch with Alice", "status": "confirmed",
			"start": map[string]any{"dateTime": "2025-07-26T12:00:00+01:00"},
			"end":   map[string]any{"dateTime": "2025-07-26T13:00:00+01:00"},
		})
	case r.Method == http.MethodPost && r.URL.Path == "/calendars/primary/events":
		var body map[string]any
		_ = json.Unmarshal([]byte(f.bodies[r.Method+" "+r.URL.Path]), &body)
		body["id"] = "new1"
		body["status"] = "confirmed"
		writeJSON(w, body)
	case r.Method == http.MethodPatch && r.URL.Path == "/calendars/primary/events/a1":
		writeJSON(w, map[string]any{
			"id": "a1", "summary": "Lunch with Alice", "status": "confirmed",
			"start": map[string]any{"dateTime": "2025-07-26T15:00:00+01:00"},
			"end":   map[string]any{"dateTime": "2025-07-26T16:00:00+01:00"},
		})
	case r.Method == http.MethodDelete && r.URL.Path == "/calendars/primary/events/a1":
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"Not Found"}}`)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

func newTestGoogleClient(t *testing.T) (*GoogleClient, *fakeCalendarAPI) {
	t.Helper()
	api := &fakeCalendarAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewGoogleClientWithOptions(context.Background(), "default",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c, api
}

func TestGoogleClient_ListCalendars(t *testing.T) {
	c, _ := newTestGoogleClient(t)
	assert.Equal(t, "default", c.Account())

	cals, err := c.ListCalendars(context.Background())
	require.NoError(t, err)
	require.Len(t, cals, 2)
	assert.Equal(t, "me@example.com", cals[0].ID)
	assert.True(t, cals[0].Primary)
	assert.Equal(t, "reader", cals[1].AccessRole)
}

func TestGoogleClient_ListEvents(t *testing.T) {
	c, _ := newTestGoogleClient(t)
	min := time.Date(2025, 7, 26, 0, 0, 0, 0, time.UTC)

	events, err := c.ListEvents(context.Background(), "primary", min, min.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2, "cancelled events are skipped")

	assert.Equal(t, "a1", events[0].ID)
	assert.Equal(t, "primary", events[0].CalendarID)
	assert.Equal(t, time.Hour, events[0].Duration())
	assert.Equal(t, "Europe/London", events[0].Start.TimeZone)

	assert.True(t, events[1].Start.AllDay())
	assert.Equal(t, "2025-07-26", events[1].Start.Date)
}

func TestGoogleClient_EventLifecycle(t *testing.T) {
	c, api := newTestGoogleClient(t)
	ctx := context.Background()
	start := time.Date(2025, 7, 26, 9, 0, 0, 0, time.UTC)

	created, err := c.CreateEvent(ctx, "primary", EventInput{Summary: "Standup", Start: start, End: start.Add(15 * time.Minute), TimeZone: "UTC"})
	require.NoError(t, err)
	assert.Equal(t, "new1", created.ID)
	assert.Equal(t, "Standup", created.Summary)
	assert.True(t, created.Start.Time().Equal(start))

	got, err := c.GetEvent(ctx, "primary", "a1")
	require.NoError(t, err)
	assert.Equal(t, "Lunch with Alice", got.Summary)

	newStart := time.Date(2025, 7, 26, 14, 0, 0, 0, time.UTC)
	newEnd := newStart.Add(time.Hour)
	updated, err := c.UpdateEvent(ctx, "primary", "a1", EventPatch{Start: &newStart, End: &newEnd})
	require.NoError(t, err)
	assert.True(t, updated.Start.Time().Equal(newStart))

	patchBody := api.bodies["PATCH /calendars/primary/events/a1"]
	assert.Contains(t, patchBody, `"dateTime":"2025-07-26T14:00:00Z"`)
	assert.NotContains(t, patchBody, "summary", "unset fields are not sent")

	require.NoError(t, c.DeleteEvent(ctx, "primary", "a1"))
}

func TestGoogleClient_UpdateClearsAllDayDate(t *testing.T) {
	c, api := newTestGoogleClient(t)
	start := time.Date(2025, 7, 26, 15, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	_, err := c.UpdateEvent(context.Background(), "primary", "a1", EventPatch{Start: &start, End: &end})
	require.NoError(t, err)

	var body struct {
		Start map[string]any `json:"start"`
		End   map[string]any `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(api.bodies["PATCH /calendars/primary/events/a1"]), &body))
	for _, dt := range []map[string]any{body.Start, body.End} {
		date, sent := dt["date"]
		assert.True(t, sent, "date is sent so Google drops a stored all-day date")
		assert.Nil(t, date)
		assert.NotEmpty(t, dt["dateTime"])
	}
}

func TestGoogleClient_NotFound(t *testing.T) {
	c, _ := newTestGoogleClient(t)
	ctx := context.Background()

	_, err := c.GetEvent(ctx, "primary", "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = c.DeleteEvent(ctx, "primary", "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.ListEvents(ctx, "nobody@example.com", time.Now(), time.Now().Add(time.Hour))
	assert.True(t, errors.Is(err, ErrCalendarNotFound))
}

func TestGoogleClient_UpdateRejectsBackwardsRange(t *testing.T) {
	c, api := newTestGoogleClient(t)
	start := time.Date(2025, 7, 26, 14, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := c.UpdateEvent(context.Background(), "primary", "a1", EventPatch{Start: &start, End: &end})
	assert.True(t, errors.Is(err, ErrInvalidEvent))
	for _, req := range api.requests {
		assert.False(t, strings.HasPrefix(req, "PATCH"))
	}
}

func TestGoogleClient_BatchDelete(t *testing.T) {
	c, api := newTestGoogleClient(t)
	min := time.Date(2025, 7, 26, 0, 0, 0, 0, time.UTC)

	deleted, err := c.BatchDelete(context.Background(), "primary", min, min.Add(24*time.Hour))
	require.Error(t, err, "h1 cannot be deleted by the fake")
	assert.Equal(t, []string{"a1"}, deleted)
	assert.Contains(t, err.Error(), "deleted 1 of 2")
	assert.Contains(t, api.requests, "DELETE /calendars/primary/events/a1")
}
