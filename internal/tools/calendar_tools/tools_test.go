package calendar_tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/scheduler/internal/calendar"
	"github.com/teemow/scheduler/internal/memory"
	"github.com/teemow/scheduler/internal/tools"
)

type fixture struct {
	backend  *calendar.MemoryBackend
	registry *tools.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend, err := calendar.LoadSeedFile("testdata/week.yaml")
	require.NoError(t, err)

	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	now := time.Date(2025, 7, 26, 10, 0, 0, 0, loc)

	r := tools.NewRegistry(nil)
	require.NoError(t, Register(r, Deps{
		Backend:  backend,
		Location: loc,
		Now:      func() time.Time { return now },
	}))
	return &fixture{backend: backend, registry: r}
}

func (f *fixture) call(t *testing.T, name string, args map[string]any) string {
	t.Helper()
	return f.registry.Invoke(context.Background(), memory.ToolCall{ID: "call_1", Name: name, Arguments: args})
}

func TestCatalogue(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, []string{
		"list_calendars",
		"list_events",
		"search_events_by_keyword",
		"smart_event_search",
		"get_event_details",
		"move_event",
		"create_event",
		"update_event",
		"delete_event",
		"delete_events_in_range",
		"get_events_duration",
		"get_free_busy",
	}, f.registry.Names())

	destructive := map[string]bool{}
	for _, name := range f.registry.Names() {
		tool, _ := f.registry.Lookup(name)
		destructive[name] = tool.Destructive()
	}
	assert.True(t, destructive["delete_event"])
	assert.True(t, destructive["delete_events_in_range"])
	assert.True(t, destructive["move_event"])
	assert.True(t, destructive["update_event"])
	assert.False(t, destructive["list_events"])
	assert.False(t, destructive["create_event"])
}

func TestTools_RequireBackend(t *testing.T) {
	_, err := Tools(Deps{})
	assert.Error(t, err)
}

func TestListCalendars(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "list_calendars", nil)
	assert.Equal(t, "Your calendars:\n- Personal [primary]\n- Work\n", out)

	out = f.call(t, "list_calendars", map[string]any{"show_ids": true})
	assert.Contains(t, out, "- Work (ID: work@example.com)")
}

func TestListEvents(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "list_events", map[string]any{"calendar_id": "primary"})
	assert.True(t, strings.HasPrefix(out, "Events for primary from 26 July 2025, 12:00 AM to 26 July 2025, 11:59 PM:\n"), out)
	assert.Contains(t, out, "- **Lunch with Alice**\n  Date: 26 July 2025, 12:00 PM to 26 July 2025, 01:00 PM\n  Location: Dishoom\n  Event ID: lunchalice\n")
	assert.Equal(t, 4, strings.Count(out, "Event ID:"))

	out = f.call(t, "list_events", map[string]any{"calendar_id": "primary", "date": "tomorrow"})
	assert.Equal(t, "No events found for this period.", out)

	out = f.call(t, "list_events", map[string]any{"calendar_id": "primary", "date": "2025-08-25"})
	assert.Contains(t, out, "Date: 25 August 2025 (all day)")

	out = f.call(t, "list_events", map[string]any{"calendar_id": "nobody@example.com"})
	assert.True(t, strings.HasPrefix(out, "Error: "), out)
}

func TestSearchEventsByKeyword(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "search_events_by_keyword", map[string]any{"calendar_id": "primary", "keyword": "SYNC"})
	assert.Equal(t, "Events matching 'SYNC':\n- **Team sync**\n  Date: 26 July 2025, 02:30 PM to 26 July 2025, 03:00 PM\n  Event ID: standup\n\n", out)

	out = f.call(t, "search_events_by_keyword", map[string]any{"calendar_id": "primary", "keyword": "yoga"})
	assert.Equal(t, `No events found with keyword "yoga".`, out)

	out = f.call(t, "search_events_by_keyword", map[string]any{"calendar_id": "primary"})
	assert.True(t, strings.HasPrefix(out, "Error: "), out)
}

func TestSmartEventSearch(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "smart_event_search", map[string]any{"description": "meeting with Alice"})
	assert.Contains(t, out, "Found 2 events matching \"meeting with Alice\"")
	// both match on a word; the Monday review is later, so it comes first
	assert.Less(t, strings.Index(out, "Event ID: review"), strings.Index(out, "Event ID: lunchalice"))
	assert.Contains(t, out, "Calendar: work@example.com")
	assert.Contains(t, out, "Ask the user which one they mean")

	out = f.call(t, "smart_event_search", map[string]any{"description": "lunch with alice"})
	assert.Contains(t, out, "Found 2 events")
	assert.Less(t, strings.Index(out, "Event ID: lunchalice"), strings.Index(out, "Event ID: review"))

	out = f.call(t, "smart_event_search", map[string]any{"description": "dentist", "calendar_id": "primary"})
	assert.Contains(t, out, "Found 1 event matching \"dentist\"")
	assert.NotContains(t, out, "Ask the user")

	out = f.call(t, "smart_event_search", map[string]any{"description": "bank holiday"})
	assert.Contains(t, out, "No events match")

	out = f.call(t, "smart_event_search", map[string]any{"description": "bank holiday", "search_recent": false})
	assert.Contains(t, out, "Event ID: bankholiday")

	out = f.call(t, "smart_event_search", map[string]any{"description": " "})
	assert.Equal(t, "Error: description is required", out)
}

func TestGetEventDetails(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "get_event_details", map[string]any{"calendar_id": "primary", "event_id": "standup"})
	assert.Contains(t, out, "**Event Details**\n- **Title:** Team sync\n")
	assert.Contains(t, out, "- **Description:** Weekly engineering sync\n")
	assert.Contains(t, out, "- **Event ID:** standup\n")

	out = f.call(t, "get_event_details", map[string]any{"calendar_id": "primary", "event_id": "nope"})
	assert.Equal(t, "Error: event nope not found in calendar primary. Search for the event again to get a current ID", out)

	out = f.call(t, "get_event_details", map[string]any{"calendar_id": "primary"})
	assert.Equal(t, "Error: please provide an event ID", out)
}

func TestMoveEvent(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "move_event", map[string]any{
		"calendar_id": "primary",
		"event_id":    "dentist",
		"new_start":   "2025-07-27T09:00:00+01:00",
		"new_end":     "2025-07-27T09:45:00+01:00",
	})
	assert.Equal(t, "Event 'Dentist' moved to 27 July 2025, 09:00 AM - 27 July 2025, 09:45 AM.\nEvent ID: dentist", out)

	ev, err := f.backend.GetEvent(context.Background(), "primary", "dentist")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-27T08:00:00Z", ev.Start.Time().UTC().Format(time.RFC3339))
	assert.Equal(t, "Europe/London", ev.Start.TimeZone)

	out = f.call(t, "move_event", map[string]any{
		"calendar_id": "primary",
		"event_id":    "dentist",
		"new_start":   "2025-07-27T10:00:00+01:00",
		"new_end":     "2025-07-27T09:00:00+01:00",
	})
	assert.Equal(t, "Error: new_end must be after new_start", out)

	out = f.call(t, "move_event", map[string]any{
		"calendar_id": "primary",
		"event_id":    "dentist",
		"new_start":   "whenever",
		"new_end":     "2025-07-27T09:00:00+01:00",
	})
	assert.True(t, strings.HasPrefix(out, "Error: could not understand new_start"), out)
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "create_event", map[string]any{
		"calendar_id": "primary",
		"summary":     "Coffee with Bob",
		"start":       "2025-07-28T09:00:00+01:00",
		"end":         "2025-07-28T09:30:00+01:00",
		"location":    "Monmouth",
	})
	assert.Contains(t, out, "**Event Created!**")
	assert.Contains(t, out, "- **Date:** 28 July 2025, 09:00 AM to 28 July 2025, 09:30 AM (Europe/London)")
	assert.Contains(t, out, "- **Location:** Monmouth")

	events, err := f.backend.ListEvents(context.Background(), "primary",
		time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, out, "- **Event ID:** "+events[0].ID)

	out = f.call(t, "create_event", map[string]any{
		"calendar_id": "primary",
		"summary":     "Standup",
		"start":       "2025-07-29T09:00:00+01:00",
		"end":         "2025-07-29T09:15:00+01:00",
		"minimal":     true,
	})
	assert.True(t, strings.HasPrefix(out, "Event 'Standup' created. Event ID: "), out)

	out = f.call(t, "create_event", map[string]any{
		"calendar_id": "primary",
		"summary":     "Backwards",
		"start":       "2025-07-29T10:00:00+01:00",
		"end":         "2025-07-29T09:00:00+01:00",
	})
	assert.Equal(t, "Error: end must be after start", out)

	out = f.call(t, "create_event", map[string]any{
		"calendar_id": "primary",
		"summary":     "Zero length",
		"start":       "2025-07-29T10:00:00+01:00",
		"end":         "2025-07-29T10:00:00+01:00",
	})
	assert.Equal(t, "Error: end must be after start", out)

	events, err = f.backend.ListEvents(context.Background(), "primary",
		time.Date(2025, 7, 29, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1, "rejected events are not stored")
	assert.Equal(t, "Standup", events[0].Summary)

	out = f.call(t, "create_event", map[string]any{"calendar_id": "primary", "summary": "No times"})
	assert.Equal(t, "Error: start is required", out)
}

func TestUpdateEvent(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "update_event", map[string]any{
		"calendar_id": "primary",
		"event_id":    "gym",
		"summary":     "Gym with Sam",
		"location":    "",
		"minimal":     true,
	})
	assert.Equal(t, "Event 'Gym with Sam' updated. Event ID: gym", out)

	out = f.call(t, "update_event", map[string]any{
		"calendar_id": "primary",
		"event_id":    "gym",
		"end":         "2025-07-26T19:30:00+01:00",
	})
	assert.Equal(t, "Event updated: Gym with Sam (26 July 2025, 06:00 PM to 26 July 2025, 07:30 PM). Changed: end.\nEvent ID: gym", out)

	out = f.call(t, "update_event", map[string]any{"calendar_id": "primary", "event_id": "gym"})
	assert.True(t, strings.HasPrefix(out, "Error: nothing to update"), out)

	out = f.call(t, "update_event", map[string]any{"calendar_id": "primary", "event_id": "gone", "summary": "x"})
	assert.True(t, strings.HasPrefix(out, "Error: event gone not found"), out)
}

func TestDeleteEvent(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "delete_event", map[string]any{"calendar_id": "primary", "event_id": "gym"})
	assert.Equal(t, "Event gym deleted from primary", out)

	out = f.call(t, "delete_event", map[string]any{"calendar_id": "primary", "event_id": "gym"})
	assert.True(t, strings.HasPrefix(out, "Error: event gym not found"), out)

	out = f.call(t, "delete_event", map[string]any{"calendar_id": "primary", "event_id": "dentist", "minimal": true})
	assert.Equal(t, "Event deleted. Event ID: dentist", out)
}

func TestDeleteEventsInRange(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "delete_events_in_range", map[string]any{
		"calendar_id": "primary",
		"time_min":    "2025-07-26T14:00:00+01:00",
		"time_max":    "2025-07-26T19:00:00+01:00",
	})
	assert.Equal(t, "Deleted 3 event(s) from primary between 26 July 2025, 02:00 PM and 26 July 2025, 07:00 PM:\n"+
		"- Event ID: standup\n- Event ID: dentist\n- Event ID: gym\n", out)

	out = f.call(t, "list_events", map[string]any{
		"calendar_id": "primary",
		"time_min":    "2025-07-26T14:00:00+01:00",
		"time_max":    "2025-07-26T19:00:00+01:00",
	})
	assert.Equal(t, "No events found for this period.", out)

	out = f.call(t, "delete_events_in_range", map[string]any{
		"calendar_id": "primary",
		"time_min":    "2025-07-26T14:00:00+01:00",
		"time_max":    "2025-07-26T19:00:00+01:00",
	})
	assert.Equal(t, "No events found to delete in the specified range.", out)
}

func TestDeleteEventsInRange_RefusesVagueRanges(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "delete_events_in_range", map[string]any{"calendar_id": "primary"})
	assert.True(t, strings.HasPrefix(out, "Error: please specify a valid time range"), out)

	out = f.call(t, "delete_events_in_range", map[string]any{"calendar_id": "primary", "date": "someday soonish"})
	assert.True(t, strings.HasPrefix(out, "Error: could not understand the time range"), out)

	events, err := f.backend.ListEvents(context.Background(), "primary",
		time.Date(2025, 7, 26, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 27, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestGetEventsDuration(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "get_events_duration", map[string]any{"calendar_id": "primary"})
	assert.Equal(t, "Total scheduled time: 3 hours 15 minutes (4 events).", out)

	out = f.call(t, "get_events_duration", map[string]any{"calendar_id": "primary", "date": "tomorrow"})
	assert.Equal(t, "Total scheduled time: 0 hours 0 minutes (0 events).", out)
}

func TestGetFreeBusy(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "get_free_busy", map[string]any{"calendar_id": "primary"})
	assert.True(t, strings.HasPrefix(out, "Busy slots for 26 July 2025:\n"), out)
	assert.Contains(t, out, "- 26 July 2025, 04:00 PM to 26 July 2025, 04:45 PM (Dentist)\n")

	out = f.call(t, "get_free_busy", map[string]any{"calendar_id": "primary", "date": "2025-07-27"})
	assert.Equal(t, "You are free all day on 27 July 2025.", out)
}
