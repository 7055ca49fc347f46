package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PrimaryCalendarID is the alias of the account's main calendar.
const PrimaryCalendarID = "primary"

// MemoryBackend is an in-process Backend. It serves offline demos and
// tests, and it resolves "primary" like the Google API does.
type MemoryBackend struct {
	mu        sync.RWMutex
	calendars []CalendarInfo
	events    map[string]map[string]Event
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend returns a backend holding the given calendars plus a
// primary calendar when none of them is marked primary.
func NewMemoryBackend(calendars ...CalendarInfo) *MemoryBackend {
	m := &MemoryBackend{events: make(map[string]map[string]Event)}

	hasPrimary := false
	for _, c := range calendars {
		hasPrimary = hasPrimary || c.Primary || c.ID == PrimaryCalendarID
	}
	if !hasPrimary {
		m.addCalendar(CalendarInfo{ID: PrimaryCalendarID, Summary: "Primary", Primary: true, AccessRole: "owner"})
	}
	for _, c := range calendars {
		m.addCalendar(c)
	}
	return m
}

func (m *MemoryBackend) addCalendar(c CalendarInfo) {
	if c.AccessRole == "" {
		c.AccessRole = "owner"
	}
	m.calendars = append(m.calendars, c)
	m.events[c.ID] = make(map[string]Event)
}

// resolve maps "primary" to the primary calendar's ID. Callers hold mu.
func (m *MemoryBackend) resolve(calendarID string) (string, error) {
	if calendarID == "" {
		calendarID = PrimaryCalendarID
	}
	if _, ok := m.events[calendarID]; ok {
		return calendarID, nil
	}
	if calendarID == PrimaryCalendarID {
		for _, c := range m.calendars {
			if c.Primary {
				return c.ID, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrCalendarNotFound, calendarID)
}

// ListCalendars returns the calendars in insertion order.
func (m *MemoryBackend) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]CalendarInfo, len(m.calendars))
	copy(out, m.calendars)
	return out, nil
}

// ListEvents returns events overlapping [timeMin, timeMax) ordered by start.
func (m *MemoryBackend) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, err := m.resolve(calendarID)
	if err != nil {
		return nil, err
	}

	var out []Event
	for _, ev := range m.events[id] {
		if ev.Overlaps(timeMin, timeMax) {
			ev.CalendarID = calendarID
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].Start.Time(), out[j].Start.Time()
		if si.Equal(sj) {
			return out[i].ID < out[j].ID
		}
		return si.Before(sj)
	})
	return out, nil
}

// GetEvent returns one event.
func (m *MemoryBackend) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, err := m.resolve(calendarID)
	if err != nil {
		return nil, err
	}
	ev, ok := m.events[id][eventID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, eventID)
	}
	ev.CalendarID = calendarID
	return &ev, nil
}

// CreateEvent stores a new event under a generated ID.
func (m *MemoryBackend) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	ev := Event{
		ID:          newEventID(),
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Status:      "confirmed",
		Start:       EventTime{DateTime: input.Start, TimeZone: input.TimeZone},
		End:         EventTime{DateTime: input.End, TimeZone: input.TimeZone},
	}
	if err := m.put(calendarID, ev); err != nil {
		return nil, err
	}
	ev.CalendarID = calendarID
	return &ev, nil
}

// Put stores ev as is, replacing any event with the same ID. An empty ID is
// generated.
func (m *MemoryBackend) Put(calendarID string, ev Event) (Event, error) {
	if ev.ID == "" {
		ev.ID = newEventID()
	}
	if ev.Status == "" {
		ev.Status = "confirmed"
	}
	if err := m.put(calendarID, ev); err != nil {
		return Event{}, err
	}
	ev.CalendarID = calendarID
	return ev, nil
}

func (m *MemoryBackend) put(calendarID string, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.resolve(calendarID)
	if err != nil {
		return err
	}
	ev.CalendarID = id
	m.events[id][ev.ID] = ev
	return nil
}

// UpdateEvent applies patch to a stored event.
func (m *MemoryBackend) UpdateEvent(ctx context.Context, calendarID, eventID string, patch EventPatch) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.resolve(calendarID)
	if err != nil {
		return nil, err
	}
	ev, ok := m.events[id][eventID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, eventID)
	}
	updated, err := patch.Apply(ev)
	if err != nil {
		return nil, err
	}
	m.events[id][eventID] = updated
	updated.CalendarID = calendarID
	return &updated, nil
}

// DeleteEvent removes an event.
func (m *MemoryBackend) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.resolve(calendarID)
	if err != nil {
		return err
	}
	if _, ok := m.events[id][eventID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, eventID)
	}
	delete(m.events[id], eventID)
	return nil
}

// BatchDelete deletes every event overlapping the range.
func (m *MemoryBackend) BatchDelete(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]string, error) {
	return deleteInRange(ctx, m, calendarID, timeMin, timeMax)
}

// newEventID returns an ID in the character set Google uses for event IDs.
func newEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
