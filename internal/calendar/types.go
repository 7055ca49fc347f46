package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of all-day event dates.
const DateLayout = "2006-01-02"

// EventTime is either a timed instant or an all-day date.
type EventTime struct {
	// DateTime is set for timed events.
	DateTime time.Time
	// Date is set for all-day events, as YYYY-MM-DD.
	Date string
	// TimeZone is the IANA zone the event was created in, if known.
	TimeZone string
}

// AllDay reports whether t is a date without a time of day.
func (t EventTime) AllDay() bool {
	return t.DateTime.IsZero() && t.Date != ""
}

// IsZero reports whether neither a time nor a date is set.
func (t EventTime) IsZero() bool {
	return t.DateTime.IsZero() && t.Date == ""
}

// Time returns the instant t denotes. All-day dates start at midnight in
// their own timezone, or UTC when it is unknown.
func (t EventTime) Time() time.Time {
	if !t.DateTime.IsZero() || t.Date == "" {
		return t.DateTime
	}
	loc := time.UTC
	if t.TimeZone != "" {
		if l, err := time.LoadLocation(t.TimeZone); err == nil {
			loc = l
		}
	}
	d, err := time.ParseInLocation(DateLayout, t.Date, loc)
	if err != nil {
		return time.Time{}
	}
	return d
}

// Event is a transient copy of a calendar event.
type Event struct {
	ID          string
	CalendarID  string
	Summary     string
	Description string
	Location    string
	Status      string
	Start       EventTime
	End         EventTime
}

// Duration returns the length of the event.
func (e Event) Duration() time.Duration {
	start, end := e.Start.Time(), e.End.Time()
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// Overlaps reports whether the event intersects [min, max). An event that
// ends exactly at min does not overlap.
func (e Event) Overlaps(min, max time.Time) bool {
	start, end := e.Start.Time(), e.End.Time()
	if end.IsZero() {
		end = start
	}
	return end.After(min) && start.Before(max)
}

// EventInput is the body of a new timed event.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// Validate checks the fields every backend requires.
func (in EventInput) Validate() error {
	if strings.TrimSpace(in.Summary) == "" {
		return fmt.Errorf("%w: summary is required", ErrInvalidEvent)
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidEvent)
	}
	if !in.End.After(in.Start) {
		return fmt.Errorf("%w: end must be after start", ErrInvalidEvent)
	}
	return nil
}

// EventPatch changes selected fields of an existing event. Nil fields are
// left untouched; a pointer to "" clears a text field.
type EventPatch struct {
	Summary     *string
	Description *string
	Location    *string
	Start       *time.Time
	End         *time.Time
	TimeZone    string
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields lists the names of the fields the patch changes.
func (p EventPatch) Fields() []string {
	var fields []string
	if p.Summary != nil {
		fields = append(fields, "summary")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Location != nil {
		fields = append(fields, "location")
	}
	if p.Start != nil {
		fields = append(fields, "start")
	}
	if p.End != nil {
		fields = append(fields, "end")
	}
	return fields
}

// Apply returns a copy of e with the patch applied. It fails when the result
// would end before it starts.
func (p EventPatch) Apply(e Event) (Event, error) {
	if p.Summary != nil {
		e.Summary = *p.Summary
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Start != nil {
		e.Start = EventTime{DateTime: *p.Start, TimeZone: p.TimeZone}
	}
	if p.End != nil {
		e.End = EventTime{DateTime: *p.End, TimeZone: p.TimeZone}
	}
	if start, end := e.Start.Time(), e.End.Time(); !start.IsZero() && !end.IsZero() && !end.After(start) {
		return Event{}, fmt.Errorf("%w: end must be after start", ErrInvalidEvent)
	}
	return e, nil
}

// CalendarInfo represents information about a calendar
type CalendarInfo struct {
	ID          string
	Summary     string
	Description string
	TimeZone    string
	Primary     bool
	AccessRole  string // "owner", "writer", "reader", "freeBusyReader"
}
