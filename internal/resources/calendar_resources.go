package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/scheduler/internal/calendar"
	"github.com/teemow/scheduler/internal/timerange"
)

const (
	// CalendarsURI lists the visible calendars.
	CalendarsURI = "calendar://calendars"
	// TodayURI lists today's events of the default calendar.
	TodayURI = "calendar://today"
)

// Source is what the resources read from.
type Source struct {
	Backend           calendar.Backend
	Location          *time.Location
	DefaultCalendarID string
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

type calendarEntry struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	TimeZone   string `json:"timeZone,omitempty"`
	Primary    bool   `json:"primary,omitempty"`
	AccessRole string `json:"accessRole,omitempty"`
}

type eventEntry struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Start    string `json:"start"`
	End      string `json:"end"`
	AllDay   bool   `json:"allDay,omitempty"`
	Location string `json:"location,omitempty"`
}

type agenda struct {
	CalendarID string       `json:"calendarId"`
	Date       string       `json:"date"`
	TimeZone   string       `json:"timeZone"`
	Events     []eventEntry `json:"events"`
}

// RegisterCalendarResources registers the calendar resources on s.
func RegisterCalendarResources(s *mcpserver.MCPServer, src Source) error {
	if src.Backend == nil {
		return fmt.Errorf("calendar resources need a backend")
	}

	calendarsResource := mcp.NewResource(
		CalendarsURI,
		"Calendars",
		mcp.WithResourceDescription("Calendars visible to the configured account"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(calendarsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, func() (any, error) { return src.calendars(ctx) })
	})

	todayResource := mcp.NewResource(
		TodayURI,
		"Today's Agenda",
		mcp.WithResourceDescription("Today's events on the default calendar, in the configured timezone"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(todayResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, func() (any, error) { return src.today(ctx) })
	})

	return nil
}

func (src Source) calendars(ctx context.Context) ([]calendarEntry, error) {
	cals, err := src.Backend.ListCalendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	out := make([]calendarEntry, 0, len(cals))
	for _, c := range cals {
		out = append(out, calendarEntry{
			ID:         c.ID,
			Summary:    c.Summary,
			TimeZone:   c.TimeZone,
			Primary:    c.Primary,
			AccessRole: c.AccessRole,
		})
	}
	return out, nil
}

func (src Source) today(ctx context.Context) (*agenda, error) {
	now := time.Now
	if src.Now != nil {
		now = src.Now
	}
	calendarID := src.DefaultCalendarID
	if calendarID == "" {
		calendarID = calendar.PrimaryCalendarID
	}

	ref := timerange.NewReference(now(), src.Location)
	day := ref.Today()
	events, err := src.Backend.ListEvents(ctx, calendarID, day.Start, day.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list today's events: %w", err)
	}

	a := &agenda{
		CalendarID: calendarID,
		Date:       day.Start.Format(time.DateOnly),
		TimeZone:   day.Start.Location().String(),
		Events:     make([]eventEntry, 0, len(events)),
	}
	for _, ev := range events {
		e := eventEntry{
			ID:       ev.ID,
			Summary:  ev.Summary,
			AllDay:   ev.Start.AllDay(),
			Location: ev.Location,
		}
		if e.AllDay {
			e.Start, e.End = ev.Start.Date, ev.End.Date
		} else {
			e.Start = ev.Start.Time().In(day.Start.Location()).Format(timerange.Layout)
			e.End = ev.End.Time().In(day.Start.Location()).Format(timerange.Layout)
		}
		a.Events = append(a.Events, e)
	}
	return a, nil
}

func jsonContents(uri string, load func() (any, error)) ([]mcp.ResourceContents, error) {
	data, err := load()
	if err != nil {
		return nil, err
	}
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
