package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/scheduler/internal/google"
	"github.com/teemow/scheduler/internal/timerange"
)

// GoogleClient is the Backend for the Google Calendar API.
type GoogleClient struct {
	svc     *calendar.Service
	account string
}

var _ Backend = (*GoogleClient)(nil)

// NewGoogleClient creates a client for account, authorized with the token
// the provider holds for it.
func NewGoogleClient(ctx context.Context, account string, conf *oauth2.Config, provider google.TokenProvider) (*GoogleClient, error) {
	if provider != nil && !provider.HasTokenForAccount(account) {
		return nil, errors.New(google.AuthenticationErrorMessage(account))
	}

	httpClient, err := google.NewHTTPClient(ctx, conf, provider, account)
	if err != nil {
		return nil, err
	}
	return NewGoogleClientWithOptions(ctx, account, option.WithHTTPClient(httpClient))
}

// NewGoogleClientWithOptions creates a client from raw API options, for
// example an endpoint override in tests.
func NewGoogleClientWithOptions(ctx context.Context, account string, opts ...option.ClientOption) (*GoogleClient, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &GoogleClient{svc: svc, account: account}, nil
}

// Account returns the account name this client is associated with
func (c *GoogleClient) Account() string {
	return c.account
}

// ListCalendars lists all calendars accessible to the user
func (c *GoogleClient) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var calendars []CalendarInfo
	err := c.svc.CalendarList.List().Pages(ctx, func(list *calendar.CalendarList) error {
		for _, entry := range list.Items {
			calendars = append(calendars, toCalendarInfo(entry))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return calendars, nil
}

// ListEvents lists single events overlapping [timeMin, timeMax), recurring
// events expanded, ordered by start.
func (c *GoogleClient) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(timerange.Layout)).
		TimeMax(timeMax.Format(timerange.Layout)).
		SingleEvents(true).
		OrderBy("startTime")

	var events []Event
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			events = append(events, toEvent(item, calendarID))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", mapError(err, ErrCalendarNotFound))
	}
	return events, nil
}

// GetEvent retrieves a specific event by ID
func (c *GoogleClient) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	item, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, mapError(err, ErrNotFound))
	}
	if item.Status == "cancelled" {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, ErrNotFound)
	}
	ev := toEvent(item, calendarID)
	return &ev, nil
}

// CreateEvent creates a new timed event
func (c *GoogleClient) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	body := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start:       toEventDateTime(input.Start, input.TimeZone),
		End:         toEventDateTime(input.End, input.TimeZone),
	}

	created, err := c.svc.Events.Insert(calendarID, body).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", mapError(err, ErrCalendarNotFound))
	}
	ev := toEvent(created, calendarID)
	return &ev, nil
}

// UpdateEvent patches the fields set in patch and leaves the rest as stored.
func (c *GoogleClient) UpdateEvent(ctx context.Context, calendarID, eventID string, patch EventPatch) (*Event, error) {
	body := &calendar.Event{}
	if patch.Summary != nil {
		body.Summary = *patch.Summary
		body.ForceSendFields = append(body.ForceSendFields, "Summary")
	}
	if patch.Description != nil {
		body.Description = *patch.Description
		body.ForceSendFields = append(body.ForceSendFields, "Description")
	}
	if patch.Location != nil {
		body.Location = *patch.Location
		body.ForceSendFields = append(body.ForceSendFields, "Location")
	}
	if patch.Start != nil {
		body.Start = toTimedPatch(*patch.Start, patch.TimeZone)
	}
	if patch.End != nil {
		body.End = toTimedPatch(*patch.End, patch.TimeZone)
	}
	if patch.Start != nil && patch.End != nil && !patch.End.After(*patch.Start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidEvent)
	}

	updated, err := c.svc.Events.Patch(calendarID, eventID, body).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", eventID, mapError(err, ErrNotFound))
	}
	ev := toEvent(updated, calendarID)
	return &ev, nil
}

// DeleteEvent deletes a calendar event
func (c *GoogleClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, mapError(err, ErrNotFound))
	}
	return nil
}

// BatchDelete deletes every event overlapping the range, one request per event.
func (c *GoogleClient) BatchDelete(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]string, error) {
	return deleteInRange(ctx, c, calendarID, timeMin, timeMax)
}

// mapError turns 404 and 410 responses into notFound, keeping the API error
// text for the message.
func mapError(err error, notFound error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("%w: %s", notFound, apiErr.Message)
		}
	}
	return err
}

// toTimedPatch is toEventDateTime for a PATCH body. It clears the stored
// all-day date, which Google otherwise keeps next to the new dateTime.
func toTimedPatch(t time.Time, tz string) *calendar.EventDateTime {
	dt := toEventDateTime(t, tz)
	dt.NullFields = append(dt.NullFields, "Date")
	return dt
}

func toEventDateTime(t time.Time, tz string) *calendar.EventDateTime {
	if tz == "" {
		tz = t.Location().String()
		if tz == "Local" {
			tz = ""
		}
	}
	return &calendar.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: tz,
	}
}

func toEventTime(dt *calendar.EventDateTime) EventTime {
	if dt == nil {
		return EventTime{}
	}
	et := EventTime{Date: dt.Date, TimeZone: dt.TimeZone}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			et.DateTime = t
			et.Date = ""
		}
	}
	return et
}

// toEvent converts a Google Calendar event to an Event
func toEvent(item *calendar.Event, calendarID string) Event {
	if item == nil {
		return Event{CalendarID: calendarID}
	}
	return Event{
		ID:          item.Id,
		CalendarID:  calendarID,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      item.Status,
		Start:       toEventTime(item.Start),
		End:         toEventTime(item.End),
	}
}

// toCalendarInfo converts a Google Calendar list entry to CalendarInfo
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:          entry.Id,
		Summary:     entry.Summary,
		Description: entry.Description,
		TimeZone:    entry.TimeZone,
		Primary:     entry.Primary,
		AccessRole:  entry.AccessRole,
	}
}
