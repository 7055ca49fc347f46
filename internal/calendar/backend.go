package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teemow/scheduler/internal/batch"
)

var (
	// ErrNotFound is returned when an event does not exist.
	ErrNotFound = errors.New("event not found")

	// ErrCalendarNotFound is returned when a calendar does not exist or is
	// not visible to the account.
	ErrCalendarNotFound = errors.New("calendar not found")

	// ErrInvalidEvent is returned for event bodies a backend cannot store.
	ErrInvalidEvent = errors.New("invalid event")
)

// Backend is the calendar service the tools operate on.
//
// Every time passed in is an absolute instant; backends must not
// reinterpret it in another timezone. ListEvents returns events that overlap
// [timeMin, timeMax) ordered by start.
type Backend interface {
	ListCalendars(ctx context.Context) ([]CalendarInfo, error)
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error)
	CreateEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error

	// BatchDelete deletes every event overlapping [timeMin, timeMax) and
	// returns the deleted IDs. On partial failure it returns the IDs that
	// were deleted together with an error naming the rest.
	BatchDelete(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]string, error)
}

type eventDeleter interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// deleteInRange lists the range and deletes each event in turn. A deadline
// stops further deletes; the events already deleted are still reported.
func deleteInRange(ctx context.Context, b eventDeleter, calendarID string, timeMin, timeMax time.Time) ([]string, error) {
	events, err := b.ListEvents(ctx, calendarID, timeMin, timeMax)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}

	results := batch.ProcessBatchContext(ctx, ids, func(ctx context.Context, id string) (string, error) {
		if err := b.DeleteEvent(ctx, calendarID, id); err != nil {
			return "", err
		}
		return "deleted", nil
	})

	deleted := batch.Succeeded(results)
	if err := batch.Err(results); err != nil {
		s := batch.Summarize(results)
		return deleted, fmt.Errorf("deleted %d of %d events: %w", s.Successful, s.Total, err)
	}
	return deleted, nil
}
