package calendar

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/scheduler/internal/instrumentation"
)

// Instrument wraps a Backend so that every call gets a span and is counted
// in the calendar operation metrics. backend names the implementation in
// labels ("google", "memory"). A nil metrics recorder only traces.
func Instrument(next Backend, backend string, metrics *instrumentation.Metrics) Backend {
	return &instrumented{next: next, backend: backend, metrics: metrics}
}

type instrumented struct {
	next    Backend
	backend string
	metrics *instrumentation.Metrics
}

func (b *instrumented) observe(ctx context.Context, op, calendarID string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := instrumentation.StartCalendarSpan(ctx, b.backend, op, calendarID, attrs...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	b.metrics.RecordCalendarOperation(ctx, b.backend, op, calendarID, status, time.Since(start))
	return err
}

func (b *instrumented) ListCalendars(ctx context.Context) (out []CalendarInfo, err error) {
	err = b.observe(ctx, instrumentation.OperationListCalendars, "", func(ctx context.Context) error {
		out, err = b.next.ListCalendars(ctx)
		return err
	})
	return out, err
}

func (b *instrumented) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) (out []Event, err error) {
	err = b.observe(ctx, instrumentation.OperationList, calendarID, func(ctx context.Context) error {
		out, err = b.next.ListEvents(ctx, calendarID, timeMin, timeMax)
		return err
	})
	return out, err
}

func (b *instrumented) GetEvent(ctx context.Context, calendarID, eventID string) (out *Event, err error) {
	err = b.observe(ctx, instrumentation.OperationGet, calendarID, func(ctx context.Context) error {
		out, err = b.next.GetEvent(ctx, calendarID, eventID)
		return err
	}, attribute.String(instrumentation.SpanAttrEventID, eventID))
	return out, err
}

func (b *instrumented) CreateEvent(ctx context.Context, calendarID string, input EventInput) (out *Event, err error) {
	err = b.observe(ctx, instrumentation.OperationCreate, calendarID, func(ctx context.Context) error {
		out, err = b.next.CreateEvent(ctx, calendarID, input)
		return err
	})
	return out, err
}

func (b *instrumented) UpdateEvent(ctx context.Context, calendarID, eventID string, patch EventPatch) (out *Event, err error) {
	err = b.observe(ctx, instrumentation.OperationUpdate, calendarID, func(ctx context.Context) error {
		out, err = b.next.UpdateEvent(ctx, calendarID, eventID, patch)
		return err
	}, attribute.String(instrumentation.SpanAttrEventID, eventID))
	return out, err
}

func (b *instrumented) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	return b.observe(ctx, instrumentation.OperationDelete, calendarID, func(ctx context.Context) error {
		return b.next.DeleteEvent(ctx, calendarID, eventID)
	}, attribute.String(instrumentation.SpanAttrEventID, eventID))
}

func (b *instrumented) BatchDelete(ctx context.Context, calendarID string, timeMin, timeMax time.Time) (out []string, err error) {
	err = b.observe(ctx, instrumentation.OperationBatchDelete, calendarID, func(ctx context.Context) error {
		out, err = b.next.BatchDelete(ctx, calendarID, timeMin, timeMax)
		return err
	})
	return out, err
}
