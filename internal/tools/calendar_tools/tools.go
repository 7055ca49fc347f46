package calendar_tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/teemow/scheduler/internal/calendar"
	"github.com/teemow/scheduler/internal/timerange"
	"github.com/teemow/scheduler/internal/tools"
	"github.com/teemow/scheduler/internal/tools/common"
)

// Deps is what the calendar tools need from the application.
type Deps struct {
	Backend calendar.Backend

	// Location is the reference timezone. Nil means Europe/London.
	Location *time.Location
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time

	// DefaultCalendarID is used when a tool call names no calendar.
	DefaultCalendarID string

	// Timeout bounds single-event tools, BatchTimeout the tools that touch
	// many events. Zero selects the defaults.
	Timeout      time.Duration
	BatchTimeout time.Duration

	// Observer receives metrics and audit records. May be nil.
	Observer common.Observer
}

type handlers struct {
	Deps
}

// Register adds every calendar tool to r.
func Register(r *tools.Registry, d Deps) error {
	ts, err := Tools(d)
	if err != nil {
		return err
	}
	if err := r.Register(ts...); err != nil {
		return fmt.Errorf("failed to register calendar tools: %w", err)
	}
	return nil
}

// Tools returns the calendar tools in catalogue order.
func Tools(d Deps) ([]tools.Tool, error) {
	if d.Backend == nil {
		return nil, fmt.Errorf("calendar tools need a backend")
	}
	if d.Location == nil {
		loc, err := time.LoadLocation(timerange.DefaultTimeZone)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", timerange.DefaultTimeZone, err)
		}
		d.Location = loc
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.DefaultCalendarID == "" {
		d.DefaultCalendarID = calendar.PrimaryCalendarID
	}
	if d.Timeout <= 0 {
		d.Timeout = common.DefaultTimeout
	}
	if d.BatchTimeout <= 0 {
		d.BatchTimeout = common.DefaultBatchTimeout
	}

	h := &handlers{Deps: d}
	var out []tools.Tool
	out = append(out, h.calendarListTools()...)
	out = append(out, h.eventTools()...)
	out = append(out, h.schedulingTools()...)
	return out, nil
}

// wrap applies the deadline and instrumentation every tool gets.
func (h *handlers) wrap(def mcp.Tool, operation string, timeout time.Duration, handler server.ToolHandlerFunc) tools.Tool {
	name := def.Name
	return tools.Tool{
		Definition: def,
		Handler: common.InstrumentedToolHandler(name, operation, h.Observer,
			common.WithTimeout(name, timeout, handler)),
	}
}

func (h *handlers) reference() timerange.Reference {
	return timerange.NewReference(h.Now(), h.Location)
}

func (h *handlers) calendarID(request mcp.CallToolRequest) string {
	return common.CalendarID(request, h.DefaultCalendarID)
}

// requestRange reads date, or time_min and time_max, from the request. ok is
// false when none of them was given; the range is then today.
func (h *handlers) requestRange(ref timerange.Reference, request mcp.CallToolRequest) (r timerange.Range, ok bool) {
	if date := strings.TrimSpace(request.GetString("date", "")); date != "" {
		return timerange.Resolve(ref, date), true
	}
	if min := strings.TrimSpace(request.GetString("time_min", "")); min != "" {
		return timerange.Between(ref, min, request.GetString("time_max", "")), true
	}
	return ref.Today(), false
}

// instant parses an event start or end argument.
func instant(ref timerange.Reference, request mcp.CallToolRequest, key string) (time.Time, error) {
	v := strings.TrimSpace(request.GetString(key, ""))
	if v == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	t, ok := timerange.Instant(ref, v)
	if !ok {
		return time.Time{}, fmt.Errorf("could not understand %s %q; use RFC3339 such as 2025-07-26T14:00:00+01:00", key, v)
	}
	return t, nil
}

// Shared argument definitions.

func calendarIDArg(required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{
		mcp.Description("Calendar ID ('primary' for the main calendar). Use list_calendars with show_ids to find others."),
	}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithString("calendar_id", opts...)
}

func rangeArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("date",
			mcp.Description("A day: today, tomorrow, yesterday, next week, last week or YYYY-MM-DD. Takes precedence over time_min/time_max."),
		),
		mcp.WithString("time_min",
			mcp.Description("Range start, RFC3339 with offset (e.g. 2025-07-26T14:00:00+01:00) or a day as for date."),
		),
		mcp.WithString("time_max",
			mcp.Description("Range end, RFC3339 with offset. Defaults to the end of time_min's day."),
		),
	}
}

func minimalArg() mcp.ToolOption {
	return mcp.WithBoolean("minimal",
		mcp.Description("Return a short confirmation instead of the full summary."),
	)
}

// define builds a tool definition from groups of options.
func define(name, description string, groups ...[]mcp.ToolOption) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(description)}
	for _, g := range groups {
		opts = append(opts, g...)
	}
	return mcp.NewTool(name, opts...)
}

func args(opts ...mcp.ToolOption) []mcp.ToolOption {
	return opts
}

func readOnly() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	}
}

func changes(destructive bool) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(destructive),
	}
}
