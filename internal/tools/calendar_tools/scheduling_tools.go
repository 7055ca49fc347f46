package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/scheduler/internal/instrumentation"
	"github.com/teemow/scheduler/internal/timerange"
	"github.com/teemow/scheduler/internal/tools"
	"github.com/teemow/scheduler/internal/tools/common"
)

func (h *handlers) schedulingTools() []tools.Tool {
	deleteRangeTool := define("delete_events_in_range",
		"Delete every event of a calendar in a day or time range, e.g. \"delete all events between 2 and 7pm tomorrow\". A range is required.",
		args(calendarIDArg(true)),
		rangeArgs(),
		changes(true),
	)

	durationTool := define("get_events_duration",
		"Add up how much time the events of a day or time range take (default today).",
		args(calendarIDArg(true)),
		rangeArgs(),
		readOnly(),
	)

	freeBusyTool := define("get_free_busy",
		"Show the busy slots of one day (default today).",
		args(
			calendarIDArg(true),
			mcp.WithString("date",
				mcp.Description("The day: today, tomorrow, yesterday or YYYY-MM-DD."),
			),
		),
		readOnly(),
	)

	return []tools.Tool{
		h.wrap(deleteRangeTool, instrumentation.OperationBatchDelete, h.BatchTimeout, h.handleDeleteEventsInRange),
		h.wrap(durationTool, instrumentation.OperationList, h.Timeout, h.handleEventsDuration),
		h.wrap(freeBusyTool, instrumentation.OperationList, h.Timeout, h.handleFreeBusy),
	}
}

func (h *handlers) handleDeleteEventsInRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := h.reference()
	r, given := h.requestRange(ref, request)
	if !given {
		return common.Errorf("please specify a valid time range with date or time_min and time_max"), nil
	}
	if r.Fallback {
		return common.Errorf("could not understand the time range; nothing was deleted. Use RFC3339 such as 2025-07-26T14:00:00+01:00"), nil
	}

	calendarID := h.calendarID(request)
	deleted, err := h.Backend.BatchDelete(ctx, calendarID, r.Start, r.End)
	common.RecordAffected(ctx, deleted...)
	if err != nil && len(deleted) == 0 {
		return common.Errorf("failed to delete events: %v", err), nil
	}
	if len(deleted) == 0 {
		return mcp.NewToolResultText("No events found to delete in the specified range."), nil
	}

	text := formatDeleted(ref, calendarID, r, deleted)
	if err != nil {
		text += fmt.Sprintf("Some events could not be deleted: %v\n", err)
	}
	return mcp.NewToolResultText(text), nil
}

func (h *handlers) handleEventsDuration(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := h.reference()
	r, _ := h.requestRange(ref, request)

	events, err := h.Backend.ListEvents(ctx, h.calendarID(request), r.Start, r.End)
	if err != nil {
		return common.Errorf("failed to list events: %v", err), nil
	}

	var total time.Duration
	for _, ev := range events {
		total += ev.Duration()
	}
	return mcp.NewToolResultText(fmt.Sprintf("Total scheduled time: %s (%d events).", formatDuration(total), len(events))), nil
}

func (h *handlers) handleFreeBusy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := h.reference()
	day := ref.Today()
	if date := strings.TrimSpace(request.GetString("date", "")); date != "" {
		day = ref.Day(timerange.Resolve(ref, date).Start)
	}

	events, err := h.Backend.ListEvents(ctx, h.calendarID(request), day.Start, day.End)
	if err != nil {
		return common.Errorf("failed to list events: %v", err), nil
	}
	if len(events) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("You are free all day on %s.", ref.DisplayDate(day.Start))), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Busy slots for %s:\n", ref.DisplayDate(day.Start))
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s (%s)\n", span(ref, ev), title(ev))
	}
	return mcp.NewToolResultText(b.String()), nil
}
