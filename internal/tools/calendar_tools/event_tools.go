package calendar_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/scheduler/internal/calendar"
	"github.com/teemow/scheduler/internal/instrumentation"
	"github.com/teemow/scheduler/internal/resolve"
	"github.com/teemow/scheduler/internal/timerange"
	"github.com/teemow/scheduler/internal/tools"
	"github.com/teemow/scheduler/internal/tools/common"
)

// smartSearchSpan is how far either side of today smart_event_search looks
// when search_recent is false.
const smartSearchSpan = 1

func (h *handlers) eventTools() []tools.Tool {
	listEventsTool := define("list_events",
		"List the events of a calendar for a day or a time range. Defaults to today. Use it to show the schedule or to find event IDs.",
		args(calendarIDArg(true)),
		rangeArgs(),
		readOnly(),
	)

	searchTool := define("search_events_by_keyword",
		"Find events whose title or description contains a keyword, in a day or time range (default today).",
		args(
			calendarIDArg(true),
			mcp.WithString("keyword",
				mcp.Required(),
				mcp.Description("Text to look for, case-insensitive."),
			),
		),
		rangeArgs(),
		readOnly(),
	)

	smartSearchTool := define("smart_event_search",
		"Find the events a vague description refers to (\"my meeting with Alice\"), best match first. Searches every calendar unless calendar_id is given. Use before changing or deleting an event the user did not identify exactly.",
		args(
			mcp.WithString("description",
				mcp.Required(),
				mcp.Description("The user's description of the event."),
			),
			calendarIDArg(false),
			mcp.WithBoolean("search_recent",
				mcp.Description("Search from last week to next week (default true). False searches a year either side."),
			),
		),
		readOnly(),
	)

	getEventTool := define("get_event_details",
		"Show every detail of one event.",
		args(
			calendarIDArg(true),
			mcp.WithString("event_id",
				mcp.Required(),
				mcp.Description("The event ID."),
			),
		),
		readOnly(),
	)

	moveEventTool := define("move_event",
		"Reschedule an event to a new start and end time. Other fields are kept.",
		args(
			calendarIDArg(true),
			mcp.WithString("event_id",
				mcp.Required(),
				mcp.Description("The event ID."),
			),
			mcp.WithString("new_start",
				mcp.Required(),
				mcp.Description("New start, RFC3339 with offset."),
			),
			mcp.WithString("new_end",
				mcp.Required(),
				mcp.Description("New end, RFC3339 with offset."),
			),
		),
		changes(true),
	)

	createEventTool := define("create_event",
		"Create a timed event. Times are RFC3339 with offset in the user's timezone.",
		args(
			calendarIDArg(true),
			mcp.WithString("summary",
				mcp.Required(),
				mcp.Description("Event title."),
			),
			mcp.WithString("start",
				mcp.Required(),
				mcp.Description("Start, RFC3339 with offset."),
			),
			mcp.WithString("end",
				mcp.Required(),
				mcp.Description("End, RFC3339 with offset."),
			),
			mcp.WithString("description",
				mcp.Description("Event description."),
			),
			mcp.WithString("location",
				mcp.Description("Event location."),
			),
			minimalArg(),
		),
		changes(false),
	)

	updateEventTool := define("update_event",
		"Change selected fields of an event. Fields that are not given stay as they are.",
		args(
			calendarIDArg(true),
			mcp.WithString("event_id",
				mcp.Required(),
				mcp.Description("The event ID."),
			),
			mcp.WithString("summary",
				mcp.Description("New title."),
			),
			mcp.WithString("start",
				mcp.Description("New start, RFC3339 with offset."),
			),
			mcp.WithString("end",
				mcp.Description("New end, RFC3339 with offset."),
			),
			mcp.WithString("description",
				mcp.Description("New description."),
			),
			mcp.WithString("location",
				mcp.Description("New location."),
			),
			minimalArg(),
		),
		changes(true),
	)

	deleteEventTool := define("delete_event",
		"Delete one event by ID. Use when the user named a single event.",
		args(
			calendarIDArg(true),
			mcp.WithString("event_id",
				mcp.Required(),
				mcp.Description("The event ID."),
			),
			minimalArg(),
		),
		changes(true),
	)

	return []tools.Tool{
		h.wrap(listEventsTool, instrumentation.OperationList, h.Timeout, h.handleListEvents),
		h.wrap(searchTool, instrumentation.OperationList, h.Timeout, h.handleSearchEvents),
		h.wrap(smartSearchTool, instrumentation.OperationList, h.BatchTimeout, h.handleSmartSearch),
		h.wrap(getEventTool, instrumentation.OperationGet, h.Timeout, h.handleGetEvent),
		h.wrap(moveEventTool, instrumentation.OperationUpdate, h.Timeout, h.handleMoveEvent),
		h.wrap(createEventTool, instrumentation.OperationCreate, h.Timeout, h.handleCreateEvent),
		h.wrap(updateEventTool, instrumentation.OperationUpdate, h.Timeout, h.handleUpdateEvent),
		h.wrap(deleteEventTool, instrumentation.OperationDelete, h.Timeout, h.handleDeleteEvent),
	}
}

func (h *handlers) handleListEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := h.reference()
	calendarID := h.calendarID(request)
	r, _ := h.requestRange(ref, request)

	events, err := h.Backend.ListEvents(ctx, calendarID, r.Start, r.End)
	if err != nil {
		return common.Errorf("failed to list events: %v", err), nil
	}
	if len(events) == 0 {
		return mcp.NewToolResultText("No events found for this period."), nil
	}
	return mcp.NewToolResultText(formatEventList(ref, calendarID, r, events)), nil
}

func (h *handlers) handleSearchEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword, err := request.RequireString("keyword")
	if err != nil || strings.TrimSpace(keyword) == "" {
		return common.Errorf("keyword is required"), nil
	}

	ref := h.reference()
	calendarID := h.calendarID(request)
	r, _ := h.requestRange(ref, request)

	events, err := h.Backend.ListEvents(ctx, calendarID, r.Start, r.End)
	if err != nil {
		return common.Errorf("failed to search events: %v", err), nil
	}
	matches := resolve.Filter(keyword, events)
	if len(matches) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No events found with keyword %q.", keyword)), nil
	}
	return mcp.NewToolResultText(formatKeywordMatches(ref, keyword, matches)), nil
}

func (h *handlers) handleSmartSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description := strings.TrimSpace(request.GetString("description", ""))
	if description == "" {
		return common.Errorf("description is required"), nil
	}

	ref := h.reference()
	var window timerange.Range
	if request.GetBool("search_recent", true) {
		window = timerange.Between(ref, "last week", "next week")
	} else {
		window = timerange.Range{
			Start: ref.StartOfDay(ref.Now.AddDate(-smartSearchSpan, 0, 0)),
			End:   ref.EndOfDay(ref.Now.AddDate(smartSearchSpan, 0, 0)),
		}
	}

	calendarIDs := []string{strings.TrimSpace(request.GetString("calendar_id", ""))}
	if calendarIDs[0] == "" {
		calendars, err := h.Backend.ListCalendars(ctx)
		if err != nil {
			return common.Errorf("failed to list calendars: %v", err), nil
		}
		calendarIDs = calendarIDs[:0]
		for _, c := range calendars {
			calendarIDs = append(calendarIDs, c.ID)
		}
	}

	var candidates []calendar.Event
	var failures []string
	for _, id := range calendarIDs {
		events, err := h.Backend.ListEvents(ctx, id, window.Start, window.End)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		candidates = append(candidates, events...)
	}
	if len(failures) > 0 && len(failures) == len(calendarIDs) {
		return common.Errorf("failed to search events: %s", strings.Join(failures, "; ")), nil
	}

	matches := resolve.Rank(description, candidates)
	var text string
	if len(matches) == 0 {
		text = fmt.Sprintf("No events match %q between %s and %s.\n",
			description, ref.Display(window.Start), ref.Display(window.End))
	} else {
		text = formatMatches(ref, description, matches)
	}
	if len(failures) > 0 {
		text += "\nSome calendars could not be searched: " + strings.Join(failures, "; ") + "\n"
	}
	return mcp.NewToolResultText(text), nil
}

func (h *handlers) handleGetEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	eventID := strings.TrimSpace(request.GetString("event_id", ""))
	if eventID == "" {
		return common.Errorf("please provide an event ID"), nil
	}
	calendarID := h.calendarID(request)

	ev, err := h.Backend.GetEvent(ctx, calendarID, eventID)
	if err != nil {
		return eventError("get", calendarID, eventID, err), nil
	}
	return mcp.NewToolResultText(formatDetails(h.reference(), *ev)), nil
}

func (h *handlers) handleMoveEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	eventID := strings.TrimSpace(request.GetString("event_id", ""))
	if eventID == "" {
		return common.Errorf("please provide an event ID"), nil
	}
	ref := h.reference()
	start, err := instant(ref, request, "new_start")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	end, err := instant(ref, request, "new_end")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	if !end.After(start) {
		return common.Errorf("new_end must be after new_start"), nil
	}

	calendarID := h.calendarID(request)
	updated, err := h.Backend.UpdateEvent(ctx, calendarID, eventID, calendar.EventPatch{
		Start:    &start,
		End:      &end,
		TimeZone: h.Location.String(),
	})
	if err != nil {
		return eventError("move", calendarID, eventID, err), nil
	}
	common.RecordAffected(ctx, updated.ID)

	return mcp.NewToolResultText(fmt.Sprintf("Event '%s' moved to %s - %s.\nEvent ID: %s",
		title(*updated), ref.Display(start), ref.Display(end), updated.ID)), nil
}

func (h *handlers) handleCreateEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary := strings.TrimSpace(request.GetString("summary", ""))
	if summary == "" {
		return common.Errorf("summary is required"), nil
	}
	ref := h.reference()
	start, err := instant(ref, request, "start")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	end, err := instant(ref, request, "end")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	if !end.After(start) {
		return common.Errorf("end must be after start"), nil
	}

	calendarID := h.calendarID(request)
	created, err := h.Backend.CreateEvent(ctx, calendarID, calendar.EventInput{
		Summary:     summary,
		Description: request.GetString("description", ""),
		Location:    request.GetString("location", ""),
		Start:       start,
		End:         end,
		TimeZone:    h.Location.String(),
	})
	if err != nil {
		return common.Errorf("failed to create event: %v", err), nil
	}
	common.RecordAffected(ctx, created.ID)

	if request.GetBool("minimal", false) {
		return mcp.NewToolResultText(fmt.Sprintf("Event '%s' created. Event ID: %s", title(*created), created.ID)), nil
	}
	return mcp.NewToolResultText(formatCreated(ref, calendarID, *created)), nil
}

func (h *handlers) handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	eventID := strings.TrimSpace(request.GetString("event_id", ""))
	if eventID == "" {
		return common.Errorf("please provide an event ID"), nil
	}
	ref := h.reference()

	patch := calendar.EventPatch{
		Summary:     common.OptionalString(request, "summary"),
		Description: common.OptionalString(request, "description"),
		Location:    common.OptionalString(request, "location"),
		TimeZone:    h.Location.String(),
	}
	if patch.Summary != nil && strings.TrimSpace(*patch.Summary) == "" {
		patch.Summary = nil
	}
	if common.HasArg(request, "start") {
		start, err := instant(ref, request, "start")
		if err != nil {
			return common.ErrorResult(err), nil
		}
		patch.Start = &start
	}
	if common.HasArg(request, "end") {
		end, err := instant(ref, request, "end")
		if err != nil {
			return common.ErrorResult(err), nil
		}
		patch.End = &end
	}
	if patch.IsEmpty() {
		return common.Errorf("nothing to update; give at least one of summary, start, end, description or location"), nil
	}

	calendarID := h.calendarID(request)
	updated, err := h.Backend.UpdateEvent(ctx, calendarID, eventID, patch)
	if err != nil {
		return eventError("update", calendarID, eventID, err), nil
	}
	common.RecordAffected(ctx, updated.ID)

	if request.GetBool("minimal", false) {
		return mcp.NewToolResultText(fmt.Sprintf("Event '%s' updated. Event ID: %s", title(*updated), updated.ID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Event updated: %s (%s). Changed: %s.\nEvent ID: %s",
		title(*updated), span(ref, *updated), strings.Join(patch.Fields(), ", "), updated.ID)), nil
}

func (h *handlers) handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	eventID := strings.TrimSpace(request.GetString("event_id", ""))
	if eventID == "" {
		return common.Errorf("please provide an event ID"), nil
	}
	calendarID := h.calendarID(request)

	if err := h.Backend.DeleteEvent(ctx, calendarID, eventID); err != nil {
		return eventError("delete", calendarID, eventID, err), nil
	}
	common.RecordAffected(ctx, eventID)

	if request.GetBool("minimal", false) {
		return mcp.NewToolResultText(fmt.Sprintf("Event deleted. Event ID: %s", eventID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Event %s deleted from %s", eventID, calendarID)), nil
}

// eventError renders a backend failure on one event, with a hint for the
// not-found cases the model can recover from.
func eventError(verb, calendarID, eventID string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, calendar.ErrNotFound):
		return common.Errorf("event %s not found in calendar %s. Search for the event again to get a current ID", eventID, calendarID)
	case errors.Is(err, calendar.ErrCalendarNotFound):
		return common.Errorf("calendar %s not found. Use list_calendars with show_ids to see valid IDs", calendarID)
	default:
		return common.Errorf("failed to %s event %s: %v", verb, eventID, err)
	}
}
