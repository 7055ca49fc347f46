package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/scheduler/internal/instrumentation"
	"github.com/teemow/scheduler/internal/tools"
	"github.com/teemow/scheduler/internal/tools/common"
)

func (h *handlers) calendarListTools() []tools.Tool {
	listCalendarsTool := define("list_calendars",
		"List the user's calendars by name. Set show_ids to include the IDs other tools take as calendar_id.",
		args(
			mcp.WithBoolean("show_ids",
				mcp.Description("Include calendar IDs in the list."),
			),
		),
		readOnly(),
	)

	return []tools.Tool{
		h.wrap(listCalendarsTool, instrumentation.OperationListCalendars, h.Timeout, h.handleListCalendars),
	}
}

func (h *handlers) handleListCalendars(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendars, err := h.Backend.ListCalendars(ctx)
	if err != nil {
		return common.Errorf("failed to list calendars: %v", err), nil
	}
	if len(calendars) == 0 {
		return mcp.NewToolResultText("No calendars found."), nil
	}
	return mcp.NewToolResultText(formatCalendars(calendars, request.GetBool("show_ids", false))), nil
}
