package common

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// CalendarID returns the calendar_id argument, or fallback when it is
// missing or blank.
func CalendarID(request mcp.CallToolRequest, fallback string) string {
	if id := strings.TrimSpace(request.GetString("calendar_id", "")); id != "" {
		return id
	}
	return fallback
}

// OptionalString returns a pointer to the argument when the model sent a
// string for key, and nil otherwise. An empty string is returned as is.
func OptionalString(request mcp.CallToolRequest, key string) *string {
	v, ok := request.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// HasArg reports whether key was sent with a non-blank value.
func HasArg(request mcp.CallToolRequest, key string) bool {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

type sessionKey struct{}

// ContextWithSession tags ctx with the conversation session a tool call
// belongs to.
func ContextWithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the session set by ContextWithSession.
func SessionFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey{}).(string)
	return s
}

// NewRequest builds the request a handler receives for a model tool call.
func NewRequest(name string, args map[string]any) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Name = name
	if args == nil {
		args = map[string]any{}
	}
	request.Params.Arguments = args
	return request
}
