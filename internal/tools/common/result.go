package common

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorPrefix starts the text of every failed tool result.
const ErrorPrefix = "Error: "

// TimeoutPrefix starts the text of a tool result cut off by its deadline.
const TimeoutPrefix = "Timed out: "

// Errorf returns an error result whose text starts with ErrorPrefix.
func Errorf(format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(WithErrorPrefix(fmt.Sprintf(format, args...)))
}

// ErrorResult renders err as an error result.
func ErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(WithErrorPrefix(err.Error()))
}

// WithErrorPrefix adds ErrorPrefix to msg unless it is already there.
func WithErrorPrefix(msg string) string {
	if strings.HasPrefix(msg, ErrorPrefix) {
		return msg
	}
	return ErrorPrefix + msg
}

// Text joins the text content of a result. Non-text content is skipped.
func Text(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Render turns a handler outcome into the text handed back to the model.
// Go errors and error results both carry ErrorPrefix.
func Render(result *mcp.CallToolResult, err error) string {
	if err != nil {
		return WithErrorPrefix(err.Error())
	}
	if result == nil {
		return WithErrorPrefix("tool returned no result")
	}
	text := Text(result)
	if result.IsError && !strings.HasPrefix(text, TimeoutPrefix) {
		return WithErrorPrefix(text)
	}
	return text
}
