package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Default per-call deadlines.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultBatchTimeout = 60 * time.Second
)

// WithTimeout bounds handler by d. When the deadline passes first the caller
// gets a notice result instead of the handler's, and the handler is left to
// observe its cancelled context. A non-positive d disables the bound.
func WithTimeout(toolName string, d time.Duration, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	if d <= 0 {
		return handler
	}
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type outcome struct {
			result *mcp.CallToolResult
			err    error
		}
		done := make(chan outcome, 1)
		go func() {
			result, err := handler(ctx, request)
			done <- outcome{result, err}
		}()

		select {
		case o := <-done:
			if o.err != nil && errors.Is(o.err, context.DeadlineExceeded) {
				return TimeoutResult(toolName, d), nil
			}
			return o.result, o.err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return TimeoutResult(toolName, d), nil
			}
			return nil, ctx.Err()
		}
	}
}

// TimeoutResult is the notice returned when a tool runs out of time.
func TimeoutResult(toolName string, d time.Duration) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf(
		"%s%s did not finish within %s. The calendar may still apply the request; list the events again before retrying.",
		TimeoutPrefix, toolName, d))
}

// IsTimeout reports whether result is a timeout notice.
func IsTimeout(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError && strings.HasPrefix(Text(result), TimeoutPrefix)
}
