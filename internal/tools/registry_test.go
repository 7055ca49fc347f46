package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/scheduler/internal/memory"
	"github.com/teemow/scheduler/internal/tools/common"
)

func echoTool() Tool {
	return Tool{
		Definition: mcp.NewTool("echo",
			mcp.WithDescription("Echo the text argument"),
			mcp.WithString("text", mcp.Required()),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, err := req.RequireString("text")
			if err != nil {
				return common.ErrorResult(err), nil
			}
			return mcp.NewToolResultText(text), nil
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(echoTool()))

	err := r.Register(echoTool())
	assert.Error(t, err)

	err = r.Register(Tool{Definition: mcp.NewTool("nohandler")})
	assert.Error(t, err)

	assert.Equal(t, []string{"echo"}, r.Names())
	require.Len(t, r.Definitions(), 1)
	assert.Equal(t, "echo", r.Definitions()[0].Name)
	require.Len(t, r.ServerTools(), 1)
}

func TestRegistry_Invoke(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(echoTool(),
		Tool{
			Definition: mcp.NewTool("fail"),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, errors.New("backend unavailable")
			},
		},
		Tool{
			Definition: mcp.NewTool("panic"),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				panic("nil map")
			},
		},
	))
	ctx := context.Background()

	tests := []struct {
		name string
		call memory.ToolCall
		want string
	}{
		{"decoded arguments", memory.ToolCall{Name: "echo", Arguments: map[string]any{"text": "hi"}}, "hi"},
		{"raw arguments", memory.ToolCall{Name: "echo", RawArguments: `{"text":"raw"}`}, "raw"},
		{"bad json", memory.ToolCall{Name: "echo", RawArguments: `{"text":`}, "Error: invalid arguments for echo: unexpected end of JSON input"},
		{"go error", memory.ToolCall{Name: "fail"}, "Error: backend unavailable"},
		{"panic", memory.ToolCall{Name: "panic"}, "Error: panic failed unexpectedly"},
		{"unknown", memory.ToolCall{Name: "nope"}, `Error: unknown tool "nope". Available tools: echo, fail, panic`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Invoke(ctx, tt.call))
		})
	}
}

func TestRegistry_InvokeMissingArgument(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(echoTool()))

	got := r.Invoke(context.Background(), memory.ToolCall{Name: "echo"})
	assert.True(t, strings.HasPrefix(got, common.ErrorPrefix), got)
	assert.Contains(t, got, "text")
}

func TestTool_Destructive(t *testing.T) {
	destructive := Tool{Definition: mcp.NewTool("delete", mcp.WithDestructiveHintAnnotation(true))}
	readOnly := Tool{Definition: mcp.NewTool("list", mcp.WithReadOnlyHintAnnotation(true), mcp.WithDestructiveHintAnnotation(false))}

	assert.True(t, destructive.Destructive())
	assert.False(t, readOnly.Destructive())
}
