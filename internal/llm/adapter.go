package llm

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/scheduler/internal/memory"
)

// toMessages renders the directive and turns as chat messages. Tool turns
// whose assistant turn fell out of the window are dropped, and tool calls
// left without a result get a synthetic error result: the endpoint rejects
// both.
func toMessages(system string, turns []memory.Turn) []Message {
	messages := make([]Message, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: text(system)})
	}

	open := map[string]bool{}
	var pending []string
	closePending := func() {
		for _, id := range pending {
			if open[id] {
				messages = append(messages, Message{Role: "tool", Content: text(unansweredResult), ToolCallID: id})
				delete(open, id)
			}
		}
		pending = nil
	}

	for _, t := range turns {
		switch t.Role {
		case memory.RoleTool:
			if !open[t.ToolCallID] {
				continue
			}
			delete(open, t.ToolCallID)
			messages = append(messages, Message{Role: "tool", Content: text(t.Content), ToolCallID: t.ToolCallID})
		case memory.RoleAssistant:
			closePending()
			msg := Message{Role: "assistant"}
			if t.Content != "" || len(t.ToolCalls) == 0 {
				msg.Content = text(t.Content)
			}
			for _, c := range t.ToolCalls {
				open[c.ID] = true
				pending = append(pending, c.ID)
				msg.ToolCalls = append(msg.ToolCalls, ToolCall{
					ID:   c.ID,
					Type: "function",
					Function: FunctionCall{
						Name:      c.Name,
						Arguments: encodeArguments(c),
					},
				})
			}
			messages = append(messages, msg)
		default:
			closePending()
			messages = append(messages, Message{Role: string(t.Role), Content: text(t.Content)})
		}
	}
	closePending()
	return messages
}

// unansweredResult stands in for a tool result that was never recorded.
const unansweredResult = "Error: this tool call did not run"

func text(s string) *string {
	return &s
}

func encodeArguments(c memory.ToolCall) string {
	if c.RawArguments != "" {
		return c.RawArguments
	}
	if c.Arguments == nil {
		return "{}"
	}
	b, err := json.Marshal(c.Arguments)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// toTools converts tool definitions to the function-calling schema.
func toTools(defs []mcp.Tool) []Tool {
	if len(defs) == 0 {
		return nil
	}
	out := make([]Tool, 0, len(defs))
	for _, d := range defs {
		params := map[string]any{
			"type":       "object",
			"properties": d.InputSchema.Properties,
		}
		if d.InputSchema.Properties == nil {
			params["properties"] = map[string]any{}
		}
		if len(d.InputSchema.Required) > 0 {
			params["required"] = d.InputSchema.Required
		}
		out = append(out, Tool{
			Type: "function",
			Function: ToolDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// fromMessage converts the model's reply into an assistant turn. Arguments
// that do not decode are kept raw so that dispatch can report them.
func fromMessage(msg Message) memory.Turn {
	var content string
	if msg.Content != nil {
		content = *msg.Content
	}

	var calls []memory.ToolCall
	for _, tc := range msg.ToolCalls {
		call := memory.ToolCall{
			ID:           tc.ID,
			Name:         tc.Function.Name,
			RawArguments: tc.Function.Arguments,
		}
		if call.ID == "" {
			call.ID = "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		}
		raw := strings.TrimSpace(tc.Function.Arguments)
		if raw == "" || raw == "null" {
			call.Arguments = map[string]any{}
		} else {
			var args map[string]any
			if err := json.Unmarshal([]byte(raw), &args); err == nil {
				call.Arguments = args
			}
		}
		calls = append(calls, call)
	}
	return memory.Assistant(content, calls...)
}
