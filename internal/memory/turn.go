package memory

// Role identifies who produced a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model request to run one named tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any

	// RawArguments keeps the arguments as the model sent them, for logging
	// and for reporting undecodable input back to the model.
	RawArguments string
}

// Turn is one message of the conversation. Turns are values and are never
// modified after they are appended to a Window.
type Turn struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// User returns a user turn.
func User(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// Assistant returns an assistant turn, optionally requesting tool calls.
func Assistant(content string, calls ...ToolCall) Turn {
	return Turn{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolResult returns the tool turn answering the call with the given ID.
func ToolResult(callID, content string) Turn {
	return Turn{Role: RoleTool, Content: content, ToolCallID: callID}
}

// HasToolCalls reports whether the turn asks for tool execution.
func (t Turn) HasToolCalls() bool {
	return len(t.ToolCalls) > 0
}

// clone copies the slices of t so callers cannot reach the stored turn.
func (t Turn) clone() Turn {
	if len(t.ToolCalls) == 0 {
		return t
	}
	calls := make([]ToolCall, len(t.ToolCalls))
	for i, c := range t.ToolCalls {
		if c.Arguments != nil {
			args := make(map[string]any, len(c.Arguments))
			for k, v := range c.Arguments {
				args[k] = v
			}
			c.Arguments = args
		}
		calls[i] = c
	}
	t.ToolCalls = calls
	return t
}
