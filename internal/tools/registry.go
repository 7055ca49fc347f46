package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/teemow/scheduler/internal/logging"
	"github.com/teemow/scheduler/internal/memory"
	"github.com/teemow/scheduler/internal/tools/common"
)

// Tool is one entry of the catalogue.
type Tool struct {
	Definition mcp.Tool
	Handler    server.ToolHandlerFunc
}

// Name returns the tool name.
func (t Tool) Name() string {
	return t.Definition.Name
}

// Destructive reports whether the tool is annotated as changing or removing
// existing events.
func (t Tool) Destructive() bool {
	h := t.Definition.Annotations.DestructiveHint
	return h != nil && *h
}

// Registry is an ordered set of tools.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	logger *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger uses slog.Default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{tools: make(map[string]Tool), logger: logger}
}

// Register adds tools in order. Names must be unique.
func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return fmt.Errorf("tool has no name")
		}
		if t.Handler == nil {
			return fmt.Errorf("tool %s has no handler", name)
		}
		if _, exists := r.tools[name]; exists {
			return fmt.Errorf("tool %s is already registered", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return nil
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Definitions returns the tool definitions in registration order.
func (r *Registry) Definitions() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Invoke runs one model tool call and returns the text for the tool turn.
func (r *Registry) Invoke(ctx context.Context, call memory.ToolCall) (text string) {
	logger := logging.WithTool(r.logger, call.Name)

	t, ok := r.Lookup(call.Name)
	if !ok {
		logger.Warn("unknown tool requested")
		return common.WithErrorPrefix(fmt.Sprintf("unknown tool %q. Available tools: %s", call.Name, strings.Join(r.Names(), ", ")))
	}

	args, err := callArguments(call)
	if err != nil {
		logger.Warn("undecodable tool arguments", logging.Err(err))
		return common.WithErrorPrefix(fmt.Sprintf("invalid arguments for %s: %v", call.Name, err))
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("tool panicked", slog.Any("panic", p))
			text = common.WithErrorPrefix(fmt.Sprintf("%s failed unexpectedly", call.Name))
		}
	}()

	result, err := t.Handler(ctx, common.NewRequest(call.Name, args))
	text = common.Render(result, err)
	if strings.HasPrefix(text, common.ErrorPrefix) {
		logger.Debug("tool returned error", slog.String("result", text))
	}
	return text
}

func callArguments(call memory.ToolCall) (map[string]any, error) {
	if call.Arguments != nil {
		return call.Arguments, nil
	}
	raw := strings.TrimSpace(call.RawArguments)
	if raw == "" || raw == "null" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// ServerTools returns the catalogue in the form an MCP server registers.
func (r *Registry) ServerTools() []server.ServerTool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]server.ServerTool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, server.ServerTool{Tool: t.Definition, Handler: t.Handler})
	}
	return out
}
