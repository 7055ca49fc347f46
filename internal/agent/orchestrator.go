package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/scheduler/internal/instrumentation"
	"github.com/teemow/scheduler/internal/logging"
	"github.com/teemow/scheduler/internal/memory"
	"github.com/teemow/scheduler/internal/prompt"
	"github.com/teemow/scheduler/internal/timerange"
	"github.com/teemow/scheduler/internal/tools/common"
)

// DefaultMaxIterations is the number of model calls one utterance may take.
const DefaultMaxIterations = 10

// ErrEmptyUtterance is returned by Ask for blank input.
var ErrEmptyUtterance = errors.New("empty utterance")

// Model produces the next assistant turn for a conversation.
type Model interface {
	Complete(ctx context.Context, system string, turns []memory.Turn, tools []mcp.Tool) (memory.Turn, error)
}

// Dispatcher executes tool calls. Invoke never fails: errors come back as
// text starting with "Error: ".
type Dispatcher interface {
	Definitions() []mcp.Tool
	Invoke(ctx context.Context, call memory.ToolCall) string
}

// State is a step of the conversation loop.
type State int

const (
	StateAwaitModel State = iota
	StateDispatchTools
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitModel:
		return "AWAIT_MODEL"
	case StateDispatchTools:
		return "DISPATCH_TOOLS"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config wires an Orchestrator.
type Config struct {
	Model Model
	Tools Dispatcher

	// Prompt renders the system directive.
	Prompt prompt.Builder

	// Location is the reference timezone. Nil means Europe/London.
	Location *time.Location
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time

	// MaxIterations caps model calls per utterance. Zero selects
	// DefaultMaxIterations.
	MaxIterations int
	// MemoryCapacity is the number of turns kept. Zero selects
	// memory.DefaultCapacity.
	MemoryCapacity int

	// SessionID tags logs, spans and audit records.
	SessionID string

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Orchestrator runs the conversation loop for one session.
type Orchestrator struct {
	model   Model
	tools   Dispatcher
	prompt  prompt.Builder
	loc     *time.Location
	now     func() time.Time
	maxIter int
	session string
	metrics *instrumentation.Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	window *memory.Window
}

// New returns an Orchestrator with an empty memory window.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Model == nil {
		return nil, errors.New("orchestrator needs a model")
	}
	if cfg.Tools == nil {
		return nil, errors.New("orchestrator needs a tool dispatcher")
	}

	loc := cfg.Location
	if loc == nil {
		var err error
		if loc, err = time.LoadLocation(timerange.DefaultTimeZone); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", timerange.DefaultTimeZone, err)
		}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionID != "" {
		logger = logging.WithSession(logger, cfg.SessionID)
	}

	return &Orchestrator{
		model:   cfg.Model,
		tools:   cfg.Tools,
		prompt:  cfg.Prompt,
		loc:     loc,
		now:     now,
		maxIter: maxIter,
		session: cfg.SessionID,
		metrics: cfg.Metrics,
		logger:  logger,
		window:  memory.NewWindow(cfg.MemoryCapacity),
	}, nil
}

// SessionID returns the session the orchestrator belongs to.
func (o *Orchestrator) SessionID() string {
	return o.session
}

// History returns a copy of the turns currently in the window.
func (o *Orchestrator) History() []memory.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.window.View()
}

// Reset clears the memory window.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.window.Reset()
}

// Ask runs the loop for one utterance and returns the final answer. Calls
// for the same session are serialized.
//
// Tool failures never end the loop. Ask returns an error only when the
// model cannot be reached or the context is done.
func (o *Orchestrator) Ask(ctx context.Context, utterance string) (string, error) {
	if strings.TrimSpace(utterance) == "" {
		return "", ErrEmptyUtterance
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != "" {
		ctx = common.ContextWithSession(ctx, o.session)
	}
	ctx, span := instrumentation.StartSpan(ctx, "agent.turn")
	defer span.End()

	o.window.Append(memory.User(utterance))
	defs := o.tools.Definitions()

	var state State
	for iteration := 1; ; iteration++ {
		if iteration > o.maxIter {
			o.logger.Warn("iteration cap reached", logging.Iteration(o.maxIter))
			answer := exhaustedAnswer(o.maxIter)
			o.window.Append(memory.Assistant(answer))
			o.metrics.RecordTurn(ctx, instrumentation.OutcomeExhausted, o.maxIter)
			instrumentation.SetSpanSuccess(span)
			return answer, nil
		}

		// AWAIT_MODEL
		system, err := o.prompt.Build(timerange.NewReference(o.now(), o.loc))
		if err != nil {
			return o.fail(ctx, span, iteration, err)
		}
		reply, err := o.model.Complete(ctx, system, o.window.View(), defs)
		if err != nil {
			return o.fail(ctx, span, iteration, fmt.Errorf("model call failed: %w", err))
		}
		o.window.Append(reply)

		if !reply.HasToolCalls() {
			state = StateDone
			o.logger.Debug("turn answered", logging.Iteration(iteration), slog.String("state", state.String()))
			o.metrics.RecordTurn(ctx, instrumentation.OutcomeAnswered, iteration)
			instrumentation.SetSpanSuccess(span)
			return reply.Content, nil
		}

		state = StateDispatchTools
		o.logger.Debug("dispatching tool calls",
			logging.Iteration(iteration),
			slog.String("state", state.String()),
			slog.Int("calls", len(reply.ToolCalls)))

		for i, call := range reply.ToolCalls {
			if err := ctx.Err(); err != nil {
				// every tool call in the window must have a result
				for _, skipped := range reply.ToolCalls[i:] {
					o.window.Append(memory.ToolResult(skipped.ID, cancelledResult))
				}
				return o.fail(ctx, span, iteration, err)
			}
			result := o.tools.Invoke(ctx, call)
			o.window.Append(memory.ToolResult(call.ID, result))
		}
	}
}

func (o *Orchestrator) fail(ctx context.Context, span trace.Span, iteration int, err error) (string, error) {
	o.logger.Error("turn failed", logging.Iteration(iteration), logging.Err(err))
	instrumentation.SetSpanError(span, err)
	o.metrics.RecordTurn(ctx, instrumentation.OutcomeFailed, iteration)
	return "", err
}

// cancelledResult is recorded for tool calls skipped because the request
// was cancelled.
var cancelledResult = common.WithErrorPrefix("cancelled before running; the request was abandoned")

// exhaustedAnswer is the fixed reply once the cap is reached.
func exhaustedAnswer(maxIter int) string {
	return fmt.Sprintf("I could not finish this request within %d steps. "+
		"Some changes may already have been made; please check your calendar and try again with a more specific request.", maxIter)
}
