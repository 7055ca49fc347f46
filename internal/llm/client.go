package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/scheduler/internal/instrumentation"
	"github.com/teemow/scheduler/internal/logging"
	"github.com/teemow/scheduler/internal/memory"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the model used when none is configured.
	DefaultModel = "llama-3.3-70b-versatile"
	// DefaultTimeout bounds one completion request.
	DefaultTimeout = 60 * time.Second
)

// ErrNoChoices is returned when the endpoint answers without a completion.
var ErrNoChoices = errors.New("model returned no choices")

// APIError is a non-200 answer from the endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model API error (status %d): %s", e.StatusCode, e.Message)
}

// Client calls a chat completions endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature *float64
	maxTokens   int
	httpClient  *http.Client
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the endpoint root; "/chat/completions" is appended.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) ClientOption {
	return func(c *Client) { c.temperature = &temp }
}

// WithMaxTokens caps the completion length. Zero leaves it to the endpoint.
func WithMaxTokens(max int) ClientOption {
	return func(c *Client) { c.maxTokens = max }
}

// WithMetrics records request and token metrics.
func WithMetrics(m *instrumentation.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for model authenticated with apiKey.
func NewClient(apiKey, model string, options ...ClientOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the directive and turns, offering tools, and returns the
// model's reply as an assistant turn.
func (c *Client) Complete(ctx context.Context, system string, turns []memory.Turn, tools []mcp.Tool) (memory.Turn, error) {
	ctx, span := instrumentation.StartModelSpan(ctx, c.model)
	defer span.End()

	start := time.Now()
	resp, err := c.send(ctx, Request{
		Model:       c.model,
		Messages:    toMessages(system, turns),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Tools:       toTools(tools),
	})
	duration := time.Since(start)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordModelRequest(ctx, c.model, instrumentation.StatusError, duration)
		c.logger.Warn("model request failed", logging.Model(c.model), logging.Err(err))
		return memory.Turn{}, err
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordModelRequest(ctx, c.model, instrumentation.StatusSuccess, duration)
	c.metrics.RecordModelTokens(ctx, c.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	turn := fromMessage(resp.Choices[0].Message)
	c.logger.Debug("model replied",
		logging.Model(c.model),
		slog.Int("tool_calls", len(turn.ToolCalls)),
		slog.String("finish_reason", resp.Choices[0].FinishReason),
		slog.Duration(logging.KeyDuration, duration))
	return turn, nil
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: httpResp.StatusCode, Message: strings.TrimSpace(string(body))}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error.Message != "" {
			apiErr.Message = eb.Error.Message
		}
		return nil, apiErr
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}
	return &resp, nil
}
