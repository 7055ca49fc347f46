package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeySession   = "session"
	KeyCalendar  = "calendar"
	KeyEventID   = "event_id"
	KeyModel     = "model"
	KeyIteration = "iteration"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithSession returns a logger with the session attribute set.
func WithSession(logger *slog.Logger, session string) *slog.Logger {
	return logger.With(slog.String(KeySession, session))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Session returns a slog attribute for the conversation session.
func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

// Calendar returns a slog attribute with the anonymized calendar ID.
func Calendar(calendarID string) slog.Attr {
	return slog.String(KeyCalendar, AnonymizeCalendarID(calendarID))
}

// EventID returns a slog attribute for an event identifier.
func EventID(id string) slog.Attr {
	return slog.String(KeyEventID, id)
}

// Model returns a slog attribute for the language model name.
func Model(name string) slog.Attr {
	return slog.String(KeyModel, name)
}

// Iteration returns a slog attribute for an orchestrator iteration.
func Iteration(n int) slog.Attr {
	return slog.Int(KeyIteration, n)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeCalendarID returns a stable hash of a calendar ID. Calendar IDs
// are usually e-mail addresses; "primary" carries no PII and is kept as is.
func AnonymizeCalendarID(calendarID string) string {
	if calendarID == "" || calendarID == "primary" {
		return calendarID
	}
	hash := sha256.Sum256([]byte(calendarID))
	return "cal:" + hex.EncodeToString(hash[:8])
}

// SanitizeToken returns a masked version of a secret for logging.
// Only the length is revealed.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
