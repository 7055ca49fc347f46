// Package logging provides structured logging utilities for the scheduler.
//
// Everything logs through log/slog. This package builds the process logger
// and keeps attribute names consistent.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithSession(slog.Default(), sessionID)
//	logger.Info("tool finished",
//	    logging.Tool("delete_event"),
//	    logging.Calendar(calendarID),
//	    logging.Err(err))
//
// # Security Considerations
//
// Calendar IDs are hashed by Calendar because they are usually e-mail
// addresses. API keys go through SanitizeToken.
package logging
