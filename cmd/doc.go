// Package cmd implements the command-line interface for scheduler.
//
// This package provides the following commands:
//   - chat: Talk to the scheduling assistant in the terminal
//   - serve: Serve the query API over HTTP, or the calendar tools over MCP stdio
//   - auth: Authorize Google Calendar access for an account
//   - generate-docs: Generate markdown documentation for the calendar tools
//   - version: Display version information
//
// The chat command is the default command when no subcommand is specified.
package cmd
