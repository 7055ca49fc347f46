// Package calendar_tools provides the scheduling tools the agent calls to
// read and change calendars.
//
// Every tool returns human-readable text. Failures are reported as results
// starting with "Error: " rather than as Go errors, and every tool that
// changes or removes events lists the affected event IDs. Date arguments
// accept the relative vocabulary of package timerange, ISO dates and RFC3339
// instants; they are resolved in the configured reference timezone.
package calendar_tools
