// Package resources provides MCP resources for exposing calendar data.
// Resources are read-only data sources that MCP clients can fetch without a
// tool call: the calendars the account can see and today's agenda of the
// default calendar.
package resources
