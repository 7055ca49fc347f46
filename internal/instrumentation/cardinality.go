package instrumentation

import "strings"

// Cardinality management helpers for metric labels.
//
// Two label sources are unbounded in this service: calendar IDs, which are
// e-mail addresses, and tool names, which come from the model and may be
// invented. Both are reduced before they reach a metric.

// ExtractUserDomain extracts the domain part from an e-mail style identifier.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")                   // "example.com"
//	ExtractUserDomain("team@group.calendar.google.com")     // "group.calendar.google.com"
//	ExtractUserDomain("primary")                            // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// CalendarLabel maps a calendar ID to a bounded label value.
func CalendarLabel(calendarID string) string {
	if calendarID == "" || calendarID == "primary" {
		return "primary"
	}
	return ExtractUserDomain(calendarID)
}

// ToolLabel returns name when it is one of the known tools and "unknown"
// otherwise. A nil known set accepts every name.
func ToolLabel(name string, known map[string]struct{}) string {
	if name == "" {
		return "unknown"
	}
	if known == nil {
		return name
	}
	if _, ok := known[name]; ok {
		return name
	}
	return "unknown"
}

// Calendar operation names used for metrics and spans.
const (
	OperationListCalendars = "list_calendars"
	OperationList          = "list"
	OperationGet           = "get"
	OperationCreate        = "create"
	OperationUpdate        = "update"
	OperationDelete        = "delete"
	OperationBatchDelete   = "batch_delete"
)
