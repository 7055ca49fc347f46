package instrumentation

import "testing"

func TestExtractUserDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane@example.com", "example.com"},
		{"team@group.calendar.google.com", "group.calendar.google.com"},
		{"invalid", "unknown"},
		{"", "unknown"},
		{"trailing@", "unknown"},
		{"a@b@c", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := ExtractUserDomain(tt.email); got != tt.want {
				t.Errorf("ExtractUserDomain(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestCalendarLabel(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"", "primary"},
		{"primary", "primary"},
		{"jane@example.com", "example.com"},
		{"holidays#uk@group.v.calendar.com", "group.v.calendar.com"},
		{"opaque-id", "unknown"},
	}

	for _, tt := range tests {
		if got := CalendarLabel(tt.id); got != tt.want {
			t.Errorf("CalendarLabel(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestToolLabel(t *testing.T) {
	known := map[string]struct{}{"list_events": {}, "delete_event": {}}

	if got := ToolLabel("list_events", known); got != "list_events" {
		t.Errorf("known tool = %q", got)
	}
	if got := ToolLabel("cancel_everything", known); got != "unknown" {
		t.Errorf("invented tool = %q, want unknown", got)
	}
	if got := ToolLabel("anything", nil); got != "anything" {
		t.Errorf("nil known set = %q, want passthrough", got)
	}
	if got := ToolLabel("", nil); got != "unknown" {
		t.Errorf("empty name = %q, want unknown", got)
	}
}
