package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	WithSession(WithTool(WithOperation(logger, "dispatch"), "list_events"), "s-42").Info("done")

	out := buf.String()
	for _, want := range []string{"operation=dispatch", "tool=list_events", "session=s-42"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestAttrHelpers(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("list"), KeyOperation, "list"},
		{"tool", Tool("move_event"), KeyTool, "move_event"},
		{"session", Session("abc"), KeySession, "abc"},
		{"event id", EventID("evt1"), KeyEventID, "evt1"},
		{"model", Model("llama"), KeyModel, "llama"},
		{"iteration", Iteration(3), KeyIteration, "3"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
		{"primary calendar", Calendar("primary"), KeyCalendar, "primary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if got := tt.attr.Value.String(); got != tt.wantVal {
				t.Errorf("value = %q, want %q", got, tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("test error"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	// an empty group is dropped by slog
	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("ok", Err(nil))
	if strings.Contains(buf.String(), KeyError) {
		t.Errorf("Err(nil) produced output %q", buf.String())
	}
}

func TestAnonymizeCalendarID(t *testing.T) {
	if got := AnonymizeCalendarID("primary"); got != "primary" {
		t.Errorf("primary = %q", got)
	}
	if got := AnonymizeCalendarID(""); got != "" {
		t.Errorf("empty = %q", got)
	}

	hashed := AnonymizeCalendarID("jane@example.com")
	if !strings.HasPrefix(hashed, "cal:") || len(hashed) != 20 {
		t.Errorf("hash = %q, want cal: plus 16 hex chars", hashed)
	}
	if strings.Contains(hashed, "jane") {
		t.Error("hash leaks the address")
	}
	if hashed != AnonymizeCalendarID("jane@example.com") {
		t.Error("hash must be deterministic")
	}
	if hashed == AnonymizeCalendarID("john@example.com") {
		t.Error("different IDs must hash differently")
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("empty = %q", got)
	}
	got := SanitizeToken("gsk_secretvalue")
	if got != "[token:15 chars]" {
		t.Errorf("SanitizeToken = %q", got)
	}
}
