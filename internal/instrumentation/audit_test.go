package instrumentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

const (
	testCalendar = "jane@example.com"
	testTool     = "delete_events_in_range"
)

func attrMap(attrs []slog.Attr) map[string]slog.Value {
	m := make(map[string]slog.Value, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestToolInvocation_Status(t *testing.T) {
	tests := []struct {
		name     string
		complete func(*ToolInvocation)
		want     string
	}{
		{"success", func(ti *ToolInvocation) { ti.CompleteSuccess() }, StatusSuccess},
		{"error", func(ti *ToolInvocation) { ti.CompleteWithError(errors.New("boom")) }, StatusError},
		{"timeout", func(ti *ToolInvocation) { ti.CompleteTimeout(errors.New("deadline")) }, StatusTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ti := NewToolInvocation(testTool)
			if ti.StartTime.IsZero() {
				t.Fatal("StartTime should be set")
			}
			tt.complete(ti)
			if got := ti.Status(); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
			if ti.Duration < 0 {
				t.Errorf("negative duration %v", ti.Duration)
			}
		})
	}
}

func TestToolInvocation_LogAttrsReduceCalendar(t *testing.T) {
	ti := NewToolInvocation(testTool).
		WithSession("s-1").
		WithCalendar(testCalendar, OperationBatchDelete).
		WithAffected("e1", "e2")
	ti.CompleteSuccess()

	attrs := attrMap(ti.LogAttrs())
	if got := attrs["calendar"].String(); got != "example.com" {
		t.Errorf("calendar = %q, want example.com", got)
	}
	if _, ok := attrs["calendar_id"]; ok {
		t.Error("LogAttrs must not carry the raw calendar id")
	}
	if got := attrs["session"].String(); got != "s-1" {
		t.Errorf("session = %q", got)
	}
	if _, ok := attrs["affected_ids"]; !ok {
		t.Error("expected affected_ids")
	}

	audit := attrMap(ti.LogAuditAttrs())
	if got := audit["calendar_id"].String(); got != testCalendar {
		t.Errorf("audit calendar_id = %q", got)
	}
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	tests := []struct {
		name        string
		config      AuditLoggingConfig
		success     bool
		wantOutput  bool
		wantMessage string
		wantRawID   bool
	}{
		{"success", AuditLoggingConfig{Enabled: true}, true, true, "tool_executed", false},
		{"failure", AuditLoggingConfig{Enabled: true}, false, true, "tool_failed", false},
		{"pii", AuditLoggingConfig{Enabled: true, IncludePII: true}, true, true, "tool_executed", true},
		{"disabled", AuditLoggingConfig{Enabled: false}, true, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			al := NewAuditLoggerWithConfig(logger, tt.config)

			ti := NewToolInvocation(testTool).WithCalendar(testCalendar, OperationDelete)
			if tt.success {
				ti.CompleteSuccess()
			} else {
				ti.CompleteWithError(errors.New("not found"))
			}
			al.LogToolInvocation(ti)

			if !tt.wantOutput {
				if buf.Len() != 0 {
					t.Errorf("expected no output, got %s", buf.String())
				}
				return
			}

			var record map[string]any
			if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
				t.Fatalf("invalid log line %q: %v", buf.String(), err)
			}
			if record["msg"] != tt.wantMessage {
				t.Errorf("msg = %v, want %s", record["msg"], tt.wantMessage)
			}
			_, hasRaw := record["calendar_id"]
			if hasRaw != tt.wantRawID {
				t.Errorf("calendar_id present = %v, want %v", hasRaw, tt.wantRawID)
			}
		})
	}
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var al *AuditLogger
	al.LogToolInvocation(NewToolInvocation(testTool).CompleteSuccess())

	NewAuditLogger(nil).LogToolInvocation(nil)
}
