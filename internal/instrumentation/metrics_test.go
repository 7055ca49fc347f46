package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) []metricdata.DataPoint[int64] {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, not an int64 sum", name, m.Data)
			}
			return sum.DataPoints
		}
	}
	return nil
}

func attrValue(set attribute.Set, key string) string {
	v, ok := set.Value(attribute.Key(key))
	if !ok {
		return ""
	}
	return v.AsString()
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	// none of these may panic
	m.SetKnownTools([]string{"list_events"})
	m.RecordHTTPRequest(ctx, "POST", "/query", 200, time.Second)
	m.RecordCalendarOperation(ctx, BackendGoogle, OperationList, "primary", StatusSuccess, time.Second)
	m.RecordToolInvocation(ctx, "list_events", StatusSuccess, time.Second)
	m.RecordModelRequest(ctx, "llama", StatusSuccess, time.Second)
	m.RecordModelTokens(ctx, "llama", 10, 5)
	m.RecordTurn(ctx, OutcomeAnswered, 1)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)

	zero := &Metrics{}
	zero.RecordToolInvocation(ctx, "list_events", StatusSuccess, time.Second)
	zero.RecordTurn(ctx, OutcomeExhausted, 10)
}

func TestMetrics_ToolLabelsAreBounded(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.SetKnownTools([]string{"list_events", "delete_event"})
	m.RecordToolInvocation(ctx, "list_events", StatusSuccess, 10*time.Millisecond)
	m.RecordToolInvocation(ctx, "made_up_tool", StatusError, time.Millisecond)
	m.RecordToolInvocation(ctx, "another_fake", StatusError, time.Millisecond)

	points := collectSum(t, reader, "tool_invocations_total")
	got := map[string]int64{}
	for _, dp := range points {
		got[attrValue(dp.Attributes, attrTool)] += dp.Value
	}

	if got["list_events"] != 1 {
		t.Errorf("list_events = %d, want 1", got["list_events"])
	}
	if got["unknown"] != 2 {
		t.Errorf("unknown = %d, want 2", got["unknown"])
	}
	if _, ok := got["made_up_tool"]; ok {
		t.Error("invented tool name leaked into labels")
	}
}

func TestMetrics_CalendarLabelOnlyWhenDetailed(t *testing.T) {
	for _, detailed := range []bool{false, true} {
		m, reader := newTestMetrics(t, detailed)
		m.RecordCalendarOperation(context.Background(), BackendMemory, OperationDelete,
			"jane@example.com", StatusSuccess, time.Millisecond)

		points := collectSum(t, reader, "calendar_operations_total")
		if len(points) != 1 {
			t.Fatalf("detailed=%v: got %d points", detailed, len(points))
		}
		label := attrValue(points[0].Attributes, attrCalendar)
		if detailed && label != "example.com" {
			t.Errorf("detailed label = %q, want example.com", label)
		}
		if !detailed && label != "" {
			t.Errorf("non-detailed metrics carry calendar label %q", label)
		}
		if op := attrValue(points[0].Attributes, attrOperation); op != OperationDelete {
			t.Errorf("operation = %q", op)
		}
	}
}

func TestMetrics_ModelTokens(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordModelTokens(ctx, "llama", 120, 30)
	m.RecordModelTokens(ctx, "llama", 0, 0)

	got := map[string]int64{}
	for _, dp := range collectSum(t, reader, "model_tokens_total") {
		got[attrValue(dp.Attributes, attrTokenType)] += dp.Value
	}
	if got["prompt"] != 120 || got["completion"] != 30 {
		t.Errorf("tokens = %v", got)
	}
}

func TestMetrics_TurnsAndSessions(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordTurn(ctx, OutcomeAnswered, 2)
	m.RecordTurn(ctx, OutcomeExhausted, 10)
	m.IncrementActiveSessions(ctx)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)

	turns := map[string]int64{}
	for _, dp := range collectSum(t, reader, "agent_turns_total") {
		turns[attrValue(dp.Attributes, attrOutcome)] += dp.Value
	}
	if turns[OutcomeAnswered] != 1 || turns[OutcomeExhausted] != 1 {
		t.Errorf("turns = %v", turns)
	}

	sessions := collectSum(t, reader, "active_sessions")
	if len(sessions) != 1 || sessions[0].Value != 1 {
		t.Errorf("active_sessions = %v, want 1", sessions)
	}
}
