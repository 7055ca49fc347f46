package instrumentation

import "testing"

func TestDefaultConfig(t *testing.T) {
	for _, key := range []string{
		"OTEL_SERVICE_NAME", "INSTRUMENTATION_ENABLED", "METRICS_EXPORTER",
		"TRACING_EXPORTER", "OTEL_TRACES_SAMPLER_ARG", "AUDIT_LOGGING_ENABLED",
	} {
		t.Setenv(key, "")
	}

	config := DefaultConfig()

	if config.ServiceName != "scheduler" {
		t.Errorf("expected ServiceName 'scheduler', got %q", config.ServiceName)
	}
	if !config.Enabled {
		t.Error("expected Enabled to be true by default")
	}
	if config.MetricsExporter != ExporterPrometheus {
		t.Errorf("expected MetricsExporter 'prometheus', got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterNone {
		t.Errorf("expected TracingExporter 'none', got %q", config.TracingExporter)
	}
	if config.TraceSamplingRate != 0.1 {
		t.Errorf("expected TraceSamplingRate 0.1, got %f", config.TraceSamplingRate)
	}
	if !config.AuditLogging.Enabled || config.AuditLogging.IncludePII {
		t.Errorf("unexpected audit defaults %+v", config.AuditLogging)
	}
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "scheduler-test")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("TRACING_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("METRICS_DETAILED_LABELS", "not-a-bool")

	config := DefaultConfig()

	if config.ServiceName != "scheduler-test" {
		t.Errorf("ServiceName = %q", config.ServiceName)
	}
	if config.Enabled {
		t.Error("expected Enabled false from env")
	}
	if config.TracingExporter != ExporterOTLP || config.OTLPEndpoint != "collector:4318" {
		t.Errorf("tracing = %q endpoint = %q", config.TracingExporter, config.OTLPEndpoint)
	}
	if config.TraceSamplingRate != 0.5 {
		t.Errorf("TraceSamplingRate = %f", config.TraceSamplingRate)
	}
	// unparsable values keep the default
	if config.DetailedLabels {
		t.Error("expected DetailedLabels to fall back to false")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"defaults", Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone, TraceSamplingRate: 0.1}, false},
		{"empty exporters", Config{}, false},
		{"sampling too high", Config{TraceSamplingRate: 1.5}, true},
		{"sampling negative", Config{TraceSamplingRate: -0.1}, true},
		{"bad metrics exporter", Config{MetricsExporter: "statsd"}, true},
		{"bad tracing exporter", Config{TracingExporter: "zipkin"}, true},
		{"otlp tracing without endpoint", Config{TracingExporter: ExporterOTLP}, true},
		{"otlp metrics with endpoint", Config{MetricsExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
