// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestInit(t *testing.T) {
	shutdown, err := Init("test-service", "v0.0.1")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if shutdown == nil {
		t.Fatal("Shutdown function should not be nil")
	}

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestInitWithConfigRejectsUnknownExporter(t *testing.T) {
	if _, err := InitWithConfig("test-service", "v0.0.1", Config{Exporter: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestInitWithConfigRequiresOTLPEndpoint(t *testing.T) {
	if _, err := InitWithConfig("test-service", "v0.0.1", Config{Exporter: "otlp"}); err == nil {
		t.Fatal("expected error for missing otlp endpoint")
	}
}

func TestConfigureSlogFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "json")
	logger.Info("hello", "key", "value")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("json format did not produce json: %v\n%s", err, buf.String())
	}
	if record["msg"] != "hello" || record["key"] != "value" {
		t.Errorf("unexpected record: %v", record)
	}

	buf.Reset()
	logger = ConfigureSlog(&buf, "info", "text")
	logger.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text format output: %s", buf.String())
	}
}

func TestConfigureSlogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "warn", "text")

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info record leaked at warn level: %s", buf.String())
	}
	logger.Warn("emitted")
	if !strings.Contains(buf.String(), "emitted") {
		t.Errorf("warn record missing: %s", buf.String())
	}
}

func TestSpanHandlerInjectsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "json")

	traceID := trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	spanID := trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.InfoContext(ctx, "traced record")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["trace_id"] != traceID.String() {
		t.Errorf("trace_id %v, want %s", record["trace_id"], traceID)
	}
	if record["span_id"] != spanID.String() {
		t.Errorf("span_id %v, want %s", record["span_id"], spanID)
	}

	// Without a span the correlation attrs stay absent.
	buf.Reset()
	logger.Info("plain record")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("trace_id injected without a span: %s", buf.String())
	}
}

func TestDispatchMetrics(t *testing.T) {
	m, err := NewDispatchMetrics()
	if err != nil {
		t.Fatalf("failed to create dispatch metrics: %v", err)
	}
	ctx := context.Background()

	m.RecordRequest(ctx, "flight-finder", "task.create", "ok")
	m.RecordFrames(ctx, "flight-finder", 7)
	m.ChatOpened(ctx, "flight-finder")
	m.ChatClosed(ctx, "flight-finder")

	// A nil receiver must be a no-op, metrics are optional wiring.
	var disabled *DispatchMetrics
	disabled.RecordRequest(ctx, "flight-finder", "task.create", "ok")
	disabled.RecordFrames(ctx, "flight-finder", 1)
	disabled.ChatOpened(ctx, "flight-finder")
	disabled.ChatClosed(ctx, "flight-finder")
}

func TestAttributeNamesStable(t *testing.T) {
	// Dashboards key on these names; renames are breaking changes.
	names := map[string]string{
		AttrAgentID:   "arc.agent.id",
		AttrMethod:    "arc.method",
		AttrRequestID: "arc.request.id",
		AttrChatID:    "arc.chat.id",
		AttrTaskID:    "arc.task.id",
		AttrOutcome:   "arc.outcome",
		AttrErrorKind: "arc.error.kind",
		AttrStreaming: "arc.streaming",
	}
	for got, want := range names {
		if got != want {
			t.Errorf("attribute %q, want %q", got, want)
		}
	}
}
