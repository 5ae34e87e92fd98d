// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration for the ARC runtime:
// tracer/meter setup, a trace-aware slog handler, and dispatch metrics.
package telemetry

// Semantic attribute names for ARC server telemetry.
const (
	AttrAgentID   = "arc.agent.id"
	AttrMethod    = "arc.method"
	AttrRequestID = "arc.request.id"
	AttrChatID    = "arc.chat.id"
	AttrTaskID    = "arc.task.id"
	AttrOutcome   = "arc.outcome"
	AttrErrorKind = "arc.error.kind"
	AttrStreaming = "arc.streaming"
)
