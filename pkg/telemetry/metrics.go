// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DispatchMetrics tracks dispatch volume, streaming output and chat session
// churn for production monitoring.
type DispatchMetrics struct {
	requestCounter metric.Int64Counter
	frameCounter   metric.Int64Counter
	activeChats    metric.Int64UpDownCounter
}

// NewDispatchMetrics creates the dispatch metrics instruments.
func NewDispatchMetrics() (*DispatchMetrics, error) {
	meter := otel.Meter("arc-go/server")

	requestCounter, err := meter.Int64Counter(
		"arc.requests.total",
		metric.WithDescription("Dispatched requests by agent, method and outcome"),
	)
	if err != nil {
		return nil, err
	}

	frameCounter, err := meter.Int64Counter(
		"arc.stream.frames.total",
		metric.WithDescription("Stream frames delivered by agent"),
	)
	if err != nil {
		return nil, err
	}

	activeChats, err := meter.Int64UpDownCounter(
		"arc.chats.active",
		metric.WithDescription("Chat sessions currently ACTIVE"),
	)
	if err != nil {
		return nil, err
	}

	return &DispatchMetrics{
		requestCounter: requestCounter,
		frameCounter:   frameCounter,
		activeChats:    activeChats,
	}, nil
}

// RecordRequest counts one dispatched request.
func (m *DispatchMetrics) RecordRequest(ctx context.Context, agentID, method, outcome string) {
	if m == nil {
		return
	}
	m.requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrAgentID, agentID),
		attribute.String(AttrMethod, method),
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordFrames counts delivered stream frames.
func (m *DispatchMetrics) RecordFrames(ctx context.Context, agentID string, frames int64) {
	if m == nil {
		return
	}
	m.frameCounter.Add(ctx, frames, metric.WithAttributes(
		attribute.String(AttrAgentID, agentID),
	))
}

// ChatOpened records a session transitioning to ACTIVE.
func (m *DispatchMetrics) ChatOpened(ctx context.Context, agentID string) {
	if m == nil {
		return
	}
	m.activeChats.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrAgentID, agentID),
	))
}

// ChatClosed records a session transitioning to CLOSED.
func (m *DispatchMetrics) ChatClosed(ctx context.Context, agentID string) {
	if m == nil {
		return
	}
	m.activeChats.Add(ctx, -1, metric.WithAttributes(
		attribute.String(AttrAgentID, agentID),
	))
}
