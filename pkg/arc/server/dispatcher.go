// SPDX-License-Identifier: Apache-2.0

// Package server implements the ARC runtime core: the method registry, the
// chat session store, the dispatcher and the streaming delivery engine.
// The transport binding lives in pkg/arc/httpjson; this package never
// touches sockets.
package server

import (
	"context"
	"log/slog"

	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/errors"
	"github.com/arcprotocol/arc-go/pkg/telemetry"
)

// Call is the per-invocation context handed to handlers. It exposes the
// shared stores and the identity of the request being served.
type Call struct {
	RequestID    string
	RequestAgent string // the calling agent
	TargetAgent  string // the agent being invoked
	Method       string
	TraceID      string
	Params       arc.Params

	Chats  *ChatStore
	Tasks  TaskStore
	Logger *slog.Logger
}

// Dispatcher resolves inbound ARC requests to registered handlers and
// normalizes their outcome into response envelopes or stream handles.
type Dispatcher struct {
	registry *Registry
	chats    *ChatStore
	tasks    TaskStore
	logger   *slog.Logger
	metrics  *telemetry.DispatchMetrics
	serverID string
}

// DispatcherOption customizes dispatcher wiring.
type DispatcherOption func(*Dispatcher)

// WithChatStore overrides the chat session store.
func WithChatStore(store *ChatStore) DispatcherOption {
	return func(d *Dispatcher) {
		if store != nil {
			d.chats = store
		}
	}
}

// WithTaskStore overrides the task store exposed to handlers.
func WithTaskStore(store TaskStore) DispatcherOption {
	return func(d *Dispatcher) {
		if store != nil {
			d.tasks = store
		}
	}
}

// WithLogger sets the logger exposed on call contexts.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDispatchMetrics enables request/stream metrics recording.
func WithDispatchMetrics(metrics *telemetry.DispatchMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

// WithServerID sets the identity reported as responseAgent on dispatch
// failures, when no agent produced the response.
func WithServerID(id string) DispatcherOption {
	return func(d *Dispatcher) {
		d.serverID = id
	}
}

// NewDispatcher creates a dispatcher over the given registry. The registry
// is expected to be fully populated before serving begins.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		chats:    NewChatStore(),
		tasks:    NewMemoryTaskStore(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	d.chats.Instrument(d.metrics)
	return d
}

// Chats returns the dispatcher's chat session store.
func (d *Dispatcher) Chats() *ChatStore { return d.chats }

// Tasks returns the dispatcher's task store.
func (d *Dispatcher) Tasks() TaskStore { return d.tasks }

// Registry returns the method registry, for startup reporting.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Metrics returns the dispatch metrics, nil when metrics are disabled.
// DispatchMetrics methods tolerate a nil receiver.
func (d *Dispatcher) Metrics() *telemetry.DispatchMetrics { return d.metrics }

// Handle resolves and invokes the handler for req. It returns either a
// complete response or a stream handle for the delivery engine, never both.
// Domain failures come back as error envelopes; registry errors keep their
// kinds, anything else a handler raises is reduced to a handler fault so
// internals never leak to the wire.
func (d *Dispatcher) Handle(ctx context.Context, req *arc.Request) (*arc.Response, *StreamHandle) {
	handler, err := d.registry.Resolve(req.TargetAgent, req.Method)
	if err != nil {
		d.record(ctx, req, "rejected")
		return d.errorResponse(req, err), nil
	}

	call := &Call{
		RequestID:    req.ID,
		RequestAgent: req.RequestAgent,
		TargetAgent:  req.TargetAgent,
		Method:       req.Method,
		TraceID:      req.TraceID,
		Params:       params(req),
		Chats:        d.chats,
		Tasks:        d.tasks,
		Logger:       d.logger,
	}

	reply, err := handler(ctx, call)
	if err != nil {
		d.record(ctx, req, "error")
		return d.errorResponse(req, err), nil
	}
	if reply == nil {
		d.record(ctx, req, "error")
		return d.errorResponse(req, errors.Newf(errors.CodeHandlerFault,
			"handler returned no reply")), nil
	}

	if reply.Stream != nil {
		d.record(ctx, req, "stream")
		return nil, &StreamHandle{
			ChatID:      reply.ChatID,
			RequestID:   req.ID,
			TargetAgent: req.TargetAgent,
			Source:      reply.Stream,
		}
	}

	d.record(ctx, req, "ok")
	return &arc.Response{
		ARC:           arc.Version,
		ID:            req.ID,
		ResponseAgent: req.TargetAgent,
		TargetAgent:   req.RequestAgent,
		Result:        reply.Result,
		TraceID:       req.TraceID,
	}, nil
}

func (d *Dispatcher) errorResponse(req *arc.Request, err error) *arc.Response {
	ae := errors.AsARCError(err)
	responseAgent := d.serverID
	if responseAgent == "" {
		responseAgent = req.TargetAgent
	}
	return &arc.Response{
		ARC:           arc.Version,
		ID:            req.ID,
		ResponseAgent: responseAgent,
		TargetAgent:   req.RequestAgent,
		Error: &arc.ErrorObject{
			Code:    ae.WireCode,
			Kind:    string(ae.Code),
			Message: ae.Message,
		},
		TraceID: req.TraceID,
	}
}

func (d *Dispatcher) record(ctx context.Context, req *arc.Request, outcome string) {
	if d.metrics == nil {
		return
	}
	d.metrics.RecordRequest(ctx, req.TargetAgent, req.Method, outcome)
}

func params(req *arc.Request) arc.Params {
	if req.Params == nil {
		return arc.Params{}
	}
	return req.Params
}
