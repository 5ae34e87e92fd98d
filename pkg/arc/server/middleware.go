// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/arcprotocol/arc-go/pkg/errors"
	"github.com/arcprotocol/arc-go/pkg/telemetry"
)

// Middleware transforms a handler into a wrapped handler. Middleware is
// composed once at registration time; the registry stores only the composed
// handler.
type Middleware func(Handler) Handler

// Chain applies middleware to a handler, first middleware outermost.
func Chain(handler Handler, mw ...Middleware) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// Recover converts handler panics into handler faults so no invocation can
// take down the serving loop.
func Recover() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (reply *Reply, err error) {
			defer func() {
				if r := recover(); r != nil {
					reply = nil
					err = errors.Newf(errors.CodeHandlerFault, "handler panic: %v", r)
				}
			}()
			return next(ctx, call)
		}
	}
}

// Trace wraps the handler invocation in an OTEL span carrying the arc.*
// attributes.
func Trace() Middleware {
	tracer := otel.Tracer("arc-go/server")
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*Reply, error) {
			ctx, span := tracer.Start(ctx, "arc.dispatch "+call.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String(telemetry.AttrAgentID, call.TargetAgent),
					attribute.String(telemetry.AttrMethod, call.Method),
					attribute.String(telemetry.AttrRequestID, call.RequestID),
				))
			defer span.End()

			reply, err := next(ctx, call)
			if err != nil {
				ae := errors.AsARCError(err)
				span.RecordError(ae)
				span.SetStatus(codes.Error, ae.Message)
				span.SetAttributes(attribute.String(telemetry.AttrErrorKind, string(ae.Code)))
			}
			return reply, err
		}
	}
}

// Log emits one structured record per invocation with outcome and duration.
func Log(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*Reply, error) {
			start := time.Now()
			reply, err := next(ctx, call)
			attrs := []any{
				slog.String("agent", call.TargetAgent),
				slog.String("method", call.Method),
				slog.String("request_id", call.RequestID),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error_kind", string(errors.AsARCError(err).Code)))
				logger.ErrorContext(ctx, "handler failed", attrs...)
				return reply, err
			}
			if reply != nil && reply.Stream != nil {
				attrs = append(attrs, slog.String("chat_id", reply.ChatID), slog.Bool("streaming", true))
			}
			logger.InfoContext(ctx, "handler completed", attrs...)
			return reply, err
		}
	}
}

// ValidateParams checks the call params against the schema before the
// handler body runs.
func ValidateParams(schema Schema) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*Reply, error) {
			if err := schema.Validate(call.Params); err != nil {
				return nil, err
			}
			return next(ctx, call)
		}
	}
}
