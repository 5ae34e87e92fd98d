// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"io"
	"time"

	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/errors"
)

// FragmentSource produces the fragments of one streamed response. Next
// returns io.EOF after the last fragment. The delivery engine is the sole
// consumer; sources are pulled one fragment at a time and never from more
// than one goroutine.
type FragmentSource interface {
	Next(ctx context.Context) (string, error)
}

// FragmentSourceFunc adapts a function to the FragmentSource interface.
type FragmentSourceFunc func(ctx context.Context) (string, error)

// Next implements FragmentSource.
func (f FragmentSourceFunc) Next(ctx context.Context) (string, error) {
	return f(ctx)
}

// StreamHandle couples a fragment source with the chat and request it
// belongs to. The dispatcher hands it to the delivery engine.
type StreamHandle struct {
	ChatID      string
	RequestID   string
	TargetAgent string
	Source      FragmentSource
}

// FrameWriter pushes one frame to the response channel. An error return
// means the channel is unusable and delivery must stop.
type FrameWriter interface {
	WriteFrame(frame *arc.StreamFrame) error
}

// FrameWriterFunc adapts a function to the FrameWriter interface.
type FrameWriterFunc func(frame *arc.StreamFrame) error

// WriteFrame implements FrameWriter.
func (f FrameWriterFunc) WriteFrame(frame *arc.StreamFrame) error {
	return f(frame)
}

// Deliver pulls fragments from the handle's source and emits one frame per
// fragment, in order, fragment indexes starting at 0 with no gaps. When the
// source is exhausted it emits a final frame with empty content. When the
// source fails it emits one in-band error frame followed by the final
// frame, so a stream the engine controls always terminates. When the writer
// fails or ctx is cancelled it stops pulling and discards the remainder
// rather than consuming an unbounded producer nobody is listening to.
func Deliver(ctx context.Context, handle *StreamHandle, w FrameWriter) error {
	index := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		content, err := handle.Source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fault := errors.AsARCError(err)
			errFrame := &arc.StreamFrame{
				ChatID:        handle.ChatID,
				RequestID:     handle.RequestID,
				FragmentIndex: index,
				Error: &arc.ErrorObject{
					Code:    fault.WireCode,
					Kind:    string(fault.Code),
					Message: fault.Message,
				},
			}
			if werr := w.WriteFrame(errFrame); werr != nil {
				return werr
			}
			index++
			break
		}

		frame := &arc.StreamFrame{
			ChatID:        handle.ChatID,
			RequestID:     handle.RequestID,
			FragmentIndex: index,
			Content:       content,
		}
		if werr := w.WriteFrame(frame); werr != nil {
			return werr
		}
		index++
	}

	final := &arc.StreamFrame{
		ChatID:        handle.ChatID,
		RequestID:     handle.RequestID,
		FragmentIndex: index,
		IsFinal:       true,
	}
	return w.WriteFrame(final)
}

// Fragments returns a source that yields the given parts in order with no
// delay between them.
func Fragments(parts ...string) FragmentSource {
	return TimedFragments(0, parts...)
}

// TimedFragments returns a source that waits delay before each part,
// simulating a producer that thinks between fragments. The wait is
// cooperative: cancellation of ctx interrupts it.
func TimedFragments(delay time.Duration, parts ...string) FragmentSource {
	i := 0
	return FragmentSourceFunc(func(ctx context.Context) (string, error) {
		if i >= len(parts) {
			return "", io.EOF
		}
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
		}
		part := parts[i]
		i++
		return part, nil
	})
}
