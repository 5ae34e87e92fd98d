// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	goerrors "errors"
	"io"
	"testing"
	"time"

	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/errors"
)

// frameRecorder collects delivered frames and can be armed to fail after a
// given number of writes.
type frameRecorder struct {
	frames    []*arc.StreamFrame
	failAfter int // fail on write failAfter+1 when >= 0
	err       error
}

func (r *frameRecorder) WriteFrame(frame *arc.StreamFrame) error {
	if r.err != nil && len(r.frames) >= r.failAfter {
		return r.err
	}
	r.frames = append(r.frames, frame)
	return nil
}

func newHandle(source FragmentSource) *StreamHandle {
	return &StreamHandle{ChatID: "chat_abc", RequestID: "req-1", Source: source}
}

func TestDeliverOrdering(t *testing.T) {
	rec := &frameRecorder{}
	handle := newHandle(Fragments("Flight ", "options ", "found."))

	if err := Deliver(context.Background(), handle, rec); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	if len(rec.frames) != 4 {
		t.Fatalf("expected 3 content frames plus final, got %d", len(rec.frames))
	}
	contents := []string{"Flight ", "options ", "found."}
	for i, want := range contents {
		frame := rec.frames[i]
		if frame.FragmentIndex != i {
			t.Errorf("frame %d has index %d", i, frame.FragmentIndex)
		}
		if frame.Content != want {
			t.Errorf("frame %d content %q, want %q", i, frame.Content, want)
		}
		if frame.IsFinal {
			t.Errorf("content frame %d marked final", i)
		}
		if frame.ChatID != "chat_abc" || frame.RequestID != "req-1" {
			t.Errorf("frame %d lost its identity: %+v", i, frame)
		}
	}

	final := rec.frames[3]
	if !final.IsFinal {
		t.Error("last frame is not final")
	}
	if final.FragmentIndex != 3 {
		t.Errorf("final frame index %d, want 3", final.FragmentIndex)
	}
	if final.Content != "" {
		t.Errorf("final frame carries content %q", final.Content)
	}
}

func TestDeliverEmptySource(t *testing.T) {
	rec := &frameRecorder{}
	if err := Deliver(context.Background(), newHandle(Fragments()), rec); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if len(rec.frames) != 1 {
		t.Fatalf("expected only the final frame, got %d frames", len(rec.frames))
	}
	if !rec.frames[0].IsFinal || rec.frames[0].FragmentIndex != 0 {
		t.Errorf("unexpected final frame: %+v", rec.frames[0])
	}
}

func TestDeliverSourceFailure(t *testing.T) {
	i := 0
	source := FragmentSourceFunc(func(ctx context.Context) (string, error) {
		if i == 2 {
			return "", errors.Newf(errors.CodeHandlerFault, "producer broke")
		}
		i++
		return "part", nil
	})

	rec := &frameRecorder{}
	if err := Deliver(context.Background(), newHandle(source), rec); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	// Two content frames, one in-band error frame, then the final frame.
	if len(rec.frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(rec.frames))
	}
	errFrame := rec.frames[2]
	if errFrame.Error == nil {
		t.Fatal("expected error frame")
	}
	if errFrame.Error.Kind != string(errors.CodeHandlerFault) {
		t.Errorf("error frame kind %q", errFrame.Error.Kind)
	}
	if errFrame.FragmentIndex != 2 {
		t.Errorf("error frame index %d, want 2", errFrame.FragmentIndex)
	}
	final := rec.frames[3]
	if !final.IsFinal || final.FragmentIndex != 3 {
		t.Errorf("unexpected final frame after error: %+v", final)
	}
}

func TestDeliverWrapsPlainSourceError(t *testing.T) {
	source := FragmentSourceFunc(func(ctx context.Context) (string, error) {
		return "", goerrors.New("disk on fire")
	})

	rec := &frameRecorder{}
	if err := Deliver(context.Background(), newHandle(source), rec); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if len(rec.frames) != 2 {
		t.Fatalf("expected error frame plus final, got %d frames", len(rec.frames))
	}
	if rec.frames[0].Error == nil || rec.frames[0].Error.Kind != string(errors.CodeHandlerFault) {
		t.Errorf("plain error not reduced to handler fault: %+v", rec.frames[0].Error)
	}
}

func TestDeliverWriterFailureStopsPulling(t *testing.T) {
	pulled := 0
	source := FragmentSourceFunc(func(ctx context.Context) (string, error) {
		pulled++
		return "part", nil // endless producer
	})

	wantErr := goerrors.New("client went away")
	rec := &frameRecorder{failAfter: 2, err: wantErr}

	err := Deliver(context.Background(), newHandle(source), rec)
	if !goerrors.Is(err, wantErr) {
		t.Fatalf("expected writer error back, got %v", err)
	}
	if pulled != 3 {
		t.Errorf("expected pulling to stop at the failed write, pulled %d fragments", pulled)
	}
}

func TestDeliverContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	pulled := 0
	source := FragmentSourceFunc(func(innerCtx context.Context) (string, error) {
		pulled++
		if pulled == 2 {
			cancel()
		}
		return "part", nil
	})

	rec := &frameRecorder{}
	err := Deliver(ctx, newHandle(source), rec)
	if !goerrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// No final frame on abandonment; the channel is gone.
	for _, frame := range rec.frames {
		if frame.IsFinal {
			t.Error("final frame emitted after cancellation")
		}
	}
}

func TestFragmentsExhaustion(t *testing.T) {
	source := Fragments("a", "b")
	ctx := context.Background()

	for _, want := range []string{"a", "b"} {
		got, err := source.Next(ctx)
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if got != want {
			t.Errorf("got fragment %q, want %q", got, want)
		}
	}
	if _, err := source.Next(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF after last fragment, got %v", err)
	}
	// EOF is sticky.
	if _, err := source.Next(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF to repeat, got %v", err)
	}
}

func TestTimedFragmentsCancellation(t *testing.T) {
	source := TimedFragments(time.Minute, "never delivered")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := source.Next(ctx); !goerrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled during delay, got %v", err)
	}
}
