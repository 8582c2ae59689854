package stt

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubStrategy struct {
	text     string
	err      error
	delay    time.Duration
	panic    bool
	lastOpts TranscribeOptions
}

func (s *stubStrategy) Transcribe(ctx context.Context, samples []float32, sampleRate int, opts TranscribeOptions) (string, error) {
	s.lastOpts = opts
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.panic {
		panic("strategy exploded")
	}
	return s.text, s.err
}

func TestBridge_ReturnsStrategyResult(t *testing.T) {
	bridge := NewBridge(&stubStrategy{text: "hello"}, 0)
	text, err := bridge.Run(context.Background(), nil, CanonicalSampleRate, TranscribeOptions{Device: Device{ID: "mic"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q, want %q", text, "hello")
	}
}

func TestBridge_PropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	bridge := NewBridge(&stubStrategy{err: wantErr}, 0)
	_, err := bridge.Run(context.Background(), nil, CanonicalSampleRate, TranscribeOptions{Device: Device{ID: "mic"}})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestBridge_TimesOut(t *testing.T) {
	bridge := NewBridge(&stubStrategy{delay: 200 * time.Millisecond}, 20*time.Millisecond)
	_, err := bridge.Run(context.Background(), nil, CanonicalSampleRate, TranscribeOptions{Device: Device{ID: "mic"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestBridge_RepanicsOnStrategyPanic(t *testing.T) {
	bridge := NewBridge(&stubStrategy{panic: true}, 0)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected Run to re-panic when the strategy call panics")
		}
		if r != "strategy exploded" {
			t.Errorf("recovered value = %v, want %q", r, "strategy exploded")
		}
	}()
	bridge.Run(context.Background(), nil, CanonicalSampleRate, TranscribeOptions{Device: Device{ID: "mic"}})
	t.Fatalf("unreachable: Run should have panicked")
}
