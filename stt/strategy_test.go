package stt

import (
	"context"
	"errors"
	"testing"
)

type stubLocalModel struct {
	text string
	err  error
	n    int
}

func (m *stubLocalModel) Transcribe(ctx context.Context, samples []float32, sampleRate int, languages []string) (string, error) {
	m.n++
	return m.text, m.err
}

type stubRemoteClient struct {
	text string
	err  error
	n    int
}

func (m *stubRemoteClient) TranscribeRemote(ctx context.Context, samples []float32, sampleRate int, opts TranscribeOptions) (string, error) {
	m.n++
	return m.text, m.err
}

func TestLocalOnlyStrategy_NeverCallsRemote(t *testing.T) {
	local := &stubLocalModel{text: "local result"}
	strategy := NewLocalOnlyStrategy(local)

	text, err := strategy.Transcribe(context.Background(), nil, CanonicalSampleRate, TranscribeOptions{Device: Device{ID: "mic"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "local result" {
		t.Errorf("text = %q, want %q", text, "local result")
	}
	if local.n != 1 {
		t.Errorf("local called %d times, want 1", local.n)
	}
}

func TestRemoteFallbackStrategy_UsesRemoteOnSuccess(t *testing.T) {
	remote := &stubRemoteClient{text: "remote result"}
	local := &stubLocalModel{text: "local result"}
	strategy := NewRemoteFallbackStrategy(remote, local)

	text, err := strategy.Transcribe(context.Background(), nil, CanonicalSampleRate, TranscribeOptions{Device: Device{ID: "mic"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "remote result" {
		t.Errorf("text = %q, want %q", text, "remote result")
	}
	if local.n != 0 {
		t.Errorf("local should not be called when remote succeeds, was called %d times", local.n)
	}
}

func TestRemoteFallbackStrategy_FallsBackToLocalOnRemoteError(t *testing.T) {
	remote := &stubRemoteClient{err: errors.New("connection refused")}
	local := &stubLocalModel{text: "local result"}
	strategy := NewRemoteFallbackStrategy(remote, local)

	text, err := strategy.Transcribe(context.Background(), nil, CanonicalSampleRate, TranscribeOptions{Device: Device{ID: "mic"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "local result" {
		t.Errorf("text = %q, want %q", text, "local result")
	}
	if remote.n != 1 || local.n != 1 {
		t.Errorf("expected one call each, got remote=%d local=%d", remote.n, local.n)
	}
}

func TestRemoteFallbackStrategy_PropagatesLocalFailureAfterRemoteFailure(t *testing.T) {
	remote := &stubRemoteClient{err: errors.New("timeout")}
	local := &stubLocalModel{err: errors.New("model not loaded")}
	strategy := NewRemoteFallbackStrategy(remote, local)

	_, err := strategy.Transcribe(context.Background(), nil, CanonicalSampleRate, TranscribeOptions{Device: Device{ID: "mic"}})
	if err == nil {
		t.Fatalf("expected an error when both remote and local fail")
	}
}

func TestRemoteFallbackStrategy_DoesNotFallBackOnContextCanceled(t *testing.T) {
	remote := &stubRemoteClient{err: context.Canceled}
	local := &stubLocalModel{text: "local result"}
	strategy := NewRemoteFallbackStrategy(remote, local)

	_, err := strategy.Transcribe(context.Background(), nil, CanonicalSampleRate, TranscribeOptions{Device: Device{ID: "mic"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled to propagate, got %v", err)
	}
	if local.n != 0 {
		t.Errorf("local should not be called on context cancellation, was called %d times", local.n)
	}
}
