package stt

import (
	"context"
	"testing"
)

func TestSegmentRunner_SuccessPopulatesTranscription(t *testing.T) {
	strategy := &stubStrategy{text: "hello world"}
	bridge := NewBridge(strategy, 0)
	runner := NewSegmentRunner(bridge, NewSpeakerRegistry(), "", nil)

	chunk := AudioChunk{Samples: []float32{9, 9, 9, 9}, SampleRate: CanonicalSampleRate, Channels: 2, Device: Device{ID: "mic"}}
	seg := SpeechSegment{Samples: []float32{0, 0}, SampleRate: CanonicalSampleRate, Start: 1, End: 2}

	result := runner.Run(context.Background(), chunk, seg, 1000, "/tmp/capture.wav")

	if result.Transcription == nil || *result.Transcription != "hello world" {
		t.Fatalf("Transcription = %v, want \"hello world\"", result.Transcription)
	}
	if result.Error != nil {
		t.Errorf("Error = %v, want nil", *result.Error)
	}
	if result.Path != "/tmp/capture.wav" {
		t.Errorf("Path = %q, want %q", result.Path, "/tmp/capture.wav")
	}
	if result.StartTime != 1 || result.EndTime != 2 {
		t.Errorf("StartTime/EndTime = %v/%v, want 1/2", result.StartTime, result.EndTime)
	}
	if len(result.Input.Samples) != len(seg.Samples) {
		t.Errorf("Input.Samples = %v, want the segment's own samples %v", result.Input.Samples, seg.Samples)
	}
	if result.Input.Channels != 1 {
		t.Errorf("Input.Channels = %d, want 1 (a segment is always mono)", result.Input.Channels)
	}
}

func TestSegmentRunner_FailurePopulatesError(t *testing.T) {
	strategy := &stubStrategy{err: errContextlessFailure{}}
	bridge := NewBridge(strategy, 0)
	runner := NewSegmentRunner(bridge, nil, "", nil)

	chunk := AudioChunk{Samples: []float32{0}, SampleRate: CanonicalSampleRate, Device: Device{ID: "mic"}}
	seg := SpeechSegment{Samples: []float32{0}, SampleRate: CanonicalSampleRate}

	result := runner.Run(context.Background(), chunk, seg, 1000, "")

	if result.Transcription != nil {
		t.Errorf("Transcription = %v, want nil", *result.Transcription)
	}
	if result.Error == nil {
		t.Fatalf("Error = nil, want an error message")
	}
}

func TestSegmentRunner_NoPathLeavesPathEmpty(t *testing.T) {
	strategy := &stubStrategy{text: "ok"}
	bridge := NewBridge(strategy, 0)
	runner := NewSegmentRunner(bridge, nil, "", nil)

	chunk := AudioChunk{Samples: []float32{0}, SampleRate: CanonicalSampleRate, Device: Device{ID: "mic"}}
	seg := SpeechSegment{Samples: []float32{0}, SampleRate: CanonicalSampleRate}

	result := runner.Run(context.Background(), chunk, seg, 1000, "")
	if result.Path != "" {
		t.Errorf("Path = %q, want empty when the chunk was written with no path", result.Path)
	}
}

func TestSegmentRunner_ThreadsAPIKeyLanguagesAndDeviceIntoStrategy(t *testing.T) {
	strategy := &stubStrategy{text: "ok"}
	bridge := NewBridge(strategy, 0)
	runner := NewSegmentRunner(bridge, nil, "secret-key", []string{"en", "ru"})

	chunk := AudioChunk{Samples: []float32{0}, SampleRate: CanonicalSampleRate, Device: Device{ID: "mic"}}
	seg := SpeechSegment{Samples: []float32{0}, SampleRate: CanonicalSampleRate}

	runner.Run(context.Background(), chunk, seg, 1000, "")

	if strategy.lastOpts.APIKey != "secret-key" {
		t.Errorf("APIKey = %q, want %q", strategy.lastOpts.APIKey, "secret-key")
	}
	if len(strategy.lastOpts.Languages) != 2 || strategy.lastOpts.Languages[0] != "en" {
		t.Errorf("Languages = %v, want [en ru]", strategy.lastOpts.Languages)
	}
	if strategy.lastOpts.Device != chunk.Device {
		t.Errorf("Device = %v, want %v", strategy.lastOpts.Device, chunk.Device)
	}
}

type errContextlessFailure struct{}

func (errContextlessFailure) Error() string { return "transcription failed" }
