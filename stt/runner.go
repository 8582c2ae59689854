package stt

import (
	"context"
)

// SegmentRunner invokes a Bridge for one SpeechSegment and builds the
// TranscriptionResult, filling the error branch on failure instead of
// propagating it, so one bad segment never stops the dispatch loop.
// Grounded on original_source/stt.rs's run_stt.
type SegmentRunner struct {
	bridge    *Bridge
	registry  *SpeakerRegistry
	apiKey    string
	languages []string
}

// NewSegmentRunner builds a runner. registry, when non-nil, is updated
// with every non-empty segment embedding; it may be nil to skip that.
// Either way results carry only the raw per-segment embedding, not the
// ID the registry assigns. apiKey and languages are forwarded to every Bridge.Run call;
// apiKey is meaningful only when the dispatch loop's Strategy is
// remote-fallback.
func NewSegmentRunner(bridge *Bridge, registry *SpeakerRegistry, apiKey string, languages []string) *SegmentRunner {
	return &SegmentRunner{bridge: bridge, registry: registry, apiKey: apiKey, languages: languages}
}

// Run transcribes one segment and produces exactly one
// TranscriptionResult. path is the file the dispatch loop wrote the
// whole chunk's (post-resample) audio to, or "" when file capture is
// disabled; it is attached to every segment from that chunk unchanged.
func (r *SegmentRunner) Run(ctx context.Context, chunk AudioChunk, seg SpeechSegment, timestamp int64, path string) TranscriptionResult {
	result := TranscriptionResult{
		Input: AudioInput{
			Samples:    seg.Samples,
			SampleRate: seg.SampleRate,
			Channels:   1,
			Device:     chunk.Device,
		},
		Path:             path,
		SpeakerEmbedding: seg.Embedding,
		Timestamp:        timestamp,
		StartTime:        seg.Start,
		EndTime:          seg.End,
	}

	if r.registry != nil && len(seg.Embedding) > 0 {
		r.registry.Identify(seg.Embedding)
	}

	opts := TranscribeOptions{Device: chunk.Device, APIKey: r.apiKey, Languages: r.languages}
	text, err := r.bridge.Run(ctx, seg.Samples, seg.SampleRate, opts)
	if err != nil {
		errText := err.Error()
		result.Error = &errText
		result.SpeakerEmbedding = nil
		return result
	}
	result.Transcription = &text
	return result
}
