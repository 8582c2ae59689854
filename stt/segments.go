package stt

import (
	"context"
	"fmt"

	"aiwisper/ai"
)

// segmentSource is the prepare_segments collaborator: it runs VAD over
// a chunk, then extracts a speaker embedding per voiced region,
// mirroring the segment-then-embed flow of ai/pipeline.go's diarize
// step but split out as a standalone, per-chunk-callable stage.
type segmentSource struct {
	vad      VADEngine
	embedder SpeakerEmbedder
}

// NewSegmentSource combines a VADEngine and an optional SpeakerEmbedder
// (nil disables embedding extraction, leaving SpeechSegment.Embedding
// unset) into a SegmentSource.
func NewSegmentSource(vad VADEngine, embedder SpeakerEmbedder) SegmentSource {
	return &segmentSource{vad: vad, embedder: embedder}
}

func (s *segmentSource) PrepareSegments(ctx context.Context, chunk AudioChunk) ([]SpeechSegment, error) {
	regions, err := s.vad.DetectSpeechRegions(chunk.Samples, chunk.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("detecting speech regions: %w", err)
	}

	segments := make([]SpeechSegment, 0, len(regions))
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start, end := region[0], region[1]
		startSample := int(start * float64(chunk.SampleRate))
		endSample := int(end * float64(chunk.SampleRate))
		if startSample < 0 {
			startSample = 0
		}
		if endSample > len(chunk.Samples) {
			endSample = len(chunk.Samples)
		}
		if startSample >= endSample {
			continue
		}

		samples := chunk.Samples[startSample:endSample]
		seg := SpeechSegment{
			Samples:    samples,
			SampleRate: chunk.SampleRate,
			Start:      start,
			End:        end,
		}

		if s.embedder != nil {
			embedding, err := s.embedder.Embed(samples, chunk.SampleRate)
			if err != nil {
				embedding = nil
			}
			seg.Embedding = embedding
		}

		segments = append(segments, seg)
	}
	return segments, nil
}

// speakerEmbedder adapts ai.SpeakerEncoder to the SpeakerEmbedder
// collaborator.
type speakerEmbedder struct {
	encoder *ai.SpeakerEncoder
}

// NewSpeakerEmbedder loads a WeSpeaker ONNX model at modelPath.
func NewSpeakerEmbedder(modelPath string) (SpeakerEmbedder, error) {
	encoder, err := ai.NewSpeakerEncoder(ai.DefaultSpeakerEncoderConfig(modelPath))
	if err != nil {
		return nil, fmt.Errorf("loading speaker encoder: %w", err)
	}
	return &speakerEmbedder{encoder: encoder}, nil
}

func (e *speakerEmbedder) Embed(samples []float32, sampleRate int) ([]float32, error) {
	if sampleRate != CanonicalSampleRate {
		return nil, &ConfigError{Reason: fmt.Sprintf("speaker embedder requires %d Hz input, got %d", CanonicalSampleRate, sampleRate)}
	}
	return e.encoder.Encode(samples)
}
