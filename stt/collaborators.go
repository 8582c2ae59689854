package stt

import "context"

// Resampler converts samples at fromRate to CanonicalSampleRate (or any
// explicit toRate), matching the resample collaborator of spec.md 6.
type Resampler interface {
	Resample(samples []float32, fromRate, toRate int) ([]float32, error)
}

// SegmentSource lazily produces voiced SpeechSegments from one
// AudioChunk, attaching a speaker embedding to each where one is
// available. It is the prepare_segments collaborator.
type SegmentSource interface {
	PrepareSegments(ctx context.Context, chunk AudioChunk) ([]SpeechSegment, error)
}

// AudioFileWriter persists raw samples to disk and returns the path
// written, the write_audio_to_file collaborator.
type AudioFileWriter interface {
	WriteAudioToFile(samples []float32, sampleRate int, device Device) (string, error)
}

// TranscribeOptions carries the per-call hints a Strategy forwards to
// whichever engine(s) it calls: which device produced the audio,
// optional remote credentials, and language hints. Device and APIKey
// are meaningful to RemoteClient only; Languages applies to both
// engines.
type TranscribeOptions struct {
	Device    Device
	APIKey    string
	Languages []string
}

// LocalModel wraps a loaded local transcription model (process_with_whisper).
// Implementations must tolerate concurrent calls serialized onto a single
// writer; Transcribe blocks for the duration of one inference.
type LocalModel interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int, languages []string) (string, error)
}

// RemoteClient wraps a remote transcription service (transcribe_remote).
type RemoteClient interface {
	TranscribeRemote(ctx context.Context, samples []float32, sampleRate int, opts TranscribeOptions) (string, error)
}

// ModelProvider resolves a named model to a local path, downloading it
// first if necessary (get_or_download_model).
type ModelProvider interface {
	GetOrDownloadModel(ctx context.Context, modelID string) (string, error)
}

// VADEngine detects voiced regions within a chunk of samples, returning
// (start, end) second offsets relative to the chunk start.
type VADEngine interface {
	DetectSpeechRegions(samples []float32, sampleRate int) ([][2]float64, error)
}

// SpeakerEmbedder extracts a fixed-length embedding from one speech
// segment's samples, used for global speaker identity matching.
type SpeakerEmbedder interface {
	Embed(samples []float32, sampleRate int) ([]float32, error)
}
