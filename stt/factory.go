package stt

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const defaultTranscribeTimeout = 30 * time.Second

// Channel is what Create returns: the input side a producer sends
// AudioChunks to, the output side a consumer reads TranscriptionResults
// from, the shutdown flag a caller flips to stop the loop, and the
// device control registry a caller uses to start/stop individual
// devices without tearing the loop down.
type Channel struct {
	Input    chan<- AudioChunk
	Output   <-chan TranscriptionResult
	Shutdown *atomic.Bool
	Controls *DeviceControlMap
}

// Create builds every collaborator from cfg, spawns the dispatch loop,
// and returns the channel wiring. It is the Channel Factory component,
// grounded on original_source/stt.rs's create_whisper_channel.
func Create(ctx context.Context, cfg Config) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	local, err := NewLocalModel(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("creating local model: %w", err)
	}

	var strategy Strategy
	switch cfg.Engine {
	case EngineRemote:
		remote, err := NewRemoteClient(ctx, cfg.RemoteAddr)
		if err != nil {
			return nil, fmt.Errorf("creating remote client: %w", err)
		}
		strategy = NewRemoteFallbackStrategy(remote, local)
	default:
		strategy = NewLocalOnlyStrategy(local)
	}
	bridge := NewBridge(strategy, defaultTranscribeTimeout)

	var vad VADEngine
	switch cfg.VAD {
	case VADSilero:
		vad, err = NewSileroVAD(cfg.VadSensitivity)
		if err != nil {
			return nil, fmt.Errorf("creating silero VAD: %w", err)
		}
	default:
		vad = NewEnergyVAD(cfg.VadSensitivity)
	}

	var embedder SpeakerEmbedder
	if cfg.ModelsDir != "" {
		provider, err := NewModelProvider(cfg.ModelsDir)
		if err != nil {
			return nil, fmt.Errorf("creating model provider: %w", err)
		}
		embeddingModelPath, err := provider.GetOrDownloadModel(ctx, "wespeaker-resnet34")
		if err != nil {
			return nil, fmt.Errorf("fetching speaker embedding model: %w", err)
		}
		embedder, err = NewSpeakerEmbedder(embeddingModelPath)
		if err != nil {
			return nil, fmt.Errorf("creating speaker embedder: %w", err)
		}
	}

	segments := NewSegmentSource(vad, embedder)
	registry := NewSpeakerRegistry()

	var writer AudioFileWriter
	if cfg.WriteWAV || cfg.WriteMP3 {
		writer, err = NewFileWriter(cfg.OutputDir, cfg.WriteWAV, cfg.WriteMP3)
		if err != nil {
			return nil, fmt.Errorf("creating file writer: %w", err)
		}
	}

	runner := NewSegmentRunner(bridge, registry, cfg.APIKey, cfg.Languages)
	resampler := NewResampler()

	input := make(chan AudioChunk, QueueCapacity)
	output := make(chan TranscriptionResult, QueueCapacity)
	shutdown := &atomic.Bool{}
	controls := NewDeviceControlMap()

	loop := newDispatchLoop(input, output, shutdown, controls, resampler, segments, runner, writer)
	go loop.run(ctx)

	return &Channel{
		Input:    input,
		Output:   output,
		Shutdown: shutdown,
		Controls: controls,
	}, nil
}
