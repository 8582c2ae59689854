package stt

import (
	"context"
	"errors"
	"log"
)

// Strategy picks which engine(s) transcribe a segment's samples.
type Strategy interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int, opts TranscribeOptions) (string, error)
}

// localOnlyStrategy always calls the local model, the EngineLocal
// routing of SPEC_FULL.md's Transcription Strategy.
type localOnlyStrategy struct {
	local LocalModel
}

func NewLocalOnlyStrategy(local LocalModel) Strategy {
	return &localOnlyStrategy{local: local}
}

func (s *localOnlyStrategy) Transcribe(ctx context.Context, samples []float32, sampleRate int, opts TranscribeOptions) (string, error) {
	return s.local.Transcribe(ctx, samples, sampleRate, opts.Languages)
}

// remoteFallbackStrategy tries the remote client first; on any remote
// failure it logs at error level tagged with the device and falls back
// to the local model, matching original_source/stt.rs's Deepgram/Whisper
// branch and ai/hybrid_transcription.go's dual-engine logging style.
type remoteFallbackStrategy struct {
	remote RemoteClient
	local  LocalModel
}

func NewRemoteFallbackStrategy(remote RemoteClient, local LocalModel) Strategy {
	return &remoteFallbackStrategy{remote: remote, local: local}
}

func (s *remoteFallbackStrategy) Transcribe(ctx context.Context, samples []float32, sampleRate int, opts TranscribeOptions) (string, error) {
	text, err := s.remote.TranscribeRemote(ctx, samples, sampleRate, opts)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, context.Canceled) {
		return "", err
	}
	log.Printf("ERROR: remote transcription failed for device %s, falling back to local: %v", opts.Device, err)
	return s.local.Transcribe(ctx, samples, sampleRate, opts.Languages)
}
