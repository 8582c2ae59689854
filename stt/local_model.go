package stt

import (
	"context"
	"fmt"

	"aiwisper/ai"
)

// localModel adapts ai.Engine to the LocalModel collaborator. It owns
// the mel filterbank matching the wrapped model's bin count purely as
// a load-time validation step: ai.Engine computes its own filters
// in-process via ai.MelProcessor, so the embedded table here exists to
// fail fast on an unsupported model rather than to feed the engine.
type localModel struct {
	engine *ai.Engine
	filter *MelFilterbank
}

// NewLocalModel loads modelPath through ai.NewEngine and validates that
// its mel bin count has an embedded filter table, returning a
// *ConfigError if not.
func NewLocalModel(modelPath string) (LocalModel, error) {
	nMels := NumMelBinsForModel(modelPath)
	filter, err := LoadMelFilterbank(nMels)
	if err != nil {
		return nil, err
	}

	engine, err := ai.NewEngine(modelPath)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("loading local model %s: %v", modelPath, err)}
	}

	return &localModel{engine: engine, filter: filter}, nil
}

// Transcribe runs one blocking inference call. ai.Engine serializes
// concurrent calls internally with its own mutex, so callers may share
// one localModel across goroutines, but the Blocking Bridge still owns
// per-call cancellation since ai.Engine.Transcribe takes no context.
// Only the first language hint is applied: ai.Engine.SetLanguage takes
// a single code, not a preference list.
func (m *localModel) Transcribe(ctx context.Context, samples []float32, sampleRate int, languages []string) (string, error) {
	if sampleRate != CanonicalSampleRate {
		return "", &ConfigError{Reason: fmt.Sprintf("local model requires %d Hz input, got %d", CanonicalSampleRate, sampleRate)}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(languages) > 0 {
		m.engine.SetLanguage(languages[0])
	}
	return m.engine.Transcribe(samples, false)
}
