package stt

import "testing"

func TestConfig_Validate_RequiresModelPath(t *testing.T) {
	cfg := Config{Engine: EngineLocal, VAD: VADEnergy}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected an error when ModelPath is empty")
	}
}

func TestConfig_Validate_RemoteRequiresAddr(t *testing.T) {
	cfg := Config{Engine: EngineRemote, ModelPath: "ggml-base.bin", VAD: VADEnergy}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected an error when Engine is EngineRemote and RemoteAddr is empty")
	}
}

func TestConfig_Validate_RemoteRequiresKnownScheme(t *testing.T) {
	cfg := Config{Engine: EngineRemote, ModelPath: "ggml-base.bin", VAD: VADEnergy, RemoteAddr: "localhost:9000"}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected an error when RemoteAddr has no grpc/ws/wss scheme")
	}
}

func TestConfig_Validate_AcceptsValidRemoteConfig(t *testing.T) {
	cfg := Config{Engine: EngineRemote, ModelPath: "ggml-base.bin", VAD: VADEnergy, RemoteAddr: "grpc://localhost:9000"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfig_Validate_AcceptsValidLocalConfig(t *testing.T) {
	cfg := Config{Engine: EngineLocal, ModelPath: "ggml-base.bin", VAD: VADEnergy}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfig_Validate_WriteWAVRequiresOutputDir(t *testing.T) {
	cfg := Config{Engine: EngineLocal, ModelPath: "ggml-base.bin", VAD: VADEnergy, WriteWAV: true}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected an error when WriteWAV is set without OutputDir")
	}
}

func TestConfig_Validate_RejectsUnknownVAD(t *testing.T) {
	cfg := Config{Engine: EngineLocal, ModelPath: "ggml-base.bin", VAD: VADKind("bogus")}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected an error for an unknown VAD kind")
	}
}
