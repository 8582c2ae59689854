package stt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"aiwisper/models"
)

// auxModelInfo describes a non-whisper model (speaker embedding,
// segmentation) that models.Registry does not carry entries for.
type auxModelInfo struct {
	fileName    string
	downloadURL string
	sizeBytes   int64
}

// auxModels is the local registry get_or_download_model falls back to
// for model IDs models.GetModelByID doesn't know about, mirroring the
// shape of models.ModelInfo but scoped to what stt actually needs.
var auxModels = map[string]auxModelInfo{
	"wespeaker-resnet34": {
		fileName:    "wespeaker-resnet34.onnx",
		downloadURL: "https://huggingface.co/Wespeaker/wespeaker-voxceleb-resnet34-LM/resolve/main/wespeaker_resnet34.onnx",
		sizeBytes:   27_000_000,
	},
	"silero-vad-v5": {
		fileName:    "silero_vad.onnx",
		downloadURL: "https://huggingface.co/onnx-community/silero-vad/resolve/main/silero_vad.onnx",
		sizeBytes:   2_300_000,
	},
}

// modelProvider implements ModelProvider, resolving whisper GGML
// models through models.Manager and everything else through the
// auxModels table plus models.DownloadFile directly.
type modelProvider struct {
	manager *models.Manager
}

// NewModelProvider returns a ModelProvider rooted at modelsDir.
func NewModelProvider(modelsDir string) (ModelProvider, error) {
	mgr, err := models.NewManager(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("creating model manager: %w", err)
	}
	return &modelProvider{manager: mgr}, nil
}

func (p *modelProvider) GetOrDownloadModel(ctx context.Context, modelID string) (string, error) {
	if info := models.GetModelByID(modelID); info != nil {
		if !p.manager.IsModelDownloaded(modelID) {
			if err := p.downloadWhisperModel(ctx, modelID, info); err != nil {
				return "", err
			}
		}
		return p.manager.GetModelPath(modelID), nil
	}

	aux, ok := auxModels[modelID]
	if !ok {
		return "", fmt.Errorf("unknown model id %q", modelID)
	}
	destPath := filepath.Join(p.manager.GetModelsDir(), aux.fileName)
	if stat, err := os.Stat(destPath); err == nil && stat.Size() > 0 {
		return destPath, nil
	}
	if err := models.DownloadFile(ctx, aux.downloadURL, destPath, aux.sizeBytes, nil); err != nil {
		return "", fmt.Errorf("downloading %s: %w", modelID, err)
	}
	return destPath, nil
}

func (p *modelProvider) downloadWhisperModel(ctx context.Context, modelID string, info *models.ModelInfo) error {
	destPath := p.manager.GetModelPath(modelID)
	if err := models.DownloadFile(ctx, info.DownloadURL, destPath, info.SizeBytes, nil); err != nil {
		return fmt.Errorf("downloading %s: %w", modelID, err)
	}
	return nil
}
