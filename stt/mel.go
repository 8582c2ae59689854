package stt

import (
	"embed"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

//go:embed assets
var melAssets embed.FS

const (
	melNumBins80  = 80
	melNumBins128 = 128
	melNFFTBins   = 201 // NFFT/2 + 1 for NFFT=400, matching whisper.cpp's filterbank layout
)

// MelFilterbank is a row-major [NMels][NFFTBins] table of filter
// weights, loaded from the embedded resource matching a model's bin
// count. It mirrors the table whisper.cpp itself reads from its own
// mel filter asset, computed here with the same HTK formula
// ai.createMelFilterbank uses for the in-process GigaAM path.
type MelFilterbank struct {
	NMels    int
	NFFTBins int
	weights  []float32 // len == NMels*NFFTBins
}

// Row returns the filter weights for mel bin m.
func (f *MelFilterbank) Row(m int) []float32 {
	return f.weights[m*f.NFFTBins : (m+1)*f.NFFTBins]
}

// LoadMelFilterbank loads the embedded filter table sized for nMels
// bins. Only 80 and 128 are shipped; any other count is a
// ConfigError, matching the local model's startup-time validation.
func LoadMelFilterbank(nMels int) (*MelFilterbank, error) {
	var path string
	switch nMels {
	case melNumBins80:
		path = "assets/whisper/melfilters.bytes"
	case melNumBins128:
		path = "assets/whisper/melfilters128.bytes"
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unsupported mel bin count %d (only 80 and 128 are embedded)", nMels)}
	}

	raw, err := melAssets.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading mel filterbank %s: %w", path, err)
	}
	want := nMels * melNFFTBins * 4
	if len(raw) != want {
		return nil, fmt.Errorf("mel filterbank %s: got %d bytes, want %d", path, len(raw), want)
	}

	weights := make([]float32, nMels*melNFFTBins)
	for i := range weights {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		weights[i] = math.Float32frombits(bits)
	}
	return &MelFilterbank{NMels: nMels, NFFTBins: melNFFTBins, weights: weights}, nil
}

// NumMelBinsForModel infers a model's mel bin count from its file
// name: "large-v3"-named checkpoints (ggml-large-v3, ggml-large-v3-turbo)
// use the 128-bin filterbank, everything else uses 80, matching
// whisper.cpp's own convention for those releases.
func NumMelBinsForModel(modelPath string) int {
	if strings.Contains(modelPath, "large-v3") {
		return melNumBins128
	}
	return melNumBins80
}
