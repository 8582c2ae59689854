package stt

import "testing"

func TestEnergyVAD_SilenceProducesNoRegions(t *testing.T) {
	v := NewEnergyVAD(VadSensitivityNormal)
	samples := make([]float32, 16000) // 1s of silence at 16kHz

	regions, err := v.DetectSpeechRegions(samples, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("expected no regions for silence, got %v", regions)
	}
}

func TestEnergyVAD_SustainedToneProducesRegion(t *testing.T) {
	v := NewEnergyVAD(VadSensitivityNormal)
	sampleRate := 16000
	samples := make([]float32, sampleRate) // 1s

	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.8
		} else {
			samples[i] = -0.8
		}
	}

	regions, err := v.DetectSpeechRegions(samples, sampleRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) == 0 {
		t.Fatalf("expected at least one region for a sustained loud tone")
	}
	if regions[0][0] < 0 || regions[0][1] > 1.0 {
		t.Errorf("region %v out of [0,1] bounds", regions[0])
	}
}

func TestEnergyVAD_EmptyInputProducesNoRegions(t *testing.T) {
	v := NewEnergyVAD(VadSensitivityNormal)
	regions, err := v.DetectSpeechRegions(nil, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if regions != nil {
		t.Errorf("expected nil regions for empty input, got %v", regions)
	}
}

func TestNewEnergyVAD_NonPositiveSensitivityDefaultsToNormal(t *testing.T) {
	v := NewEnergyVAD(VadSensitivity(0)).(*energyVAD)
	if v.sensitivity != float64(VadSensitivityNormal) {
		t.Errorf("sensitivity = %v, want %v", v.sensitivity, VadSensitivityNormal)
	}
}
