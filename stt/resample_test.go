package stt

import "testing"

func TestResample_SameRateReturnsInputUnchanged(t *testing.T) {
	r := NewResampler()
	samples := []float32{0.1, 0.2, 0.3}
	out, err := r.Resample(samples, 16000, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(samples) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(samples))
	}
	for i := range samples {
		if out[i] != samples[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], samples[i])
		}
	}
}

func TestResample_Downsamples(t *testing.T) {
	r := NewResampler()
	samples := make([]float32, 48000)
	for i := range samples {
		samples[i] = float32(i) / 48000
	}
	out, err := r.Resample(samples, 48000, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantLen := 16000
	if diff := len(out) - wantLen; diff < -1 || diff > 1 {
		t.Errorf("len(out) = %d, want approximately %d", len(out), wantLen)
	}
}

func TestResample_InvalidRate(t *testing.T) {
	r := NewResampler()
	if _, err := r.Resample([]float32{0}, 0, 16000); err == nil {
		t.Errorf("expected an error for a zero source rate")
	}
}
