package stt

import "testing"

func TestLoadMelFilterbank_80Bins(t *testing.T) {
	filter, err := LoadMelFilterbank(80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.NMels != 80 {
		t.Errorf("NMels = %d, want 80", filter.NMels)
	}
	if len(filter.Row(0)) != melNFFTBins {
		t.Errorf("row length = %d, want %d", len(filter.Row(0)), melNFFTBins)
	}
}

func TestLoadMelFilterbank_128Bins(t *testing.T) {
	filter, err := LoadMelFilterbank(128)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.NMels != 128 {
		t.Errorf("NMels = %d, want 128", filter.NMels)
	}
}

func TestLoadMelFilterbank_UnsupportedBinCount(t *testing.T) {
	_, err := LoadMelFilterbank(64)
	if err == nil {
		t.Fatalf("expected an error for an unsupported bin count")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Errorf("err = %T, want *ConfigError", err)
	}
}

func TestNumMelBinsForModel(t *testing.T) {
	cases := []struct {
		path string
		want int
	}{
		{"ggml-base.bin", 80},
		{"ggml-small.bin", 80},
		{"ggml-large-v3.bin", 128},
		{"ggml-large-v3-turbo.bin", 128},
	}
	for _, c := range cases {
		if got := NumMelBinsForModel(c.path); got != c.want {
			t.Errorf("NumMelBinsForModel(%q) = %d, want %d", c.path, got, c.want)
		}
	}
}
