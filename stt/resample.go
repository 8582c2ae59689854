package stt

import "fmt"

// linearResampler is the resample collaborator, grounded on
// session/mp3_reader.go's resampleLinear: plain linear interpolation,
// no anti-alias filtering.
type linearResampler struct{}

// NewResampler returns the linear-interpolation Resampler used by the
// dispatch loop to bring every chunk to CanonicalSampleRate before
// segmentation.
func NewResampler() Resampler {
	return linearResampler{}
}

func (linearResampler) Resample(samples []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("resample: invalid rate from=%d to=%d", fromRate, toRate)
	}
	if fromRate == toRate {
		return samples, nil
	}

	ratio := float64(fromRate) / float64(toRate)
	newLen := int(float64(len(samples)) / ratio)
	out := make([]float32, newLen)

	for i := 0; i < newLen; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))

		switch {
		case srcIdx+1 < len(samples):
			out[i] = samples[srcIdx]*(1-frac) + samples[srcIdx+1]*frac
		case srcIdx < len(samples):
			out[i] = samples[srcIdx]
		}
	}
	return out, nil
}
