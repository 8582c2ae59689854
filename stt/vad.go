package stt

import (
	"fmt"
	"math"

	"aiwisper/session"
)

const (
	vadWindowMs       = 20
	vadBaseThreshold  = 0.005
	vadConfirmWindows = 3
	vadSilenceWindows = 15
	vadMinRegionMs    = 100
)

// energyVAD is the VAD engine collaborator's energy-based
// implementation, generalizing session/vad.go's DetectSpeechRegions
// with a sensitivity multiplier on the adaptive threshold.
type energyVAD struct {
	sensitivity float64
}

// NewEnergyVAD returns a VADEngine using adaptive energy thresholding.
func NewEnergyVAD(sensitivity VadSensitivity) VADEngine {
	s := float64(sensitivity)
	if s <= 0 {
		s = float64(VadSensitivityNormal)
	}
	return &energyVAD{sensitivity: s}
}

func (v *energyVAD) DetectSpeechRegions(samples []float32, sampleRate int) ([][2]float64, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	windowSamples := (sampleRate * vadWindowMs) / 1000
	if windowSamples <= 0 {
		windowSamples = 1
	}

	var totalEnergy float64
	var windowCount int
	for i := 0; i < len(samples); i += windowSamples {
		end := i + windowSamples
		if end > len(samples) {
			end = len(samples)
		}
		totalEnergy += windowEnergy(samples[i:end])
		windowCount++
	}
	avgEnergy := totalEnergy / float64(windowCount)

	threshold := vadBaseThreshold * v.sensitivity
	if avgEnergy*0.2*v.sensitivity > threshold {
		threshold = avgEnergy * 0.2 * v.sensitivity
	}

	var regions [][2]float64
	var inSpeech bool
	var speechStartSample int
	var silenceCount, speechCount int

	for i := 0; i < len(samples); i += windowSamples {
		end := i + windowSamples
		if end > len(samples) {
			end = len(samples)
		}
		isSpeech := windowEnergy(samples[i:end]) >= threshold

		if isSpeech {
			silenceCount = 0
			speechCount++
			if !inSpeech && speechCount >= vadConfirmWindows {
				inSpeech = true
				speechStartSample = i - (vadConfirmWindows-1)*windowSamples
				if speechStartSample < 0 {
					speechStartSample = 0
				}
			}
			continue
		}

		speechCount = 0
		if inSpeech {
			silenceCount++
			if silenceCount >= vadSilenceWindows {
				endSample := i - vadSilenceWindows*windowSamples
				regions = appendRegionIfLongEnough(regions, speechStartSample, endSample, sampleRate)
				inSpeech = false
				silenceCount = 0
			}
		}
	}

	if inSpeech {
		regions = appendRegionIfLongEnough(regions, speechStartSample, len(samples), sampleRate)
	}
	return regions, nil
}

func appendRegionIfLongEnough(regions [][2]float64, startSample, endSample, sampleRate int) [][2]float64 {
	start := float64(startSample) / float64(sampleRate)
	end := float64(endSample) / float64(sampleRate)
	if (end-start)*1000 >= vadMinRegionMs {
		regions = append(regions, [2]float64{start, end})
	}
	return regions
}

func windowEnergy(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// sileroVAD wraps the ONNX Silero model via session.SileroVADWrapper,
// falling back to the energy detector when the model is unavailable
// exactly as session.SileroVADWrapper.DetectSpeechRegions already does.
type sileroVAD struct {
	wrapper  *session.SileroVADWrapper
	fallback VADEngine
}

// NewSileroVAD loads the Silero model (downloading it on first use via
// the same cache path session.GetGlobalSileroVAD uses) and returns a
// VADEngine, or an error if the model could not be obtained.
func NewSileroVAD(sensitivity VadSensitivity) (VADEngine, error) {
	w, err := session.GetGlobalSileroVAD()
	if err != nil {
		return nil, fmt.Errorf("loading silero VAD: %w", err)
	}
	return &sileroVAD{wrapper: w, fallback: NewEnergyVAD(sensitivity)}, nil
}

func (v *sileroVAD) DetectSpeechRegions(samples []float32, sampleRate int) ([][2]float64, error) {
	if v.wrapper == nil {
		return v.fallback.DetectSpeechRegions(samples, sampleRate)
	}
	regions := v.wrapper.DetectSpeechRegions(samples, sampleRate)
	out := make([][2]float64, len(regions))
	for i, r := range regions {
		out[i] = [2]float64{float64(r.StartMs) / 1000, float64(r.EndMs) / 1000}
	}
	return out, nil
}
