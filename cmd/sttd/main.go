// Command sttd runs the streaming speech-to-text dispatch pipeline
// against the default capture device and prints one JSON line per
// TranscriptionResult to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"aiwisper/stt"

	"github.com/gen2brain/malgo"
)

const captureSampleRate = 48000

func main() {
	modelPath := flag.String("model", "ggml-base.bin", "path to the local whisper GGML model")
	engine := flag.String("engine", string(stt.EngineLocal), "transcription engine: local or remote")
	remoteAddr := flag.String("remote-addr", "", "remote transcription address (grpc://host:port or ws://host:port/path)")
	apiKey := flag.String("api-key", "", "credential sent to the remote transcription service")
	vad := flag.String("vad", string(stt.VADEnergy), "VAD engine: energy or silero")
	outputDir := flag.String("output-dir", "", "directory to write captured audio files (empty disables capture)")
	writeWAV := flag.Bool("write-wav", false, "write captured audio as WAV alongside transcription")
	writeMP3 := flag.Bool("write-mp3", false, "write captured audio as MP3 alongside transcription")
	modelsDir := flag.String("models-dir", "", "directory for downloaded embedding/segmentation models (empty disables speaker embeddings)")
	languages := flag.String("languages", "", "comma-separated language hints, e.g. \"en,ru\" (empty auto-detects)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := stt.Config{
		Engine:         stt.Engine(*engine),
		ModelPath:      *modelPath,
		RemoteAddr:     *remoteAddr,
		APIKey:         *apiKey,
		VAD:            stt.VADKind(*vad),
		VadSensitivity: stt.VadSensitivityNormal,
		OutputDir:      *outputDir,
		WriteWAV:       *writeWAV,
		WriteMP3:       *writeMP3,
		ModelsDir:      *modelsDir,
		Languages:      splitLanguages(*languages),
	}

	channel, err := stt.Create(ctx, cfg)
	if err != nil {
		log.Fatalf("creating stt channel: %v", err)
	}

	device := stt.Device{ID: "default", Name: "default capture device"}
	channel.Controls.Set(device, stt.NewDeviceControl(true))

	captureDevice, err := startCapture(ctx, device, channel.Input)
	if err != nil {
		log.Fatalf("starting capture: %v", err)
	}
	defer captureDevice.Uninit()

	go printResults(channel.Output)

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	<-stopChan

	log.Println("shutting down")
	channel.Shutdown.Store(true)
	cancel()
	captureDevice.Stop()
}

// startCapture wires a malgo capture device into the dispatch loop's
// input channel, the same device-config shape cmd/testmic/main.go
// uses for its own recording smoke test.
func startCapture(ctx context.Context, device stt.Device, input chan<- stt.AudioChunk) (*malgo.Device, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = captureSampleRate
	deviceConfig.Alsa.NoMMap = 1

	onRecvFrames := func(_, inputSamples []byte, frameCount uint32) {
		samples := bytesToFloat32(inputSamples, int(frameCount))
		chunk := stt.AudioChunk{
			Samples:    samples,
			SampleRate: captureSampleRate,
			Channels:   1,
			Device:     device,
		}
		select {
		case input <- chunk:
		case <-ctx.Done():
		}
	}

	captureDevice, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecvFrames,
	})
	if err != nil {
		return nil, err
	}
	if err := captureDevice.Start(); err != nil {
		return nil, err
	}
	return captureDevice, nil
}

func splitLanguages(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func bytesToFloat32(raw []byte, frameCount int) []float32 {
	out := make([]float32, frameCount)
	for i := 0; i < frameCount; i++ {
		bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}

func printResults(output <-chan stt.TranscriptionResult) {
	enc := json.NewEncoder(os.Stdout)
	for result := range output {
		if err := enc.Encode(result); err != nil {
			log.Printf("ERROR: encoding result: %v", err)
		}
	}
}
