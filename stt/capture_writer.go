package stt

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"aiwisper/session"
)

const captureBitsPerSample = 16

// fileWriter is the write_audio_to_file collaborator: it writes one
// chunk's samples to a fresh file per call, named by device and
// timestamp, and reports the path written.
type fileWriter struct {
	dir      string
	writeWAV bool
	writeMP3 bool
}

// NewFileWriter returns an AudioFileWriter that creates files under
// dir. At least one of writeWAV/writeMP3 must be true; when both are,
// WriteAudioToFile writes both and returns the WAV path.
func NewFileWriter(dir string, writeWAV, writeMP3 bool) (AudioFileWriter, error) {
	if dir == "" {
		return nil, &ConfigError{Reason: "file writer requires a non-empty directory"}
	}
	if !writeWAV && !writeMP3 {
		return nil, &ConfigError{Reason: "file writer requires WAV or MP3 output to be enabled"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating capture directory %s: %w", dir, err)
	}
	return &fileWriter{dir: dir, writeWAV: writeWAV, writeMP3: writeMP3}, nil
}

func (f *fileWriter) WriteAudioToFile(samples []float32, sampleRate int, device Device) (string, error) {
	stamp := time.Now().UTC().Format("20060102T150405.000000000Z")
	base := sanitizeForFilename(device.String())
	if base == "" {
		base = "device"
	}

	var primaryPath string

	if f.writeWAV {
		wavPath := filepath.Join(f.dir, fmt.Sprintf("%s-%s.wav", base, stamp))
		w, err := session.NewWAVWriter(wavPath, sampleRate, 1, captureBitsPerSample)
		if err != nil {
			return "", fmt.Errorf("opening WAV capture file: %w", err)
		}
		if err := w.Write(samples); err != nil {
			w.Close()
			return "", fmt.Errorf("writing WAV capture file: %w", err)
		}
		if err := w.Close(); err != nil {
			return "", fmt.Errorf("closing WAV capture file: %w", err)
		}
		primaryPath = wavPath
	}

	if f.writeMP3 {
		mp3Path := filepath.Join(f.dir, fmt.Sprintf("%s-%s.mp3", base, stamp))
		w, err := session.NewShineMP3Writer(mp3Path, sampleRate, 1)
		if err != nil {
			return "", fmt.Errorf("opening MP3 capture file: %w", err)
		}
		if err := w.Write(samples); err != nil {
			w.Close()
			return "", fmt.Errorf("writing MP3 capture file: %w", err)
		}
		if err := w.Close(); err != nil {
			return "", fmt.Errorf("closing MP3 capture file: %w", err)
		}
		if primaryPath == "" {
			primaryPath = mp3Path
		}
	}

	return primaryPath, nil
}

func sanitizeForFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
