package stt

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type stubResampler struct{ called int }

func (r *stubResampler) Resample(samples []float32, fromRate, toRate int) ([]float32, error) {
	r.called++
	return samples, nil
}

type stubSegmentSource struct {
	segments []SpeechSegment
	err      error
	calls    int
}

func (s *stubSegmentSource) PrepareSegments(ctx context.Context, chunk AudioChunk) ([]SpeechSegment, error) {
	s.calls++
	return s.segments, s.err
}

func newTestRunner(text string) *SegmentRunner {
	bridge := NewBridge(&stubStrategy{text: text}, 0)
	return NewSegmentRunner(bridge, nil, "", nil)
}

type stubFileWriter struct {
	path string
	err  error
	n    int
}

func (w *stubFileWriter) WriteAudioToFile(samples []float32, sampleRate int, device Device) (string, error) {
	w.n++
	return w.path, w.err
}

func TestDispatchLoop_WritesWholeChunkOncePerChunkNotPerSegment(t *testing.T) {
	input := make(chan AudioChunk, 1)
	output := make(chan TranscriptionResult, 2)
	shutdown := &atomic.Bool{}
	controls := NewDeviceControlMap()
	device := Device{ID: "mic"}
	controls.Set(device, NewDeviceControl(true))

	segments := &stubSegmentSource{segments: []SpeechSegment{
		{Samples: []float32{0}, SampleRate: CanonicalSampleRate},
		{Samples: []float32{0}, SampleRate: CanonicalSampleRate},
	}}
	writer := &stubFileWriter{path: "/tmp/chunk.wav"}
	loop := newDispatchLoop(input, output, shutdown, controls, &stubResampler{}, segments, newTestRunner("x"), writer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.run(ctx)

	input <- AudioChunk{Samples: []float32{0, 0}, SampleRate: CanonicalSampleRate, Device: device}

	for i := 0; i < 2; i++ {
		select {
		case res := <-output:
			if res.Path != "/tmp/chunk.wav" {
				t.Errorf("result %d Path = %q, want %q", i, res.Path, "/tmp/chunk.wav")
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for result %d", i)
		}
	}
	if writer.n != 1 {
		t.Errorf("writer called %d times, want exactly 1 per chunk regardless of segment count", writer.n)
	}
}

func TestDispatchLoop_StoppedDeviceProducesNoOutput(t *testing.T) {
	input := make(chan AudioChunk, 1)
	output := make(chan TranscriptionResult, 1)
	shutdown := &atomic.Bool{}
	controls := NewDeviceControlMap()
	device := Device{ID: "mic"}
	controls.Set(device, NewDeviceControl(false))

	segments := &stubSegmentSource{segments: []SpeechSegment{{Samples: []float32{0}, SampleRate: CanonicalSampleRate}}}
	loop := newDispatchLoop(input, output, shutdown, controls, &stubResampler{}, segments, newTestRunner("x"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.run(ctx)

	input <- AudioChunk{Samples: []float32{0, 0}, SampleRate: CanonicalSampleRate, Device: device}

	select {
	case res := <-output:
		t.Fatalf("expected no output for a stopped device, got %+v", res)
	case <-time.After(100 * time.Millisecond):
	}
	if segments.calls != 0 {
		t.Errorf("PrepareSegments called %d times, want 0 for a stopped device", segments.calls)
	}
}

func TestDispatchLoop_UnknownDeviceProducesNoOutput(t *testing.T) {
	input := make(chan AudioChunk, 1)
	output := make(chan TranscriptionResult, 1)
	shutdown := &atomic.Bool{}
	controls := NewDeviceControlMap()

	segments := &stubSegmentSource{segments: []SpeechSegment{{Samples: []float32{0}, SampleRate: CanonicalSampleRate}}}
	loop := newDispatchLoop(input, output, shutdown, controls, &stubResampler{}, segments, newTestRunner("x"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.run(ctx)

	input <- AudioChunk{Samples: []float32{0, 0}, SampleRate: CanonicalSampleRate, Device: Device{ID: "unregistered"}}

	select {
	case res := <-output:
		t.Fatalf("expected no output for an unregistered device, got %+v", res)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatchLoop_RunningDeviceProducesResults(t *testing.T) {
	input := make(chan AudioChunk, 1)
	output := make(chan TranscriptionResult, 1)
	shutdown := &atomic.Bool{}
	controls := NewDeviceControlMap()
	device := Device{ID: "mic"}
	controls.Set(device, NewDeviceControl(true))

	segments := &stubSegmentSource{segments: []SpeechSegment{{Samples: []float32{0}, SampleRate: CanonicalSampleRate}}}
	loop := newDispatchLoop(input, output, shutdown, controls, &stubResampler{}, segments, newTestRunner("transcribed text"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.run(ctx)

	input <- AudioChunk{Samples: []float32{0, 0}, SampleRate: CanonicalSampleRate, Device: device}

	select {
	case res := <-output:
		if res.Transcription == nil || *res.Transcription != "transcribed text" {
			t.Errorf("Transcription = %v, want \"transcribed text\"", res.Transcription)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for a result from a running device")
	}
}

func TestDispatchLoop_ShutdownStopsProducingOutput(t *testing.T) {
	input := make(chan AudioChunk, 2)
	output := make(chan TranscriptionResult, 2)
	shutdown := &atomic.Bool{}
	controls := NewDeviceControlMap()
	device := Device{ID: "mic"}
	controls.Set(device, NewDeviceControl(true))

	segments := &stubSegmentSource{segments: []SpeechSegment{{Samples: []float32{0}, SampleRate: CanonicalSampleRate}}}
	loop := newDispatchLoop(input, output, shutdown, controls, &stubResampler{}, segments, newTestRunner("x"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.run(ctx)

	input <- AudioChunk{Samples: []float32{0, 0}, SampleRate: CanonicalSampleRate, Device: device}
	<-output // drain the first result to know the loop has processed one chunk

	shutdown.Store(true)
	time.Sleep(20 * time.Millisecond) // give the loop a chance to observe the flag

	input <- AudioChunk{Samples: []float32{0, 0}, SampleRate: CanonicalSampleRate, Device: device}

	select {
	case res := <-output:
		t.Fatalf("expected no further output after shutdown, got %+v", res)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatchLoop_ResamplesNonCanonicalRate(t *testing.T) {
	input := make(chan AudioChunk, 1)
	output := make(chan TranscriptionResult, 1)
	shutdown := &atomic.Bool{}
	controls := NewDeviceControlMap()
	device := Device{ID: "mic"}
	controls.Set(device, NewDeviceControl(true))

	resampler := &stubResampler{}
	segments := &stubSegmentSource{segments: []SpeechSegment{{Samples: []float32{0}, SampleRate: CanonicalSampleRate}}}
	loop := newDispatchLoop(input, output, shutdown, controls, resampler, segments, newTestRunner("x"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.run(ctx)

	input <- AudioChunk{Samples: []float32{0, 0}, SampleRate: 48000, Device: device}
	<-output

	if resampler.called != 1 {
		t.Errorf("resampler called %d times, want 1 for a non-canonical sample rate", resampler.called)
	}
}
