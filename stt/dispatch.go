package stt

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// dispatchLoop owns the bounded input/output channels and the single
// sequence of steps applied to every chunk: device-control gate,
// resample, write the whole (post-resample) chunk to disk once,
// prepare segments, run each segment. Grounded on
// original_source/stt.rs's create_whisper_channel tokio task.
type dispatchLoop struct {
	runID    string
	input    <-chan AudioChunk
	output   chan<- TranscriptionResult
	shutdown *atomic.Bool

	controls  *DeviceControlMap
	resampler Resampler
	segments  SegmentSource
	runner    *SegmentRunner
	writer    AudioFileWriter
}

func (d *dispatchLoop) run(ctx context.Context) {
	log.Printf("dispatch[%s]: started", d.runID)
	defer log.Printf("dispatch[%s]: stopped", d.runID)

	for {
		if d.shutdown.Load() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-d.input:
			if !ok {
				log.Printf("dispatch[%s]: input channel closed, terminating", d.runID)
				return
			}
			d.handleChunk(ctx, chunk)
		}
	}
}

func (d *dispatchLoop) handleChunk(ctx context.Context, chunk AudioChunk) {
	control, ok := d.controls.Get(chunk.Device)
	if !ok {
		log.Printf("dispatch[%s]: device %s not found in control list, skipping", d.runID, chunk.Device)
		return
	}
	if !control.IsRunning() {
		log.Printf("dispatch[%s]: device %s stopped, skipping", d.runID, chunk.Device)
		return
	}

	timestamp := time.Now().Unix()

	if chunk.SampleRate != CanonicalSampleRate {
		resampled, err := d.resampler.Resample(chunk.Samples, chunk.SampleRate, CanonicalSampleRate)
		if err != nil {
			log.Printf("ERROR: dispatch[%s]: resampling device %s: %v", d.runID, chunk.Device, err)
			return
		}
		chunk.Samples = resampled
		chunk.SampleRate = CanonicalSampleRate
	}

	var path string
	if d.writer != nil {
		p, err := d.writer.WriteAudioToFile(chunk.Samples, chunk.SampleRate, chunk.Device)
		if err != nil {
			log.Printf("WARNING: dispatch[%s]: failed to write capture file for device %s: %v", d.runID, chunk.Device, err)
		} else {
			path = p
		}
	}

	segments, err := d.segments.PrepareSegments(ctx, chunk)
	if err != nil {
		log.Printf("ERROR: dispatch[%s]: preparing segments for device %s: %v", d.runID, chunk.Device, err)
		return
	}

	for _, seg := range segments {
		if d.shutdown.Load() || ctx.Err() != nil {
			return
		}
		result := d.runner.Run(ctx, chunk, seg, timestamp, path)
		select {
		case d.output <- result:
		case <-ctx.Done():
			return
		}
	}
}

// newDispatchLoop wires one run of the loop; Create calls this once
// and spawns d.run in a goroutine. writer may be nil to disable
// per-chunk file capture.
func newDispatchLoop(input <-chan AudioChunk, output chan<- TranscriptionResult, shutdown *atomic.Bool, controls *DeviceControlMap, resampler Resampler, segments SegmentSource, runner *SegmentRunner, writer AudioFileWriter) *dispatchLoop {
	return &dispatchLoop{
		runID:     uuid.NewString(),
		input:     input,
		output:    output,
		shutdown:  shutdown,
		controls:  controls,
		resampler: resampler,
		segments:  segments,
		runner:    runner,
		writer:    writer,
	}
}
