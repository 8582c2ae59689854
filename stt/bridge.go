package stt

import (
	"context"
	"time"
)

// Bridge runs one Strategy call to completion, bounding it with ctx's
// deadline. It mirrors ai/pipeline.go's diarizeWithTimeout: a goroutine
// does the (possibly native, possibly slow) work and reports over a
// buffered channel, so a hung call leaks a goroutine rather than the
// caller. A panicking call is recovered in the goroutine and re-panics
// in Run's caller instead, mirroring the Rust source's handle.join()
// re-panicking the joining thread.
type Bridge struct {
	strategy Strategy
	timeout  time.Duration
}

// NewBridge wraps strategy with a per-call timeout. A zero timeout
// disables the time-based bound; ctx cancellation still applies.
func NewBridge(strategy Strategy, timeout time.Duration) *Bridge {
	return &Bridge{strategy: strategy, timeout: timeout}
}

type bridgeResult struct {
	text     string
	err      error
	panicVal any
}

// Run blocks until the strategy call returns, the bridge's timeout
// elapses, or ctx is canceled, whichever comes first. If the strategy
// call panics, Run re-panics in the caller's goroutine once it observes
// the recovered value; it does not convert a panic into an error.
func (b *Bridge) Run(ctx context.Context, samples []float32, sampleRate int, opts TranscribeOptions) (string, error) {
	callCtx := ctx
	cancel := func() {}
	if b.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, b.timeout)
	}
	defer cancel()

	ch := make(chan bridgeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- bridgeResult{panicVal: r}
			}
		}()
		text, err := b.strategy.Transcribe(callCtx, samples, sampleRate, opts)
		ch <- bridgeResult{text: text, err: err}
	}()

	select {
	case out := <-ch:
		if out.panicVal != nil {
			panic(out.panicVal)
		}
		return out.text, out.err
	case <-callCtx.Done():
		return "", callCtx.Err()
	}
}
