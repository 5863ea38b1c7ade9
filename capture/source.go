package capture

import (
	"context"
	"errors"
)

// FrameHandler receives one buffer of mono samples in [-1, 1]. The slice is
// reused by the source after the handler returns and must not be retained.
type FrameHandler func(frame []float64)

// Source delivers fixed-size PCM buffers to a handler, on its own goroutine,
// until stopped.
type Source interface {
	// Start begins delivering frames. It fails if the source is already running.
	Start(ctx context.Context, onFrame FrameHandler) error
	// Stop halts delivery and releases the device. Stopping a stopped source is a no-op.
	Stop() error
	SampleRate() int
	BufferSize() int
}

// Sentinel errors
var (
	ErrAlreadyStarted    = errors.New("source already started")
	ErrNoInputDevice     = errors.New("no input device found")
	ErrInvalidBufferSize = errors.New("buffer size must be positive")
)
