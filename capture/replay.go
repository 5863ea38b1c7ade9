package capture

import (
	"context"
	"fmt"
	"time"
)

// ReplaySource plays back decoded mono PCM in buffer-sized frames. The last
// partial frame is zero padded. With Loop set it restarts at the end,
// otherwise delivery stops and Done is closed.
type ReplaySource struct {
	Loop     bool
	Realtime bool

	pcm        []float64
	sampleRate int
	bufferSize int
	feeder     feeder
}

// NewReplaySource creates a replay source over pcm
func NewReplaySource(pcm []float64, sampleRate, bufferSize int) (*ReplaySource, error) {
	if bufferSize <= 0 {
		return nil, ErrInvalidBufferSize
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	return &ReplaySource{
		Realtime:   true,
		pcm:        pcm,
		sampleRate: sampleRate,
		bufferSize: bufferSize,
	}, nil
}

// Start begins playback from the beginning
func (r *ReplaySource) Start(ctx context.Context, onFrame FrameHandler) error {
	pos := 0
	produce := func(frame []float64) bool {
		if pos >= len(r.pcm) {
			if !r.Loop || len(r.pcm) == 0 {
				return false
			}
			pos = 0
		}
		n := copy(frame, r.pcm[pos:])
		clear(frame[n:])
		pos += n
		return true
	}

	var interval time.Duration
	if r.Realtime {
		interval = time.Duration(float64(r.bufferSize) / float64(r.sampleRate) * float64(time.Second))
	}
	return r.feeder.start(ctx, interval, make([]float64, r.bufferSize), produce, onFrame)
}

// Stop halts playback
func (r *ReplaySource) Stop() error {
	r.feeder.stop()
	return nil
}

// Done is closed when playback reaches the end of a non-looping source.
// It is nil before Start.
func (r *ReplaySource) Done() <-chan struct{} {
	return r.feeder.finished()
}

// SampleRate returns the sample rate
func (r *ReplaySource) SampleRate() int { return r.sampleRate }

// BufferSize returns the frame length
func (r *ReplaySource) BufferSize() int { return r.bufferSize }

// Frames splits pcm into buffer-sized frames for offline analysis, zero
// padding the last one
func Frames(pcm []float64, bufferSize int) [][]float64 {
	if bufferSize <= 0 {
		return nil
	}
	frames := make([][]float64, 0, (len(pcm)+bufferSize-1)/bufferSize)
	for start := 0; start < len(pcm); start += bufferSize {
		frame := make([]float64, bufferSize)
		copy(frame, pcm[start:])
		frames = append(frames, frame)
	}
	return frames
}
