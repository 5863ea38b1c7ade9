package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
)

// ToneSource synthesizes a sine tone with beep, delivered in real time or
// as fast as possible when Realtime is false.
type ToneSource struct {
	Frequency float64
	Amplitude float64
	Realtime  bool

	sampleRate int
	bufferSize int
	feeder     feeder
}

// NewToneSource creates a tone source at the given frequency
func NewToneSource(frequency float64, sampleRate, bufferSize int) (*ToneSource, error) {
	if bufferSize <= 0 {
		return nil, ErrInvalidBufferSize
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if frequency <= 0 || frequency >= float64(sampleRate)/2 {
		return nil, fmt.Errorf("tone frequency %.2f Hz outside (0, %d)", frequency, sampleRate/2)
	}
	return &ToneSource{
		Frequency:  frequency,
		Amplitude:  0.5,
		Realtime:   true,
		sampleRate: sampleRate,
		bufferSize: bufferSize,
	}, nil
}

// NewToneStreamer returns a beep streamer for a sine tone scaled by amplitude
func NewToneStreamer(frequency float64, sampleRate int, amplitude float64) (beep.Streamer, error) {
	tone, err := generators.SineTone(beep.SampleRate(sampleRate), frequency)
	if err != nil {
		return nil, fmt.Errorf("create sine tone: %w", err)
	}
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := tone.Stream(samples)
		for i := range samples[:n] {
			samples[i][0] *= amplitude
			samples[i][1] *= amplitude
		}
		return n, ok
	}), nil
}

// Start begins streaming the tone
func (t *ToneSource) Start(ctx context.Context, onFrame FrameHandler) error {
	streamer, err := NewToneStreamer(t.Frequency, t.sampleRate, t.Amplitude)
	if err != nil {
		return err
	}

	stereo := make([][2]float64, t.bufferSize)
	produce := func(frame []float64) bool {
		n, ok := streamer.Stream(stereo)
		if !ok {
			return false
		}
		for i := range frame {
			frame[i] = 0
			if i < n {
				frame[i] = stereo[i][0]
			}
		}
		return true
	}

	return t.feeder.start(ctx, t.interval(), make([]float64, t.bufferSize), produce, onFrame)
}

// Stop halts the tone
func (t *ToneSource) Stop() error {
	t.feeder.stop()
	return nil
}

// SampleRate returns the sample rate
func (t *ToneSource) SampleRate() int { return t.sampleRate }

// BufferSize returns the frame length
func (t *ToneSource) BufferSize() int { return t.bufferSize }

func (t *ToneSource) interval() time.Duration {
	if !t.Realtime {
		return 0
	}
	return beep.SampleRate(t.sampleRate).D(t.bufferSize)
}
