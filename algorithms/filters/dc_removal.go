package filters

import (
	"fmt"
	"math"
)

// DCRemoval is a one-pole DC blocking filter. Microphones and cheap audio
// interfaces add a DC offset and sub-audio rumble that bias the YIN
// difference function; removing it before estimation keeps low strings stable.
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
//
// The filter keeps state across calls so successive buffers of one stream
// are filtered continuously. It is not safe for concurrent use.
type DCRemoval struct {
	poleLocation float64 // R parameter (0 < R < 1)

	x1 float64 // previous input sample x[n-1]
	y1 float64 // previous output sample y[n-1]
}

// NewDCRemovalWithCutoff creates a filter with an approximate -3dB cutoff.
// The pole is R = 1 - 2*pi*fc/fs.
func NewDCRemovalWithCutoff(sampleRate int, cutoffFreq float64) (*DCRemoval, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if cutoffFreq <= 0 || cutoffFreq >= float64(sampleRate)/(2*math.Pi) {
		return nil, fmt.Errorf("cutoff %.1f Hz outside (0, %.1f)", cutoffFreq, float64(sampleRate)/(2*math.Pi))
	}
	return &DCRemoval{poleLocation: 1.0 - 2.0*math.Pi*cutoffFreq/float64(sampleRate)}, nil
}

// Process filters one sample:
// y[n] = x[n] - x[n-1] + R * y[n-1]
func (dc *DCRemoval) Process(input float64) float64 {
	output := input - dc.x1 + dc.poleLocation*dc.y1
	dc.x1 = input
	dc.y1 = output
	return output
}

// ProcessBuffer filters input into dst, which is grown as needed, and returns it
func (dc *DCRemoval) ProcessBuffer(dst, input []float64) []float64 {
	if cap(dst) < len(input) {
		dst = make([]float64, len(input))
	}
	dst = dst[:len(input)]
	for i, sample := range input {
		dst[i] = dc.Process(sample)
	}
	return dst
}

// Reset clears the filter state
func (dc *DCRemoval) Reset() {
	dc.x1 = 0
	dc.y1 = 0
}

// CutoffFrequency returns the approximate -3dB cutoff at sampleRate
func (dc *DCRemoval) CutoffFrequency(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return (1.0 - dc.poleLocation) * float64(sampleRate) / (2.0 * math.Pi)
}
