package tuner

import (
	"math"
	"sync/atomic"
)

// Sampler holds the latest frequency estimate. The audio callback stores,
// the tick goroutine loads; newer values overwrite older ones.
type Sampler struct {
	bits    atomic.Uint64
	updates atomic.Uint64
}

// NewSampler creates a sampler holding 0 (no pitch)
func NewSampler() *Sampler {
	return &Sampler{}
}

// Store records a new estimate
func (s *Sampler) Store(freq float64) {
	s.bits.Store(math.Float64bits(freq))
	s.updates.Add(1)
}

// Load returns the latest estimate
func (s *Sampler) Load() float64 {
	return math.Float64frombits(s.bits.Load())
}

// Updates returns how many estimates have been stored
func (s *Sampler) Updates() uint64 {
	return s.updates.Load()
}

// Reset clears the estimate back to 0
func (s *Sampler) Reset() {
	s.bits.Store(0)
}
