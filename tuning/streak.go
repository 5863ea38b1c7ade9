package tuning

import "github.com/RyanBlaney/sonido-tuner/algorithms/common"

// StreakBuffer counts consecutive in-tune hits for one target, up to a
// fixed capacity.
type StreakBuffer struct {
	capacity int
	hits     int
}

// NewStreakBuffer creates an empty streak buffer
func NewStreakBuffer(capacity int) *StreakBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &StreakBuffer{capacity: capacity}
}

// Push records a hit. Hits beyond capacity are dropped.
func (s *StreakBuffer) Push() {
	if s.hits < s.capacity {
		s.hits++
	}
}

// Len returns the number of recorded hits
func (s *StreakBuffer) Len() int { return s.hits }

// Cap returns the capacity
func (s *StreakBuffer) Cap() int { return s.capacity }

// Clear drops all hits
func (s *StreakBuffer) Clear() { s.hits = 0 }

// Closeness returns len/cap clamped to [0, 1]
func (s *StreakBuffer) Closeness() float64 {
	return common.Clamp(float64(s.hits)/float64(s.capacity), 0, 1)
}
