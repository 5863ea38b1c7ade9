package tuning

import "time"

// BoolThrottle limits how often a boolean signal may change. A new value is
// accepted if nothing was accepted yet or if at least Window has passed since
// the last accepted value; otherwise the held value is returned.
type BoolThrottle struct {
	Window time.Duration

	value  bool
	last   time.Time
	primed bool
}

// NewBoolThrottle creates a throttle with the given window
func NewBoolThrottle(window time.Duration) *BoolThrottle {
	return &BoolThrottle{Window: window}
}

// Update offers v at time now and returns the throttled value
func (b *BoolThrottle) Update(v bool, now time.Time) bool {
	if !b.primed || now.Sub(b.last) >= b.Window {
		b.value = v
		b.last = now
		b.primed = true
	}
	return b.value
}

// Value returns the held value
func (b *BoolThrottle) Value() bool { return b.value }

// Reset forgets the held value
func (b *BoolThrottle) Reset() {
	*b = BoolThrottle{Window: b.Window}
}
