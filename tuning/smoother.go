package tuning

import (
	"math"
	"time"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
)

const (
	// DefaultStreakCapacity is the number of hits needed for full closeness
	DefaultStreakCapacity = 5
	// DefaultCloseThrottle is the minimum time between isClose changes
	DefaultCloseThrottle = 500 * time.Millisecond

	maxSensitivity = 10
	proxyCents     = 50
)

// Reading is the raw classification of the latest frequency sample
type Reading struct {
	Frequency float64      `json:"frequency"`
	Note      tonal.Note   `json:"note"`
	Status    tonal.Status `json:"status"`
}

// Result is the smoothed tuning signal for one cycle
type Result struct {
	Target TargetNote `json:"target"`
	Raw    Reading    `json:"raw"`

	BaseCents      int     `json:"base_cents"`
	Sensitivity    int     `json:"sensitivity"`
	RoundedCents   int     `json:"rounded_cents"`
	DisplayedCents float64 `json:"displayed_cents"`
	Closeness      float64 `json:"closeness"`

	Hit        bool  `json:"hit"`
	IsClose    bool  `json:"is_close"`
	Locked     bool  `json:"locked"`
	JustLocked bool  `json:"just_locked"`
	TooLow     bool  `json:"too_low"`
	Phase      Phase `json:"phase"`
}

// Smoother turns per-cycle readings against a target into a smoothed
// closeness signal with a one-shot lock event.
type Smoother struct {
	state    *State
	throttle *BoolThrottle
}

// NewSmoother creates a smoother with the given streak capacity and
// isClose throttle window
func NewSmoother(streakCapacity int, closeThrottle time.Duration) *Smoother {
	return &Smoother{
		state:    NewState(streakCapacity),
		throttle: NewBoolThrottle(closeThrottle),
	}
}

// State exposes the underlying tuning state for resets
func (s *Smoother) State() *State {
	return s.state
}

// Clear hard-resets the state and the throttle
func (s *Smoother) Clear() {
	s.state.Clear()
	s.throttle.Reset()
}

// Update runs one tracking cycle. ok is false when the raw reading is not
// classified, in which case nothing is mutated.
func (s *Smoother) Update(target TargetNote, raw Reading, now time.Time) (Result, bool) {
	if raw.Status != tonal.StatusClassified {
		return Result{}, false
	}

	s.state.SetTarget(target)
	onTarget := raw.Note.SemitoneIndex == target.Index()

	r := Result{
		Target:    target,
		Raw:       raw,
		BaseCents: BaseCents(raw, target),
		TooLow:    raw.Frequency < target.Frequency,
	}
	r.Sensitivity = Sensitivity(r.BaseCents)
	r.RoundedCents = int(common.RoundToBasis(float64(r.BaseCents), float64(r.Sensitivity)))

	streak := s.state.Streak(target.Index())
	if r.RoundedCents == 0 && onTarget {
		streak.Push()
		r.Hit = true
	}

	r.Closeness = streak.Closeness()
	r.DisplayedCents = float64(r.RoundedCents) * (1 - r.Closeness)
	if r.DisplayedCents == 0 {
		r.DisplayedCents = 0 // normalize -0
	}

	r.IsClose = s.throttle.Update(onTarget && r.DisplayedCents == 0, now)

	if r.Closeness >= 1 {
		r.JustLocked = s.state.Lock(target.Index())
	}
	r.Locked = s.state.Locked(target.Index())
	r.Phase = s.state.Phase()

	return r, true
}

// BaseCents returns the raw cents when the reading is on the target, and a
// ±50 proxy signed by frequency comparison otherwise.
func BaseCents(raw Reading, target TargetNote) int {
	if raw.Note.SemitoneIndex == target.Index() {
		return raw.Note.Cents
	}
	if raw.Frequency < target.Frequency {
		return -proxyCents
	}
	return proxyCents
}

// Sensitivity returns the rounding basis for a cents offset: coarse when far
// from pitch, up to 10 cents when close.
func Sensitivity(baseCents int) int {
	if baseCents == 0 {
		return maxSensitivity
	}
	s := int(common.RoundHalfUp(100 / (math.Abs(float64(baseCents)) * 2)))
	return max(1, min(maxSensitivity, s))
}
