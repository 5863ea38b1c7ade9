package tuning

// Phase is the coarse tuning phase
type Phase int

const (
	// PhaseIdle means there is no current target
	PhaseIdle Phase = iota
	// PhaseTracking means a target is being tuned
	PhaseTracking
	// PhaseLocked means the current target reached full closeness
	PhaseLocked
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTracking:
		return "tracking"
	case PhaseLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// ResetScope selects which targets a soft reset applies to
type ResetScope int

const (
	// ScopeTarget resets only the current target
	ScopeTarget ResetScope = iota
	// ScopeAll resets every target but keeps the current one selected
	ScopeAll
)

// State is the per-session tuning state: the current target plus a streak
// buffer and a sticky locked flag per target. It is owned by a single
// goroutine and is not safe for concurrent use.
type State struct {
	capacity int

	current    TargetNote
	hasCurrent bool

	streaks map[int]*StreakBuffer
	locked  map[int]bool
}

// NewState creates an idle state whose streak buffers hold capacity hits
func NewState(capacity int) *State {
	return &State{
		capacity: capacity,
		streaks:  make(map[int]*StreakBuffer),
		locked:   make(map[int]bool),
	}
}

// Current returns the current target, if any
func (s *State) Current() (TargetNote, bool) {
	return s.current, s.hasCurrent
}

// Phase derives the phase from the current target and its lock
func (s *State) Phase() Phase {
	switch {
	case !s.hasCurrent:
		return PhaseIdle
	case s.locked[s.current.Index()]:
		return PhaseLocked
	default:
		return PhaseTracking
	}
}

// SetTarget makes t current. When it replaces a different target, the
// previous target's streak and lock are cleared. Reports whether the target
// changed.
func (s *State) SetTarget(t TargetNote) bool {
	if s.hasCurrent && s.current.Index() == t.Index() {
		s.current = t
		return false
	}
	if s.hasCurrent {
		s.resetTarget(s.current.Index())
	}
	s.current = t
	s.hasCurrent = true
	return true
}

// Streak returns the streak buffer of a target, creating it on first use
func (s *State) Streak(index int) *StreakBuffer {
	b, ok := s.streaks[index]
	if !ok {
		b = NewStreakBuffer(s.capacity)
		s.streaks[index] = b
	}
	return b
}

// Locked reports whether a target has locked since its last reset
func (s *State) Locked(index int) bool {
	return s.locked[index]
}

// Lock sets the sticky locked flag and reports whether it was newly set
func (s *State) Lock(index int) bool {
	if s.locked[index] {
		return false
	}
	s.locked[index] = true
	return true
}

// Reset clears streaks and locks. ScopeTarget applies to the current target
// only; ScopeAll applies to every target. The current target is kept.
func (s *State) Reset(scope ResetScope) {
	switch scope {
	case ScopeTarget:
		if s.hasCurrent {
			s.resetTarget(s.current.Index())
		}
	case ScopeAll:
		for _, b := range s.streaks {
			b.Clear()
		}
		clear(s.locked)
	}
}

// Clear performs a hard reset back to idle
func (s *State) Clear() {
	s.Reset(ScopeAll)
	s.current = TargetNote{}
	s.hasCurrent = false
}

func (s *State) resetTarget(index int) {
	if b, ok := s.streaks[index]; ok {
		b.Clear()
	}
	delete(s.locked, index)
}
