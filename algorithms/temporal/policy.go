package temporal

import "fmt"

// Condition is the verdict of one assessment of the note window
type Condition int

const (
	// ConditionLongNoise means no pitched run is long enough to trust
	ConditionLongNoise Condition = iota
	// ConditionSilence means the newest entries are sustained silence
	ConditionSilence
	// ConditionStable means a pitched run is long enough to trust
	ConditionStable
)

func (c Condition) String() string {
	switch c {
	case ConditionLongNoise:
		return "long_noise"
	case ConditionSilence:
		return "silence"
	case ConditionStable:
		return "stable"
	default:
		return "unknown"
	}
}

// Policy holds the run-length thresholds used to judge the window
type Policy struct {
	// A pitched run must be strictly longer than this to count as stable
	MinRunLength int `json:"min_run_length"`
	// Number of off-target runs newer than the stable run that signal a re-pluck
	ShortNoiseRuns int `json:"short_noise_runs"`
	// A newest NoPitch run at least this long is silence
	SilenceRunLength int `json:"silence_run_length"`
}

// DefaultPolicy returns the thresholds used by both tuner variants
func DefaultPolicy() Policy {
	return Policy{
		MinRunLength:     3,
		ShortNoiseRuns:   3,
		SilenceRunLength: 2,
	}
}

// Validate checks that the thresholds are usable
func (p Policy) Validate() error {
	if p.MinRunLength < 1 {
		return fmt.Errorf("min run length must be at least 1, got %d", p.MinRunLength)
	}
	if p.ShortNoiseRuns < 1 {
		return fmt.Errorf("short noise runs must be at least 1, got %d", p.ShortNoiseRuns)
	}
	if p.SilenceRunLength < 1 {
		return fmt.Errorf("silence run length must be at least 1, got %d", p.SilenceRunLength)
	}
	return nil
}

// Assessment is the outcome of applying a Policy to a window
type Assessment struct {
	Condition Condition `json:"condition"`

	// Stable is the newest run longer than MinRunLength. Set whenever the
	// condition is not long noise.
	Stable Run `json:"stable"`

	// StablePosition is the position of Stable in the run list
	StablePosition int `json:"stable_position"`

	// ShortNoise is set when at least ShortNoiseRuns off-target runs are
	// newer than the stable run
	ShortNoise bool `json:"short_noise"`
	NoiseRuns  int  `json:"noise_runs"`
}

// StableIndex returns the semitone index of the stable run
func (a Assessment) StableIndex() (int, bool) {
	if a.Condition == ConditionLongNoise {
		return 0, false
	}
	return a.Stable.Entry.Index, true
}

// Assess judges runs (most recent first) in the order long noise, silence,
// stable. target is the semitone index of the current target, if any; runs
// equal to it are not counted as short noise.
func (p Policy) Assess(runs []Run, target int, hasTarget bool) Assessment {
	stablePos := -1
	for i, r := range runs {
		if r.Entry.Kind == Pitched && r.Length > p.MinRunLength {
			stablePos = i
			break
		}
	}

	if stablePos < 0 {
		return Assessment{Condition: ConditionLongNoise, StablePosition: -1}
	}

	a := Assessment{
		Condition:      ConditionStable,
		Stable:         runs[stablePos],
		StablePosition: stablePos,
	}

	newest := runs[0]
	if newest.Entry.Kind == NoPitch && newest.Length >= p.SilenceRunLength {
		a.Condition = ConditionSilence
		return a
	}

	for _, r := range runs[:stablePos] {
		if r.Entry.Kind == NoPitch {
			continue
		}
		if hasTarget && r.Entry == PitchedEntry(target) {
			continue
		}
		a.NoiseRuns++
	}
	a.ShortNoise = a.NoiseRuns >= p.ShortNoiseRuns

	return a
}

// Assess applies the policy to the window's current runs
func (w *NoteWindow) Assess(p Policy, target int, hasTarget bool) Assessment {
	return p.Assess(w.Runs(), target, hasTarget)
}
