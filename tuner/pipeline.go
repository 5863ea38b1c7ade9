package tuner

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-tuner/algorithms/temporal"
	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tuner/tuning"
)

const (
	// GuitarWindowSize is the note window capacity of the string tuner
	GuitarWindowSize = 15
	// ChromaticWindowSize is the note window capacity of the chromatic wheel
	ChromaticWindowSize = 24
)

// PipelineConfig configures the classify, smooth, resolve and tuning-state chain
type PipelineConfig struct {
	WindowSize     int             `json:"window_size"`
	Policy         temporal.Policy `json:"policy"`
	StreakCapacity int             `json:"streak_capacity"`
	CloseThrottle  time.Duration   `json:"close_throttle"`
	ReferenceA4    float64         `json:"reference_a4"`
	MinFrequency   float64         `json:"min_frequency"` // 0 keeps the classifier default
	MaxFrequency   float64         `json:"max_frequency"` // 0 keeps the classifier default
}

// DefaultPipelineConfig returns the guitar tuner configuration
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		WindowSize:     GuitarWindowSize,
		Policy:         temporal.DefaultPolicy(),
		StreakCapacity: tuning.DefaultStreakCapacity,
		CloseThrottle:  tuning.DefaultCloseThrottle,
		ReferenceA4:    tonal.ReferenceA4,
	}
}

// Pipeline runs one tuning cycle per Step. It is owned by a single
// goroutine and keeps no locks.
type Pipeline struct {
	classifier *tonal.Classifier
	window     *temporal.NoteWindow
	policy     temporal.Policy
	resolver   tuning.Resolver
	smoother   *tuning.Smoother

	tick uint64
	last Output
}

// NewPipeline creates a pipeline resolving stable notes with resolver
func NewPipeline(cfg PipelineConfig, resolver tuning.Resolver) (*Pipeline, error) {
	if resolver == nil {
		return nil, fmt.Errorf("pipeline needs a resolver")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.StreakCapacity < 1 {
		return nil, fmt.Errorf("streak capacity must be at least 1, got %d", cfg.StreakCapacity)
	}

	window, err := temporal.NewNoteWindow(cfg.WindowSize)
	if err != nil {
		return nil, err
	}

	classifier := tonal.NewClassifier()
	if cfg.ReferenceA4 > 0 {
		classifier.ReferenceA4 = cfg.ReferenceA4
	}
	if cfg.MinFrequency > 0 {
		classifier.MinFrequency = cfg.MinFrequency
	}
	if cfg.MaxFrequency > 0 {
		classifier.MaxFrequency = cfg.MaxFrequency
	}

	return &Pipeline{
		classifier: classifier,
		window:     window,
		policy:     cfg.Policy,
		resolver:   resolver,
		smoother:   tuning.NewSmoother(cfg.StreakCapacity, cfg.CloseThrottle),
	}, nil
}

// Step classifies freq, updates the window and tuning state and returns the
// output for this tick. now drives the isClose throttle.
func (p *Pipeline) Step(freq float64, now time.Time) Output {
	p.tick++

	note, status := p.classifier.Classify(freq)
	p.window.Push(temporal.EntryFor(note, status))

	reading := tuning.Reading{Frequency: freq, Note: note, Status: status}
	state := p.smoother.State()
	current, hasCurrent := state.Current()

	assessment := p.window.Assess(p.policy, current.Index(), hasCurrent)

	out := Output{
		Tick:           p.tick,
		Time:           now,
		Frequency:      freq,
		Detected:       note,
		DetectedStatus: status,
		Condition:      assessment.Condition,
		ShortNoise:     assessment.ShortNoise,
	}

	switch assessment.Condition {
	case temporal.ConditionLongNoise:
		p.smoother.Clear()
		out.Phase = tuning.PhaseIdle
		return p.emit(out)

	case temporal.ConditionSilence:
		state.Reset(tuning.ScopeAll)
		out.Target = current
		out.Phase = state.Phase()
		return p.emit(out)
	}

	stableIndex, _ := assessment.StableIndex()
	stable := tonal.NoteFromIndex(stableIndex)
	stable.Frequency = p.classifier.StandardFrequency(stableIndex)

	target, ok := p.resolver.Resolve(stable)
	if !ok {
		p.smoother.Clear()
		out.NoTarget = true
		out.Phase = tuning.PhaseIdle
		return p.emit(out)
	}

	if status != tonal.StatusClassified {
		skipped := p.last
		skipped.Tick = p.tick
		skipped.Time = now
		skipped.Frequency = freq
		skipped.Detected = note
		skipped.DetectedStatus = status
		skipped.JustLocked = false
		skipped.Skipped = true
		return skipped
	}

	if assessment.ShortNoise {
		state.Reset(tuning.ScopeAll)
	}

	result, _ := p.smoother.Update(target, reading, now)

	out.HasNote = true
	out.Note = target.Note.Name
	out.Octave = target.Note.Octave
	out.Target = target
	out.DisplayCents = result.DisplayedCents
	out.Closeness = result.Closeness
	out.IsClose = result.IsClose
	out.IsLocked = result.Locked
	out.JustLocked = result.JustLocked
	out.IsTooLow = result.TooLow
	out.Phase = result.Phase
	return p.emit(out)
}

func (p *Pipeline) emit(out Output) Output {
	p.last = out
	return out
}

// Reset returns the pipeline to its initial state
func (p *Pipeline) Reset() {
	p.window.Reset()
	p.smoother.Clear()
	p.tick = 0
	p.last = Output{}
}

// Classifier returns the classifier used for raw readings
func (p *Pipeline) Classifier() *tonal.Classifier {
	return p.classifier
}
