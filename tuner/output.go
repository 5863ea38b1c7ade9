package tuner

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-tuner/algorithms/temporal"
	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tuner/tuning"
)

// Output is the per-tick signal consumed by presenters
type Output struct {
	Tick uint64    `json:"tick"`
	Time time.Time `json:"time"`

	// Target being tuned. Note and Octave are only meaningful with HasNote.
	HasNote bool              `json:"has_note"`
	Note    string            `json:"note"`
	Octave  int               `json:"octave"`
	Target  tuning.TargetNote `json:"target"`

	// Raw reading of this tick
	Frequency      float64      `json:"frequency"`
	Detected       tonal.Note   `json:"detected"`
	DetectedStatus tonal.Status `json:"detected_status"`

	// DisplayCents is the smoothed offset in percent of a semitone
	DisplayCents float64 `json:"display_cents"`
	Closeness    float64 `json:"closeness"`
	IsClose      bool    `json:"is_close"`
	IsLocked     bool    `json:"is_locked"`
	JustLocked   bool    `json:"just_locked"`
	IsTooLow     bool    `json:"is_too_low"`

	Phase      tuning.Phase       `json:"phase"`
	Condition  temporal.Condition `json:"condition"`
	ShortNoise bool               `json:"short_noise"`
	// NoTarget is set when a stable note matched none of the targets
	NoTarget bool `json:"no_target"`
	// Skipped marks a re-emitted output for a tick whose reading was not classified
	Skipped bool `json:"skipped"`
}

// String renders a one-line summary
func (o Output) String() string {
	if !o.HasNote {
		return fmt.Sprintf("#%d %s %s", o.Tick, o.Phase, o.Condition)
	}
	state := "tracking"
	switch {
	case o.IsLocked:
		state = "locked"
	case o.IsClose:
		state = "close"
	}
	return fmt.Sprintf("#%d %s%d %+.0f%% closeness=%.2f %s (%.2f Hz)",
		o.Tick, o.Note, o.Octave, o.DisplayCents, o.Closeness, state, o.Frequency)
}

// Presenter consumes one Output per tick
type Presenter interface {
	Present(out Output)
}

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(Output)

// Present calls f
func (f PresenterFunc) Present(out Output) { f(out) }

// Presenters fans one output out to several presenters in order
type Presenters []Presenter

// Present forwards out to every presenter
func (p Presenters) Present(out Output) {
	for _, presenter := range p {
		presenter.Present(out)
	}
}
