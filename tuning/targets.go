package tuning

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
)

// TargetNote is a reference pitch the detected signal is compared against,
// typically one open string of an instrument.
type TargetNote struct {
	Label     string     `json:"label"` // e.g. "6" for the low E string
	Note      tonal.Note `json:"note"`
	Frequency float64    `json:"frequency"` // reference frequency at the tuning's A4
}

// Index returns the semitone index of the target
func (t TargetNote) Index() int {
	return t.Note.SemitoneIndex
}

func (t TargetNote) String() string {
	return t.Note.String()
}

// Tuning is a named, ordered set of targets. Order matters: the resolver
// breaks distance ties in favor of the earlier target.
type Tuning struct {
	Name        string       `json:"name"`
	ReferenceA4 float64      `json:"reference_a4"`
	Targets     []TargetNote `json:"targets"`
}

var presets = map[string][]string{
	"standard":       {"E2", "A2", "D3", "G3", "B3", "E4"},
	"drop-d":         {"D2", "A2", "D3", "G3", "B3", "E4"},
	"half-step-down": {"D#2", "G#2", "C#3", "F#3", "A#3", "D#4"},
	"open-g":         {"D2", "G2", "D3", "G3", "B3", "D4"},
	"dadgad":         {"D2", "A2", "D3", "G3", "A3", "D4"},
	"bass":           {"E1", "A1", "D2", "G2"},
	"ukulele":        {"G4", "C4", "E4", "A4"},
	"banjo":          {"G4", "D3", "G3", "B3", "D4"},
}

// PresetNames returns the names of the built-in tunings, sorted
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StandardTuning returns standard guitar tuning at A4 = 440 Hz
func StandardTuning() Tuning {
	t, _ := NewTuning("standard", presets["standard"], tonal.ReferenceA4)
	return t
}

// LookupTuning resolves a preset name or a comma-separated list of notes
// such as "D2,A2,D3,G3,B3,E4".
func LookupTuning(spec string, referenceA4 float64) (Tuning, error) {
	spec = strings.TrimSpace(spec)
	if notes, ok := presets[strings.ToLower(spec)]; ok {
		return NewTuning(strings.ToLower(spec), notes, referenceA4)
	}
	if !strings.Contains(spec, ",") {
		return Tuning{}, fmt.Errorf("unknown tuning %q (presets: %s)", spec, strings.Join(PresetNames(), ", "))
	}
	return NewTuning("custom", strings.Split(spec, ","), referenceA4)
}

// NewTuning builds a tuning from scientific pitch names. Targets are
// labeled by string number, counting down from the number of notes so the
// first (usually lowest) note is the highest-numbered string.
func NewTuning(name string, notes []string, referenceA4 float64) (Tuning, error) {
	if len(notes) == 0 {
		return Tuning{}, fmt.Errorf("tuning %q has no notes", name)
	}
	if referenceA4 <= 0 {
		referenceA4 = tonal.ReferenceA4
	}

	classifier := tonal.NewClassifier()
	classifier.ReferenceA4 = referenceA4

	t := Tuning{Name: name, ReferenceA4: referenceA4}
	for i, raw := range notes {
		note, err := tonal.ParseNote(raw)
		if err != nil {
			return Tuning{}, fmt.Errorf("tuning %q: %w", name, err)
		}
		note.Frequency = classifier.StandardFrequency(note.SemitoneIndex)
		t.Targets = append(t.Targets, TargetNote{
			Label:     fmt.Sprintf("%d", len(notes)-i),
			Note:      note,
			Frequency: note.Frequency,
		})
	}
	return t, nil
}

// PitchClasses returns the distinct pitch class names of the targets in order
func (t Tuning) PitchClasses() []string {
	var classes []string
	for _, target := range t.Targets {
		if !slices.Contains(classes, target.Note.Name) {
			classes = append(classes, target.Note.Name)
		}
	}
	return classes
}

// String renders the tuning as its note names
func (t Tuning) String() string {
	names := make([]string, len(t.Targets))
	for i, target := range t.Targets {
		names[i] = target.String()
	}
	return fmt.Sprintf("%s (%s)", t.Name, strings.Join(names, " "))
}
