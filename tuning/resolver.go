package tuning

import (
	"slices"

	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
)

// Resolver maps a stable note to the target it should be tuned against.
// ok is false when the note is classified but no target matches.
type Resolver interface {
	Resolve(note tonal.Note) (target TargetNote, ok bool)
}

// NearestResolver picks the target with the smallest semitone distance
type NearestResolver struct {
	Tuning Tuning
	// MaxDistance in semitones, 0 means unlimited
	MaxDistance int
	// StringClassesOnly rejects notes whose pitch class is not one of the
	// tuning's open strings, so a G#2 never pulls toward the A string.
	StringClassesOnly bool
}

// NewNearestResolver creates a resolver over the targets of a tuning
func NewNearestResolver(t Tuning, maxDistance int) *NearestResolver {
	return &NearestResolver{Tuning: t, MaxDistance: maxDistance}
}

// Resolve returns the nearest target. Ties go to the first target in
// tuning order.
func (r *NearestResolver) Resolve(note tonal.Note) (TargetNote, bool) {
	if r.StringClassesOnly && !slices.Contains(r.Tuning.PitchClasses(), note.Name) {
		return TargetNote{}, false
	}

	best := -1
	bestDistance := 0
	for i, t := range r.Tuning.Targets {
		d := abs(note.SemitoneIndex - t.Index())
		if best < 0 || d < bestDistance {
			best = i
			bestDistance = d
		}
	}

	if best < 0 {
		return TargetNote{}, false
	}
	if r.MaxDistance > 0 && bestDistance > r.MaxDistance {
		return TargetNote{}, false
	}
	return r.Tuning.Targets[best], true
}

// ChromaticResolver makes every note its own target
type ChromaticResolver struct {
	classifier *tonal.Classifier
}

// NewChromaticResolver creates a chromatic resolver at the given A4
func NewChromaticResolver(referenceA4 float64) *ChromaticResolver {
	c := tonal.NewClassifier()
	if referenceA4 > 0 {
		c.ReferenceA4 = referenceA4
	}
	return &ChromaticResolver{classifier: c}
}

// Resolve always succeeds
func (r *ChromaticResolver) Resolve(note tonal.Note) (TargetNote, bool) {
	target := tonal.NoteFromIndex(note.SemitoneIndex)
	target.Frequency = r.classifier.StandardFrequency(note.SemitoneIndex)
	return TargetNote{Label: target.String(), Note: target, Frequency: target.Frequency}, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
