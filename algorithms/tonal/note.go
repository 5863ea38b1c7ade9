package tonal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
)

const (
	// ReferenceA4 is the concert pitch of A4 in Hz
	ReferenceA4 = 440.0

	// ReferenceIndex is the semitone (MIDI) index of A4
	ReferenceIndex = 69

	semitonesPerOctave = 12
)

// PitchClassNames lists the 12 pitch classes starting at C
var PitchClassNames = [semitonesPerOctave]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Status tells what a frequency reading turned out to be
type Status int

const (
	// StatusSilent means no pitch was detected (0, NaN or negative frequency)
	StatusSilent Status = iota
	// StatusOutOfRange means a pitch was detected but cannot be classified
	StatusOutOfRange
	// StatusClassified means the reading maps to a note
	StatusClassified
)

func (s Status) String() string {
	switch s {
	case StatusSilent:
		return "silent"
	case StatusOutOfRange:
		return "out_of_range"
	case StatusClassified:
		return "classified"
	default:
		return "unknown"
	}
}

// Note is a frequency quantized to the nearest equal-tempered semitone
type Note struct {
	SemitoneIndex int     `json:"semitone_index"` // MIDI numbering, A4 = 69
	Name          string  `json:"name"`           // pitch class name
	Octave        int     `json:"octave"`         // scientific pitch octave
	Cents         int     `json:"cents"`          // offset from the standard pitch, floor of the exact value
	Frequency     float64 `json:"frequency"`      // the frequency that was classified
}

// String renders the note in scientific pitch notation, e.g. "A4"
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// Classifier converts frequencies into notes relative to a configurable A4.
type Classifier struct {
	ReferenceA4  float64 `json:"reference_a4"`
	MinFrequency float64 `json:"min_frequency"`
	MaxFrequency float64 `json:"max_frequency"`
}

// NewClassifier returns a classifier anchored at 440 Hz covering MIDI notes 0..127.
func NewClassifier() *Classifier {
	return &Classifier{
		ReferenceA4:  ReferenceA4,
		MinFrequency: StandardFrequency(0) * math.Pow(2, -0.5/12),
		MaxFrequency: StandardFrequency(127) * math.Pow(2, 0.5/12),
	}
}

var defaultClassifier = NewClassifier()

// Classify quantizes frequency with the default classifier
func Classify(frequency float64) (Note, Status) {
	return defaultClassifier.Classify(frequency)
}

// Classify quantizes frequency to the nearest semitone. The returned note is only
// meaningful when the status is StatusClassified.
func (c *Classifier) Classify(frequency float64) (Note, Status) {
	if math.IsNaN(frequency) || frequency <= 0 {
		return Note{}, StatusSilent
	}
	if math.IsInf(frequency, 0) {
		return Note{}, StatusOutOfRange
	}
	if c.MinFrequency > 0 && frequency < c.MinFrequency {
		return Note{}, StatusOutOfRange
	}
	if c.MaxFrequency > 0 && frequency > c.MaxFrequency {
		return Note{}, StatusOutOfRange
	}

	index := c.NoteIndex(frequency)
	note := noteAt(index)
	note.Cents = c.Cents(frequency, index)
	note.Frequency = frequency
	return note, StatusClassified
}

// NoteIndex returns the nearest semitone index for frequency
func (c *Classifier) NoteIndex(frequency float64) int {
	semitones := semitonesPerOctave * math.Log2(frequency/c.reference())
	return int(common.RoundHalfUp(semitones)) + ReferenceIndex
}

// StandardFrequency returns the equal-tempered frequency of a semitone index
func (c *Classifier) StandardFrequency(index int) float64 {
	return c.reference() * math.Pow(2, float64(index-ReferenceIndex)/semitonesPerOctave)
}

// Cents returns floor(1200*log2(frequency/standard)). No clamping is applied, so a
// frequency exactly half a semitone below the standard pitch yields -50.
func (c *Classifier) Cents(frequency float64, index int) int {
	return int(math.Floor(1200 * math.Log2(frequency/c.StandardFrequency(index))))
}

func (c *Classifier) reference() float64 {
	if c.ReferenceA4 <= 0 {
		return ReferenceA4
	}
	return c.ReferenceA4
}

// StandardFrequency returns the frequency of a semitone index at A4 = 440 Hz
func StandardFrequency(index int) float64 {
	return ReferenceA4 * math.Pow(2, float64(index-ReferenceIndex)/semitonesPerOctave)
}

// NoteIndex returns the nearest semitone index at A4 = 440 Hz
func NoteIndex(frequency float64) int {
	return defaultClassifier.NoteIndex(frequency)
}

// Cents returns the cents offset of frequency from the standard pitch of index at A4 = 440 Hz
func Cents(frequency float64, index int) int {
	return defaultClassifier.Cents(frequency, index)
}

// NoteFromIndex builds the in-tune note for a semitone index
func NoteFromIndex(index int) Note {
	note := noteAt(index)
	note.Frequency = StandardFrequency(index)
	return note
}

func noteAt(index int) Note {
	return Note{
		SemitoneIndex: index,
		Name:          PitchClassNames[floorMod(index, semitonesPerOctave)],
		Octave:        floorDiv(index, semitonesPerOctave) - 1,
	}
}

// ParseNote parses scientific pitch notation such as "E2", "C#4", "Bb3" or "A-1".
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Note{}, fmt.Errorf("invalid note %q", s)
	}

	letter := strings.ToUpper(s[:1])
	class := -1
	for i, name := range PitchClassNames {
		if name == letter {
			class = i
			break
		}
	}
	if class < 0 {
		return Note{}, fmt.Errorf("invalid note letter in %q", s)
	}

	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		class++
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		class--
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return Note{}, fmt.Errorf("invalid octave in %q: %w", s, err)
	}

	return NoteFromIndex((octave+1)*semitonesPerOctave + class), nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return ((a % b) + b) % b
}
