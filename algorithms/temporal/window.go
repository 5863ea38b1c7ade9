package temporal

import (
	"fmt"

	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
)

// EntryKind distinguishes the three kinds of window entries
type EntryKind int

const (
	// NoPitch means nothing was detected (silence)
	NoPitch EntryKind = iota
	// Unclassified means a pitch was detected but could not be mapped to a note
	Unclassified
	// Pitched carries a semitone index
	Pitched
)

func (k EntryKind) String() string {
	switch k {
	case NoPitch:
		return "no_pitch"
	case Unclassified:
		return "unclassified"
	case Pitched:
		return "pitched"
	default:
		return "unknown"
	}
}

// Entry is one classification in the note window. Index is only meaningful
// for Pitched entries and is zero otherwise, so entries compare with ==.
type Entry struct {
	Kind  EntryKind `json:"kind"`
	Index int       `json:"index"`
}

// NoPitchEntry returns the silence entry
func NoPitchEntry() Entry { return Entry{Kind: NoPitch} }

// UnclassifiedEntry returns the entry for an unclassifiable pitch
func UnclassifiedEntry() Entry { return Entry{Kind: Unclassified} }

// PitchedEntry returns the entry for a semitone index
func PitchedEntry(index int) Entry { return Entry{Kind: Pitched, Index: index} }

// EntryFor maps a classifier result to a window entry
func EntryFor(note tonal.Note, status tonal.Status) Entry {
	switch status {
	case tonal.StatusClassified:
		return PitchedEntry(note.SemitoneIndex)
	case tonal.StatusOutOfRange:
		return UnclassifiedEntry()
	default:
		return NoPitchEntry()
	}
}

func (e Entry) String() string {
	if e.Kind == Pitched {
		return tonal.NoteFromIndex(e.Index).String()
	}
	return e.Kind.String()
}

// NoteWindow is a fixed-capacity ring of recent classifications, read
// most-recent-first. It starts full of NoPitch entries and its length never
// changes: every push evicts the oldest entry.
type NoteWindow struct {
	entries []Entry
	head    int // position of the most recent entry
}

// NewNoteWindow creates a window of the given capacity filled with NoPitch
func NewNoteWindow(capacity int) (*NoteWindow, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("note window capacity must be positive, got %d", capacity)
	}
	return &NoteWindow{entries: make([]Entry, capacity)}, nil
}

// Len returns the window capacity
func (w *NoteWindow) Len() int {
	return len(w.entries)
}

// Push inserts e as the most recent entry and drops the oldest
func (w *NoteWindow) Push(e Entry) {
	w.head = (w.head - 1 + len(w.entries)) % len(w.entries)
	w.entries[w.head] = e
}

// At returns the i-th most recent entry (0 is the newest)
func (w *NoteWindow) At(i int) Entry {
	return w.entries[(w.head+i)%len(w.entries)]
}

// Entries returns a copy of the window, most recent first
func (w *NoteWindow) Entries() []Entry {
	out := make([]Entry, len(w.entries))
	for i := range out {
		out[i] = w.At(i)
	}
	return out
}

// Reset refills the window with NoPitch
func (w *NoteWindow) Reset() {
	for i := range w.entries {
		w.entries[i] = NoPitchEntry()
	}
	w.head = 0
}
