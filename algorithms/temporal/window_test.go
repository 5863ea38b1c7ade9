package temporal

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
)

func newWindow(t *testing.T, capacity int) *NoteWindow {
	t.Helper()
	w, err := NewNoteWindow(capacity)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestNewWindowStartsSilent(t *testing.T) {
	w := newWindow(t, 15)

	runs := w.Runs()
	if len(runs) != 1 || runs[0].Entry != NoPitchEntry() || runs[0].Length != 15 {
		t.Errorf("fresh window runs = %+v, want one NoPitch run of 15", runs)
	}

	if _, err := NewNoteWindow(0); err == nil {
		t.Error("zero capacity should be rejected")
	}
}

func TestPushKeepsLengthAndOrder(t *testing.T) {
	w := newWindow(t, 4)

	for i := 1; i <= 6; i++ {
		w.Push(PitchedEntry(i))
		if w.Len() != 4 {
			t.Fatalf("length changed to %d", w.Len())
		}
	}

	want := []Entry{PitchedEntry(6), PitchedEntry(5), PitchedEntry(4), PitchedEntry(3)}
	got := w.Entries()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v, want %v", got, want)
		}
	}
}

func TestRunsPartitionWindow(t *testing.T) {
	w := newWindow(t, 15)
	seq := []Entry{
		PitchedEntry(40), PitchedEntry(40), NoPitchEntry(), UnclassifiedEntry(),
		PitchedEntry(45), PitchedEntry(45), PitchedEntry(45),
	}
	for _, e := range seq {
		w.Push(e)
	}

	runs := w.Runs()
	total := 0
	for i, r := range runs {
		total += r.Length
		if i > 0 && runs[i-1].Entry == r.Entry {
			t.Errorf("adjacent runs %d and %d share entry %v", i-1, i, r.Entry)
		}
	}
	if total != w.Len() {
		t.Errorf("run lengths sum to %d, want %d", total, w.Len())
	}

	want := []Run{
		{PitchedEntry(45), 3},
		{UnclassifiedEntry(), 1},
		{NoPitchEntry(), 1},
		{PitchedEntry(40), 2},
		{NoPitchEntry(), 8},
	}
	if len(runs) != len(want) {
		t.Fatalf("runs = %+v, want %+v", runs, want)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d = %+v, want %+v", i, runs[i], want[i])
		}
	}
}

func TestGroupRunsEmpty(t *testing.T) {
	if runs := GroupRuns(nil); len(runs) != 0 {
		t.Errorf("GroupRuns(nil) = %v", runs)
	}
}

func TestEntryFor(t *testing.T) {
	note, status := tonal.Classify(82.41)
	if e := EntryFor(note, status); e != PitchedEntry(40) {
		t.Errorf("82.41 Hz entry = %v", e)
	}
	if e := EntryFor(tonal.Classify(math.NaN())); e != NoPitchEntry() {
		t.Errorf("NaN entry = %v", e)
	}
	if e := EntryFor(tonal.Classify(math.Inf(1))); e != UnclassifiedEntry() {
		t.Errorf("Inf entry = %v", e)
	}
}

func TestResetRefillsWithSilence(t *testing.T) {
	w := newWindow(t, 5)
	w.Push(PitchedEntry(69))
	w.Reset()

	for _, e := range w.Entries() {
		if e != NoPitchEntry() {
			t.Fatalf("entry after reset = %v", e)
		}
	}
}
