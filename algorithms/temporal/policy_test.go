package temporal

import "testing"

func pushN(w *NoteWindow, e Entry, n int) {
	for range n {
		w.Push(e)
	}
}

func TestAssessFreshWindowIsLongNoise(t *testing.T) {
	w := newWindow(t, 15)

	a := w.Assess(DefaultPolicy(), 0, false)
	if a.Condition != ConditionLongNoise {
		t.Errorf("condition = %v, want long_noise", a.Condition)
	}
	if _, ok := a.StableIndex(); ok {
		t.Error("long noise must not report a stable index")
	}
}

func TestStableRequiresMoreThanMinRun(t *testing.T) {
	w := newWindow(t, 15)
	p := DefaultPolicy()

	for tick := 1; tick <= 4; tick++ {
		w.Push(PitchedEntry(69))
		a := w.Assess(p, 0, false)
		if tick <= p.MinRunLength && a.Condition != ConditionLongNoise {
			t.Fatalf("tick %d: condition %v before the run is long enough", tick, a.Condition)
		}
		if tick == p.MinRunLength+1 {
			idx, ok := a.StableIndex()
			if a.Condition != ConditionStable || !ok || idx != 69 {
				t.Fatalf("tick %d: got %+v, want stable A4", tick, a)
			}
		}
	}
}

func TestAlternatingNotesAreLongNoise(t *testing.T) {
	w := newWindow(t, 15)
	for i := range 15 {
		if i%2 == 0 {
			w.Push(PitchedEntry(40))
		} else {
			w.Push(PitchedEntry(45))
		}
	}

	if a := w.Assess(DefaultPolicy(), 40, true); a.Condition != ConditionLongNoise {
		t.Errorf("condition = %v, want long_noise", a.Condition)
	}
}

func TestSilenceAfterStableNote(t *testing.T) {
	w := newWindow(t, 15)
	pushN(w, PitchedEntry(40), 6)

	w.Push(NoPitchEntry())
	if a := w.Assess(DefaultPolicy(), 40, true); a.Condition != ConditionStable {
		t.Errorf("one silent tick: condition = %v, want stable", a.Condition)
	}

	w.Push(NoPitchEntry())
	a := w.Assess(DefaultPolicy(), 40, true)
	if a.Condition != ConditionSilence {
		t.Errorf("two silent ticks: condition = %v, want silence", a.Condition)
	}
	if idx, _ := a.StableIndex(); idx != 40 {
		t.Errorf("stable index during silence = %d, want 40", idx)
	}
}

func TestShortNoiseCountsOffTargetRuns(t *testing.T) {
	p := DefaultPolicy()

	w := newWindow(t, 15)
	pushN(w, PitchedEntry(40), 5)
	w.Push(PitchedEntry(41))
	w.Push(UnclassifiedEntry())
	w.Push(PitchedEntry(40)) // matches the target, not counted
	w.Push(PitchedEntry(43))

	a := w.Assess(p, 40, true)
	if a.Condition != ConditionStable || a.NoiseRuns != 3 || !a.ShortNoise {
		t.Errorf("got %+v, want stable with 3 noise runs", a)
	}

	w = newWindow(t, 15)
	pushN(w, PitchedEntry(40), 5)
	w.Push(PitchedEntry(41))
	w.Push(NoPitchEntry())
	w.Push(PitchedEntry(43))

	a = w.Assess(p, 40, true)
	if a.ShortNoise || a.NoiseRuns != 2 {
		t.Errorf("got %+v, want 2 noise runs without short noise", a)
	}
}

func TestShortNoiseThresholdIsIndependent(t *testing.T) {
	p := DefaultPolicy()
	p.ShortNoiseRuns = 1

	w := newWindow(t, 15)
	pushN(w, PitchedEntry(40), 5)
	w.Push(PitchedEntry(42))

	if a := w.Assess(p, 40, true); !a.ShortNoise {
		t.Errorf("got %+v, want short noise with threshold 1", a)
	}
	if a := w.Assess(DefaultPolicy(), 40, true); a.ShortNoise {
		t.Errorf("got %+v, want no short noise with default threshold", a)
	}
}

func TestNewStableNoteWins(t *testing.T) {
	w := newWindow(t, 15)
	pushN(w, PitchedEntry(40), 6)
	pushN(w, PitchedEntry(45), 4)

	a := w.Assess(DefaultPolicy(), 40, true)
	if idx, _ := a.StableIndex(); a.Condition != ConditionStable || idx != 45 {
		t.Errorf("got %+v, want the newer stable A2", a)
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Errorf("default policy invalid: %v", err)
	}
	bad := DefaultPolicy()
	bad.SilenceRunLength = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero silence run length should be rejected")
	}
}
