package filters

import (
	"math"
	"testing"
)

func TestDCRemovalRemovesOffset(t *testing.T) {
	const sr = 44100
	dc, err := NewDCRemovalWithCutoff(sr, 20)
	if err != nil {
		t.Fatal(err)
	}

	input := make([]float64, sr)
	for i := range input {
		input[i] = 0.3 + 0.5*math.Sin(2*math.Pi*82.41*float64(i)/sr)
	}
	out := dc.ProcessBuffer(nil, input)

	// after the filter settles the mean is ~0 and the tone survives
	tail := out[sr/2:]
	var sum, peak float64
	for _, v := range tail {
		sum += v
		peak = math.Max(peak, math.Abs(v))
	}
	if mean := sum / float64(len(tail)); math.Abs(mean) > 0.01 {
		t.Errorf("mean after filtering = %v", mean)
	}
	if peak < 0.4 || peak > 0.6 {
		t.Errorf("tone peak = %v, want about 0.5", peak)
	}
}

func TestDCRemovalCutoff(t *testing.T) {
	dc, err := NewDCRemovalWithCutoff(44100, 20)
	if err != nil {
		t.Fatal(err)
	}
	if got := dc.CutoffFrequency(44100); math.Abs(got-20) > 1e-9 {
		t.Errorf("cutoff = %v, want 20", got)
	}

	for _, bad := range []float64{0, -5, 10000} {
		if _, err := NewDCRemovalWithCutoff(44100, bad); err == nil {
			t.Errorf("cutoff %v should fail", bad)
		}
	}
	if _, err := NewDCRemovalWithCutoff(0, 20); err == nil {
		t.Error("zero sample rate should fail")
	}
}

func TestDCRemovalResetAndReuse(t *testing.T) {
	dc, err := NewDCRemovalWithCutoff(44100, 35)
	if err != nil {
		t.Fatal(err)
	}
	buf := dc.ProcessBuffer(nil, []float64{1, 1, 1})
	if buf[0] != 1 {
		t.Errorf("first output = %v, want 1", buf[0])
	}

	dc.Reset()
	again := dc.ProcessBuffer(buf, []float64{1})
	if len(again) != 1 || again[0] != 1 || &again[0] != &buf[0] {
		t.Errorf("reset filter should restart and reuse dst: %v", again)
	}
}
