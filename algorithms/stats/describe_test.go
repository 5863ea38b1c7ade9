package stats

import (
	"math"
	"testing"
)

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{-10, -5, 0, 5, 10, math.NaN()})
	if err != nil {
		t.Fatal(err)
	}

	if s.Count != 5 {
		t.Errorf("Count = %d, want 5 (NaN skipped)", s.Count)
	}
	if s.Mean != 0 || s.Median != 0 {
		t.Errorf("Mean/Median = %v/%v, want 0/0", s.Mean, s.Median)
	}
	if s.Min != -10 || s.Max != 10 {
		t.Errorf("Min/Max = %v/%v, want -10/10", s.Min, s.Max)
	}
	if math.Abs(s.StdDev-7.9057) > 1e-3 {
		t.Errorf("StdDev = %v, want ~7.906", s.StdDev)
	}
	if s.P90Abs != 10 {
		t.Errorf("P90Abs = %v, want 10", s.P90Abs)
	}
	if s.Quartiles.IQR != s.Quartiles.Q3-s.Quartiles.Q1 {
		t.Error("IQR inconsistent with quartiles")
	}
}

func TestDescribeSingleValue(t *testing.T) {
	s, err := Describe([]float64{3})
	if err != nil {
		t.Fatal(err)
	}
	if s.StdDev != 0 || s.Mean != 3 || s.Median != 3 {
		t.Errorf("single value summary = %+v", s)
	}
}

func TestDescribeEmpty(t *testing.T) {
	if _, err := Describe(nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := Describe([]float64{math.NaN()}); err == nil {
		t.Error("expected error for all-NaN input")
	}
}
