package present

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/RyanBlaney/sonido-tuner/algorithms/stats"
	"github.com/RyanBlaney/sonido-tuner/tuner"
)

// TargetSummary describes how one target was tuned during a session
type TargetSummary struct {
	Target string             `json:"target"`
	Index  int                `json:"index"`
	Ticks  int                `json:"ticks"`
	Locks  int                `json:"locks"`
	Cents  stats.SummaryStats `json:"cents"`
}

// Summary collects the displayed cents per target
type Summary struct {
	mu      sync.Mutex
	cents   map[int][]float64
	names   map[int]string
	locks   map[int]int
	ticks   int
	skipped int
}

// NewSummary creates an empty summary
func NewSummary() *Summary {
	return &Summary{
		cents: make(map[int][]float64),
		names: make(map[int]string),
		locks: make(map[int]int),
	}
}

// Present records out
func (s *Summary) Present(out tuner.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticks++
	if out.Skipped {
		s.skipped++
		return
	}
	if !out.HasNote {
		return
	}

	idx := out.Target.Index()
	s.names[idx] = out.Target.String()
	s.cents[idx] = append(s.cents[idx], out.DisplayCents)
	if out.JustLocked {
		s.locks[idx]++
	}
}

// Ticks returns the number of outputs seen and how many were skipped
func (s *Summary) Ticks() (total, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks, s.skipped
}

// Targets returns per-target statistics ordered by pitch
func (s *Summary) Targets() []TargetSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TargetSummary, 0, len(s.cents))
	for idx, cents := range s.cents {
		desc, err := stats.Describe(cents)
		if err != nil {
			continue
		}
		out = append(out, TargetSummary{
			Target: s.names[idx],
			Index:  idx,
			Ticks:  len(cents),
			Locks:  s.locks[idx],
			Cents:  desc,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// WriteReport writes a plain-text table of Targets
func (s *Summary) WriteReport(w io.Writer) error {
	total, skipped := s.Ticks()
	if _, err := fmt.Fprintf(w, "%d ticks (%d skipped)\n", total, skipped); err != nil {
		return err
	}
	for _, t := range s.Targets() {
		_, err := fmt.Fprintf(w, "%-4s ticks=%-4d locks=%-2d mean=%+6.1f%% median=%+6.1f%% sd=%5.1f p90|c|=%5.1f\n",
			t.Target, t.Ticks, t.Locks, t.Cents.Mean, t.Cents.Median, t.Cents.StdDev, t.Cents.P90Abs)
		if err != nil {
			return err
		}
	}
	return nil
}
