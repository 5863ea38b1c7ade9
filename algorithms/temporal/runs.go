package temporal

// Run is a maximal stretch of identical consecutive entries
type Run struct {
	Entry  Entry `json:"entry"`
	Length int   `json:"length"`
}

// GroupRuns partitions entries into maximal runs, preserving order
func GroupRuns(entries []Entry) []Run {
	if len(entries) == 0 {
		return []Run{}
	}

	runs := make([]Run, 0, len(entries))
	current := Run{Entry: entries[0], Length: 1}
	for _, e := range entries[1:] {
		if e == current.Entry {
			current.Length++
			continue
		}
		runs = append(runs, current)
		current = Run{Entry: e, Length: 1}
	}
	return append(runs, current)
}

// Runs groups the window into runs, most recent first
func (w *NoteWindow) Runs() []Run {
	return GroupRuns(w.Entries())
}
