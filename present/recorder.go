package present

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/RyanBlaney/sonido-tuner/tuner"
)

const (
	recorderTempo      = 120
	recorderResolution = 960
	// ticks per second at 120 BPM
	ticksPerSecond = recorderResolution * recorderTempo / 60

	recorderChannel  = 0
	recorderVelocity = 100
)

// Recorder writes every stable target as a Standard MIDI File note: note-on
// when the target becomes stable, note-off when it changes or tracking ends.
type Recorder struct {
	mu       sync.Mutex
	track    smf.Track
	lastAt   time.Time // time of the last event written
	started  bool
	sounding bool
	key      uint8
	notes    int
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.track.Add(0, smf.MetaTempo(recorderTempo))
	return r
}

// Present records note boundaries from out
func (r *Recorder) Present(out tuner.Output) {
	if out.Skipped {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		r.started = true
		r.lastAt = out.Time
	}

	idx := out.Target.Index()
	playable := out.HasNote && idx >= 0 && idx <= 127

	if r.sounding && (!playable || uint8(idx) != r.key) {
		r.track.Add(r.delta(out.Time), midi.NoteOff(recorderChannel, r.key))
		r.sounding = false
	}
	if playable && !r.sounding {
		r.key = uint8(idx)
		r.track.Add(r.delta(out.Time), midi.NoteOn(recorderChannel, r.key, recorderVelocity))
		r.sounding = true
		r.notes++
	}
}

func (r *Recorder) delta(at time.Time) uint32 {
	d := at.Sub(r.lastAt)
	if d < 0 {
		d = 0
	}
	r.lastAt = at
	return uint32(d.Seconds()*ticksPerSecond + 0.5)
}

// Notes returns the number of notes recorded so far
func (r *Recorder) Notes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notes
}

// WriteTo writes the recording as a single-track SMF. A note still sounding
// is ended at the time of the last output.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	r.mu.Lock()
	track := append(smf.Track(nil), r.track...)
	if r.sounding {
		track.Add(0, midi.NoteOff(recorderChannel, r.key))
	}
	r.mu.Unlock()

	track.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(recorderResolution)
	if err := s.Add(track); err != nil {
		return 0, fmt.Errorf("add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return 0, fmt.Errorf("encode smf: %w", err)
	}
	n, err := buf.WriteTo(w)
	return n, err
}

// Save writes the recording to path
func (r *Recorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := r.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
