package mic

import (
	"errors"
	"testing"

	"github.com/RyanBlaney/sonido-tuner/capture"
)

func TestNewMicrophoneValidates(t *testing.T) {
	if _, err := NewMicrophone(44100, 0); !errors.Is(err, capture.ErrInvalidBufferSize) {
		t.Errorf("zero buffer: err = %v", err)
	}
	if _, err := NewMicrophone(0, 4096); err == nil {
		t.Error("zero sample rate should fail")
	}

	m, err := NewMicrophone(48000, 2048)
	if err != nil {
		t.Fatal(err)
	}
	if m.SampleRate() != 48000 || m.BufferSize() != 2048 {
		t.Errorf("microphone = %d/%d", m.SampleRate(), m.BufferSize())
	}
	// nothing is opened before Start
	if err := m.Stop(); err != nil {
		t.Errorf("stop before start: %v", err)
	}
}
