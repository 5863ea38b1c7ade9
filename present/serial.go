package present

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/tuner"
)

// DefaultBaudRate is used when no baud rate is configured
const DefaultBaudRate = 115200

// Indicator sends one tuning-state frame per tick to a serial device such
// as a microcontroller driving an LED strip.
type Indicator struct {
	mu     sync.Mutex
	w      io.Writer
	seq    byte
	logger logging.Logger
}

// NewIndicator writes frames to w
func NewIndicator(w io.Writer) *Indicator {
	return &Indicator{
		w: w,
		logger: logging.WithFields(logging.Fields{
			"component": "serial_indicator",
		}),
	}
}

// OpenSerial opens the named serial device at the given baud rate
func OpenSerial(name string, baud int) (*Indicator, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	logging.Info("Serial port opened", logging.Fields{"device": name, "baud": baud})
	return NewIndicator(p), nil
}

// Present encodes and writes the frame for out. Write errors are logged;
// a flaky indicator never stops the session.
func (i *Indicator) Present(out tuner.Output) {
	i.mu.Lock()
	defer i.mu.Unlock()

	f := FrameFromOutput(out, i.seq)
	i.seq++

	if _, err := i.w.Write(f.Encode()); err != nil {
		i.logger.Warn("Serial write failed", logging.Fields{
			"error": err.Error(),
			"seq":   f.Seq,
		})
	}
}

// Close closes the underlying port if it is closable
func (i *Indicator) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if c, ok := i.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
