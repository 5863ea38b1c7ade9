// Package mic captures audio from an input device through PortAudio.
package mic

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/RyanBlaney/sonido-tuner/capture"
	"github.com/RyanBlaney/sonido-tuner/logging"
)

// DeviceInfo describes a PortAudio device
type DeviceInfo struct {
	Index             int     `json:"index"` // 1-based, as accepted by Microphone.Device
	Name              string  `json:"name"`
	HostAPI           string  `json:"host_api"`
	MaxInputChannels  int     `json:"max_input_channels"`
	DefaultSampleRate float64 `json:"default_sample_rate"`
	IsDefaultInput    bool    `json:"is_default_input"`
}

var _ capture.Source = (*Microphone)(nil)

// Microphone captures mono float32 audio through PortAudio
type Microphone struct {
	// Device selects an input by 1-based index or name prefix; empty uses the default input
	Device string

	sampleRate int
	bufferSize int

	mu     sync.Mutex
	stream *portaudio.Stream
}

// NewMicrophone creates a microphone source. Nothing is opened until Start.
func NewMicrophone(sampleRate, bufferSize int) (*Microphone, error) {
	if bufferSize <= 0 {
		return nil, capture.ErrInvalidBufferSize
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	return &Microphone{sampleRate: sampleRate, bufferSize: bufferSize}, nil
}

// Start initializes PortAudio, opens the input stream and starts it. On any
// failure everything acquired so far is released.
func (m *Microphone) Start(ctx context.Context, onFrame capture.FrameHandler) error {
	logger := logging.WithFields(logging.Fields{
		"component": "microphone",
		"function":  "Start",
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		return capture.ErrAlreadyStarted
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}

	frame := make([]float64, m.bufferSize)
	callback := func(in []float32) {
		n := min(len(in), len(frame))
		for i := range n {
			frame[i] = float64(in[i])
		}
		onFrame(frame[:n])
	}

	stream, err := m.open(callback)
	if err != nil {
		portaudio.Terminate()
		return err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("start input stream: %w", err)
	}

	m.stream = stream
	logger.Info("Microphone started", logging.Fields{
		"sample_rate": m.sampleRate,
		"buffer_size": m.bufferSize,
		"device":      m.Device,
	})
	return nil
}

func (m *Microphone) open(callback func([]float32)) (*portaudio.Stream, error) {
	if m.Device == "" {
		stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), m.bufferSize, callback)
		if err != nil {
			return nil, fmt.Errorf("open default input stream: %w", err)
		}
		return stream, nil
	}

	info, err := findInputDevice(m.Device)
	if err != nil {
		return nil, err
	}

	params := portaudio.LowLatencyParameters(info, nil)
	params.Input.Channels = 1
	params.Output.Channels = 0
	params.SampleRate = float64(m.sampleRate)
	params.FramesPerBuffer = m.bufferSize

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, fmt.Errorf("open input stream on %q: %w", info.Name, err)
	}
	return stream, nil
}

// Stop stops and closes the stream, then terminates PortAudio
func (m *Microphone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil
	}

	var errs []string
	if err := m.stream.Stop(); err != nil {
		errs = append(errs, fmt.Sprintf("stop stream: %v", err))
	}
	if err := m.stream.Close(); err != nil {
		errs = append(errs, fmt.Sprintf("close stream: %v", err))
	}
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, fmt.Sprintf("terminate portaudio: %v", err))
	}
	m.stream = nil

	logging.WithFields(logging.Fields{
		"component": "microphone",
		"function":  "Stop",
	}).Info("Microphone stopped")

	if len(errs) > 0 {
		return fmt.Errorf("microphone shutdown: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SampleRate returns the capture sample rate
func (m *Microphone) SampleRate() int { return m.sampleRate }

// BufferSize returns the frames per buffer
func (m *Microphone) BufferSize() int { return m.bufferSize }

// ListInputDevices enumerates devices with at least one input channel
func ListInputDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	var defaultName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	var list []DeviceInfo
	for i, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		info := DeviceInfo{
			Index:             i + 1,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			IsDefaultInput:    d.Name == defaultName,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		list = append(list, info)
	}
	return list, nil
}

// findInputDevice resolves a 1-based index or a name prefix. PortAudio must
// already be initialized.
func findInputDevice(dev string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	if i, err := strconv.Atoi(dev); err == nil && i > 0 && i <= len(devices) {
		if devices[i-1].MaxInputChannels > 0 {
			return devices[i-1], nil
		}
	}

	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.HasPrefix(d.Name, dev) {
			return d, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", capture.ErrNoInputDevice, dev)
}
