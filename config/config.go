package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-tuner/algorithms/temporal"
	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/tuner"
	"github.com/RyanBlaney/sonido-tuner/tuning"
)

// Mode selects the tuner variant
type Mode string

const (
	ModeGuitar    Mode = "guitar"
	ModeChromatic Mode = "chromatic"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SONIDO_TUNER_"

type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	BufferSize int    `json:"buffer_size"`
	Device     string `json:"device,omitempty"` // 1-based index or name prefix
}

type DetectorConfig struct {
	Method     string  `json:"method"` // "yin", "yin_fft"
	MinFreq    float64 `json:"min_freq"`
	MaxFreq    float64 `json:"max_freq"`
	Threshold  float64 `json:"threshold"`   // YIN threshold (0.05-0.5)
	SilenceDB  float64 `json:"silence_db"`  // frames quieter than this are unvoiced
	HighpassHz float64 `json:"highpass_hz"` // DC blocker cutoff, 0 disables it
}

type SmoothingConfig struct {
	WindowSize       int `json:"window_size"`
	MinRunLength     int `json:"min_run_length"`
	ShortNoiseRuns   int `json:"short_noise_runs"`
	SilenceRunLength int `json:"silence_run_length"`
}

type TunerConfig struct {
	StreakCapacity    int  `json:"streak_capacity"`
	CloseThrottleMs   int  `json:"close_throttle_ms"`
	TickIntervalMs    int  `json:"tick_interval_ms"`
	MaxTargetDistance int  `json:"max_target_distance"` // semitones, 0 = any distance
	StringClassesOnly bool `json:"string_classes_only"` // only notes sharing a pitch class with an open string
}

type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file,omitempty"`
}

// Config is the complete tuner configuration
type Config struct {
	Mode        Mode    `json:"mode"`
	Tuning      string  `json:"tuning"` // preset name or comma-separated notes
	ReferenceA4 float64 `json:"reference_a4"`

	Audio     AudioConfig     `json:"audio"`
	Detector  DetectorConfig  `json:"detector"`
	Smoothing SmoothingConfig `json:"smoothing"`
	Tuner     TunerConfig     `json:"tuner"`
	Log       LogConfig       `json:"log"`
}

// DefaultConfig returns the guitar tuner configuration
func DefaultConfig() *Config {
	policy := temporal.DefaultPolicy()
	return &Config{
		Mode:        ModeGuitar,
		Tuning:      "standard",
		ReferenceA4: tonal.ReferenceA4,
		Audio: AudioConfig{
			SampleRate: 44100,
			BufferSize: 4096,
		},
		Detector: DetectorConfig{
			Method:     "yin_fft",
			MinFreq:    30,
			MaxFreq:    1500,
			Threshold:  0.15,
			SilenceDB:  -60,
			HighpassHz: 20,
		},
		Smoothing: SmoothingConfig{
			WindowSize:       tuner.GuitarWindowSize,
			MinRunLength:     policy.MinRunLength,
			ShortNoiseRuns:   policy.ShortNoiseRuns,
			SilenceRunLength: policy.SilenceRunLength,
		},
		Tuner: TunerConfig{
			StreakCapacity:  tuning.DefaultStreakCapacity,
			CloseThrottleMs: int(tuning.DefaultCloseThrottle / time.Millisecond),
			TickIntervalMs:  int(tuner.DefaultTickInterval / time.Millisecond),
		},
		Log: LogConfig{Level: "info"},
	}
}

// ForMode returns the default configuration tuned for mode. The chromatic
// wheel uses a longer note window and accepts any detected note.
func ForMode(mode Mode) *Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	if mode == ModeChromatic {
		cfg.Smoothing.WindowSize = tuner.ChromaticWindowSize
		cfg.Detector.MaxFreq = 4200
	}
	return cfg
}

// LoadFile reads a JSON config file on top of the defaults for the mode it
// names (guitar when it names none).
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var probe struct {
		Mode Mode `json:"mode"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if probe.Mode != "" {
		cfg = ForMode(probe.Mode)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SONIDO_TUNER_* environment variables
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	logger := logging.WithFields(logging.Fields{
		"component": "config",
		"function":  "ApplyEnv",
	})

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []string
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s=%q: not an integer", EnvPrefix, name, v))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s=%q: not a boolean", EnvPrefix, name, v))
				return
			}
			*dst = b
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s=%q: not a number", EnvPrefix, name, v))
				return
			}
			*dst = f
		}
	}

	if v, ok := lookup(EnvPrefix + "MODE"); ok {
		c.Mode = Mode(strings.ToLower(strings.TrimSpace(v)))
	}
	str("TUNING", &c.Tuning)
	float("REFERENCE_A4", &c.ReferenceA4)
	integer("SAMPLE_RATE", &c.Audio.SampleRate)
	integer("BUFFER_SIZE", &c.Audio.BufferSize)
	str("DEVICE", &c.Audio.Device)
	str("DETECTOR_METHOD", &c.Detector.Method)
	float("MIN_FREQ", &c.Detector.MinFreq)
	float("MAX_FREQ", &c.Detector.MaxFreq)
	float("THRESHOLD", &c.Detector.Threshold)
	float("SILENCE_DB", &c.Detector.SilenceDB)
	float("HIGHPASS_HZ", &c.Detector.HighpassHz)
	integer("WINDOW_SIZE", &c.Smoothing.WindowSize)
	integer("MIN_RUN_LENGTH", &c.Smoothing.MinRunLength)
	integer("SHORT_NOISE_RUNS", &c.Smoothing.ShortNoiseRuns)
	integer("SILENCE_RUN_LENGTH", &c.Smoothing.SilenceRunLength)
	integer("STREAK_CAPACITY", &c.Tuner.StreakCapacity)
	integer("CLOSE_THROTTLE_MS", &c.Tuner.CloseThrottleMs)
	integer("TICK_INTERVAL_MS", &c.Tuner.TickIntervalMs)
	integer("MAX_TARGET_DISTANCE", &c.Tuner.MaxTargetDistance)
	boolean("STRING_CLASSES_ONLY", &c.Tuner.StringClassesOnly)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FILE", &c.Log.File)

	if len(errs) > 0 {
		return fmt.Errorf("environment: %s", strings.Join(errs, "; "))
	}
	logger.Debug("Environment overrides applied")
	return nil
}

// Validate checks the configuration for values the tuner cannot run with
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeGuitar, ModeChromatic:
	default:
		return fmt.Errorf("unknown mode %q (guitar, chromatic)", c.Mode)
	}

	if c.ReferenceA4 < 400 || c.ReferenceA4 > 480 {
		return fmt.Errorf("reference A4 must be between 400 and 480 Hz: %.2f", c.ReferenceA4)
	}
	if c.Mode == ModeGuitar {
		if _, err := c.LoadTuning(); err != nil {
			return err
		}
	}

	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %d", c.Audio.SampleRate)
	}
	if c.Audio.BufferSize < 64 {
		return fmt.Errorf("buffer size must be at least 64 samples: %d", c.Audio.BufferSize)
	}

	if _, err := parseMethod(c.Detector.Method); err != nil {
		return err
	}
	if c.Detector.MinFreq <= 0 || c.Detector.MaxFreq <= c.Detector.MinFreq {
		return fmt.Errorf("invalid detector range [%.1f, %.1f] Hz", c.Detector.MinFreq, c.Detector.MaxFreq)
	}
	if c.Detector.MaxFreq >= float64(c.Audio.SampleRate)/2 {
		return fmt.Errorf("detector max frequency %.1f Hz must be below Nyquist (%d Hz)", c.Detector.MaxFreq, c.Audio.SampleRate/2)
	}
	if c.Detector.Threshold <= 0 || c.Detector.Threshold >= 1 {
		return fmt.Errorf("detector threshold must be in (0, 1): %.3f", c.Detector.Threshold)
	}
	if c.Detector.HighpassHz < 0 || c.Detector.HighpassHz >= c.Detector.MinFreq {
		return fmt.Errorf("highpass cutoff must be in [0, %.1f) Hz: %.1f", c.Detector.MinFreq, c.Detector.HighpassHz)
	}
	// two periods of the lowest pitch must fit the buffer
	if minPeriods := 2 * float64(c.Audio.SampleRate) / c.Detector.MinFreq; float64(c.Audio.BufferSize) < minPeriods {
		return fmt.Errorf("buffer size %d too small for %.1f Hz (need %.0f samples)", c.Audio.BufferSize, c.Detector.MinFreq, minPeriods)
	}

	if c.Smoothing.WindowSize < 1 {
		return fmt.Errorf("window size must be positive: %d", c.Smoothing.WindowSize)
	}
	if err := c.Policy().Validate(); err != nil {
		return err
	}

	if c.Tuner.StreakCapacity < 1 {
		return fmt.Errorf("streak capacity must be at least 1: %d", c.Tuner.StreakCapacity)
	}
	if c.Tuner.CloseThrottleMs < 0 {
		return fmt.Errorf("close throttle must not be negative: %d", c.Tuner.CloseThrottleMs)
	}
	if c.Tuner.TickIntervalMs <= 0 {
		return fmt.Errorf("tick interval must be positive: %d", c.Tuner.TickIntervalMs)
	}
	if c.Tuner.MaxTargetDistance < 0 {
		return fmt.Errorf("max target distance must not be negative: %d", c.Tuner.MaxTargetDistance)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Policy returns the temporal smoothing policy
func (c *Config) Policy() temporal.Policy {
	return temporal.Policy{
		MinRunLength:     c.Smoothing.MinRunLength,
		ShortNoiseRuns:   c.Smoothing.ShortNoiseRuns,
		SilenceRunLength: c.Smoothing.SilenceRunLength,
	}
}

// PipelineConfig returns the pipeline settings
func (c *Config) PipelineConfig() tuner.PipelineConfig {
	return tuner.PipelineConfig{
		WindowSize:     c.Smoothing.WindowSize,
		Policy:         c.Policy(),
		StreakCapacity: c.Tuner.StreakCapacity,
		CloseThrottle:  time.Duration(c.Tuner.CloseThrottleMs) * time.Millisecond,
		ReferenceA4:    c.ReferenceA4,
	}
}

// TickInterval returns the pipeline tick period
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Tuner.TickIntervalMs) * time.Millisecond
}

// DetectorParams returns the pitch detector parameters
func (c *Config) DetectorParams() tonal.PitchDetectionParams {
	params := tonal.DefaultPitchDetectionParams(c.Audio.SampleRate)
	if method, err := parseMethod(c.Detector.Method); err == nil {
		params.Method = method
	}
	params.MinFreq = c.Detector.MinFreq
	params.MaxFreq = c.Detector.MaxFreq
	params.YinThreshold = c.Detector.Threshold
	params.SilenceThresholdDB = c.Detector.SilenceDB
	return params
}

// LoadTuning resolves the configured tuning at the configured reference
func (c *Config) LoadTuning() (tuning.Tuning, error) {
	return tuning.LookupTuning(c.Tuning, c.ReferenceA4)
}

// Resolver returns the target resolver for the mode
func (c *Config) Resolver() (tuning.Resolver, error) {
	if c.Mode == ModeChromatic {
		return tuning.NewChromaticResolver(c.ReferenceA4), nil
	}
	t, err := c.LoadTuning()
	if err != nil {
		return nil, err
	}
	r := tuning.NewNearestResolver(t, c.Tuner.MaxTargetDistance)
	r.StringClassesOnly = c.Tuner.StringClassesOnly
	return r, nil
}

func parseMethod(name string) (tonal.PitchDetectionMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "yin_fft", "hybrid":
		return tonal.HybridYinFFT, nil
	case "yin":
		return tonal.AutocorrelationYin, nil
	default:
		return 0, fmt.Errorf("unknown detector method %q (yin, yin_fft)", name)
	}
}
