package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-tuner/algorithms/filters"
	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tuner/capture"
	"github.com/RyanBlaney/sonido-tuner/capture/mic"
	"github.com/RyanBlaney/sonido-tuner/config"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/transcode"
	"github.com/RyanBlaney/sonido-tuner/tuner"
)

// commonFlags are shared by listen and analyze
type commonFlags struct {
	configPath string
	mode       string
	tuning     string
	a4         float64
	debug      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "JSON config file")
	fs.StringVar(&c.mode, "mode", "", "tuner mode: guitar|chromatic")
	fs.StringVar(&c.tuning, "tuning", "", "tuning preset or comma-separated notes, e.g. D2,A2,D3,G3,B3,E4")
	fs.Float64Var(&c.a4, "a4", 0, "reference pitch of A4 in Hz")
	fs.BoolVar(&c.debug, "debug", false, "log every tick")
}

// load builds the configuration: defaults, then the config file, then the
// environment, then flags
func (c *commonFlags) load() (*config.Config, error) {
	var cfg *config.Config
	if c.configPath != "" {
		loaded, err := config.LoadFile(c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
		if c.mode != "" {
			cfg = config.ForMode(config.Mode(c.mode))
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if c.mode != "" && config.Mode(c.mode) != cfg.Mode {
		// switching mode on the command line picks up that mode's window
		window := config.ForMode(config.Mode(c.mode)).Smoothing.WindowSize
		cfg.Mode = config.Mode(c.mode)
		cfg.Smoothing.WindowSize = window
	}
	if c.tuning != "" {
		cfg.Tuning = c.tuning
	}
	if c.a4 > 0 {
		cfg.ReferenceA4 = c.a4
	}
	if c.debug {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogging installs the global logger. When the terminal is owned by the
// UI, logs go to the configured file or nowhere.
func setupLogging(cfg *config.Config, terminalBusy bool) (io.Closer, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	var closer io.Closer = io.NopCloser(nil)
	switch {
	case cfg.Log.File != "":
		logger, f, err := logging.NewFileLogger(cfg.Log.File)
		if err != nil {
			return nil, err
		}
		logging.SetGlobalLogger(logger)
		closer = f
	case terminalBusy:
		logging.SetGlobalLogger(&logging.NoOpLogger{})
	default:
		logging.SetGlobalLogger(logging.NewDefaultLogger())
	}
	logging.SetLevel(level)
	return closer, nil
}

// estimatorFactory creates a YIN pitch detector for each session start
func estimatorFactory(cfg *config.Config) tuner.EstimatorFactory {
	return func(sampleRate, bufferSize int) (tuner.Estimator, error) {
		params := cfg.DetectorParams()
		params.SampleRate = sampleRate
		if need := 2 * float64(sampleRate) / params.MinFreq; float64(bufferSize) < need {
			return nil, fmt.Errorf("buffer of %d samples cannot hold two periods of %.1f Hz", bufferSize, params.MinFreq)
		}
		fields := logging.Fields{
			"method":      tonal.GetPitchDetectionMethodName(params.Method),
			"sample_rate": sampleRate,
			"min_freq":    params.MinFreq,
			"max_freq":    params.MaxFreq,
		}
		logger := logging.WithFields(logging.Fields{
			"component": "cli",
			"function":  "estimatorFactory",
		})

		detector := tonal.NewPitchDetectorWithParams(params)
		if cfg.Detector.HighpassHz <= 0 {
			logger.Debug("Pitch detector created", fields)
			return detector, nil
		}
		dc, err := filters.NewDCRemovalWithCutoff(sampleRate, cfg.Detector.HighpassHz)
		if err != nil {
			return nil, err
		}
		fields["highpass_hz"] = dc.CutoffFrequency(sampleRate)
		logger.Debug("Pitch detector created", fields)
		return &filteredEstimator{dc: dc, detector: detector}, nil
	}
}

// filteredEstimator removes DC from each frame before detection. The filter
// state carries over between frames of one session.
type filteredEstimator struct {
	dc       *filters.DCRemoval
	detector *tonal.PitchDetector
	buf      []float64
}

func (e *filteredEstimator) Estimate(frame []float64) float64 {
	e.buf = e.dc.ProcessBuffer(e.buf, frame)
	return e.detector.Estimate(e.buf)
}

// sourceSpec is a parsed -source flag: "mic", "tone:<hz>" or "file:<path>"
type sourceSpec struct {
	kind string
	freq float64
	path string
}

func parseSource(s string) (sourceSpec, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
	switch strings.ToLower(kind) {
	case "", "mic":
		return sourceSpec{kind: "mic"}, nil
	case "tone":
		if arg == "" {
			return sourceSpec{kind: "tone", freq: tonal.ReferenceA4}, nil
		}
		if note, err := tonal.ParseNote(arg); err == nil {
			return sourceSpec{kind: "tone", freq: note.Frequency}, nil
		}
		freq, err := strconv.ParseFloat(arg, 64)
		if err != nil || freq <= 0 {
			return sourceSpec{}, fmt.Errorf("invalid tone %q: want a frequency in Hz or a note such as E2", arg)
		}
		return sourceSpec{kind: "tone", freq: freq}, nil
	case "file":
		if arg == "" {
			return sourceSpec{}, fmt.Errorf("file source needs a path")
		}
		return sourceSpec{kind: "file", path: arg}, nil
	default:
		return sourceSpec{}, fmt.Errorf("unknown source %q (mic, tone:<hz>, file:<path>)", s)
	}
}

// openSource creates the audio source. File sources are decoded up front.
func openSource(ctx context.Context, spec sourceSpec, cfg *config.Config) (capture.Source, error) {
	sr, bs := cfg.Audio.SampleRate, cfg.Audio.BufferSize
	switch spec.kind {
	case "tone":
		return capture.NewToneSource(spec.freq, sr, bs)
	case "file":
		audio, err := decodeFile(ctx, spec.path, sr)
		if err != nil {
			return nil, err
		}
		return capture.NewReplaySource(audio.PCM, audio.SampleRate, bs)
	default:
		m, err := mic.NewMicrophone(sr, bs)
		if err != nil {
			return nil, err
		}
		m.Device = cfg.Audio.Device
		return m, nil
	}
}

func decodeFile(ctx context.Context, path string, sampleRate int) (*transcode.AudioData, error) {
	dc := transcode.DefaultDecoderConfig()
	dc.TargetSampleRate = sampleRate
	audio, err := transcode.NewDecoder(dc).DecodeFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return audio, nil
}

// newPipeline builds the pipeline for the configured mode
func newPipeline(cfg *config.Config) (*tuner.Pipeline, error) {
	resolver, err := cfg.Resolver()
	if err != nil {
		return nil, err
	}
	return tuner.NewPipeline(cfg.PipelineConfig(), resolver)
}
