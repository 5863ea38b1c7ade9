package main

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-tuner/capture"
	"github.com/RyanBlaney/sonido-tuner/config"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/present"
	"github.com/RyanBlaney/sonido-tuner/tuner"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		kind    string
		freq    float64
		path    string
		wantErr bool
	}{
		{in: "mic", kind: "mic"},
		{in: "", kind: "mic"},
		{in: "tone:82.41", kind: "tone", freq: 82.41},
		{in: "tone:A4", kind: "tone", freq: 440},
		{in: "tone", kind: "tone", freq: 440},
		{in: "file:take1.wav", kind: "file", path: "take1.wav"},
		{in: "tone:loud", wantErr: true},
		{in: "tone:-3", wantErr: true},
		{in: "file:", wantErr: true},
		{in: "radio", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSource(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.kind != tt.kind || math.Abs(got.freq-tt.freq) > 1e-9 || got.path != tt.path {
				t.Errorf("parseSource(%q) = %+v", tt.in, got)
			}
		})
	}
}

func TestCommonFlagsLoad(t *testing.T) {
	c := commonFlags{mode: "chromatic", a4: 442, debug: true}
	cfg, err := c.load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != config.ModeChromatic || cfg.ReferenceA4 != 442 || cfg.Log.Level != "debug" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Smoothing.WindowSize != tuner.ChromaticWindowSize {
		t.Errorf("window = %d", cfg.Smoothing.WindowSize)
	}

	bad := commonFlags{tuning: "nope"}
	if _, err := bad.load(); err == nil {
		t.Error("unknown tuning should fail")
	}
}

func TestEstimatorFactoryRejectsShortBuffers(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := estimatorFactory(cfg)(44100, 512); err == nil {
		t.Error("512 samples cannot hold two periods of 30 Hz")
	}
	est, err := estimatorFactory(cfg)(44100, 4096)
	if err != nil {
		t.Fatal(err)
	}
	frame := make([]float64, 4096)
	for i := range frame {
		frame[i] = 0.5 * math.Sin(2*math.Pi*110*float64(i)/44100)
	}
	if f := est.Estimate(frame); math.Abs(f-110) > 1 {
		t.Errorf("estimate = %v, want 110", f)
	}
}

func TestEstimatorFactoryLogsDetector(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, &buf)
	logger.SetLevel(logging.DebugLevel)
	prev := logging.GetGlobalLogger()
	logging.SetGlobalLogger(logger)
	t.Cleanup(func() { logging.SetGlobalLogger(prev) })

	cfg := config.DefaultConfig()
	if _, err := estimatorFactory(cfg)(44100, 4096); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "method=YIN-FFT Hybrid") || !strings.Contains(out, "highpass_hz=") {
		t.Errorf("detector log = %q", out)
	}

	buf.Reset()
	cfg.Detector.HighpassHz = 0
	cfg.Detector.Method = "yin"
	if _, err := estimatorFactory(cfg)(44100, 4096); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "method=YIN (Autocorrelation)") || strings.Contains(out, "highpass_hz") {
		t.Errorf("unfiltered detector log = %q", out)
	}
}

func TestAnalyzeToneFile(t *testing.T) {
	cfg := config.DefaultConfig()
	path := filepath.Join(t.TempDir(), "e2.wav")
	if err := writeTone(path, 82.41, 2*time.Second, cfg.Audio.SampleRate, 0.5); err != nil {
		t.Fatal(err)
	}

	audio, err := decodeFile(context.Background(), path, cfg.Audio.SampleRate)
	if err != nil {
		t.Fatal(err)
	}

	var printed bytes.Buffer
	summary := present.NewSummary()
	if err := analyze(cfg, audio.PCM, audio.SampleRate, tuner.Presenters{summary, notePrinter(&printed)}); err != nil {
		t.Fatal(err)
	}

	// 2 s at 4096 samples per tick is 22 ticks, enough to stabilize and lock
	if !strings.Contains(printed.String(), "E2") || !strings.Contains(printed.String(), "in tune") {
		t.Errorf("printed:\n%s", printed.String())
	}
	targets := summary.Targets()
	if len(targets) != 1 || targets[0].Target != "E2" || targets[0].Locks != 1 {
		t.Errorf("summary = %+v", targets)
	}
}

func TestOpenToneSource(t *testing.T) {
	cfg := config.DefaultConfig()
	src, err := openSource(context.Background(), sourceSpec{kind: "tone", freq: 196}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*capture.ToneSource); !ok || src.SampleRate() != 44100 || src.BufferSize() != 4096 {
		t.Errorf("source = %T %d/%d", src, src.SampleRate(), src.BufferSize())
	}
}
