package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/RyanBlaney/sonido-tuner/capture"
	"github.com/RyanBlaney/sonido-tuner/config"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/present"
	"github.com/RyanBlaney/sonido-tuner/tuner"
)

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	record := fs.String("record", "", "write stable notes to this MIDI file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("analyze needs exactly one audio file")
	}
	path := fs.Arg(0)

	cfg, err := common.load()
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	audio, err := decodeFile(context.Background(), path, cfg.Audio.SampleRate)
	if err != nil {
		return err
	}
	logging.Info("Decoded audio", logging.Fields{
		"path":        path,
		"duration":    audio.Duration.Seconds(),
		"sample_rate": audio.SampleRate,
	})

	summary := present.NewSummary()
	presenters := tuner.Presenters{summary, notePrinter(os.Stdout)}
	var recorder *present.Recorder
	if *record != "" {
		recorder = present.NewRecorder()
		presenters = append(presenters, recorder)
	}

	if err := analyze(cfg, audio.PCM, audio.SampleRate, presenters); err != nil {
		return err
	}

	if recorder != nil {
		if err := recorder.Save(*record); err != nil {
			return fmt.Errorf("save recording: %w", err)
		}
	}
	return summary.WriteReport(os.Stdout)
}

// analyze runs one pipeline tick per buffer of pcm, timestamped by the
// buffer's position in the file
func analyze(cfg *config.Config, pcm []float64, sampleRate int, presenter tuner.Presenter) error {
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	bufferSize := cfg.Audio.BufferSize
	estimator, err := estimatorFactory(cfg)(sampleRate, bufferSize)
	if err != nil {
		return err
	}

	frameDuration := time.Duration(bufferSize) * time.Second / time.Duration(sampleRate)
	var origin time.Time
	for i, frame := range capture.Frames(pcm, bufferSize) {
		at := origin.Add(time.Duration(i) * frameDuration)
		presenter.Present(pipeline.Step(estimator.Estimate(frame), at))
	}
	return nil
}

// notePrinter prints a line whenever a new target becomes stable and when it
// locks
func notePrinter(w io.Writer) tuner.Presenter {
	var last string
	return tuner.PresenterFunc(func(out tuner.Output) {
		if out.Skipped {
			return
		}
		offset := out.Time.Sub(time.Time{}).Seconds()
		current := ""
		if out.HasNote {
			current = out.Target.String()
		}
		if current != last && current != "" {
			fmt.Fprintf(w, "%7.2fs  %-4s %+4.0f%%  %.2f Hz\n", offset, current, out.DisplayCents, out.Frequency)
		}
		if out.JustLocked {
			fmt.Fprintf(w, "%7.2fs  %-4s in tune\n", offset, current)
		}
		last = current
	})
}
