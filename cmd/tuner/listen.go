package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/RyanBlaney/sonido-tuner/capture"
	"github.com/RyanBlaney/sonido-tuner/config"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/present"
	"github.com/RyanBlaney/sonido-tuner/tuner"
	"github.com/RyanBlaney/sonido-tuner/tuning"
)

func runListen(args []string) error {
	fs := flag.NewFlagSet("listen", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	source := fs.String("source", "mic", "audio source: mic|tone:<hz or note>|file:<path>")
	ui := fs.String("ui", "tui", "presentation: tui|log")
	serialPort := fs.String("serial", "", "serial device for the indicator, e.g. /dev/ttyACM0")
	baud := fs.Int("baud", present.DefaultBaudRate, "serial baud rate")
	record := fs.String("record", "", "write stable notes to this MIDI file")
	device := fs.String("device", "", "input device index or name prefix")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ui != "tui" && *ui != "log" {
		return fmt.Errorf("unknown ui %q (tui, log)", *ui)
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *device != "" {
		cfg.Audio.Device = *device
	}

	closer, err := setupLogging(cfg, *ui == "tui")
	if err != nil {
		return err
	}
	defer closer.Close()

	spec, err := parseSource(*source)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(ctx, spec, cfg)
	if err != nil {
		return err
	}
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	summary := present.NewSummary()
	presenters := tuner.Presenters{summary}

	var recorder *present.Recorder
	if *record != "" {
		recorder = present.NewRecorder()
		presenters = append(presenters, recorder)
	}
	if *serialPort != "" {
		indicator, err := present.OpenSerial(*serialPort, *baud)
		if err != nil {
			return err
		}
		defer indicator.Close()
		presenters = append(presenters, indicator)
	}

	var screen tcell.Screen
	var tui *present.TUI
	if *ui == "tui" {
		screen, err = tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init terminal: %w", err)
		}
		tui = present.NewTUI(screen, title(cfg), targetsFor(cfg))
		presenters = append(presenters, tui)
	} else {
		presenters = append(presenters, present.NewLogPresenter(nil))
	}

	session, err := tuner.NewSession(src, estimatorFactory(cfg), pipeline, presenters, cfg.TickInterval())
	if err != nil {
		return err
	}

	runErr := drive(ctx, session, src, tui)
	if screen != nil {
		screen.Fini()
	}
	if err := session.Stop(); err != nil && runErr == nil {
		runErr = err
	}

	if recorder != nil {
		if err := recorder.Save(*record); err != nil {
			return fmt.Errorf("save recording: %w", err)
		}
		logging.Info("Recording saved", logging.Fields{"path": *record, "notes": recorder.Notes()})
	}
	if err := summary.WriteReport(os.Stdout); err != nil {
		return err
	}
	return runErr
}

// drive starts the session and blocks until the user quits, the context ends
// or a replayed file runs out
func drive(ctx context.Context, session *tuner.Session, src capture.Source, tui *present.TUI) error {
	if err := session.Start(ctx); err != nil {
		return err
	}

	var finished <-chan struct{}
	if replay, ok := src.(*capture.ReplaySource); ok {
		finished = replay.Done()
	}

	if tui != nil {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		if finished != nil {
			go func() {
				select {
				case <-finished:
					cancel()
				case <-ctx.Done():
				}
			}()
		}
		return tui.Run(ctx, session)
	}

	select {
	case <-ctx.Done():
	case <-finished:
	}
	return nil
}

func title(cfg *config.Config) string {
	if cfg.Mode == config.ModeChromatic {
		return fmt.Sprintf("sonido tuner  chromatic  A4=%.0f Hz", cfg.ReferenceA4)
	}
	return fmt.Sprintf("sonido tuner  %s  A4=%.0f Hz", cfg.Tuning, cfg.ReferenceA4)
}

func targetsFor(cfg *config.Config) []tuning.TargetNote {
	if cfg.Mode == config.ModeChromatic {
		return nil
	}
	t, err := cfg.LoadTuning()
	if err != nil {
		return nil
	}
	return t.Targets
}
