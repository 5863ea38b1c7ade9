package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gopxl/beep"

	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tuner/capture"
	"github.com/RyanBlaney/sonido-tuner/capture/mic"
	"github.com/RyanBlaney/sonido-tuner/transcode"
	"github.com/RyanBlaney/sonido-tuner/tuning"
)

func runTone(args []string) error {
	fs := flag.NewFlagSet("tone", flag.ContinueOnError)
	freq := fs.Float64("freq", tonal.ReferenceA4, "tone frequency in Hz")
	note := fs.String("note", "", "tone note such as E2, overrides -freq")
	duration := fs.Duration("duration", 5*time.Second, "tone length")
	rate := fs.Int("rate", 44100, "sample rate")
	amp := fs.Float64("amp", 0.5, "amplitude (0-1]")
	out := fs.String("out", "tone.wav", "output WAV file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *note != "" {
		n, err := tonal.ParseNote(*note)
		if err != nil {
			return err
		}
		*freq = n.Frequency
	}
	if *duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if *amp <= 0 || *amp > 1 {
		return fmt.Errorf("amplitude must be in (0, 1]: %v", *amp)
	}

	if err := writeTone(*out, *freq, *duration, *rate, *amp); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %.2f Hz for %v\n", *out, *freq, *duration)
	return nil
}

func writeTone(path string, freq float64, duration time.Duration, rate int, amp float64) error {
	tone, err := capture.NewToneStreamer(freq, rate, amp)
	if err != nil {
		return err
	}
	n := beep.SampleRate(rate).N(duration)
	return transcode.WriteWAVFile(path, beep.Take(n, tone), rate)
}

func runDevices(args []string) error {
	fs := flag.NewFlagSet("devices", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	devices, err := mic.ListInputDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("no input devices")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tHOST API\tCHANNELS\tRATE\t")
	for _, d := range devices {
		mark := ""
		if d.IsDefaultInput {
			mark = "*"
		}
		fmt.Fprintf(w, "%d%s\t%s\t%s\t%d\t%.0f\t\n", d.Index, mark, d.Name, d.HostAPI, d.MaxInputChannels, d.DefaultSampleRate)
	}
	return w.Flush()
}

func runTunings(args []string) error {
	fs := flag.NewFlagSet("tunings", flag.ContinueOnError)
	a4 := fs.Float64("a4", tonal.ReferenceA4, "reference pitch of A4 in Hz")
	if err := fs.Parse(args); err != nil {
		return err
	}

	for _, name := range tuning.PresetNames() {
		t, err := tuning.LookupTuning(name, *a4)
		if err != nil {
			return err
		}
		notes := make([]string, len(t.Targets))
		for i, target := range t.Targets {
			notes[i] = target.String()
		}
		fmt.Printf("%-15s %s\n", name, strings.Join(notes, " "))
	}
	return nil
}
