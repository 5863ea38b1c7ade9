package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

const usage = `usage: tuner <command> [flags]

commands:
  listen    tune from the microphone, a test tone or a file
  analyze   run the tuner over an audio file and summarize it
  tone      write a reference tone to a WAV file
  devices   list audio input devices
  tunings   list tuning presets

run "tuner <command> -h" for the flags of a command
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "listen":
		err = runListen(args)
	case "analyze":
		err = runAnalyze(args)
	case "tone":
		err = runTone(args)
	case "devices":
		err = runDevices(args)
	case "tunings":
		err = runTunings(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "tuner %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}
