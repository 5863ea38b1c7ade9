package present

import (
	"math"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
	"github.com/RyanBlaney/sonido-tuner/tuner"
)

const (
	SOF0           = 0xAA
	SOF1           = 0x55
	CmdTuningState = 0x20
	// NoTarget is sent in the target byte while nothing is being tuned
	NoTarget = 0xFF
)

// Frame flag bits
const (
	FlagHasNote byte = 1 << iota
	FlagClose
	FlagLocked
	FlagTooLow
)

// Frame is a snapshot of the tuning state sent to an indicator board once
// per tick.
type Frame struct {
	Target    byte // semitone index of the target, NoTarget when idle
	Cents     int8 // displayed offset in percent of a semitone
	Closeness byte // 0..255
	Flags     byte
	Seq       byte
}

// FrameFromOutput builds the frame for one tick
func FrameFromOutput(out tuner.Output, seq byte) Frame {
	f := Frame{Target: NoTarget, Seq: seq}
	if !out.HasNote {
		return f
	}

	f.Flags |= FlagHasNote
	if out.IsClose {
		f.Flags |= FlagClose
	}
	if out.IsLocked {
		f.Flags |= FlagLocked
	}
	if out.IsTooLow {
		f.Flags |= FlagTooLow
	}

	if idx := out.Target.Index(); idx >= 0 && idx < NoTarget {
		f.Target = byte(idx)
	}
	f.Cents = int8(common.Clamp(math.Round(out.DisplayCents), -100, 100))
	f.Closeness = byte(math.Round(common.Clamp(out.Closeness, 0, 1) * 255))
	return f
}

// Encode builds the on-wire representation:
//
//	[SOF0][SOF1][LEN][CMD][target][cents][closeness][flags][seq][CKS]
func (f Frame) Encode() []byte {
	payload := []byte{f.Target, byte(f.Cents), f.Closeness, f.Flags, f.Seq}

	length := byte(len(payload) + 1) // +1 for CMD byte
	cks := length ^ CmdTuningState
	for _, b := range payload {
		cks ^= b
	}

	out := []byte{SOF0, SOF1, length, CmdTuningState}
	out = append(out, payload...)
	out = append(out, cks)
	return out
}
