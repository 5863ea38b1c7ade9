package present

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tuner/tuner"
	"github.com/RyanBlaney/sonido-tuner/tuning"
)

// Controller is the part of a session the terminal UI drives
type Controller interface {
	Toggle(ctx context.Context) error
	Running() bool
}

type keyAction int

const (
	actionNone keyAction = iota
	actionToggle
	actionQuit
)

func actionForKey(key tcell.Key, r rune) keyAction {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actionQuit
	case tcell.KeyEnter:
		return actionToggle
	case tcell.KeyRune:
		switch r {
		case ' ':
			return actionToggle
		case 'q', 'Q':
			return actionQuit
		}
	}
	return actionNone
}

type quitSignal struct{}

var (
	styleDefault = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTarget  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	styleLocked  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleClose   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleFar     = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

const maxMeterWidth = 61

// TUI renders the tuner on a tcell screen: the target strings, a pitch-class
// wheel, a cents needle and a closeness bar. Present may be called from any
// goroutine; drawing happens on the goroutine running Run.
type TUI struct {
	screen  tcell.Screen
	title   string
	targets []tuning.TargetNote

	mu      sync.Mutex
	last    tuner.Output
	running bool
	errMsg  string
}

// NewTUI creates a UI on an initialized screen. targets may be empty for the
// chromatic tuner.
func NewTUI(screen tcell.Screen, title string, targets []tuning.TargetNote) *TUI {
	return &TUI{screen: screen, title: title, targets: targets}
}

// Present stores out and asks the event loop to redraw
func (t *TUI) Present(out tuner.Output) {
	t.mu.Lock()
	t.last = out
	t.mu.Unlock()
	// a full queue already holds a pending redraw
	_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// Run processes key and redraw events until q, Esc or Ctrl-C is pressed or
// ctx ends. Space and Enter toggle the session.
func (t *TUI) Run(ctx context.Context, ctl Controller) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.screen.PostEvent(tcell.NewEventInterrupt(quitSignal{}))
		case <-done:
		}
	}()

	t.setRunning(ctl.Running())
	t.Draw()

	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			t.screen.Sync()
			t.Draw()
		case *tcell.EventInterrupt:
			if _, ok := ev.Data().(quitSignal); ok {
				return nil
			}
			t.Draw()
		case *tcell.EventKey:
			switch actionForKey(ev.Key(), ev.Rune()) {
			case actionQuit:
				return nil
			case actionToggle:
				err := ctl.Toggle(ctx)
				t.mu.Lock()
				t.errMsg = ""
				if err != nil {
					t.errMsg = err.Error()
				}
				t.mu.Unlock()
				t.setRunning(ctl.Running())
				t.Draw()
			}
		}
	}
}

func (t *TUI) setRunning(running bool) {
	t.mu.Lock()
	t.running = running
	t.mu.Unlock()
}

// Draw renders the latest output
func (t *TUI) Draw() {
	t.mu.Lock()
	out, running, errMsg := t.last, t.running, t.errMsg
	t.mu.Unlock()

	s := t.screen
	s.Clear()
	w, h := s.Size()

	t.text(1, 0, t.title, styleTitle)
	status, statusStyle := "PAUSED", styleDim
	if running {
		status, statusStyle = "LISTENING", styleClose
	}
	t.text(w-len(status)-1, 0, status, statusStyle)

	row := 2
	if len(t.targets) > 0 {
		t.drawTargets(row, out)
		row += 2
	}
	t.drawWheel(row, out)
	row += 2

	accent := accentStyle(out)
	if out.HasNote {
		t.text(1, row, fmt.Sprintf("%-4s", out.Target.String()), accent.Bold(true))
		t.text(7, row, fmt.Sprintf("%+4.0f%%", out.DisplayCents), accent)
		t.text(15, row, fmt.Sprintf("%8.2f Hz", out.Frequency), styleDim)
	} else {
		t.text(1, row, "--", styleDim)
		if out.NoTarget {
			t.text(7, row, "no string near this note", styleDim)
		}
	}
	row += 2

	t.drawNeedle(row, w, out, accent)
	row += 3

	t.drawCloseness(row, w, out, accent)
	row++
	t.text(1, row, hint(out), accent)

	if errMsg != "" {
		t.text(1, h-2, errMsg, styleError)
	}
	t.text(1, h-1, "space: start/stop   q: quit", styleDim)
	s.Show()
}

func (t *TUI) drawTargets(row int, out tuner.Output) {
	x := 1
	for _, target := range t.targets {
		label := fmt.Sprintf(" %s %s ", target.Label, target.Note)
		style := styleDefault
		if out.HasNote && target.Index() == out.Target.Index() {
			style = styleTarget
		}
		t.text(x, row, label, style)
		x += len(label) + 1
	}
}

// drawWheel lays the 12 pitch classes out in a row, highlighting the
// detected class and marking the target's
func (t *TUI) drawWheel(row int, out tuner.Output) {
	detected := -1
	if out.DetectedStatus == tonal.StatusClassified {
		detected = floorMod(out.Detected.SemitoneIndex, 12)
	}
	target := -1
	if out.HasNote {
		target = floorMod(out.Target.Index(), 12)
	}

	x := 1
	for class, name := range tonal.PitchClassNames {
		style := styleDim
		switch {
		case class == target:
			style = accentStyle(out)
		case class == detected:
			style = styleDefault
		}
		t.text(x, row, name, style)
		if class == target {
			t.text(x, row+1, "^", style)
		}
		x += 4
	}
}

func (t *TUI) drawNeedle(row, w int, out tuner.Output, accent tcell.Style) {
	width := min(w-2, maxMeterWidth)
	if width%2 == 0 {
		width--
	}
	if width < 3 {
		return
	}
	half := width / 2

	scale := []rune(strings.Repeat("-", width))
	scale[0], scale[half], scale[width-1] = '|', '+', '|'
	t.text(1, row, string(scale), styleDim)
	t.text(1, row+1, "-50", styleDim)
	t.text(1+width-3, row+1, "+50", styleDim)

	if !out.HasNote {
		return
	}
	pos := half + needleOffset(out.DisplayCents, half)
	t.screen.SetContent(1+pos, row, '#', nil, accent)
}

// needleOffset maps a displayed offset in [-50, 50] onto half a meter
func needleOffset(cents float64, half int) int {
	off := int(math.Round(cents / 50 * float64(half)))
	return max(-half, min(half, off))
}

func (t *TUI) drawCloseness(row, w int, out tuner.Output, accent tcell.Style) {
	width := min(w-10, 40)
	if width < 1 {
		return
	}
	filled := int(math.Round(out.Closeness * float64(width)))
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
	t.text(1, row, bar, accent)
	t.text(width+4, row, fmt.Sprintf("%3.0f%%", out.Closeness*100), styleDim)
}

func hint(out tuner.Output) string {
	switch {
	case !out.HasNote:
		return ""
	case out.IsLocked:
		return "IN TUNE"
	case out.IsClose:
		return "almost there"
	case out.IsTooLow:
		return "too low, tune up"
	default:
		return "too high, tune down"
	}
}

func accentStyle(out tuner.Output) tcell.Style {
	switch {
	case out.IsLocked:
		return styleLocked
	case out.IsClose:
		return styleClose
	default:
		return styleFar
	}
}

func (t *TUI) text(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}

func floorMod(a, b int) int {
	return ((a % b) + b) % b
}
