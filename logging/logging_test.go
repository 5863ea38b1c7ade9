package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"loud", InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWriterLoggerRoutesByLevel(t *testing.T) {
	var info, errs bytes.Buffer
	l := NewWriterLogger(&info, &errs)
	l.SetLevel(DebugLevel)

	l.Debug("tick", Fields{"n": 1})
	l.Warn("drift")
	l.Error(errors.New("boom"), "source failed")

	if !strings.Contains(info.String(), "[DEBUG] tick n=1") {
		t.Errorf("debug line missing from info writer: %q", info.String())
	}
	if strings.Contains(info.String(), "drift") {
		t.Error("warn line must not go to the info writer")
	}
	if !strings.Contains(errs.String(), "[WARN] drift") {
		t.Errorf("warn line missing: %q", errs.String())
	}
	if !strings.Contains(errs.String(), "[ERROR] source failed: boom") {
		t.Errorf("error line missing: %q", errs.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var info, errs bytes.Buffer
	l := NewWriterLogger(&info, &errs)
	l.SetLevel(WarnLevel)

	l.Info("hidden")
	if info.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", info.String())
	}
}

func TestWithFieldsIsSortedAndImmutable(t *testing.T) {
	var info bytes.Buffer
	base := NewWriterLogger(&info, &info)
	child := base.WithFields(Fields{"component": "tuner", "a": 2})

	child.Info("hello", Fields{"b": 3})
	base.Info("plain")

	lines := strings.Split(strings.TrimSpace(info.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "[INFO] hello a=2 b=3 component=tuner") {
		t.Errorf("unexpected field rendering: %q", lines[0])
	}
	if strings.Contains(lines[1], "component") {
		t.Errorf("parent logger picked up child fields: %q", lines[1])
	}
}

func TestWithContext(t *testing.T) {
	var info bytes.Buffer
	l := NewWriterLogger(&info, &info)
	ctx := ContextWithFields(context.Background(), Fields{"session": 7})

	l.WithContext(ctx).Info("started")

	if !strings.Contains(info.String(), "session=7") {
		t.Errorf("context fields missing: %q", info.String())
	}
}

func TestFatalUsesExitHook(t *testing.T) {
	var errs bytes.Buffer
	l := NewWriterLogger(&errs, &errs)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal(errors.New("no mic"), "cannot start")

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	if _, ok := GetGlobalLogger().(*NoOpLogger); !ok {
		t.Errorf("nil logger should install NoOpLogger, got %T", GetGlobalLogger())
	}
}
