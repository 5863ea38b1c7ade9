package tuner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-tuner/capture"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/tuning"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeSource struct {
	rec     *recorder
	session *Session
	failErr error

	mu      sync.Mutex
	handler capture.FrameHandler
}

func (f *fakeSource) Start(ctx context.Context, onFrame capture.FrameHandler) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.mu.Lock()
	f.handler = onFrame
	f.mu.Unlock()
	f.rec.add("source.start")
	return nil
}

func (f *fakeSource) Stop() error {
	if f.session != nil {
		select {
		case <-f.session.done:
			f.rec.add("source.stop")
		default:
			f.rec.add("source.stop(ticker running)")
		}
		return nil
	}
	f.rec.add("source.stop")
	return nil
}

func (f *fakeSource) SampleRate() int { return 44100 }
func (f *fakeSource) BufferSize() int { return 4096 }

func (f *fakeSource) emit() {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(make([]float64, 4096))
	}
}

type fakeEstimator struct {
	rec  *recorder
	freq float64
}

func (e *fakeEstimator) Estimate([]float64) float64 { return e.freq }

func (e *fakeEstimator) Close() error {
	e.rec.add("estimator.close")
	return nil
}

type collector struct {
	mu   sync.Mutex
	outs []Output
	ch   chan Output
}

func newCollector() *collector {
	return &collector{ch: make(chan Output, 1024)}
}

func (c *collector) Present(out Output) {
	c.mu.Lock()
	c.outs = append(c.outs, out)
	c.mu.Unlock()
	select {
	case c.ch <- out:
	default:
	}
}

func newTestSession(t *testing.T, src *fakeSource, est *fakeEstimator, pres Presenter) *Session {
	t.Helper()
	p, err := NewPipeline(DefaultPipelineConfig(), tuning.NewNearestResolver(tuning.StandardTuning(), 0))
	if err != nil {
		t.Fatal(err)
	}
	factory := func(sampleRate, bufferSize int) (Estimator, error) {
		est.rec.add("estimator.open")
		return est, nil
	}
	s, err := NewSession(src, factory, p, pres, 2*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	src.session = s
	return s
}

func TestSessionLocksOnSteadyTone(t *testing.T) {
	rec := &recorder{}
	src := &fakeSource{rec: rec}
	est := &fakeEstimator{rec: rec, freq: 82.41}
	col := newCollector()
	s := newTestSession(t, src, est, col)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	src.emit()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case out := <-col.ch:
			if out.JustLocked {
				if out.Note != "E" || out.Octave != 2 {
					t.Errorf("locked on %s%d", out.Note, out.Octave)
				}
				return
			}
		case <-deadline:
			t.Fatal("session never locked on a steady E2")
		}
	}
}

func TestSessionStopOrderAndIdempotence(t *testing.T) {
	rec := &recorder{}
	src := &fakeSource{rec: rec}
	est := &fakeEstimator{rec: rec, freq: 440}
	s := newTestSession(t, src, est, newCollector())

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Running() {
		t.Fatal("session should be running")
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrSessionRunning) {
		t.Errorf("second start: %v", err)
	}

	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}

	want := []string{"estimator.open", "source.start", "source.stop", "estimator.close"}
	got := rec.list()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestStaleCallbackIgnoredAfterStop(t *testing.T) {
	rec := &recorder{}
	src := &fakeSource{rec: rec}
	est := &fakeEstimator{rec: rec, freq: 440}
	s := newTestSession(t, src, est, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	src.emit()
	if s.Sampler().Updates() != 1 {
		t.Fatalf("updates = %d, want 1", s.Sampler().Updates())
	}

	gen := s.Generation()
	s.Stop()
	if s.Generation() == gen {
		t.Error("stop should bump the generation")
	}

	src.emit()
	if s.Sampler().Updates() != 1 {
		t.Error("callback after stop must not reach the sampler")
	}
}

func TestSessionLogsLifecycle(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, &buf)
	logger.SetLevel(logging.DebugLevel)
	prev := logging.GetGlobalLogger()
	logging.SetGlobalLogger(logger)
	t.Cleanup(func() { logging.SetGlobalLogger(prev) })

	rec := &recorder{}
	src := &fakeSource{rec: rec}
	est := &fakeEstimator{rec: rec, freq: 440}
	s := newTestSession(t, src, est, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	src.emit()
	src.emit()
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	// the ticker inherits the start generation through its context
	if !strings.Contains(out, "function=run generation=1") {
		t.Errorf("ticker exit not logged with its generation:\n%s", out)
	}
	if !strings.Contains(out, "Session stopped") || !strings.Contains(out, "estimates=2") || !strings.Contains(out, "generation=2") {
		t.Errorf("stop summary missing:\n%s", out)
	}
}

func TestSourceFailureTearsDown(t *testing.T) {
	rec := &recorder{}
	src := &fakeSource{rec: rec, failErr: errors.New("permission denied")}
	est := &fakeEstimator{rec: rec, freq: 440}
	s := newTestSession(t, src, est, nil)

	err := s.Start(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("start error = %v, want ErrSourceUnavailable", err)
	}
	if s.Running() {
		t.Error("failed start must leave the session idle")
	}
	got := rec.list()
	if len(got) != 2 || got[1] != "estimator.close" {
		t.Errorf("events = %v, want estimator released", got)
	}

	// the session can be restarted once the source recovers
	src.failErr = nil
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	s.Stop()
}

func TestEstimatorFailure(t *testing.T) {
	rec := &recorder{}
	src := &fakeSource{rec: rec}
	p, _ := NewPipeline(DefaultPipelineConfig(), tuning.NewChromaticResolver(440))
	factory := func(int, int) (Estimator, error) { return nil, errors.New("no wasm") }

	s, err := NewSession(src, factory, p, nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Start(context.Background()); !errors.Is(err, ErrEstimatorUnavailable) {
		t.Fatalf("start error = %v, want ErrEstimatorUnavailable", err)
	}
	if len(rec.list()) != 0 {
		t.Errorf("source touched after estimator failure: %v", rec.list())
	}
}

func TestSessionToggleAndRun(t *testing.T) {
	rec := &recorder{}
	src := &fakeSource{rec: rec}
	est := &fakeEstimator{rec: rec, freq: 440}
	s := newTestSession(t, src, est, nil)

	ctx := context.Background()
	if err := s.Toggle(ctx); err != nil || !s.Running() {
		t.Fatalf("toggle on: %v", err)
	}
	if err := s.Toggle(ctx); err != nil || s.Running() {
		t.Fatalf("toggle off: %v", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := s.Run(runCtx); err != nil {
		t.Fatal(err)
	}
	if s.Running() {
		t.Error("Run should stop the session when the context ends")
	}
}

func TestNewSessionValidates(t *testing.T) {
	if _, err := NewSession(nil, nil, nil, nil, 0); err == nil {
		t.Error("missing collaborators should fail")
	}
}
