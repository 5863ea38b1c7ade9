package tuner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RyanBlaney/sonido-tuner/capture"
	"github.com/RyanBlaney/sonido-tuner/logging"
)

// DefaultTickInterval is how often the pipeline drains the sampler
const DefaultTickInterval = 100 * time.Millisecond

// Estimator maps one PCM frame to a frequency in Hz, 0 or NaN meaning no pitch.
// Estimators that hold resources may also implement io.Closer.
type Estimator interface {
	Estimate(frame []float64) float64
}

// EstimatorFunc adapts a function to Estimator
type EstimatorFunc func(frame []float64) float64

// Estimate calls f
func (f EstimatorFunc) Estimate(frame []float64) float64 { return f(frame) }

// EstimatorFactory acquires an estimator for a source's format
type EstimatorFactory func(sampleRate, bufferSize int) (Estimator, error)

// Session wires a source, an estimator and a pipeline together. The source
// callback writes the sampler; a ticker goroutine drains it once per tick
// and hands the output to the presenter.
type Session struct {
	source       capture.Source
	newEstimator EstimatorFactory
	pipeline     *Pipeline
	presenter    Presenter
	tickInterval time.Duration
	now          func() time.Time

	sampler    *Sampler
	generation atomic.Uint64

	mu        sync.Mutex
	running   bool
	estimator Estimator
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSession creates an idle session. A zero tickInterval uses DefaultTickInterval.
func NewSession(source capture.Source, newEstimator EstimatorFactory, pipeline *Pipeline, presenter Presenter, tickInterval time.Duration) (*Session, error) {
	if source == nil || newEstimator == nil || pipeline == nil {
		return nil, fmt.Errorf("session needs a source, an estimator factory and a pipeline")
	}
	if presenter == nil {
		presenter = Presenters{}
	}
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	return &Session{
		source:       source,
		newEstimator: newEstimator,
		pipeline:     pipeline,
		presenter:    presenter,
		tickInterval: tickInterval,
		now:          time.Now,
		sampler:      NewSampler(),
	}, nil
}

// Start acquires the estimator, then the source, then starts the ticker.
// If any step fails, what was acquired is released and the session stays idle.
func (s *Session) Start(ctx context.Context) error {
	logger := logging.WithFields(logging.Fields{
		"component": "session",
		"function":  "Start",
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSessionRunning
	}

	estimator, err := s.newEstimator(s.source.SampleRate(), s.source.BufferSize())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEstimatorUnavailable, err)
	}
	if estimator == nil {
		return ErrEstimatorUnavailable
	}

	gen := s.generation.Add(1)
	ctx = logging.ContextWithFields(ctx, logging.Fields{"generation": gen})
	s.pipeline.Reset()
	s.sampler.Reset()

	onFrame := func(frame []float64) {
		if s.generation.Load() != gen {
			return
		}
		s.sampler.Store(estimator.Estimate(frame))
	}

	if err := s.source.Start(ctx, onFrame); err != nil {
		s.generation.Add(1)
		if cerr := closeEstimator(estimator); cerr != nil {
			logger.Warn("Failed to release estimator after source failure", logging.Fields{"error": cerr.Error()})
		}
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	tickCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go s.run(tickCtx, gen, done)

	s.estimator = estimator
	s.cancel = cancel
	s.done = done
	s.running = true

	logger.Info("Session started", logging.Fields{
		"generation":    gen,
		"sample_rate":   s.source.SampleRate(),
		"buffer_size":   s.source.BufferSize(),
		"tick_interval": s.tickInterval.String(),
	})
	return nil
}

func (s *Session) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "session",
		"function":  "run",
	})

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Ticker stopped")
			return
		case <-ticker.C:
			if s.generation.Load() != gen {
				logger.Debug("Ticker superseded")
				return
			}
			s.presenter.Present(s.pipeline.Step(s.sampler.Load(), s.now()))
		}
	}
}

// Stop releases the ticker, then the source, then the estimator. Stopping an
// idle session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.generation.Add(1)
	s.cancel()
	<-s.done

	var errs []error
	if err := s.source.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop source: %w", err))
	}
	if err := closeEstimator(s.estimator); err != nil {
		errs = append(errs, fmt.Errorf("release estimator: %w", err))
	}

	s.estimator = nil
	s.cancel = nil
	s.done = nil
	s.running = false

	logging.WithFields(logging.Fields{
		"component": "session",
		"function":  "Stop",
	}).Info("Session stopped", logging.Fields{
		"generation": s.Generation(),
		"ticks":      s.pipeline.tick,
		"estimates":  s.sampler.Updates(),
	})

	return errors.Join(errs...)
}

// Toggle stops a running session or starts an idle one
func (s *Session) Toggle(ctx context.Context) error {
	if s.Running() {
		return s.Stop()
	}
	return s.Start(ctx)
}

// Run starts the session, waits for ctx to end and stops it
func (s *Session) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// Running reports whether the session is started
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Generation returns the lifecycle counter, bumped on every start and stop
func (s *Session) Generation() uint64 {
	return s.generation.Load()
}

// Sampler exposes the latest-frequency holder
func (s *Session) Sampler() *Sampler {
	return s.sampler
}

func closeEstimator(e Estimator) error {
	if c, ok := e.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
