package capture

import (
	"context"
	"sync"
	"time"
)

// feeder runs a producer on a goroutine and hands its frames to a handler,
// either paced at a fixed interval or as fast as the producer allows.
type feeder struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// start launches the loop. produce fills frame and reports false once the
// input is exhausted.
func (f *feeder) start(ctx context.Context, interval time.Duration, frame []float64, produce func([]float64) bool, onFrame FrameHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	f.cancel = cancel
	f.done = done

	go func() {
		defer close(done)

		var tick <-chan time.Time
		if interval > 0 {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			} else if ctx.Err() != nil {
				return
			}

			if !produce(frame) {
				return
			}
			onFrame(frame)
		}
	}()

	return nil
}

// stop cancels the loop and waits for it to exit
func (f *feeder) stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// finished returns a channel closed when the current loop exits, or nil if
// the feeder is not running
func (f *feeder) finished() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}
