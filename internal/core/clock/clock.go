package clock

import (
	"sync"
	"time"
)

// Clock provides the current time. Tests inject a fake to control deltas.
type Clock interface {
	Now() time.Time
}

// System is the default Clock backed by the standard library.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// FrameSource invokes frame once per display frame until stopped.
type FrameSource interface {
	Start(frame func(now time.Time))
	Stop()
}

// TickerSource is a FrameSource driven by a time.Ticker on its own goroutine.
// It is used where no display loop exists, such as headless runs and tests.
type TickerSource struct {
	mu       sync.Mutex
	interval time.Duration
	clock    Clock
	stopCh   chan struct{}
	done     chan struct{}
}

// DefaultFrameInterval approximates a 60Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// NewTickerSource creates a ticker-backed frame source.
func NewTickerSource(interval time.Duration, clock Clock) *TickerSource {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if clock == nil {
		clock = System
	}
	return &TickerSource{interval: interval, clock: clock}
}

// Start launches the ticking loop. Calling Start on a running source is a no-op.
func (source *TickerSource) Start(frame func(now time.Time)) {
	source.mu.Lock()
	defer source.mu.Unlock()
	if source.stopCh != nil {
		return
	}
	source.stopCh = make(chan struct{})
	source.done = make(chan struct{})
	go source.run(frame, source.stopCh, source.done)
}

// Stop terminates the ticking loop and waits for it to exit.
func (source *TickerSource) Stop() {
	source.mu.Lock()
	stopCh, done := source.stopCh, source.done
	source.stopCh, source.done = nil, nil
	source.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done
}

func (source *TickerSource) run(frame func(now time.Time), stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(source.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame(source.clock.Now())
		}
	}
}
