// Package animation adapts fyne's animation loop to the timer core.
package animation

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"quicktimer/internal/core/clock"
)

// FrameSource delivers one callback per rendered frame using a fyne
// animation that repeats forever. Callbacks run on the fyne main goroutine.
type FrameSource struct {
	mu        sync.Mutex
	clock     clock.Clock
	animation *fyne.Animation
}

// NewFrameSource creates a frame source. A nil clock uses the system clock.
func NewFrameSource(now clock.Clock) *FrameSource {
	if now == nil {
		now = clock.System
	}
	return &FrameSource{clock: now}
}

// Start begins delivering frames. Calling Start while running is a no-op.
func (source *FrameSource) Start(frame func(now time.Time)) {
	source.mu.Lock()
	defer source.mu.Unlock()
	if source.animation != nil {
		return
	}

	animation := fyne.NewAnimation(time.Second, func(float32) {
		frame(source.clock.Now())
	})
	animation.Curve = fyne.AnimationLinear
	animation.RepeatCount = fyne.AnimationRepeatForever
	source.animation = animation
	animation.Start()
}

// Stop cancels frame delivery. No frame callback starts after Stop returns.
func (source *FrameSource) Stop() {
	source.mu.Lock()
	animation := source.animation
	source.animation = nil
	source.mu.Unlock()

	if animation != nil {
		animation.Stop()
	}
}

// Running reports whether frames are being delivered.
func (source *FrameSource) Running() bool {
	source.mu.Lock()
	defer source.mu.Unlock()
	return source.animation != nil
}
