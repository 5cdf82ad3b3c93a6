package animation

import (
	"image/color"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

type fixedClock struct {
	now time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.now
}

func TestFrameSourceStartStop(t *testing.T) {
	test.NewTempApp(t)
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	source := NewFrameSource(fixedClock{now: at})

	var seen []time.Time
	frame := func(now time.Time) { seen = append(seen, now) }

	assert.False(t, source.Running())
	source.Start(frame)
	assert.True(t, source.Running())
	first := source.animation
	source.Start(frame)
	assert.Same(t, first, source.animation)
	assert.Equal(t, fyne.AnimationRepeatForever, first.RepeatCount)

	first.Tick(0.5)
	assert.Equal(t, []time.Time{at}, seen[len(seen)-1:])

	source.Stop()
	assert.False(t, source.Running())
	source.Stop()
}

func TestNewFrameSourceDefaultsClock(t *testing.T) {
	source := NewFrameSource(nil)
	assert.NotNil(t, source.clock)
}

func TestPulseFadesBetweenColors(t *testing.T) {
	test.NewTempApp(t)
	circle := canvas.NewCircle(color.Transparent)
	from := color.NRGBA{R: 232, G: 190, B: 66, A: 255}
	to := color.NRGBA{R: 20, G: 20, B: 20, A: 255}

	pulse := NewPulse(circle, from, to)
	assert.True(t, pulse.AutoReverse)
	assert.Equal(t, fyne.AnimationRepeatForever, pulse.RepeatCount)
	assert.Equal(t, PulseDuration, pulse.Duration)

	pulse.Tick(0)
	start := circle.FillColor
	pulse.Tick(1)
	end := circle.FillColor
	assert.NotEqual(t, start, end)

	r, g, b, _ := start.RGBA()
	fr, fg, fb, _ := from.RGBA()
	assert.Equal(t, []uint32{fr >> 8, fg >> 8, fb >> 8}, []uint32{r >> 8, g >> 8, b >> 8})
}
