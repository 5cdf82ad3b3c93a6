package animation

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// PulseDuration is one fade of the running indicator.
const PulseDuration = 900 * time.Millisecond

// NewPulse fades circle between from and to until the returned animation is
// stopped. The caller starts it.
func NewPulse(circle *canvas.Circle, from, to color.Color) *fyne.Animation {
	pulse := canvas.NewColorRGBAAnimation(from, to, PulseDuration, func(value color.Color) {
		circle.FillColor = value
		canvas.Refresh(circle)
	})
	pulse.AutoReverse = true
	pulse.Curve = fyne.AnimationEaseInOut
	pulse.RepeatCount = fyne.AnimationRepeatForever
	return pulse
}
