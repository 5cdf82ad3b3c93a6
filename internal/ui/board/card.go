package board

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"quicktimer/internal/core/model"
	"quicktimer/internal/core/timefmt"
	"quicktimer/internal/ui/animation"
)

var (
	indicatorIdle   = color.NRGBA{R: 128, G: 128, B: 128, A: 90}
	indicatorBright = color.NRGBA{R: 232, G: 190, B: 66, A: 255}
	indicatorDim    = color.NRGBA{R: 232, G: 190, B: 66, A: 70}
)

const indicatorSize = float32(12)

type intents struct {
	play   func(id int)
	stop   func()
	remove func(id int)
}

type eventCard struct {
	id        int
	card      *widget.Card
	indicator *canvas.Circle
	pulse     *fyne.Animation
	play      *widget.Button
	stop      *widget.Button
	remove    *widget.Button
	playing   bool
}

func newEventCard(event model.Event, actions intents) *eventCard {
	indicator := canvas.NewCircle(indicatorIdle)
	indicator.Resize(fyne.NewSize(indicatorSize, indicatorSize))

	card := &eventCard{
		id:        event.ID,
		indicator: indicator,
	}
	card.play = widget.NewButtonWithIcon("Play", theme.MediaPlayIcon(), func() {
		actions.play(card.id)
	})
	card.stop = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() {
		actions.stop()
	})
	card.remove = widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		actions.remove(card.id)
	})
	card.remove.Importance = widget.DangerImportance

	dot := container.NewGridWrap(fyne.NewSize(indicatorSize, indicatorSize), indicator)
	controls := container.NewHBox(container.NewCenter(dot), card.play, card.stop, card.remove)
	card.card = widget.NewCard(event.Name, timefmt.Format(event.Duration), controls)
	card.update(event)
	return card
}

// update must run on the fyne main goroutine.
func (card *eventCard) update(event model.Event) {
	if card.card.Title != event.Name {
		card.card.SetTitle(event.Name)
	}
	card.setElapsed(event)

	card.playing = event.Playing()
	if card.playing {
		card.play.Disable()
		card.stop.Enable()
		card.remove.Disable()
		card.startPulse()
		return
	}
	card.play.Enable()
	card.stop.Disable()
	card.remove.Enable()
	card.stopPulse()
}

func (card *eventCard) setElapsed(event model.Event) {
	text := timefmt.Format(event.Duration)
	if card.card.Subtitle != text {
		card.card.SetSubTitle(text)
	}
}

func (card *eventCard) startPulse() {
	if card.pulse != nil {
		return
	}
	card.pulse = animation.NewPulse(card.indicator, indicatorBright, indicatorDim)
	card.pulse.Start()
}

func (card *eventCard) stopPulse() {
	if card.pulse != nil {
		card.pulse.Stop()
		card.pulse = nil
	}
	card.indicator.FillColor = indicatorIdle
	card.indicator.Refresh()
}

func (card *eventCard) release() {
	if card.pulse != nil {
		card.pulse.Stop()
		card.pulse = nil
	}
}
