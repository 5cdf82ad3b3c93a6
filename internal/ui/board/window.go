// Package board renders the timer list and forwards user intents to the
// event store.
package board

import (
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"quicktimer/internal/core/eventstore"
	"quicktimer/internal/core/model"
	"quicktimer/internal/core/timefmt"
)

// Store is the part of eventstore.Store the board reads and mutates.
type Store interface {
	Create(name string) (model.Event, bool)
	Play(id int) error
	Stop()
	Delete(id int) error
	Active() (model.Event, bool)
	Events() []model.Event
}

var elapsedColor = color.NRGBA{R: 232, G: 190, B: 66, A: 255}

const (
	cardWidth  = float32(260)
	cardHeight = float32(130)
)

// Window is the main timer window.
type Window struct {
	window   fyne.Window
	store    Store
	logger   zerolog.Logger
	name     *widget.Entry
	goButton *widget.Button
	current  *widget.Label
	elapsed  *canvas.Text
	grid     *fyne.Container
	empty    *widget.Label
	cards    map[int]*eventCard
	// currentID is the event shown in the Current label, 0 for none.
	currentID int
	onChange  func()
}

// New builds the window. Closing it hides it; the app keeps running in the tray.
func New(app fyne.App, title string, store Store, logger zerolog.Logger) *Window {
	window := app.NewWindow(title)
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	board := &Window{
		window: window,
		store:  store,
		logger: logger,
		cards:  map[int]*eventCard{},
	}

	board.name = widget.NewEntry()
	board.name.SetPlaceHolder("What are you working on?")
	board.goButton = widget.NewButton("Go", board.submit)
	board.goButton.Importance = widget.HighImportance
	board.goButton.Disable()
	board.name.OnChanged = func(text string) {
		if strings.TrimSpace(text) == "" {
			board.goButton.Disable()
			return
		}
		board.goButton.Enable()
	}
	board.name.OnSubmitted = func(string) {
		board.submit()
	}

	board.current = widget.NewLabelWithStyle("Current: -", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	board.elapsed = canvas.NewText(timefmt.FormatMillis(0), elapsedColor)
	board.elapsed.Alignment = fyne.TextAlignCenter
	board.elapsed.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	board.elapsed.TextSize = 56

	board.empty = widget.NewLabelWithStyle("No timers yet. Name one above and press Go.", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	board.grid = container.NewGridWrap(fyne.NewSize(cardWidth, cardHeight))

	form := container.NewBorder(nil, nil, nil, board.goButton, board.name)
	header := container.NewVBox(form, board.current, board.elapsed, widget.NewSeparator())
	body := container.NewVScroll(container.NewVBox(board.empty, board.grid))
	window.SetContent(container.NewBorder(header, nil, nil, nil, container.NewPadded(body)))
	window.Resize(fyne.NewSize(cardWidth*3+48, 560))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	board.Refresh()
	return board
}

// Show displays the window and focuses the name entry.
func (board *Window) Show() {
	board.window.Show()
	board.window.RequestFocus()
	board.window.Canvas().Focus(board.name)
}

// Hide hides the window.
func (board *Window) Hide() {
	board.window.Hide()
}

// SetOnClose replaces hiding the window on close.
func (board *Window) SetOnClose(handler func()) {
	board.window.SetCloseIntercept(handler)
}

// SetOnChange registers a callback run on the main goroutine after every
// re-render caused by a store change.
func (board *Window) SetOnChange(handler func()) {
	board.onChange = handler
}

// Listen re-renders on every change until the channel is closed.
func (board *Window) Listen(changes <-chan eventstore.Change) {
	go func() {
		for change := range changes {
			fyne.Do(func() {
				board.Apply(change)
			})
		}
	}()
}

// Apply re-renders after change. Accrual only touches the elapsed texts.
// It must run on the fyne main goroutine.
func (board *Window) Apply(change eventstore.Change) {
	if change.Kind == eventstore.ChangeAccrued {
		board.refreshElapsed(change.EventID)
	} else {
		board.Refresh()
	}
	if board.onChange != nil {
		board.onChange()
	}
}

// Refresh rebuilds the card grid from the store. It must run on the fyne
// main goroutine.
func (board *Window) Refresh() {
	events := board.store.Events()
	seen := make(map[int]struct{}, len(events))
	objects := make([]fyne.CanvasObject, 0, len(events))

	for _, event := range events {
		seen[event.ID] = struct{}{}
		card, ok := board.cards[event.ID]
		if !ok {
			card = newEventCard(event, intents{
				play:   board.play,
				stop:   board.stop,
				remove: board.remove,
			})
			board.cards[event.ID] = card
		} else {
			card.update(event)
		}
		objects = append(objects, card.card)
	}
	for id, card := range board.cards {
		if _, ok := seen[id]; !ok {
			card.release()
			delete(board.cards, id)
		}
	}

	board.grid.Objects = objects
	board.grid.Refresh()
	if len(events) == 0 {
		board.empty.Show()
	} else {
		board.empty.Hide()
	}
	board.refreshCurrent()
}

// refreshElapsed falls back to a full Refresh when the rendered state is
// behind the store, which happens when a slow subscriber dropped a
// structural change before this accrual.
func (board *Window) refreshElapsed(id int) {
	active, ok := board.store.Active()
	if !ok || active.ID != id || board.currentID != id {
		board.Refresh()
		return
	}
	card, rendered := board.cards[id]
	if !rendered || !card.playing || len(board.store.Events()) != len(board.cards) {
		board.Refresh()
		return
	}
	card.setElapsed(active)
	board.setElapsed(active.Duration.Milliseconds())
}

func (board *Window) refreshCurrent() {
	active, ok := board.store.Active()
	if !ok {
		board.currentID = 0
		board.current.SetText("Current: -")
		board.setElapsed(0)
		return
	}
	board.currentID = active.ID
	board.current.SetText("Current: " + active.Name)
	board.setElapsed(active.Duration.Milliseconds())
}

func (board *Window) setElapsed(millis int64) {
	text := timefmt.FormatMillis(millis)
	if board.elapsed.Text == text {
		return
	}
	board.elapsed.Text = text
	board.elapsed.Refresh()
}

func (board *Window) submit() {
	name := board.name.Text
	if strings.TrimSpace(name) == "" {
		return
	}
	event, ok := board.store.Create(name)
	if !ok {
		return
	}
	board.logger.Debug().Int("event_id", event.ID).Msg("timer created")
	board.name.SetText("")
}

func (board *Window) play(id int) {
	if err := board.store.Play(id); err != nil {
		board.logger.Debug().Err(err).Int("event_id", id).Msg("play ignored")
	}
}

func (board *Window) stop() {
	board.store.Stop()
}

func (board *Window) remove(id int) {
	if err := board.store.Delete(id); err != nil {
		board.logger.Debug().Err(err).Int("event_id", id).Msg("delete ignored")
	}
}
