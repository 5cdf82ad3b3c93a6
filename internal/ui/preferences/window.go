package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"quicktimer/internal/core/model"
)

var (
	backendOptions  = []string{model.BackendYAML, model.BackendSQLite, model.BackendMemory}
	logLevelOptions = []string{"debug", "info", "warn", "error"}
)

// Window handles the preferences UI.
type Window struct {
	window    fyne.Window
	settings  model.Settings
	onSave    func(model.Settings)
	idleCheck *widget.Check
	idleAfter *widget.Entry
	flush     *widget.Entry
	backend   *widget.Select
	logLevel  *widget.Select
}

// New creates a preferences window.
func New(app fyne.App, title string, settings model.Settings, onSave func(model.Settings)) *Window {
	window := app.NewWindow(title)

	idleCheck := widget.NewCheck("Stop the running timer when I am away", nil)
	idleAfter := widget.NewEntry()
	flush := widget.NewEntry()
	backend := widget.NewSelect(backendOptions, nil)
	logLevel := widget.NewSelect(logLevelOptions, nil)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Idle", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		idleCheck,
		container.NewHBox(widget.NewLabel("Away for"), idleAfter, widget.NewLabel("min")),
		widget.NewLabelWithStyle("Storage", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Save running time every"), flush, widget.NewLabel("sec")),
		container.NewHBox(widget.NewLabel("Backend"), backend),
		widget.NewLabelWithStyle("Backend changes apply after restart.", fyne.TextAlignLeading, fyne.TextStyle{Italic: true}),
		container.NewHBox(widget.NewLabel("Log level"), logLevel),
	)

	saveButton := widget.NewButton("Save", nil)
	cancelButton := widget.NewButton("Cancel", nil)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	content := container.NewBorder(nil, buttons, nil, nil, form)
	window.SetContent(content)
	window.Resize(fyne.NewSize(380, 320))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	prefs := &Window{
		window:    window,
		onSave:    onSave,
		idleCheck: idleCheck,
		idleAfter: idleAfter,
		flush:     flush,
		backend:   backend,
		logLevel:  logLevel,
	}
	prefs.UpdateSettings(settings)

	saveButton.OnTapped = prefs.handleSave
	cancelButton.OnTapped = func() {
		prefs.UpdateSettings(prefs.settings)
		window.Hide()
	}

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings model.Settings) {
	prefs.settings = settings
	prefs.idleCheck.SetChecked(settings.IdleStopEnabled)
	prefs.idleAfter.SetText(fmt.Sprintf("%d", int(settings.IdleStopAfter.Minutes())))
	prefs.flush.SetText(fmt.Sprintf("%d", int(settings.FlushInterval.Seconds())))
	prefs.backend.SetSelected(settings.StorageBackend)
	prefs.logLevel.SetSelected(strings.ToLower(settings.LogLevel))
}

// Settings returns the last saved values.
func (prefs *Window) Settings() model.Settings {
	return prefs.settings
}

func (prefs *Window) handleSave() {
	settings := prefs.settings

	settings.IdleStopEnabled = prefs.idleCheck.Checked
	if minutes, ok := parsePositiveInt(prefs.idleAfter.Text); ok {
		settings.IdleStopAfter = time.Duration(minutes) * time.Minute
	}
	if seconds, ok := parsePositiveInt(prefs.flush.Text); ok && seconds <= 300 {
		settings.FlushInterval = time.Duration(seconds) * time.Second
	}
	if prefs.backend.Selected != "" {
		settings.StorageBackend = prefs.backend.Selected
	}
	if prefs.logLevel.Selected != "" {
		settings.LogLevel = prefs.logLevel.Selected
	}

	prefs.UpdateSettings(settings)
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
