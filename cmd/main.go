package main

import (
	"fmt"

	"quicktimer/internal/cli"
	"quicktimer/internal/core/clock"
	"quicktimer/internal/core/eventstore"
	"quicktimer/internal/core/model"
	"quicktimer/internal/core/timefmt"
	qtlog "quicktimer/internal/log"
	"quicktimer/internal/platform"
	"quicktimer/internal/storage"
	"quicktimer/internal/ui/animation"
	"quicktimer/internal/ui/board"
	"quicktimer/internal/ui/preferences"
	"quicktimer/internal/ui/tray"
	"quicktimer/resources"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
)

const appID = "com.quicktimer.app"

func main() {
	cli.Execute(runGUI)
}

func runGUI(env *cli.Environment) error {
	logger := qtlog.WithComponent("gui")

	guard, err := platform.AcquireSingleInstance(env.AppName)
	if err != nil {
		return fmt.Errorf("start %s: %w", env.AppName, err)
	}
	defer func() {
		_ = guard.Release()
	}()

	store, closeStore, err := env.OpenStore()
	if err != nil {
		return err
	}

	fyneApp := app.NewWithID(appID)
	idleIcon := resources.MustIcon(resources.IconIdle)
	runningIcon := resources.MustIcon(resources.IconRunning)
	fyneApp.SetIcon(idleIcon)

	driver := clock.New(store, animation.NewFrameSource(clock.System), qtlog.WithComponent("clock"), driverConfig(env.Settings))
	driver.SetIdleChecker(platform.NewIdleProvider())

	timers := board.New(fyneApp, env.AppName, store, logger)

	settings := env.Settings
	applySettings := func(updated model.Settings) {
		if updated.StorageBackend != settings.StorageBackend {
			logger.Info().Str("backend", updated.StorageBackend).Msg("storage backend applies after restart")
		}
		if updated.LogLevel != settings.LogLevel && !qtlog.SetLevel(updated.LogLevel) {
			logger.Warn().Str("level", updated.LogLevel).Msg("unknown log level ignored")
		}
		settings = updated
		store.UpdateConfig(eventstore.Config{FlushInterval: settings.FlushInterval})
		driver.UpdateConfig(driverConfig(settings))
	}
	prefsWindow := preferences.New(fyneApp, env.AppName+" Preferences", settings, func(updated model.Settings) {
		if err := env.SaveSettings(updated); err != nil {
			logger.Warn().Err(err).Msg("save settings failed")
		}
		applySettings(updated)
	})

	settingsWatcher, err := storage.WatchSettings(env.Dir, qtlog.WithComponent("storage"), func(updated model.Settings) {
		fyne.Do(func() {
			if updated == settings {
				return
			}
			prefsWindow.UpdateSettings(updated)
			applySettings(updated)
		})
	})
	if err != nil {
		logger.Warn().Err(err).Msg("settings changes on disk will not be picked up")
	}

	quitting := false
	teardown := func() {
		if quitting {
			return
		}
		quitting = true
		driver.Stop()
		if settingsWatcher != nil {
			_ = settingsWatcher.Close()
		}
		closeStore()
	}

	var trayManager *tray.Manager
	desktopApp, hasTray := fyneApp.(desktop.App)
	if hasTray {
		trayManager = tray.New(desktopApp, env.AppName, tray.Callbacks{
			OnShow: func() {
				timers.Show()
			},
			OnStop: func() {
				store.Stop()
			},
			OnPreferences: func() {
				prefsWindow.Show()
			},
			OnQuit: func() {
				teardown()
				fyneApp.Quit()
			},
		})
		desktopApp.SetSystemTrayIcon(idleIcon)
	} else {
		logger.Warn().Msg("system tray unsupported, closing the window quits")
	}

	wasRunning := false
	updateStatus := func() {
		active, running := store.Active()
		if hasTray {
			status := "No timer running"
			if running {
				status = active.Name + " " + timefmt.Format(active.Duration)
			}
			trayManager.SetStatus(status, running)
			if running != wasRunning {
				if running {
					desktopApp.SetSystemTrayIcon(runningIcon)
				} else {
					desktopApp.SetSystemTrayIcon(idleIcon)
				}
			}
		}
		wasRunning = running
	}
	timers.SetOnChange(updateStatus)
	timers.Listen(store.Subscribe(64))
	updateStatus()

	if !hasTray {
		timers.SetOnClose(func() {
			teardown()
			fyneApp.Quit()
		})
	}

	fyneApp.Lifecycle().SetOnStopped(teardown)
	driver.Start()
	logger.Info().
		Str("dir", env.Dir).
		Str("backend", env.Settings.StorageBackend).
		Int("events", len(store.Events())).
		Msg("timer window started")

	timers.Show()
	fyneApp.Run()
	teardown()
	return nil
}

func driverConfig(settings model.Settings) clock.Config {
	return clock.Config{IdleStopAfter: settings.IdleStopThreshold()}
}
