package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"quicktimer/internal/core/model"
)

// DefaultSettingsDebounce collapses the burst of events one editor save makes.
const DefaultSettingsDebounce = 500 * time.Millisecond

// SettingsWatcher reloads settings.yaml when it changes on disk.
type SettingsWatcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	debounce time.Duration
	onChange func(model.Settings)
	done     chan struct{}
}

// WatchSettings calls onChange from a background goroutine with the freshly
// loaded settings after every change to dir/settings.yaml. The directory is
// watched rather than the file because atomic saves replace the file.
func WatchSettings(dir string, logger zerolog.Logger, onChange func(model.Settings)) (*SettingsWatcher, error) {
	return watchSettings(dir, logger, DefaultSettingsDebounce, onChange)
}

func watchSettings(dir string, logger zerolog.Logger, debounce time.Duration, onChange func(model.Settings)) (*SettingsWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch settings dir: %w", err)
	}

	settingsWatcher := &SettingsWatcher{
		dir:      dir,
		watcher:  watcher,
		logger:   logger,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go settingsWatcher.loop()

	logger.Debug().Str("dir", dir).Msg("watching settings file")
	return settingsWatcher, nil
}

// Close stops watching and waits for the watch goroutine to exit. A pending
// reload is dropped.
func (settingsWatcher *SettingsWatcher) Close() error {
	err := settingsWatcher.watcher.Close()
	<-settingsWatcher.done
	return err
}

func (settingsWatcher *SettingsWatcher) loop() {
	defer close(settingsWatcher.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-settingsWatcher.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != settingsFileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settingsWatcher.debounce)
			} else {
				timer.Reset(settingsWatcher.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			settings, err := LoadSettings(settingsWatcher.dir)
			if err != nil {
				settingsWatcher.logger.Warn().Err(err).Msg("settings reload failed")
				continue
			}
			settingsWatcher.logger.Info().Msg("settings reloaded")
			settingsWatcher.onChange(settings)

		case err, ok := <-settingsWatcher.watcher.Errors:
			if !ok {
				return
			}
			settingsWatcher.logger.Warn().Err(err).Msg("settings watcher error")
		}
	}
}
