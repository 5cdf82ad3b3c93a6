package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"quicktimer/internal/core/eventstore"
	"quicktimer/internal/core/model"
	qtlog "quicktimer/internal/log"
	"quicktimer/internal/storage"
)

// Environment is the resolved configuration shared by the GUI and commands.
type Environment struct {
	AppName  string
	Dir      string
	Settings model.Settings
	Logger   zerolog.Logger
}

func loadEnvironment(opts *rootOptions) (*Environment, error) {
	dir := opts.dataDir
	if dir == "" {
		resolved, err := storage.DefaultDir(AppName)
		if err != nil {
			return nil, err
		}
		dir = resolved
	}

	settings, settingsErr := storage.LoadSettings(dir)
	if opts.backend != "" {
		settings.StorageBackend = opts.backend
	}
	if opts.ephemeral {
		settings.StorageBackend = model.BackendMemory
	}
	if opts.logLevel != "" {
		settings.LogLevel = opts.logLevel
	}

	qtlog.Configure(qtlog.Config{
		Level:   settings.LogLevel,
		Console: isatty.IsTerminal(os.Stderr.Fd()),
	})
	logger := qtlog.WithComponent("cli")
	if settingsErr != nil {
		logger.Warn().Err(settingsErr).Msg("settings unreadable, using defaults")
	}

	return &Environment{
		AppName:  AppName,
		Dir:      dir,
		Settings: settings,
		Logger:   logger,
	}, nil
}

// OpenStore opens the configured persister and an event store on top of it.
// The returned close function flushes the store and releases the persister.
func (env *Environment) OpenStore() (*eventstore.Store, func(), error) {
	persister, err := storage.NewEventPersister(env.Settings.StorageBackend, env.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	store := eventstore.Open(persister, qtlog.WithComponent("eventstore"), eventstore.Config{
		FlushInterval: env.Settings.FlushInterval,
	})
	closeFn := func() {
		store.Close()
		if err := persister.Close(); err != nil {
			env.Logger.Warn().Err(err).Msg("close storage failed")
		}
	}
	return store, closeFn, nil
}

// SaveSettings persists settings changed at runtime.
func (env *Environment) SaveSettings(settings model.Settings) error {
	env.Settings = settings
	return storage.SaveSettings(env.Dir, settings)
}
