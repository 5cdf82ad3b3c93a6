package model

import "time"

// Storage backends understood by storage.NewEventPersister.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Settings defines user preferences.
type Settings struct {
	IdleStopEnabled bool
	IdleStopAfter   time.Duration

	FlushInterval  time.Duration
	StorageBackend string
	LogLevel       string
}

// DefaultSettings returns default settings for QuickTimer.
func DefaultSettings() Settings {
	return Settings{
		IdleStopEnabled: false,
		IdleStopAfter:   10 * time.Minute,
		FlushInterval:   5 * time.Second,
		StorageBackend:  BackendYAML,
		LogLevel:        "info",
	}
}

// IdleStopThreshold returns the idle period after which the running timer is
// stopped, or zero when idle auto-stop is off.
func (settings Settings) IdleStopThreshold() time.Duration {
	if !settings.IdleStopEnabled {
		return 0
	}
	return settings.IdleStopAfter
}
