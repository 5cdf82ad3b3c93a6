package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"quicktimer/internal/core/model"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	IdleStopEnabled      bool   `yaml:"idle_stop_enabled"`
	IdleStopMinutes      int    `yaml:"idle_stop_minutes"`
	FlushIntervalSeconds int    `yaml:"flush_interval_seconds"`
	StorageBackend       string `yaml:"storage_backend"`
	LogLevel             string `yaml:"log_level"`
}

// LoadSettings reads user preferences from dir/settings.yaml.
// If the file does not exist, default settings are returned.
func LoadSettings(dir string) (model.Settings, error) {
	settings := model.DefaultSettings()

	rawData, err := os.ReadFile(filepath.Join(dir, settingsFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to dir/settings.yaml.
func SaveSettings(dir string, settings model.Settings) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		IdleStopEnabled:      settings.IdleStopEnabled,
		IdleStopMinutes:      int(settings.IdleStopAfter / time.Minute),
		FlushIntervalSeconds: int(settings.FlushInterval / time.Second),
		StorageBackend:       settings.StorageBackend,
		LogLevel:             settings.LogLevel,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := renameio.WriteFile(filepath.Join(dir, settingsFileName), serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func applyYamlSettings(settings *model.Settings, fileData yamlSettings) {
	if fileData.IdleStopMinutes > 0 {
		settings.IdleStopAfter = time.Duration(fileData.IdleStopMinutes) * time.Minute
	}
	if fileData.FlushIntervalSeconds > 0 && fileData.FlushIntervalSeconds <= 300 {
		settings.FlushInterval = time.Duration(fileData.FlushIntervalSeconds) * time.Second
	}

	switch backend := strings.ToLower(strings.TrimSpace(fileData.StorageBackend)); backend {
	case model.BackendYAML, model.BackendSQLite, model.BackendMemory:
		settings.StorageBackend = backend
	}

	if level := strings.TrimSpace(fileData.LogLevel); level != "" {
		settings.LogLevel = strings.ToLower(level)
	}

	settings.IdleStopEnabled = fileData.IdleStopEnabled
}
