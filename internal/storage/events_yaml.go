package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"quicktimer/internal/core/model"
)

const (
	eventsFileName    = "events.yaml"
	eventsFileVersion = 1
)

type yamlEventFile struct {
	Version int         `yaml:"version"`
	NextID  int         `yaml:"next_id"`
	Events  []yamlEvent `yaml:"events"`
}

// Duration is kept in nanoseconds so a save/load cycle is lossless.
type yamlEvent struct {
	ID         int    `yaml:"id"`
	Name       string `yaml:"name"`
	Status     string `yaml:"status"`
	DurationNS int64  `yaml:"duration_ns"`
}

// EventFile persists the event collection as a YAML document.
type EventFile struct {
	path string
}

// NewEventFile returns a persister for the YAML file at path.
func NewEventFile(path string) *EventFile {
	return &EventFile{path: path}
}

// Path returns the backing file path.
func (file *EventFile) Path() string {
	return file.path
}

// Load reads the event file. A missing or empty file is an empty state.
func (file *EventFile) Load() (model.State, error) {
	rawData, err := os.ReadFile(file.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.EmptyState(), nil
		}
		return model.State{}, fmt.Errorf("read events file: %w", err)
	}
	if len(bytes.TrimSpace(rawData)) == 0 {
		return model.EmptyState(), nil
	}

	var fileData yamlEventFile
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return model.State{}, fmt.Errorf("parse events yaml: %w", err)
	}
	if fileData.Version > eventsFileVersion {
		return model.State{}, fmt.Errorf("events file version %d is newer than supported version %d", fileData.Version, eventsFileVersion)
	}

	state := model.State{NextID: fileData.NextID}
	for _, event := range fileData.Events {
		state.Events = append(state.Events, model.Event{
			ID:       event.ID,
			Name:     event.Name,
			Status:   model.Status(event.Status),
			Duration: time.Duration(event.DurationNS),
		})
	}
	return state, nil
}

// Save replaces the event file atomically.
func (file *EventFile) Save(state model.State) error {
	if err := os.MkdirAll(filepath.Dir(file.path), 0o755); err != nil {
		return fmt.Errorf("create events directory: %w", err)
	}

	fileData := yamlEventFile{
		Version: eventsFileVersion,
		NextID:  state.NextID,
		Events:  make([]yamlEvent, 0, len(state.Events)),
	}
	for _, event := range state.Events {
		fileData.Events = append(fileData.Events, yamlEvent{
			ID:         event.ID,
			Name:       event.Name,
			Status:     string(event.Status),
			DurationNS: int64(event.Duration),
		})
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal events yaml: %w", err)
	}

	if err := renameio.WriteFile(file.path, serialized, 0o644); err != nil {
		return fmt.Errorf("write events file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is not held open between saves.
func (file *EventFile) Close() error {
	return nil
}
