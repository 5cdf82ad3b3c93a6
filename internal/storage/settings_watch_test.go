package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"quicktimer/internal/core/model"
)

type settingsRecorder struct {
	mu    sync.Mutex
	calls []model.Settings
}

func (recorder *settingsRecorder) record(settings model.Settings) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.calls = append(recorder.calls, settings)
}

func (recorder *settingsRecorder) last() (model.Settings, int) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.calls) == 0 {
		return model.Settings{}, 0
	}
	return recorder.calls[len(recorder.calls)-1], len(recorder.calls)
}

func TestWatchSettingsReloadsOnSave(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := filepath.Join(t.TempDir(), "QuickTimer")
	recorder := &settingsRecorder{}
	watcher, err := watchSettings(dir, zerolog.Nop(), 20*time.Millisecond, recorder.record)
	require.NoError(t, err)

	want := model.DefaultSettings()
	want.IdleStopEnabled = true
	want.IdleStopAfter = 3 * time.Minute
	require.NoError(t, SaveSettings(dir, want))

	require.Eventually(t, func() bool {
		got, calls := recorder.last()
		return calls > 0 && got == want
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, watcher.Close())
}

func TestWatchSettingsIgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	recorder := &settingsRecorder{}
	watcher, err := watchSettings(dir, zerolog.Nop(), 10*time.Millisecond, recorder.record)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, eventsFileName), []byte("version: 1\n"), 0o644))
	time.Sleep(100 * time.Millisecond)
	_, calls := recorder.last()
	assert.Zero(t, calls)

	require.NoError(t, watcher.Close())
}

func TestWatchSettingsSkipsMalformedFile(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	recorder := &settingsRecorder{}
	watcher, err := watchSettings(dir, zerolog.Nop(), 10*time.Millisecond, recorder.record)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte("idle_stop_minutes: [1"), 0o644))
	time.Sleep(100 * time.Millisecond)
	_, calls := recorder.last()
	assert.Zero(t, calls)

	require.NoError(t, watcher.Close())
}
