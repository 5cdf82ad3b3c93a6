package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quicktimer/internal/core/eventstore"
	"quicktimer/internal/core/model"
	"quicktimer/internal/platform"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(nil)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func withoutGUI(t *testing.T) {
	t.Helper()
	previous := acquireInstance
	acquireInstance = func(string) (*platform.InstanceGuard, error) { return nil, nil }
	t.Cleanup(func() { acquireInstance = previous })
}

func TestAddPlayStopList(t *testing.T) {
	withoutGUI(t)
	for _, backend := range []string{model.BackendYAML, model.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			base := []string{"--data-dir", t.TempDir(), "--backend", backend, "--log-level", "error"}
			run := func(args ...string) string {
				t.Helper()
				out, err := runCLI(t, append(append([]string{}, args...), base...)...)
				require.NoError(t, err, out)
				return out
			}

			assert.Contains(t, run("add", "Deep", "work"), "Created #1 Deep work")
			assert.Contains(t, run("add", "Email"), "Created #2 Email")
			assert.Contains(t, run("play", "#2"), "Playing #2")

			out := run("list")
			assert.Contains(t, out, "Deep work")
			assert.Contains(t, out, "playing")
			assert.Contains(t, out, "Current: Email 00:00")

			assert.Contains(t, run("stop"), "Stopped #2 Email at 00:00")
			assert.Contains(t, run("stop"), "No timer running.")
			assert.Contains(t, run("list"), "Current: -")
		})
	}
}

func TestListJSON(t *testing.T) {
	withoutGUI(t)
	dir := t.TempDir()
	_, err := runCLI(t, "add", "Review", "--data-dir", dir)
	require.NoError(t, err)

	out, err := runCLI(t, "list", "--json", "--data-dir", dir)
	require.NoError(t, err)

	var views []eventView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, eventView{ID: 1, Name: "Review", Status: "stopped", Elapsed: "00:00"}, views[0])
}

func TestListEmpty(t *testing.T) {
	out, err := runCLI(t, "list", "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No timers yet")
}

func TestDeleteKeepsIDsUnique(t *testing.T) {
	withoutGUI(t)
	dir := t.TempDir()
	for _, name := range []string{"a", "b"} {
		_, err := runCLI(t, "add", name, "--data-dir", dir)
		require.NoError(t, err)
	}

	out, err := runCLI(t, "rm", "2", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted #2")

	out, err = runCLI(t, "add", "c", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created #3 c")
}

func TestUnknownIDFails(t *testing.T) {
	withoutGUI(t)
	dir := t.TempDir()

	_, err := runCLI(t, "play", "9", "--data-dir", dir)
	assert.ErrorContains(t, err, "play #9")

	_, err = runCLI(t, "rm", "9", "--data-dir", dir)
	assert.ErrorContains(t, err, "delete #9")

	_, err = runCLI(t, "play", "zero", "--data-dir", dir)
	assert.ErrorContains(t, err, "positive number")
}

func TestBlankNameRejected(t *testing.T) {
	withoutGUI(t)
	_, err := runCLI(t, "add", "   ", "--data-dir", t.TempDir())
	assert.Error(t, err)
}

func TestMutationsRefusedWhileGUIRuns(t *testing.T) {
	previous := acquireInstance
	acquireInstance = func(string) (*platform.InstanceGuard, error) { return nil, platform.ErrAlreadyRunning }
	t.Cleanup(func() { acquireInstance = previous })

	dir := t.TempDir()
	_, err := runCLI(t, "add", "Blocked", "--data-dir", dir)
	assert.ErrorIs(t, err, ErrGUIRunning)

	out, err := runCLI(t, "list", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No timers yet")
}

// withLockName points the CLI at a real lock under a name private to the test.
func withLockName(t *testing.T) string {
	t.Helper()
	name := "quicktimer-cli-test-" + t.Name()
	previous := acquireInstance
	acquireInstance = func(string) (*platform.InstanceGuard, error) {
		return platform.AcquireSingleInstance(name)
	}
	t.Cleanup(func() { acquireInstance = previous })
	return name
}

func TestMutationHoldsLockUntilStoreCloses(t *testing.T) {
	name := withLockName(t)
	free, err := platform.AcquireSingleInstance(name)
	if err != nil {
		t.Skipf("lock port unavailable in this environment: %v", err)
	}
	require.NoError(t, free.Release())

	var heldDuringRun bool
	opts := &rootOptions{dataDir: t.TempDir(), backend: model.BackendYAML, logLevel: "error"}
	err = withStore(opts, true, func(store *eventstore.Store) error {
		other, err := platform.AcquireSingleInstance(name)
		heldDuringRun = errors.Is(err, platform.ErrAlreadyRunning)
		_ = other.Release()
		store.Create("Locked")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, heldDuringRun)

	guard, err := platform.AcquireSingleInstance(name)
	require.NoError(t, err, "lock released after the command")
	require.NoError(t, guard.Release())
}

func TestMutationRefusedWhileLockHeld(t *testing.T) {
	name := withLockName(t)
	guard, err := platform.AcquireSingleInstance(name)
	if err != nil {
		t.Skipf("lock port unavailable in this environment: %v", err)
	}
	defer func() {
		_ = guard.Release()
	}()

	dir := t.TempDir()
	_, err = runCLI(t, "add", "Blocked", "--data-dir", dir)
	assert.ErrorIs(t, err, ErrGUIRunning)

	out, err := runCLI(t, "list", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No timers yet")
}

func TestEphemeralDoesNotPersist(t *testing.T) {
	withoutGUI(t)
	dir := t.TempDir()
	_, err := runCLI(t, "add", "Scratch", "--ephemeral", "--data-dir", dir)
	require.NoError(t, err)

	out, err := runCLI(t, "list", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No timers yet")
}

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"0":       "00:00",
		"59999":   "00:59",
		"60000":   "01:00",
		"6000000": "100:00",
	}
	for input, want := range cases {
		out, err := runCLI(t, "format", input)
		require.NoError(t, err)
		assert.Equal(t, want+"\n", out)
	}

	_, err := runCLI(t, "format", "soon")
	assert.ErrorContains(t, err, "invalid milliseconds")
}

func TestRootWithoutGUIShowsHelp(t *testing.T) {
	out, err := runCLI(t)
	require.NoError(t, err)
	assert.Contains(t, out, "list of named timers")
}

func TestRootRunsGUI(t *testing.T) {
	dir := t.TempDir()
	var got *Environment
	cmd := NewRootCommand(func(env *Environment) error {
		got = env
		return nil
	})
	cmd.SetArgs([]string{"--data-dir", dir, "--backend", model.BackendMemory})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, got)
	assert.Equal(t, dir, got.Dir)
	assert.Equal(t, AppName, got.AppName)
	assert.Equal(t, model.BackendMemory, got.Settings.StorageBackend)
}
