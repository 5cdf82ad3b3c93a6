package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quicktimer/internal/platform"
)

// AppName names the data directory and the single-instance lock.
const AppName = "QuickTimer"

// ErrGUIRunning is returned by mutating commands while the timer window owns
// the data files.
var ErrGUIRunning = errors.New("the QuickTimer window is running; use it or quit it first")

// GUIRunner starts the desktop window. It returns when the window quits.
type GUIRunner func(env *Environment) error

type rootOptions struct {
	dataDir   string
	backend   string
	logLevel  string
	ephemeral bool
}

// acquireInstance is replaced in tests.
var acquireInstance = platform.AcquireSingleInstance

// NewRootCommand builds the command tree. gui runs when no subcommand is given.
func NewRootCommand(gui GUIRunner) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "quicktimer",
		Short:         "Named timers, one running at a time",
		Long:          "quicktimer keeps a list of named timers. Only one runs at a time; starting one stops the others.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if gui == nil {
				return cmd.Help()
			}
			env, err := loadEnvironment(opts)
			if err != nil {
				return err
			}
			return gui(env)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory holding events and settings (default is the user config dir)")
	flags.StringVar(&opts.backend, "backend", "", "storage backend: yaml, sqlite or memory (default from settings)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default from settings)")
	flags.BoolVar(&opts.ephemeral, "ephemeral", false, "keep events in memory only")

	rootCmd.AddCommand(
		newListCommand(opts),
		newAddCommand(opts),
		newPlayCommand(opts),
		newStopCommand(opts),
		newDeleteCommand(opts),
		newFormatCommand(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on error.
func Execute(gui GUIRunner) {
	if err := NewRootCommand(gui).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
