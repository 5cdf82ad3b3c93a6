package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"quicktimer/internal/core/eventstore"
	"quicktimer/internal/core/timefmt"
)

type eventView struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Elapsed    string `json:"elapsed"`
	DurationMS int64  `json:"duration_ms"`
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print all timers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, false, func(store *eventstore.Store) error {
				return printEvents(cmd, store, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME...",
		Short: "Create a stopped timer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return withStore(opts, true, func(store *eventstore.Store) error {
				event, ok := store.Create(name)
				if !ok {
					return eventstore.ErrEmptyName
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created #%d %s\n", event.ID, event.Name)
				return nil
			})
		},
	}
}

func newPlayCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play ID",
		Short: "Start a timer and stop all others",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(opts, true, func(store *eventstore.Store) error {
				if err := store.Play(id); err != nil {
					return fmt.Errorf("play #%d: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Playing #%d\n", id)
				return nil
			})
		},
	}
}

func newStopCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, true, func(store *eventstore.Store) error {
				active, ok := store.Active()
				store.Stop()
				if ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Stopped #%d %s at %s\n", active.ID, active.Name, timefmt.Format(active.Duration))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "No timer running.")
				}
				return nil
			})
		},
	}
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a timer",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(opts, true, func(store *eventstore.Store) error {
				if err := store.Delete(id); err != nil {
					return fmt.Errorf("delete #%d: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
				return nil
			})
		},
	}
}

func newFormatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "format MILLIS",
		Short: "Render milliseconds as MM:SS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			millis, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || millis < 0 {
				return fmt.Errorf("invalid milliseconds %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), timefmt.FormatMillis(millis))
			return nil
		},
	}
}

func withStore(opts *rootOptions, mutates bool, run func(store *eventstore.Store) error) error {
	env, err := loadEnvironment(opts)
	if err != nil {
		return err
	}
	if mutates {
		// Held until the store is closed so the GUI cannot start in between.
		guard, err := acquireInstance(env.AppName)
		if err != nil {
			return ErrGUIRunning
		}
		defer func() {
			_ = guard.Release()
		}()
	}

	store, closeStore, err := env.OpenStore()
	if err != nil {
		return err
	}
	defer closeStore()
	return run(store)
}

func printEvents(cmd *cobra.Command, store *eventstore.Store, asJSON bool) error {
	events := store.Events()
	out := cmd.OutOrStdout()

	if asJSON {
		views := make([]eventView, 0, len(events))
		for _, event := range events {
			views = append(views, eventView{
				ID:         event.ID,
				Name:       event.Name,
				Status:     string(event.Status),
				Elapsed:    timefmt.Format(event.Duration),
				DurationMS: event.Duration.Milliseconds(),
			})
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(views)
	}

	if len(events) == 0 {
		fmt.Fprintln(out, "No timers yet. Create one with: quicktimer add NAME")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("ID", "Name", "Status", "Elapsed")
	for _, event := range events {
		if err := table.Append(strconv.Itoa(event.ID), event.Name, string(event.Status), timefmt.Format(event.Duration)); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	if active, ok := store.Active(); ok {
		fmt.Fprintf(out, "\nCurrent: %s %s\n", active.Name, timefmt.Format(active.Duration))
	} else {
		fmt.Fprintln(out, "\nCurrent: -")
	}
	return nil
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(raw, "#"))
	if err != nil || id < 1 {
		return 0, errors.New("timer id must be a positive number, e.g. 3 or #3")
	}
	return id, nil
}
