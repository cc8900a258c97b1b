// Package main implements remindctl, a command line tool for inspecting and
// editing the reminder snapshot.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pathakanu/careMemo/internal/config"
	"github.com/pathakanu/careMemo/internal/model"
	"github.com/pathakanu/careMemo/internal/notify"
	"github.com/pathakanu/careMemo/internal/storage"
	"github.com/pathakanu/careMemo/internal/store"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "remindctl",
		Short:         "Inspect and edit saved reminders",
		Long:          "remindctl reads and writes the same reminder snapshot as the server.\nIt does not schedule notifications; the server schedules upcoming reminders when it starts.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newListCmd(), newAddCmd(), newEditCmd(), newDeleteCmd(), newTriggerCmd())
	return root
}

// openStore loads the snapshot selected by the environment.
func openStore(ctx context.Context) (*store.Store, *config.Config, error) {
	cfg := config.Load()
	slot, err := storage.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(ctx, slot, store.Options{Logger: log.New(os.Stderr, "remindctl: ", 0)})
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reminders in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			reminders := st.List()
			if len(reminders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no reminders")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tTYPE\tTEXT")
			for _, r := range reminders {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Time, r.Type, r.Text)
			}
			return tw.Flush()
		},
	}
}

func newAddCmd() *cobra.Command {
	var clock, text, kind string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, cfg, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			r, err := st.Add(cmd.Context(), model.Candidate{Time: clock, Text: text, Type: model.Type(kind)})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", r.ID)
			return printTrigger(cmd.OutOrStdout(), cfg, r)
		},
	}
	cmd.Flags().StringVar(&clock, "time", "", "time of day as HH:MM")
	cmd.Flags().StringVar(&text, "text", "", "reminder text")
	cmd.Flags().StringVar(&kind, "type", string(model.TypeMedication), "Medication, Appointment or General")
	return cmd
}

func newEditCmd() *cobra.Command {
	var clock, text, kind string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.Patch
			if cmd.Flags().Changed("time") {
				patch.Time = &clock
			}
			if cmd.Flags().Changed("text") {
				patch.Text = &text
			}
			if cmd.Flags().Changed("type") {
				parsed, err := model.ParseType(kind)
				if err != nil {
					return err
				}
				patch.Type = &parsed
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to change: pass --time, --text or --type")
			}

			st, _, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			r, err := st.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s: %s %s %s\n", r.ID, r.Time, r.Type, r.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&clock, "time", "", "new time of day as HH:MM")
	cmd.Flags().StringVar(&text, "text", "", "new reminder text")
	cmd.Flags().StringVar(&kind, "type", "", "new type")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			removed, err := st.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "no reminder %s\n", args[0])
			}
			return nil
		},
	}
}

func newTriggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <id>",
		Short: "Show when a reminder would fire if scheduled now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			r, ok := st.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", store.ErrNotFound, args[0])
			}
			return printTrigger(cmd.OutOrStdout(), cfg, r)
		},
	}
}

func printTrigger(w io.Writer, cfg *config.Config, r model.Reminder) error {
	now := time.Now().In(cfg.LocalTimezone)
	trigger := notify.ToTrigger
	if cfg.RolloverPastTriggers {
		trigger = notify.NextTrigger
	}
	at, err := trigger(r, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "notification %d at %s\n", notify.NotificationID(r.ID), at.Format(time.RFC3339))
	return nil
}
