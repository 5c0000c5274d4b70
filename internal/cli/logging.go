package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/headfix/internal/verbosity"
)

var errOverrideNotChanged = errors.New("logging override not changed")

func newLoggingCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logging",
		Short: "Manage the global heading logging override",
		Long: `The override is stored in the settings file and wins over --log for every
heal. Clearing it makes each call's own option apply again.`,
	}

	change := func(use, short string, op func(*verbosity.Controller, context.Context) bool) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctl, closeStore := root.controller(root.logger(cmd.ErrOrStderr()), true)
				defer closeStore()
				if !op(ctl, cmd.Context()) {
					return errOverrideNotChanged
				}
				printStatus(cmd, ctl.Status(cmd.Context()))
				return nil
			},
		}
	}

	cmd.AddCommand(
		change("enable", "Log every heading decision regardless of --log", (*verbosity.Controller).Enable),
		change("disable", "Silence heading decisions regardless of --log", (*verbosity.Controller).Disable),
		change("clear", "Remove the override", (*verbosity.Controller).Clear),
		&cobra.Command{
			Use:   "status",
			Short: "Show the current override",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctl, closeStore := root.controller(root.logger(cmd.ErrOrStderr()), false)
				defer closeStore()
				printStatus(cmd, ctl.Status(cmd.Context()))
				return nil
			},
		},
	)
	return cmd
}

func printStatus(cmd *cobra.Command, st verbosity.Status) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", st.Source, st.Message)
}
