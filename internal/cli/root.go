// Package cli implements the headfix command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/headfix/internal/verbosity"
)

type rootOptions struct {
	settingsPath string
	debug        bool
}

// NewRootCmd builds the headfix command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "headfix",
		Short:         "Repair skipped heading levels in HTML, Markdown and office documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.settingsPath, "settings", defaultSettingsPath(), "SQLite file holding the global logging override")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log at debug level")

	cmd.AddCommand(newHealCmd(opts), newLoggingCmd(opts))
	return cmd
}

// Execute runs the root command with the process arguments.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return err
	}
	return nil
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// defaultSettingsPath is headfix/settings.db under the user config
// directory, or headfix.db in the working directory when there is none.
func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "headfix.db"
	}
	return filepath.Join(dir, "headfix", "settings.db")
}

// controller opens the settings file. Only commands that change the
// override create it; a missing file otherwise reads as "no override".
// A file that cannot be opened leaves the override unavailable and
// healing still works with call-site options.
func (o *rootOptions) controller(log *slog.Logger, create bool) (*verbosity.Controller, func()) {
	if create {
		if err := os.MkdirAll(filepath.Dir(o.settingsPath), 0o755); err != nil {
			log.Warn("settings directory unavailable", "path", o.settingsPath, "error", err)
			return verbosity.NewController(nil, log), func() {}
		}
	} else if _, err := os.Stat(o.settingsPath); errors.Is(err, fs.ErrNotExist) {
		log.Debug("no settings file, using call-site options", "path", o.settingsPath)
		return verbosity.NewController(verbosity.NewMemoryStore(), log), func() {}
	}

	store, err := verbosity.NewSQLiteStore(o.settingsPath)
	if err != nil {
		log.Warn("settings file unavailable", "path", o.settingsPath, "error", err)
		return verbosity.NewController(nil, log), func() {}
	}
	return verbosity.NewController(store, log), func() { store.Close() }
}
