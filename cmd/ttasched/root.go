package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ttasched/logging"
	"github.com/sarchlab/ttasched/store"
)

// app holds the state shared by the subcommands of one invocation.
type app struct {
	logLevel  string
	logFormat string
	dbPath    string

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "ttasched",
		Short: "Move scheduler for transport-triggered processors",
		Long: "ttasched assigns every move of a program to a bus and a cycle of a " +
			"transport-triggered machine, and records each run in a SQLite database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevelStrict(a.logLevel)
			if err != nil {
				return err
			}
			a.logger = logging.NewLoggerWithWriter(level, a.logFormat, cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database for the run history")

	root.AddCommand(
		newScheduleCmd(a),
		newRunsCmd(a),
		newShowCmd(a),
		newMachineCmd(a),
		newBenchCmd(a),
	)

	return root
}

// openStore opens the run database. required says whether a missing --db
// is an error; otherwise a nil store is returned.
func (a *app) openStore(ctx context.Context, required bool) (*store.SQLiteStore, error) {
	if a.dbPath == "" {
		if required {
			return nil, fmt.Errorf("--db is required")
		}
		return nil, nil
	}

	st, err := store.NewSQLiteStore(a.dbPath, a.logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate %s: %w", a.dbPath, err)
	}
	return st, nil
}
