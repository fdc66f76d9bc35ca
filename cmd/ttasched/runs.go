package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sarchlab/ttasched/machine"
	"github.com/sarchlab/ttasched/store"
)

func newRunsCmd(a *app) *cobra.Command {
	var opts store.ListOptions

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, total, err := st.ListRuns(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs found.")
				return nil
			}

			fmt.Fprintf(out, "%-40s  %-14s  %-20s  %6s  %6s  %s\n", "ID", "STATUS", "PROGRAM", "MOVES", "CYCLES", "CREATED")
			for _, r := range runs {
				fmt.Fprintf(out, "%-40s  %-14s  %-20s  %6d  %6d  %s\n",
					r.ID, r.Status, r.Program, r.Moves, r.Length, humanize.Time(r.CreatedAt))
			}
			if len(runs) < total {
				fmt.Fprintf(out, "\n(%d of %d shown)\n", len(runs), total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "Number of runs to show")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of runs to skip")

	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "table"); err != nil {
				return err
			}

			st, err := a.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}

			out := cmd.OutOrStdout()
			if format != "table" {
				data, err := machine.Encode(run, machine.Format(format))
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			fmt.Fprintf(out, "Run:     %s\n", run.ID)
			fmt.Fprintf(out, "Program: %s on %s\n", run.Program, run.Machine)
			fmt.Fprintf(out, "Status:  %s\n", run.Status)
			fmt.Fprintf(out, "Created: %s (%s)\n", run.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(run.CreatedAt))
			if run.Error != "" {
				fmt.Fprintf(out, "Error:   %s\n", run.Error)
			}
			if run.Schedule == nil {
				return nil
			}
			fmt.Fprintln(out)
			return printSchedule(out, run.Schedule, "table")
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")

	return cmd
}
