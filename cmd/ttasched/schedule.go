package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/emu"
	"github.com/sarchlab/ttasched/loader"
	"github.com/sarchlab/ttasched/machine"
	"github.com/sarchlab/ttasched/sched"
	"github.com/sarchlab/ttasched/store"
)

type scheduleFlags struct {
	machinePath   string
	dotPath       string
	outputPath    string
	format        string
	maxCandidates int
	maxPushDepth  int
	noPush        bool
	noVerify      bool
	check         bool
}

func newScheduleCmd(a *app) *cobra.Command {
	f := &scheduleFlags{}
	defaults := sched.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "schedule <program.yaml|program.json>",
		Short: "Schedule a move program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSchedule(cmd.Context(), cmd.OutOrStdout(), args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.machinePath, "machine", "", "Machine description (default: built-in machine)")
	cmd.Flags().StringVar(&f.dotPath, "dot", "", "Write the dependence graph in Graphviz format")
	cmd.Flags().StringVar(&f.outputPath, "output", "", "Write the schedule as JSON or YAML")
	cmd.Flags().StringVar(&f.format, "format", "table", "Stdout format (table, json, yaml)")
	cmd.Flags().IntVar(&f.maxCandidates, "max-candidates", defaults.MaxCandidates, "Start cycles to try per group")
	cmd.Flags().IntVar(&f.maxPushDepth, "max-push-depth", defaults.MaxPushDepth, "Nesting limit for antidependence pushes")
	cmd.Flags().BoolVar(&f.noPush, "no-push", false, "Do not push antidependent moves later")
	cmd.Flags().BoolVar(&f.noVerify, "no-verify", false, "Skip verification of the finished schedule")
	cmd.Flags().BoolVar(&f.check, "check", false, "Replay the schedule and compare it with sequential execution")

	return cmd
}

func (f *scheduleFlags) config() sched.Config {
	cfg := sched.DefaultConfig()
	cfg.MaxCandidates = f.maxCandidates
	cfg.MaxPushDepth = f.maxPushDepth
	cfg.EnableAntidepPush = !f.noPush
	cfg.Verify = !f.noVerify
	return cfg
}

func loadMachine(path string) (*machine.Machine, error) {
	if path == "" {
		return machine.Default(), nil
	}
	return machine.Load(path)
}

func (a *app) runSchedule(ctx context.Context, out io.Writer, programPath string, f *scheduleFlags) error {
	if err := checkFormat(f.format, "table"); err != nil {
		return err
	}

	m, err := loadMachine(f.machinePath)
	if err != nil {
		return err
	}

	prog, err := loader.Load(programPath)
	if err != nil {
		return err
	}
	name := prog.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(programPath), filepath.Ext(programPath))
	}

	built, err := prog.Build(machine.NewLatencyTable(m))
	if err != nil {
		return fmt.Errorf("build %s: %w", name, err)
	}

	st, err := a.openStore(ctx, false)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	opts := []sched.Option{sched.WithLogger(a.logger), sched.WithConfig(f.config())}
	if a.logger.Enabled(ctx, slog.LevelDebug) {
		opts = append(opts, sched.WithHook(sched.NewLogTracer(a.logger)))
	}

	var (
		result *sched.Schedule
		stats  sched.Statistics
	)
	s, err := sched.NewScheduler(built.Graph, m, opts...)
	if err == nil {
		result, err = s.Schedule()
		stats = s.Stats()
	}

	if st != nil {
		run := store.NewRun(name, m.Name, built.Graph.MoveCount(), result, stats, err)
		if saveErr := st.SaveRun(ctx, run); saveErr != nil {
			return fmt.Errorf("save run: %w", saveErr)
		}
		a.logger.Info("run saved", "id", run.ID, "status", run.Status)
	}

	if f.dotPath != "" {
		if dotErr := writeDot(f.dotPath, built.Graph); dotErr != nil {
			return dotErr
		}
	}

	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	if f.check {
		e := emu.NewEmulator(built.Graph, m,
			emu.WithInitialState(emu.SeedRegisters(m)),
			emu.WithLogger(a.logger))
		if err := e.Check(); err != nil {
			return fmt.Errorf("check %s: %w", name, err)
		}
		a.logger.Info("schedule matches sequential execution", "program", name)
	}

	if f.outputPath != "" {
		data, err := machine.Encode(result, machine.FormatFromPath(f.outputPath))
		if err != nil {
			return fmt.Errorf("failed to serialize schedule: %w", err)
		}
		if err := os.WriteFile(f.outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write schedule: %w", err)
		}
	}

	return printSchedule(out, result, f.format)
}

func writeDot(path string, g *ddg.Graph) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dot file: %w", err)
	}
	if err := g.WriteDot(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write dot file: %w", err)
	}
	return file.Close()
}

func checkFormat(format string, allowed ...string) error {
	switch format {
	case string(machine.FormatJSON), string(machine.FormatYAML):
		return nil
	}
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q", format)
}

func printSchedule(out io.Writer, result *sched.Schedule, format string) error {
	if format == "table" {
		if err := result.WriteTable(out); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "\n%d moves in %d cycles, %d probes, %d rollbacks, %d pushes\n",
			len(result.Placements), result.Length,
			result.Stats.Probes, result.Stats.Rollbacks, result.Stats.Pushes)
		return err
	}

	data, err := machine.Encode(result, machine.Format(format))
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
