package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ttasched/benchmarks"
)

func newBenchCmd(a *app) *cobra.Command {
	var (
		machinePath string
		format      string
		core        bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Schedule the synthetic benchmark programs and report the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMachine(machinePath)
			if err != nil {
				return err
			}

			config := benchmarks.DefaultConfig()
			config.Machine = m
			config.Output = cmd.OutOrStdout()
			config.Verbose = verbose

			harness := benchmarks.NewHarness(config)
			if core {
				harness.AddBenchmarks(benchmarks.GetCoreWorkloads())
			} else {
				harness.AddBenchmarks(benchmarks.GetWorkloads())
			}

			results := harness.RunAll()
			summary := benchmarks.Summarize(results)
			a.logger.Info("benchmarks finished",
				"count", summary.TotalBenchmarks, "failed", summary.Failed, "wall_time", summary.TotalWallTime)

			switch format {
			case "text":
				harness.PrintResults(results)
			case "csv":
				harness.PrintCSV(results)
			case "json":
				return harness.PrintJSON(results)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&machinePath, "machine", "", "Machine description (default: built-in machine)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, csv, json)")
	cmd.Flags().BoolVar(&core, "core", false, "Run only the quick core set")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every schedule")

	return cmd
}
