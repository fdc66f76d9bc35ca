package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ttasched/machine"
)

func newMachineCmd(a *app) *cobra.Command {
	var (
		format     string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "machine [machine.yaml|machine.json]",
		Short: "Check a machine description, or print the built-in one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			m, err := loadMachine(path)
			if err != nil {
				return err
			}
			if path != "" {
				a.logger.Info("machine is valid", "name", m.Name, "buses", m.BusCount(), "horizon", m.Horizon)
			}

			if outputPath != "" {
				return m.Save(outputPath)
			}

			data, err := machine.Encode(m, machine.Format(format))
			if err != nil {
				return fmt.Errorf("failed to serialize machine: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format (json, yaml)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Write the machine description to a file instead")

	return cmd
}
