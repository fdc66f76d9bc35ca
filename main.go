// Package main provides the entry point for ttasched.
// ttasched is a backtracking move scheduler for transport-triggered
// processors.
//
// For the full CLI, use: go run ./cmd/ttasched
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("ttasched - TTA move scheduler")
	fmt.Println("")
	fmt.Println("Usage: ttasched <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  schedule   Schedule a move program")
	fmt.Println("  runs       List recorded runs")
	fmt.Println("  show       Show a recorded run")
	fmt.Println("  machine    Print or check a machine description")
	fmt.Println("  bench      Schedule the synthetic workloads")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/ttasched' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/ttasched' instead.")
	}
}
