// Package main provides the ttasched command, which schedules move programs
// for transport-triggered machines and keeps a history of runs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
