// Package benchmarks provides synthetic move programs and a harness that
// schedules them and reports schedule quality and search effort.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/machine"
	"github.com/sarchlab/ttasched/sched"
)

// BenchmarkResult holds the outcome of scheduling one benchmark.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	Groups int `json:"groups"`
	Moves  int `json:"moves"`

	// Length is the schedule length in cycles
	Length int `json:"length"`

	// MovesPerCycle is the average number of buses in use per cycle
	MovesPerCycle float64 `json:"moves_per_cycle"`

	Probes      uint64 `json:"probes"`
	Rollbacks   uint64 `json:"rollbacks"`
	Pushes      uint64 `json:"pushes"`
	Reschedules uint64 `json:"reschedules"`

	// Error is set when the benchmark could not be scheduled
	Error string `json:"error,omitempty"`

	// WallTime is the time the scheduler took
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single synthetic program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Build creates a fresh, unscheduled dependence graph
	Build func() *ddg.Graph

	// ExpectedLength is the schedule length on the default machine, or 0
	// when it is not checked
	ExpectedLength int
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Machine is the target machine (default: machine.Default())
	Machine *machine.Machine

	// Scheduler configures the scheduler for every run
	Scheduler sched.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose prints the instruction table of every schedule
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Machine:   machine.Default(),
		Scheduler: sched.DefaultConfig(),
		Output:    os.Stdout,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Machine == nil {
		config.Machine = machine.Default()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll schedules all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		results = append(results, h.runBenchmark(bench))
	}

	return results
}

func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	g := bench.Build()
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
		Groups:      g.GroupCount(),
		Moves:       g.MoveCount(),
	}

	s, err := sched.NewScheduler(g, h.config.Machine, sched.WithConfig(h.config.Scheduler))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	schedule, err := s.Schedule()
	result.WallTime = time.Since(start)

	stats := s.Stats()
	result.Probes = stats.Probes
	result.Rollbacks = stats.Rollbacks
	result.Pushes = stats.Pushes
	result.Reschedules = stats.Reschedules

	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Length = schedule.Length
	if schedule.Length > 0 {
		result.MovesPerCycle = float64(result.Moves) / float64(schedule.Length)
	}

	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "--- %s ---\n", bench.Name)
		_ = schedule.WriteTable(h.config.Output)
		_, _ = fmt.Fprintln(h.config.Output)
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintf(h.config.Output, "=== Schedules on %s ===\n", h.config.Machine.Name)
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Groups/Moves:    %d/%d\n", r.Groups, r.Moves)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Error)
			_, _ = fmt.Fprintln(h.config.Output, "")
			continue
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Length:          %d\n", r.Length)
		_, _ = fmt.Fprintf(h.config.Output, "  Moves/Cycle:     %.3f\n", r.MovesPerCycle)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Search ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Probes:          %d\n", r.Probes)
		_, _ = fmt.Fprintf(h.config.Output, "  Rollbacks:       %d\n", r.Rollbacks)
		if r.Pushes > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Pushes:          %d\n", r.Pushes)
			_, _ = fmt.Fprintf(h.config.Output, "  Reschedules:     %d\n", r.Reschedules)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,groups,moves,length,moves_per_cycle,probes,rollbacks,pushes,reschedules,error")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%.3f,%d,%d,%d,%d,%q\n",
			r.Name,
			r.Groups,
			r.Moves,
			r.Length,
			r.MovesPerCycle,
			r.Probes,
			r.Rollbacks,
			r.Pushes,
			r.Reschedules,
			r.Error,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	Metadata ReportMetadata    `json:"metadata"`
	Results  []BenchmarkResult `json:"results"`
	Summary  ReportSummary     `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	Machine   string       `json:"machine"`
	Scheduler sched.Config `json:"scheduler"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks int `json:"total_benchmarks"`

	// Failed counts benchmarks that could not be scheduled
	Failed int `json:"failed"`

	TotalMoves  int `json:"total_moves"`
	TotalLength int `json:"total_length"`

	// AverageMovesPerCycle is the mean bus utilization over the scheduled
	// benchmarks
	AverageMovesPerCycle float64 `json:"average_moves_per_cycle"`

	TotalProbes    uint64 `json:"total_probes"`
	TotalRollbacks uint64 `json:"total_rollbacks"`

	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		s.TotalProbes += r.Probes
		s.TotalRollbacks += r.Rollbacks
		s.TotalWallTime += r.WallTime
		if r.Error != "" {
			s.Failed++
			continue
		}
		s.TotalMoves += r.Moves
		s.TotalLength += r.Length
	}
	if s.TotalLength > 0 {
		s.AverageMovesPerCycle = float64(s.TotalMoves) / float64(s.TotalLength)
	}
	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Machine:   h.config.Machine.Name,
			Scheduler: h.config.Scheduler,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
