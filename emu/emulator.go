package emu

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/logging"
	"github.com/sarchlab/ttasched/machine"
)

// ErrMismatch is wrapped by every MismatchError.
var ErrMismatch = errors.New("scheduled run differs from sequential run")

// ErrNotScheduled is returned by RunScheduled for a move without a cycle.
var ErrNotScheduled = errors.New("move is not scheduled")

// MismatchError lists where a scheduled run left a different state than
// the sequential reference.
type MismatchError struct {
	Diffs []string
}

func (e *MismatchError) Error() string {
	const shown = 5
	diffs := e.Diffs
	more := ""
	if len(diffs) > shown {
		more = fmt.Sprintf(" (and %d more)", len(diffs)-shown)
		diffs = diffs[:shown]
	}
	return fmt.Sprintf("%v: %s%s", ErrMismatch, strings.Join(diffs, "; "), more)
}

// Unwrap lets errors.Is match ErrMismatch.
func (e *MismatchError) Unwrap() error {
	return ErrMismatch
}

// Emulator runs the moves of a dependence graph on a machine.
type Emulator struct {
	graph   *ddg.Graph
	machine *machine.Machine
	initial *State
	logger  *slog.Logger
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithInitialState sets the state both runs start from. The state is
// copied.
func WithInitialState(s *State) EmulatorOption {
	return func(e *Emulator) {
		e.initial = s.Clone()
	}
}

// WithLogger sets the logger. Each executed move is logged at debug level.
func WithLogger(l *slog.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = l
	}
}

// NewEmulator creates an emulator for the graph on the machine.
func NewEmulator(g *ddg.Graph, m *machine.Machine, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		graph:   g,
		machine: m,
		initial: NewState(),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "emu")
	return e
}

// SeedRegisters fills every register of every register file with a
// distinct non-zero value, so that a move reading the wrong register is
// visible in the final state. Single-bit register files are left at 0.
func SeedRegisters(m *machine.Machine) *State {
	s := NewState()
	for i, rf := range m.RegisterFiles {
		if rf.Width == 1 {
			continue
		}
		for r := 0; r < rf.Size; r++ {
			s.WriteReg(rf.Name, r, int64((i+1)*1000+r))
		}
	}
	return s
}

// RunSequential executes the moves one at a time in a topological order
// of every dependence edge, lowest move ID first among ready moves. Each
// result is available as soon as its operation is triggered.
func (e *Emulator) RunSequential() (*State, error) {
	order, err := e.programOrder()
	if err != nil {
		return nil, err
	}

	x := e.newExecution(true)
	for _, id := range order {
		mv := e.graph.Move(id)
		if !x.guardHolds(mv) {
			continue
		}
		v, err := x.read(mv.Source)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", id, err)
		}
		if err := x.write(mv.Destination, v, 0); err != nil {
			return nil, fmt.Errorf("move %d: %w", id, err)
		}
	}
	return x.state, nil
}

// RunScheduled executes the moves cycle by cycle at their scheduled
// cycles. Within a cycle every move reads before any move writes, and
// operand writes land before the trigger that consumes them. Results of
// an operation triggered in cycle c become readable in cycle c+latency.
func (e *Emulator) RunScheduled() (*State, error) {
	byCycle := make(map[int][]*ddg.Move)
	last := -1
	for _, mv := range e.graph.Moves() {
		if !mv.IsScheduled() {
			return nil, fmt.Errorf("move %d: %w", mv.ID, ErrNotScheduled)
		}
		byCycle[mv.Cycle] = append(byCycle[mv.Cycle], mv)
		if mv.Cycle > last {
			last = mv.Cycle
		}
	}

	x := e.newExecution(false)
	for cycle := 0; cycle <= last; cycle++ {
		x.complete(cycle)

		moves := byCycle[cycle]
		sort.Slice(moves, func(i, j int) bool { return moves[i].Bus < moves[j].Bus })

		type transport struct {
			mv    *ddg.Move
			value int64
		}
		var live []transport
		for _, mv := range moves {
			if !x.guardHolds(mv) {
				continue
			}
			v, err := x.read(mv.Source)
			if err != nil {
				return nil, fmt.Errorf("move %d at cycle %d: %w", mv.ID, cycle, err)
			}
			live = append(live, transport{mv: mv, value: v})
		}

		// Triggers go last so that they see operands written in the same
		// cycle.
		sort.SliceStable(live, func(i, j int) bool {
			return !live[i].mv.IsTrigger() && live[j].mv.IsTrigger()
		})
		for _, t := range live {
			if err := x.write(t.mv.Destination, t.value, cycle); err != nil {
				return nil, fmt.Errorf("move %d at cycle %d: %w", t.mv.ID, cycle, err)
			}
		}
	}
	return x.state, nil
}

// Check runs the program both ways and returns a *MismatchError when the
// final states differ.
func (e *Emulator) Check() error {
	want, err := e.RunSequential()
	if err != nil {
		return fmt.Errorf("sequential run: %w", err)
	}
	got, err := e.RunScheduled()
	if err != nil {
		return fmt.Errorf("scheduled run: %w", err)
	}
	if diffs := want.Diff(got); len(diffs) > 0 {
		e.logger.Warn("schedule changes program semantics", "differences", len(diffs))
		return &MismatchError{Diffs: diffs}
	}
	e.logger.Debug("schedule preserves program semantics",
		"registers", len(want.Registers), "memory", len(want.Memory))
	return nil
}

// programOrder sorts every move over all edges, false dependences
// included, so that the sequential run honours register reuse.
func (e *Emulator) programOrder() ([]ddg.MoveID, error) {
	n := e.graph.MoveCount()
	indeg := make([]int, n)
	succs := make([][]ddg.MoveID, n)
	for _, edge := range e.graph.Edges() {
		indeg[edge.Head]++
		succs[edge.Tail] = append(succs[edge.Tail], edge.Head)
	}

	var ready []ddg.MoveID
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			ready = append(ready, ddg.MoveID(i))
		}
	}

	order := make([]ddg.MoveID, 0, n)
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, succ := range succs[id] {
			indeg[succ]--
			if indeg[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}
	if len(order) != n {
		return nil, fmt.Errorf("no program order: %d of %d moves are on a dependence cycle",
			n-len(order), n)
	}
	return order, nil
}

// unitState holds the operand and result ports of one function unit.
type unitState struct {
	operands map[int]int64
	results  map[int]int64
}

type completion struct {
	cycle   int
	unit    string
	results map[int]int64
}

// execution is the mutable state of one run.
type execution struct {
	e         *Emulator
	state     *State
	units     map[string]*unitState
	pending   []completion
	immediate bool
}

func (e *Emulator) newExecution(immediate bool) *execution {
	return &execution{
		e:         e,
		state:     e.initial.Clone(),
		units:     make(map[string]*unitState),
		immediate: immediate,
	}
}

func (x *execution) unit(name string) *unitState {
	u, ok := x.units[name]
	if !ok {
		u = &unitState{operands: make(map[int]int64), results: make(map[int]int64)}
		x.units[name] = u
	}
	return u
}

func returnAddress(unit string) Location {
	return Location{Unit: unit + ".ra", Index: -1}
}

func (x *execution) guardHolds(mv *ddg.Move) bool {
	if mv.Guard == nil {
		return true
	}
	set := x.state.ReadReg(mv.Guard.Unit, mv.Guard.Index) != 0
	return set != mv.Guard.Inverted
}

func (x *execution) read(t ddg.Terminal) (int64, error) {
	switch t.Kind {
	case ddg.TerminalRegister:
		return x.state.ReadReg(t.Unit, t.Index), nil
	case ddg.TerminalImmediate:
		return t.Value, nil
	case ddg.TerminalResult:
		return x.unit(t.Unit).results[t.Index], nil
	case ddg.TerminalReturnAddress:
		return x.state.Registers[returnAddress(t.Unit)], nil
	}
	return 0, fmt.Errorf("cannot read %s", t)
}

func (x *execution) write(t ddg.Terminal, v int64, cycle int) error {
	x.e.logger.Debug("move", "cycle", cycle, "dst", t.String(), "value", v)

	switch t.Kind {
	case ddg.TerminalRegister:
		x.state.WriteReg(t.Unit, t.Index, v)
	case ddg.TerminalReturnAddress:
		x.state.Registers[returnAddress(t.Unit)] = v
	case ddg.TerminalControl:
		x.state.Transfers = append(x.state.Transfers, Transfer{Operation: t.Operation, Target: v})
	case ddg.TerminalOperand:
		x.unit(t.Unit).operands[t.Index] = v
		if t.Trigger {
			return x.fire(t.Unit, t.Operation, cycle)
		}
	default:
		return fmt.Errorf("cannot write %s", t)
	}
	return nil
}

// fire starts an operation on the operands currently held by its unit.
func (x *execution) fire(unit, operation string, cycle int) error {
	op, ok := x.e.machine.Operation(unit, operation)
	if !ok {
		return fmt.Errorf("unknown operation %s.%s", unit, operation)
	}
	f, err := Lookup(op.Name)
	if err != nil {
		return err
	}

	u := x.unit(unit)
	in := make([]int64, op.Inputs)
	for i := range in {
		in[i] = u.operands[i+1]
	}
	out := f(in, x.state.Memory)

	results := make(map[int]int64, len(out))
	for i, v := range out {
		results[op.Inputs+1+i] = v
	}

	if x.immediate || op.Latency == 0 {
		x.apply(unit, results)
		return nil
	}
	x.pending = append(x.pending, completion{
		cycle:   cycle + op.Latency,
		unit:    unit,
		results: results,
	})
	return nil
}

// complete makes the results due in a cycle readable, oldest trigger
// first.
func (x *execution) complete(cycle int) {
	kept := x.pending[:0]
	for _, c := range x.pending {
		if c.cycle <= cycle {
			x.apply(c.unit, c.results)
			continue
		}
		kept = append(kept, c)
	}
	x.pending = kept
}

func (x *execution) apply(unit string, results map[int]int64) {
	u := x.unit(unit)
	for idx, v := range results {
		u.results[idx] = v
	}
}
