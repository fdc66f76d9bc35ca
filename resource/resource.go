// Package resource tracks which machine resources every scheduled move
// holds, cycle by cycle.
//
// A Table is the single owner of occupancy. Assign reserves every slot a
// move needs at a (cycle, bus) and records the placement on the move;
// Unassign releases exactly those slots. The scheduling operations pair
// the two so that undoing a decision restores the table exactly.
package resource

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/machine"
)

// Kind is a class of resource.
type Kind string

const (
	// KindBus is a transport bus slot.
	KindBus Kind = "bus"
	// KindRFRead is a register file read port.
	KindRFRead Kind = "rf-read"
	// KindRFWrite is a register file write port.
	KindRFWrite Kind = "rf-write"
	// KindFUInput is a function unit operand port.
	KindFUInput Kind = "fu-in"
	// KindFUOutput is a function unit result port.
	KindFUOutput Kind = "fu-out"
	// KindFUResult is a function unit result register, held from the
	// cycle a result lands until its last read.
	KindFUResult Kind = "fu-result"
	// KindFUStage is an internal pipeline resource of a function unit.
	KindFUStage Kind = "fu-stage"
	// KindImmediate is a long-immediate slot of an immediate unit.
	KindImmediate Kind = "imm"
	// KindControl is the control unit.
	KindControl Kind = "ctrl"
)

// ID names one resource instance.
type ID struct {
	Kind Kind
	Name string
}

func (id ID) String() string {
	return string(id.Kind) + ":" + id.Name
}

// Slot is a resource in a given cycle.
type Slot struct {
	Cycle    int
	Resource ID
}

func (s Slot) String() string {
	return fmt.Sprintf("%s@%d", s.Resource, s.Cycle)
}

// Reservation is what a scheduled move holds.
type Reservation struct {
	Move  ddg.MoveID
	Bus   int
	Cycle int
	Slots []Slot
}

// Usage is the occupancy of one slot.
type Usage struct {
	Slot     Slot
	Count    int
	Capacity int
}

// Errors returned when a placement is not possible.
var (
	ErrOutOfWindow     = errors.New("cycle outside the scheduling window")
	ErrUnknownBus      = errors.New("unknown bus")
	ErrNotConnected    = errors.New("bus not connected")
	ErrGuard           = errors.New("bus cannot evaluate guard")
	ErrNoImmediateSlot = errors.New("no long-immediate slot")
	ErrBusy            = errors.New("resource busy")
)

// Table is the per-cycle, per-resource occupancy of a schedule.
type Table struct {
	machine *machine.Machine
	graph   *ddg.Graph
	caps    map[ID]int

	used         map[Slot]int
	reservations map[ddg.MoveID]Reservation
}

// TableOption is a functional option for configuring a Table.
type TableOption func(*Table)

// ForGraph lets the table see which moves form one operation, so that
// function unit operand and result registers are held for as long as the
// operation needs their values. Without a graph only the cycle of each
// port access is reserved.
func ForGraph(g *ddg.Graph) TableOption {
	return func(t *Table) {
		t.graph = g
	}
}

// NewTable creates an empty table for the machine.
func NewTable(m *machine.Machine, opts ...TableOption) *Table {
	t := &Table{
		machine:      m,
		caps:         make(map[ID]int),
		used:         make(map[Slot]int),
		reservations: make(map[ddg.MoveID]Reservation),
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, b := range m.Buses {
		t.caps[ID{KindBus, b.Name}] = 1
	}
	for _, rf := range m.RegisterFiles {
		t.caps[ID{KindRFRead, rf.Name}] = rf.ReadPorts
		t.caps[ID{KindRFWrite, rf.Name}] = rf.WritePorts
	}
	for _, iu := range m.ImmediateUnits {
		t.caps[ID{KindImmediate, iu.Name}] = iu.Slots
	}
	t.caps[ID{KindControl, m.ControlUnit.Name}] = 1

	return t
}

// Machine returns the machine the table was built for.
func (t *Table) Machine() *machine.Machine {
	return t.machine
}

// Capacity returns how many moves may hold the resource in one cycle.
// Function unit ports and stages always have capacity one.
func (t *Table) Capacity(id ID) int {
	if c, ok := t.caps[id]; ok {
		return c
	}
	switch id.Kind {
	case KindFUInput, KindFUOutput, KindFUResult, KindFUStage:
		return 1
	}
	return 0
}

// Used returns how many moves hold the slot.
func (t *Table) Used(s Slot) int {
	return t.used[s]
}

// Reservation returns the reservation of a move.
func (t *Table) Reservation(id ddg.MoveID) (Reservation, bool) {
	r, ok := t.reservations[id]
	return r, ok
}

// Len returns the number of reserved moves.
func (t *Table) Len() int {
	return len(t.reservations)
}

// CanAssign returns true if the move fits at the cycle on the bus.
func (t *Table) CanAssign(mv *ddg.Move, cycle, bus int) bool {
	_, err := t.plan(mv, cycle, bus)
	return err == nil
}

// Check explains why the move does not fit at the cycle on the bus, or
// returns nil if it does.
func (t *Table) Check(mv *ddg.Move, cycle, bus int) error {
	_, err := t.plan(mv, cycle, bus)
	return err
}

// Assign reserves the slots the move needs and records the placement on
// the move. Assigning a move that already holds a reservation panics.
func (t *Table) Assign(mv *ddg.Move, cycle, bus int) error {
	if _, ok := t.reservations[mv.ID]; ok {
		panic(fmt.Sprintf("resource: m%d is already assigned", mv.ID))
	}

	slots, err := t.plan(mv, cycle, bus)
	if err != nil {
		return fmt.Errorf("assign m%d to bus %d @%d: %w", mv.ID, bus, cycle, err)
	}

	for _, s := range slots {
		t.used[s]++
	}
	t.reservations[mv.ID] = Reservation{Move: mv.ID, Bus: bus, Cycle: cycle, Slots: slots}
	mv.Bus = bus
	mv.Cycle = cycle

	return nil
}

// Unassign releases the reservation of the move and clears its placement.
// Unassigning a move without a reservation panics.
func (t *Table) Unassign(mv *ddg.Move) Reservation {
	r, ok := t.reservations[mv.ID]
	if !ok {
		panic(fmt.Sprintf("resource: m%d is not assigned", mv.ID))
	}

	for _, s := range r.Slots {
		t.used[s]--
		if t.used[s] == 0 {
			delete(t.used, s)
		}
	}
	delete(t.reservations, mv.ID)
	mv.Bus = ddg.Unassigned
	mv.Cycle = ddg.Unassigned

	return r
}

// Restore puts back a reservation returned by Unassign, slot for slot. It
// panics if the move is assigned or a slot has no room left, since a
// released reservation always fits again when undo runs in order.
func (t *Table) Restore(mv *ddg.Move, r Reservation) {
	if _, ok := t.reservations[mv.ID]; ok {
		panic(fmt.Sprintf("resource: m%d is already assigned", mv.ID))
	}
	if r.Move != mv.ID {
		panic(fmt.Sprintf("resource: reservation of m%d restored on m%d", r.Move, mv.ID))
	}
	for _, s := range r.Slots {
		if t.used[s]+1 > t.Capacity(s.Resource) {
			panic(fmt.Sprintf("resource: cannot restore m%d, %s is full", mv.ID, s))
		}
	}

	for _, s := range r.Slots {
		t.used[s]++
	}
	t.reservations[mv.ID] = r
	mv.Bus = r.Bus
	mv.Cycle = r.Cycle
}

// FindRelocation is Find for a move that is already placed: its own
// reservation does not count against it, and its current bus is preferred.
// The table is unchanged on return.
func (t *Table) FindRelocation(mv *ddg.Move, from, to int) (cycle, bus int, ok bool) {
	r, held := t.reservations[mv.ID]
	if !held {
		return t.Find(mv, from, to, -1)
	}

	t.Unassign(mv)
	cycle, bus, ok = t.Find(mv, from, to, r.Bus)
	t.Restore(mv, r)

	return cycle, bus, ok
}

// LastCycle returns the last cycle the move may be placed in. Control
// transfers must leave room for the delay slots.
func (t *Table) LastCycle(mv *ddg.Move) int {
	if mv.IsControlFlow() {
		return t.machine.LastControlCycle()
	}
	return t.machine.LastCycle()
}

// Find returns the earliest (cycle, bus) in [from, to] where the move fits.
// In every cycle the preferred bus is tried first; pass -1 for none. The
// upper end is clipped to LastCycle.
func (t *Table) Find(mv *ddg.Move, from, to, preferBus int) (cycle, bus int, ok bool) {
	if from < 0 {
		from = 0
	}
	if last := t.LastCycle(mv); to > last {
		to = last
	}

	for c := from; c <= to; c++ {
		if preferBus >= 0 && preferBus < t.machine.BusCount() && t.CanAssign(mv, c, preferBus) {
			return c, preferBus, true
		}
		for b := 0; b < t.machine.BusCount(); b++ {
			if b == preferBus {
				continue
			}
			if t.CanAssign(mv, c, b) {
				return c, b, true
			}
		}
	}

	return ddg.Unassigned, ddg.Unassigned, false
}

// Usage returns every occupied slot, ordered by cycle and resource.
func (t *Table) Usage() []Usage {
	usage := make([]Usage, 0, len(t.used))
	for s, n := range t.used {
		usage = append(usage, Usage{Slot: s, Count: n, Capacity: t.Capacity(s.Resource)})
	}
	sort.Slice(usage, func(i, j int) bool {
		return slotLess(usage[i].Slot, usage[j].Slot)
	})
	return usage
}

// Verify recomputes the occupancy from the reservations and reports any
// mismatch or over-capacity slot.
func (t *Table) Verify() error {
	recount := make(map[Slot]int)
	for _, r := range t.reservations {
		for _, s := range r.Slots {
			recount[s]++
		}
	}

	var problems []string
	for s, n := range recount {
		if t.used[s] != n {
			problems = append(problems, fmt.Sprintf("%s counted %d, reserved %d", s, t.used[s], n))
		}
		if c := t.Capacity(s.Resource); n > c {
			problems = append(problems, fmt.Sprintf("%s holds %d of %d", s, n, c))
		}
	}
	for s, n := range t.used {
		if _, ok := recount[s]; !ok {
			problems = append(problems, fmt.Sprintf("%s counted %d, reserved 0", s, n))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("resource table inconsistent: %s", strings.Join(problems, "; "))
}

func slotLess(a, b Slot) bool {
	if a.Cycle != b.Cycle {
		return a.Cycle < b.Cycle
	}
	if a.Resource.Kind != b.Resource.Kind {
		return a.Resource.Kind < b.Resource.Kind
	}
	return a.Resource.Name < b.Resource.Name
}
