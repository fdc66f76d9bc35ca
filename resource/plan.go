package resource

import (
	"fmt"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/machine"
)

// Requirements returns the slots the move would hold at the cycle on the
// bus, without checking whether they are free. A long immediate is charged
// to the first immediate unit wide enough for the value.
func (t *Table) Requirements(mv *ddg.Move, cycle, bus int) ([]Slot, error) {
	return t.collect(mv, cycle, bus, false)
}

// plan returns the slots the move needs, or why it cannot have them.
func (t *Table) plan(mv *ddg.Move, cycle, bus int) ([]Slot, error) {
	if cycle < 0 || cycle > t.LastCycle(mv) {
		return nil, fmt.Errorf("%w: cycle %d", ErrOutOfWindow, cycle)
	}

	slots, err := t.collect(mv, cycle, bus, true)
	if err != nil {
		return nil, err
	}

	for _, s := range slots {
		if t.used[s]+1 > t.Capacity(s.Resource) {
			return nil, fmt.Errorf("%w: %s", ErrBusy, s)
		}
	}

	return slots, nil
}

func (t *Table) collect(mv *ddg.Move, cycle, bus int, onlyFree bool) ([]Slot, error) {
	if bus < 0 || bus >= t.machine.BusCount() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBus, bus)
	}
	b := &t.machine.Buses[bus]

	slots := []Slot{{Cycle: cycle, Resource: ID{KindBus, b.Name}}}

	if mv.Guard != nil && !b.HasGuard(mv.Guard.Name()) {
		return nil, fmt.Errorf("%w: %s on %s", ErrGuard, mv.Guard.Name(), b.Name)
	}

	src, err := t.sourceSlots(mv.Source, b, cycle, onlyFree)
	if err != nil {
		return nil, err
	}
	slots = append(slots, src...)

	dst, err := t.destinationSlots(mv.Destination, b, cycle)
	if err != nil {
		return nil, err
	}
	slots = append(slots, dst...)
	slots = append(slots, t.lifetimeSlots(mv, cycle)...)

	return dedupe(slots), nil
}

// lifetimeSlots returns the function unit registers the move keeps alive,
// so that no other operation on the unit overwrites a value between its
// write and its use. An operand register is held from its write through
// the trigger; whichever of the two is placed second holds the span. A
// result register is held from the cycle the result lands through every
// read of it, and each trigger claims the cycle its results land in.
func (t *Table) lifetimeSlots(mv *ddg.Move, cycle int) []Slot {
	if t.graph == nil {
		return nil
	}

	var slots []Slot

	if mv.IsTrigger() {
		for _, id := range t.graph.OperandWrites(mv.ID) {
			r, ok := t.reservations[id]
			if !ok || r.Cycle >= cycle {
				continue
			}
			port := ID{KindFUInput, portName(t.graph.Move(id).Destination)}
			slots = appendSpan(slots, port, r.Cycle+1, cycle)
		}
		if op, ok := t.machine.Operation(mv.Destination.Unit, mv.Destination.Operation); ok {
			for k := op.Inputs + 1; k <= op.Inputs+op.Outputs; k++ {
				slots = append(slots, Slot{cycle + op.Latency, resultRegister(mv.Destination.Unit, k)})
			}
		}
	} else if trig, ok := t.graph.OperandTrigger(mv.ID); ok {
		if r, placed := t.reservations[trig]; placed && cycle < r.Cycle {
			slots = appendSpan(slots, ID{KindFUInput, portName(mv.Destination)}, cycle+1, r.Cycle)
		}
	}

	if trig, ok := t.graph.ResultTrigger(mv.ID); ok {
		slots = append(slots, t.resultSpan(mv, trig, cycle)...)
	}

	return slots
}

// resultSpan returns the result register cycles a read at cycle needs that
// no other read of the same result already holds.
func (t *Table) resultSpan(mv *ddg.Move, trig ddg.MoveID, cycle int) []Slot {
	r, placed := t.reservations[trig]
	if !placed {
		return nil
	}
	trigger := t.graph.Move(trig)
	op, ok := t.machine.Operation(trigger.Destination.Unit, trigger.Destination.Operation)
	if !ok {
		return nil
	}

	var siblings []Reservation
	for _, id := range t.graph.ResultReads(trig) {
		if s, ok := t.reservations[id]; ok && id != mv.ID {
			siblings = append(siblings, s)
		}
	}

	reg := resultRegister(mv.Source.Unit, mv.Source.Index)
	var slots []Slot
	for c := r.Cycle + op.Latency + 1; c <= cycle; c++ {
		s := Slot{c, reg}
		if !heldByAny(siblings, s) {
			slots = append(slots, s)
		}
	}
	return slots
}

func resultRegister(unit string, index int) ID {
	return ID{KindFUResult, fmt.Sprintf("%s.%d", unit, index)}
}

func appendSpan(slots []Slot, id ID, from, to int) []Slot {
	for c := from; c <= to; c++ {
		slots = append(slots, Slot{c, id})
	}
	return slots
}

func heldByAny(rs []Reservation, s Slot) bool {
	for _, r := range rs {
		for _, held := range r.Slots {
			if held == s {
				return true
			}
		}
	}
	return false
}

func (t *Table) sourceSlots(src ddg.Terminal, b *machine.Bus, cycle int, onlyFree bool) ([]Slot, error) {
	switch src.Kind {
	case ddg.TerminalRegister:
		if err := connected(b, src.Unit); err != nil {
			return nil, err
		}
		return []Slot{{cycle, ID{KindRFRead, src.Unit}}}, nil

	case ddg.TerminalResult:
		if err := connected(b, src.Unit); err != nil {
			return nil, err
		}
		return []Slot{{cycle, ID{KindFUOutput, portName(src)}}}, nil

	case ddg.TerminalReturnAddress:
		if err := connected(b, src.Unit); err != nil {
			return nil, err
		}
		return []Slot{{cycle, ID{KindControl, src.Unit}}}, nil

	case ddg.TerminalImmediate:
		if b.FitsShortImmediate(src.Value) {
			return nil, nil
		}
		s, ok := t.immediateSlot(src.Value, cycle, onlyFree)
		if !ok {
			return nil, fmt.Errorf("%w: #%d @%d", ErrNoImmediateSlot, src.Value, cycle)
		}
		return []Slot{s}, nil
	}

	return nil, fmt.Errorf("cannot read from %s terminal", src.Kind)
}

func (t *Table) destinationSlots(dst ddg.Terminal, b *machine.Bus, cycle int) ([]Slot, error) {
	switch dst.Kind {
	case ddg.TerminalRegister:
		if err := connected(b, dst.Unit); err != nil {
			return nil, err
		}
		return []Slot{{cycle, ID{KindRFWrite, dst.Unit}}}, nil

	case ddg.TerminalOperand:
		if err := connected(b, dst.Unit); err != nil {
			return nil, err
		}
		slots := []Slot{{cycle, ID{KindFUInput, portName(dst)}}}
		if !dst.Trigger {
			return slots, nil
		}
		op, ok := t.machine.Operation(dst.Unit, dst.Operation)
		if !ok {
			return nil, fmt.Errorf("unknown operation %s.%s", dst.Unit, dst.Operation)
		}
		for _, p := range op.Pipeline {
			for _, off := range p.Cycles {
				slots = append(slots, Slot{cycle + off, ID{KindFUStage, dst.Unit + "." + p.Resource}})
			}
		}
		return slots, nil

	case ddg.TerminalControl, ddg.TerminalReturnAddress:
		if err := connected(b, dst.Unit); err != nil {
			return nil, err
		}
		return []Slot{{cycle, ID{KindControl, dst.Unit}}}, nil
	}

	return nil, fmt.Errorf("cannot write to %s terminal", dst.Kind)
}

// immediateSlot picks the immediate unit that carries a long immediate
// used in cycle. With onlyFree set, units without a free slot are skipped.
func (t *Table) immediateSlot(value int64, cycle int, onlyFree bool) (Slot, bool) {
	for _, iu := range t.machine.ImmediateUnits {
		if !machine.FitsSigned(value, iu.Width) {
			continue
		}
		c := cycle - iu.Latency
		if c < 0 {
			continue
		}
		s := Slot{c, ID{KindImmediate, iu.Name}}
		if onlyFree && t.used[s] >= t.Capacity(s.Resource) {
			continue
		}
		return s, true
	}
	return Slot{}, false
}

func connected(b *machine.Bus, unit string) error {
	if !b.Connects(unit) {
		return fmt.Errorf("%w: %s to %s", ErrNotConnected, b.Name, unit)
	}
	return nil
}

func portName(t ddg.Terminal) string {
	return fmt.Sprintf("%s.%d", t.Unit, t.Index)
}

func dedupe(slots []Slot) []Slot {
	seen := make(map[Slot]bool, len(slots))
	out := slots[:0]
	for _, s := range slots {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
