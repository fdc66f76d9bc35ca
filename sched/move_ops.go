package sched

import (
	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/resource"
	"github.com/sarchlab/ttasched/reversible"
)

// ScheduleMove places an unscheduled move at the earliest cycle that its
// scheduled predecessors, the lower bound and the resource table allow.
type ScheduleMove struct {
	opBase

	move       ddg.MoveID
	lowerBound int
}

// NewScheduleMove creates an op placing move no earlier than lowerBound.
func (s *Session) NewScheduleMove(move ddg.MoveID, lowerBound int) *ScheduleMove {
	return &ScheduleMove{opBase: s.base(), move: move, lowerBound: lowerBound}
}

// Kind implements Op.
func (op *ScheduleMove) Kind() OpKind { return KindScheduleMove }

// Attempt implements reversible.Op.
//
// If scheduled false successors forbid the chosen cycle, they are pushed
// later first, aiming at the lower bound and then at the found cycle. A
// pushed successor can free the slots that kept the move off the lower
// bound. Later cycles only make the conflict worse, so when neither push
// succeeds the attempt fails.
func (op *ScheduleMove) Attempt() bool {
	g, t := op.s.graph, op.s.table
	mv := g.Move(op.move)
	if mv.IsScheduled() {
		return false
	}

	lb := max(op.lowerBound, g.EarliestCycle(op.move, ddg.MaskAll))
	last := t.LastCycle(mv)

	cycle, bus, ok := t.Find(mv, lb, last, -1)
	if !ok {
		op.s.logger.Debug("no slot", "move", op.move, "from", lb)
		return false
	}

	bound := g.LatestCycle(op.move, ddg.MaskAll)
	if cycle > bound {
		if !op.s.config.EnableAntidepPush {
			return false
		}
		if op.s.correcting != nil {
			op.s.correcting(op.move)
		}
		found := cycle
		if cycle, bus, ok = op.pushFor(lb, last); !ok && found > lb {
			cycle, bus, ok = op.pushFor(found, last)
		}
		if !ok {
			return false
		}
	}

	if err := t.Assign(mv, cycle, bus); err != nil {
		reversible.UndoAndRemovePreChildren(op)
		return false
	}

	op.s.stats.MovesScheduled++
	op.s.logger.Debug("scheduled move", "move", op.move, "cycle", cycle, "bus", bus)
	return true
}

// pushFor pushes the false successors that forbid want and searches again
// from the lower bound. On failure the pushes are undone.
func (op *ScheduleMove) pushFor(want, last int) (int, int, bool) {
	g := op.s.graph
	lb := max(op.lowerBound, g.EarliestCycle(op.move, ddg.MaskAll))

	push := op.s.newPushAntidepsDown(op.move, want, 0)
	if !reversible.RunPreChild(op, push) {
		return 0, -1, false
	}

	bound := g.LatestCycle(op.move, ddg.MaskAll)
	cycle, bus, ok := op.s.table.Find(g.Move(op.move), lb, min(bound, last), -1)
	if !ok {
		reversible.UndoAndRemovePreChildren(op)
		return 0, -1, false
	}
	return cycle, bus, true
}

// UndoOnlyMe implements reversible.Op.
func (op *ScheduleMove) UndoOnlyMe() {
	op.s.table.Unassign(op.s.graph.Move(op.move))
}

// RescheduleMove moves a placed move to a strictly later cycle.
type RescheduleMove struct {
	opBase

	move  ddg.MoveID
	cycle int

	old resource.Reservation
}

// NewRescheduleMove creates an op moving move to cycle. The current bus is
// kept when it is free there.
func (s *Session) NewRescheduleMove(move ddg.MoveID, cycle int) *RescheduleMove {
	return &RescheduleMove{opBase: s.base(), move: move, cycle: cycle}
}

// Kind implements Op.
func (op *RescheduleMove) Kind() OpKind { return KindRescheduleMove }

// Attempt implements reversible.Op.
func (op *RescheduleMove) Attempt() bool {
	t := op.s.table
	mv := op.s.graph.Move(op.move)
	if !mv.IsScheduled() || op.cycle <= mv.Cycle || op.s.fixed[op.move] {
		return false
	}

	old := t.Unassign(mv)
	_, bus, ok := t.Find(mv, op.cycle, op.cycle, old.Bus)
	if !ok {
		t.Restore(mv, old)
		return false
	}
	if err := t.Assign(mv, op.cycle, bus); err != nil {
		t.Restore(mv, old)
		return false
	}

	op.old = old
	op.s.stats.Reschedules++
	op.s.invoke(HookPosReschedule, op.move, Relocation{
		FromBus: old.Bus, FromCycle: old.Cycle,
		ToBus: bus, ToCycle: op.cycle,
	})
	op.s.logger.Debug("rescheduled move", "move", op.move, "from", old.Cycle, "to", op.cycle)
	return true
}

// UndoOnlyMe implements reversible.Op.
func (op *RescheduleMove) UndoOnlyMe() {
	mv := op.s.graph.Move(op.move)
	op.s.table.Unassign(mv)
	op.s.table.Restore(mv, op.old)
}
