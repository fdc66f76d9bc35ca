package sched

import (
	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/reversible"
)

// ScheduleGroup is the probe: it places every unscheduled move of a group
// no earlier than a start cycle.
type ScheduleGroup struct {
	opBase

	group ddg.GroupID
	start int
}

// NewScheduleGroup creates a probe for group at start.
func (s *Session) NewScheduleGroup(group ddg.GroupID, start int) *ScheduleGroup {
	return &ScheduleGroup{opBase: s.base(), group: group, start: start}
}

// Kind implements Op.
func (op *ScheduleGroup) Kind() OpKind { return KindScheduleGroup }

// Group returns the probed group.
func (op *ScheduleGroup) Group() ddg.GroupID { return op.group }

// Start returns the candidate start cycle.
func (op *ScheduleGroup) Start() int { return op.start }

// Attempt implements reversible.Op.
//
// Members are placed in dependence order. Once all are placed, every edge
// touching the group must hold; a false dependence that could not be
// resolved fails the probe.
func (op *ScheduleGroup) Attempt() bool {
	s := op.s
	g := s.graph

	s.stats.Probes++
	s.invoke(HookPosProbe, op.group, op.start)

	for _, mid := range g.GroupOrder(op.group) {
		if g.Move(mid).IsScheduled() {
			continue
		}
		if !reversible.RunPreChild(op, s.NewScheduleMove(mid, op.start)) {
			return op.rollback("move failed", mid)
		}
	}

	for _, mid := range g.Group(op.group).Moves {
		for _, e := range g.InEdges(mid) {
			if violated(g, e) {
				return op.rollback("edge violated", mid)
			}
		}
		for _, e := range g.OutEdges(mid) {
			if violated(g, e) {
				return op.rollback("edge violated", mid)
			}
		}
	}

	s.stats.Commits++
	s.invoke(HookPosCommit, op.group, op.start)
	return true
}

func (op *ScheduleGroup) rollback(reason string, mid ddg.MoveID) bool {
	reversible.UndoAndRemovePreChildren(op)
	op.s.stats.Rollbacks++
	op.s.invoke(HookPosRollback, op.group, op.start)
	op.s.logger.Debug("probe rolled back", "group", op.group, "start", op.start,
		"reason", reason, "move", mid)
	return false
}

// UndoOnlyMe implements reversible.Op. The placements are pre-children.
func (op *ScheduleGroup) UndoOnlyMe() {}

func violated(g *ddg.Graph, e ddg.Edge) bool {
	tail, head := g.TailNode(e), g.HeadNode(e)
	return tail.IsScheduled() && head.IsScheduled() && !e.Allows(tail.Cycle, head.Cycle)
}
