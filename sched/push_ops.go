package sched

import (
	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/reversible"
)

// PushAntidepDown moves the placed head of a false dependence to the
// earliest legal cycle not before a minimum. Fixed moves are never pushed.
type PushAntidepDown struct {
	opBase

	move     ddg.MoveID
	minCycle int
	depth    int

	target int
}

// NewPushAntidepDown creates an op pushing move to minCycle or later.
// minCycle is the cycle of the tail of the false dependence plus its
// latency.
func (s *Session) NewPushAntidepDown(move ddg.MoveID, minCycle int) *PushAntidepDown {
	return s.newPushAntidepDown(move, minCycle, 0)
}

func (s *Session) newPushAntidepDown(move ddg.MoveID, minCycle, depth int) *PushAntidepDown {
	return &PushAntidepDown{opBase: s.base(), move: move, minCycle: minCycle, depth: depth}
}

// Kind implements Op.
func (op *PushAntidepDown) Kind() OpKind { return KindPushAntidepDown }

// Target returns the cycle the move was pushed to.
func (op *PushAntidepDown) Target() int { return op.target }

// plan returns the cycle the move would be pushed to, or false if there is
// none. It does not change any state.
func (op *PushAntidepDown) plan() (int, bool) {
	g, t := op.s.graph, op.s.table
	mv := g.Move(op.move)
	if !mv.IsScheduled() || mv.Cycle >= op.minCycle || op.s.fixed[op.move] {
		return 0, false
	}

	lb := max(op.minCycle, g.EarliestCycle(op.move, ddg.MaskAll))
	cycle, _, ok := t.FindRelocation(mv, lb, t.LastCycle(mv))
	return cycle, ok
}

// Attempt implements reversible.Op.
//
// Scheduled successors that would be violated at the new cycle are pushed
// in turn when they are false register dependences and the depth allows;
// any other violated successor makes the attempt fail.
func (op *PushAntidepDown) Attempt() bool {
	s := op.s
	if s.pushing[op.move] {
		return op.fail()
	}

	cycle, ok := op.plan()
	if !ok {
		return op.fail()
	}

	type follow struct {
		head     ddg.MoveID
		minCycle int
	}
	var follows []follow
	for _, e := range s.graph.OutEdges(op.move) {
		head := s.graph.HeadNode(e)
		if !head.IsScheduled() || e.Allows(cycle, head.Cycle) {
			continue
		}
		if !e.IsFalse() || !e.IsRegisterLike() || op.depth >= s.config.MaxPushDepth {
			return op.fail()
		}
		follows = append(follows, follow{e.Head, cycle + e.Latency})
	}

	s.pushing[op.move] = true
	defer delete(s.pushing, op.move)

	if !reversible.RunPostChild(op, s.NewRescheduleMove(op.move, cycle)) {
		return op.fail()
	}
	for _, f := range follows {
		head := s.graph.Move(f.head)
		if head.Cycle >= f.minCycle {
			continue
		}
		if !reversible.RunPostChild(op, s.newPushAntidepDown(f.head, f.minCycle, op.depth+1)) {
			reversible.UndoAndRemovePostChildren(op)
			return op.fail()
		}
	}

	op.target = cycle
	s.stats.Pushes++
	s.logger.Debug("pushed antidependence", "move", op.move, "to", cycle, "depth", op.depth)
	return true
}

func (op *PushAntidepDown) fail() bool {
	op.s.stats.PushFailures++
	return false
}

// UndoOnlyMe implements reversible.Op. The move itself is restored by the
// RescheduleMove child.
func (op *PushAntidepDown) UndoOnlyMe() {}

// PushAntidepsDown pushes the placed false successors of a move that keep
// it from taking a wanted cycle.
type PushAntidepsDown struct {
	opBase

	move  ddg.MoveID
	cycle int
	depth int

	bound int
}

// NewPushAntidepsDown creates an op making room for move at cycle.
func (s *Session) NewPushAntidepsDown(move ddg.MoveID, cycle int) *PushAntidepsDown {
	return s.newPushAntidepsDown(move, cycle, 0)
}

func (s *Session) newPushAntidepsDown(move ddg.MoveID, cycle, depth int) *PushAntidepsDown {
	return &PushAntidepsDown{opBase: s.base(), move: move, cycle: cycle, depth: depth}
}

// Kind implements Op.
func (op *PushAntidepsDown) Kind() OpKind { return KindPushAntidepsDown }

// Bound returns the latest cycle the move could take once the planned
// pushes are done. It is set by Attempt, successful or not.
func (op *PushAntidepsDown) Bound() int { return op.bound }

// Attempt implements reversible.Op.
//
// The first phase plans every push without touching state and computes
// the bound they would give the move. Unless that bound is strictly later
// than the current one, the attempt fails right there. The second phase
// runs the pushes; ones that fail are skipped, and the attempt succeeds
// if any push ran.
func (op *PushAntidepsDown) Attempt() bool {
	s := op.s
	g := s.graph

	current := g.LatestCycle(op.move, ddg.MaskAll)

	var pushes []*PushAntidepDown
	bound := ddg.NoBound
	for _, e := range g.OutEdges(op.move) {
		head := g.HeadNode(e)
		if !head.IsScheduled() {
			continue
		}

		newHead := head.Cycle
		if e.IsFalse() && e.IsRegisterLike() && !e.Allows(op.cycle, head.Cycle) {
			push := s.newPushAntidepDown(e.Head, op.cycle+e.Latency, op.depth)
			if target, ok := push.plan(); ok {
				pushes = append(pushes, push)
				newHead = target
			}
		}

		if c := newHead - e.Latency; c < bound {
			bound = c
		}
	}
	op.bound = bound

	if len(pushes) == 0 || bound <= current {
		s.stats.PushFailures++
		s.logger.Debug("push would not help", "move", op.move, "cycle", op.cycle,
			"bound", bound, "current", current)
		return false
	}

	ran := 0
	for _, push := range pushes {
		if reversible.RunPostChild(op, push) {
			ran++
		}
	}
	if ran == 0 {
		s.stats.PushFailures++
		return false
	}
	return true
}

// UndoOnlyMe implements reversible.Op. The pushes are post-children.
func (op *PushAntidepsDown) UndoOnlyMe() {}
