package ddg

import "sort"

// OperandTrigger returns the trigger an operand write feeds: the trigger
// on the same unit that the move reaches through an out-edge, or else the
// trigger of the same operation in the move's group.
func (g *Graph) OperandTrigger(id MoveID) (MoveID, bool) {
	mv := g.moves[id]
	if mv.Destination.Kind != TerminalOperand || mv.Destination.Trigger {
		return -1, false
	}

	for _, eid := range g.out[id] {
		head := g.moves[g.edges[eid].Head]
		if head.IsTrigger() && head.Destination.Unit == mv.Destination.Unit {
			return head.ID, true
		}
	}
	return g.groupTrigger(mv, mv.Destination)
}

// ResultTrigger returns the trigger whose result a move reads: the
// trigger on the same unit that one of the move's true in-edges comes
// from, or else the trigger of the same operation in the move's group.
func (g *Graph) ResultTrigger(id MoveID) (MoveID, bool) {
	mv := g.moves[id]
	if mv.Source.Kind != TerminalResult {
		return -1, false
	}

	for _, eid := range g.in[id] {
		e := g.edges[eid]
		if e.IsFalse() {
			continue
		}
		tail := g.moves[e.Tail]
		if tail.IsTrigger() && tail.Destination.Unit == mv.Source.Unit {
			return tail.ID, true
		}
	}
	return g.groupTrigger(mv, mv.Source)
}

func (g *Graph) groupTrigger(mv *Move, port Terminal) (MoveID, bool) {
	for _, mid := range g.groups[mv.Group].Moves {
		m := g.moves[mid]
		if mid != mv.ID && m.IsTrigger() && m.Destination.Unit == port.Unit &&
			m.Destination.Operation == port.Operation {
			return mid, true
		}
	}
	return -1, false
}

// OperandWrites returns the non-trigger operand writes that feed a
// trigger, in ID order.
func (g *Graph) OperandWrites(trigger MoveID) []MoveID {
	return g.operationMembers(trigger, g.in[trigger],
		func(e *Edge) MoveID { return e.Tail }, g.OperandTrigger)
}

// ResultReads returns the moves that read the results of a trigger, in ID
// order.
func (g *Graph) ResultReads(trigger MoveID) []MoveID {
	return g.operationMembers(trigger, g.out[trigger],
		func(e *Edge) MoveID { return e.Head }, g.ResultTrigger)
}

func (g *Graph) operationMembers(trigger MoveID, edges []EdgeID,
	end func(*Edge) MoveID, owner func(MoveID) (MoveID, bool)) []MoveID {
	candidates := make(map[MoveID]bool)
	for _, eid := range edges {
		candidates[end(g.edges[eid])] = true
	}
	for _, mid := range g.groups[g.moves[trigger].Group].Moves {
		candidates[mid] = true
	}

	var members []MoveID
	for mid := range candidates {
		if t, ok := owner(mid); ok && t == trigger {
			members = append(members, mid)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return members
}
