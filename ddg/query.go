package ddg

import (
	"fmt"
	"sort"
)

// EarliestCycle returns the earliest cycle the move may take given its
// scheduled predecessors on the selected edges. Unscheduled predecessors
// are ignored.
func (g *Graph) EarliestCycle(id MoveID, mask EdgeMask) int {
	ec := 0
	for _, eid := range g.in[id] {
		e := g.edges[eid]
		if !mask.selects(e) {
			continue
		}
		tail := g.moves[e.Tail]
		if !tail.IsScheduled() {
			continue
		}
		if c := tail.Cycle + e.Latency; c > ec {
			ec = c
		}
	}
	return ec
}

// LatestCycle returns the latest cycle the move may take given its
// scheduled successors on the selected edges, or NoBound.
func (g *Graph) LatestCycle(id MoveID, mask EdgeMask) int {
	lc := NoBound
	for _, eid := range g.out[id] {
		e := g.edges[eid]
		if !mask.selects(e) {
			continue
		}
		head := g.moves[e.Head]
		if !head.IsScheduled() {
			continue
		}
		if c := head.Cycle - e.Latency; c < lc {
			lc = c
		}
	}
	return lc
}

// GroupScheduled returns true when every move of the group is scheduled.
func (g *Graph) GroupScheduled(id GroupID) bool {
	for _, mid := range g.groups[id].Moves {
		if !g.moves[mid].IsScheduled() {
			return false
		}
	}
	return true
}

// GroupReady returns true when every true predecessor outside the group is
// scheduled. False dependences do not hold a group back; they are resolved
// by pushing their heads later.
func (g *Graph) GroupReady(id GroupID) bool {
	for _, mid := range g.groups[id].Moves {
		for _, eid := range g.in[mid] {
			e := g.edges[eid]
			if e.IsFalse() {
				continue
			}
			tail := g.moves[e.Tail]
			if tail.Group != id && !tail.IsScheduled() {
				return false
			}
		}
	}
	return true
}

// FirstMove returns the lowest move ID of the group, or -1 for an empty
// group.
func (g *Graph) FirstMove(id GroupID) MoveID {
	first := MoveID(-1)
	for _, mid := range g.groups[id].Moves {
		if first == -1 || mid < first {
			first = mid
		}
	}
	return first
}

// SuccessorGroups returns the other groups that some move of the group
// has an outgoing edge to, in ID order.
func (g *Graph) SuccessorGroups(id GroupID) []GroupID {
	seen := make(map[GroupID]bool)
	var succs []GroupID
	for _, mid := range g.groups[id].Moves {
		for _, eid := range g.out[mid] {
			hg := g.moves[g.edges[eid].Head].Group
			if hg == id || seen[hg] {
				continue
			}
			seen[hg] = true
			succs = append(succs, hg)
		}
	}
	sort.Slice(succs, func(i, j int) bool { return succs[i] < succs[j] })
	return succs
}

// GroupOrder returns the moves of a group ordered by the true edges
// between them, breaking ties by move ID.
func (g *Graph) GroupOrder(id GroupID) []MoveID {
	members := make(map[MoveID]bool)
	for _, mid := range g.groups[id].Moves {
		members[mid] = true
	}
	order, _ := g.kahn(g.groups[id].Moves, members)
	return order
}

// TrueDependenceOrder returns every move in a topological order of the
// true-dependence subgraph. It fails with ErrCycle if the subgraph is not
// acyclic.
func (g *Graph) TrueDependenceOrder() ([]MoveID, error) {
	all := make([]MoveID, len(g.moves))
	for i := range g.moves {
		all[i] = MoveID(i)
	}
	order, ok := g.kahn(all, nil)
	if !ok {
		return nil, fmt.Errorf("%d of %d moves left unordered: %w",
			len(all)-len(order), len(all), ErrCycle)
	}
	return order, nil
}

// CheckAcyclic returns ErrCycle if the true-dependence subgraph has a
// cycle.
func (g *Graph) CheckAcyclic() error {
	_, err := g.TrueDependenceOrder()
	return err
}

// kahn sorts nodes over true edges. When members is non-nil only edges
// between members count. Ready nodes are taken in ID order.
func (g *Graph) kahn(nodes []MoveID, members map[MoveID]bool) ([]MoveID, bool) {
	inside := func(id MoveID) bool {
		return members == nil || members[id]
	}

	indeg := make(map[MoveID]int, len(nodes))
	for _, n := range nodes {
		indeg[n] = 0
	}
	for _, n := range nodes {
		for _, eid := range g.out[n] {
			e := g.edges[eid]
			if e.IsFalse() || !inside(e.Head) {
				continue
			}
			indeg[e.Head]++
		}
	}

	var ready []MoveID
	for _, n := range nodes {
		if indeg[n] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]MoveID, 0, len(nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, eid := range g.out[n] {
			e := g.edges[eid]
			if e.IsFalse() || !inside(e.Head) {
				continue
			}
			indeg[e.Head]--
			if indeg[e.Head] == 0 {
				ready = append(ready, e.Head)
			}
		}
	}
	return order, len(order) == len(nodes)
}

// Violations returns every edge whose ends are both scheduled but whose
// latency is not honoured.
func (g *Graph) Violations() []Edge {
	var bad []Edge
	for _, e := range g.Edges() {
		tail, head := g.moves[e.Tail], g.moves[e.Head]
		if !tail.IsScheduled() || !head.IsScheduled() {
			continue
		}
		if !e.Allows(tail.Cycle, head.Cycle) {
			bad = append(bad, e)
		}
	}
	return bad
}

// Placement is the bus and cycle of one move.
type Placement struct {
	Move  MoveID
	Bus   int
	Cycle int
}

// Snapshot is a copy of the mutable state of the graph: its edge set and
// the placement of every move.
type Snapshot struct {
	Edges      []Edge
	Placements []Placement
}

// Snapshot captures the edge set and placements.
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{Edges: g.Edges()}
	s.Placements = make([]Placement, len(g.moves))
	for i, m := range g.moves {
		s.Placements[i] = Placement{Move: m.ID, Bus: m.Bus, Cycle: m.Cycle}
	}
	return s
}
