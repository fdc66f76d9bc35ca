// Package ddg provides the data dependence graph the scheduler works on.
//
// The graph is an arena: moves, groups and edges are addressed by stable
// integer IDs and edges refer to their endpoints by ID. Removing an edge
// and inserting it again under the same ID restores the graph exactly,
// which is what the reversible scheduling operations rely on.
package ddg

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// NoBound is returned by LatestCycle when no scheduled successor limits a
// move.
const NoBound = math.MaxInt

// ErrCycle is returned when a true dependence would close a cycle.
var ErrCycle = errors.New("true dependence cycle")

// Graph is a directed multigraph of moves.
type Graph struct {
	moves  []*Move
	groups []*Group

	edges    map[EdgeID]*Edge
	out      [][]EdgeID
	in       [][]EdgeID
	nextEdge EdgeID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		edges:    make(map[EdgeID]*Edge),
		nextEdge: 1,
	}
}

// AddGroup creates an empty move group.
func (g *Graph) AddGroup(name string) GroupID {
	id := GroupID(len(g.groups))
	g.groups = append(g.groups, &Group{ID: id, Name: name})
	return id
}

// AddMove creates an unscheduled move in the given group.
func (g *Graph) AddMove(group GroupID, src, dst Terminal, guard *Guard) MoveID {
	if int(group) < 0 || int(group) >= len(g.groups) {
		panic(fmt.Sprintf("ddg: unknown group %d", group))
	}

	id := MoveID(len(g.moves))
	var gd *Guard
	if guard != nil {
		c := *guard
		gd = &c
	}
	g.moves = append(g.moves, &Move{
		ID:          id,
		Group:       group,
		Source:      src,
		Destination: dst,
		Guard:       gd,
		Bus:         Unassigned,
		Cycle:       Unassigned,
	})
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)

	grp := g.groups[group]
	grp.Moves = append(grp.Moves, id)

	return id
}

// Move returns the move with the given ID.
func (g *Graph) Move(id MoveID) *Move {
	return g.moves[id]
}

// Moves returns all moves in ID order.
func (g *Graph) Moves() []*Move {
	return append([]*Move(nil), g.moves...)
}

// MoveCount returns the number of moves.
func (g *Graph) MoveCount() int {
	return len(g.moves)
}

// Group returns the group with the given ID.
func (g *Graph) Group(id GroupID) *Group {
	return g.groups[id]
}

// Groups returns all groups in ID order.
func (g *Graph) Groups() []*Group {
	return append([]*Group(nil), g.groups...)
}

// GroupCount returns the number of groups.
func (g *Graph) GroupCount() int {
	return len(g.groups)
}

func (g *Graph) hasMove(id MoveID) bool {
	return int(id) >= 0 && int(id) < len(g.moves)
}

// ConnectNodes inserts the edge tail->head. An edge with a zero ID gets a
// fresh one; an edge that carries an ID is re-inserted under that ID, which
// must not be in the graph. A true edge that would close a cycle is
// refused with ErrCycle.
func (g *Graph) ConnectNodes(tail, head MoveID, e Edge) (EdgeID, error) {
	if !g.hasMove(tail) || !g.hasMove(head) {
		return 0, fmt.Errorf("connect m%d -> m%d: unknown move", tail, head)
	}
	if tail == head {
		return 0, fmt.Errorf("connect m%d -> m%d: self dependence", tail, head)
	}
	if e.ID != 0 {
		if _, exists := g.edges[e.ID]; exists {
			return 0, fmt.Errorf("connect m%d -> m%d: edge e%d already in graph", tail, head, e.ID)
		}
	}
	if !e.IsFalse() && g.reaches(head, tail, MaskTrue) {
		return 0, fmt.Errorf("connect m%d -> m%d: %w", tail, head, ErrCycle)
	}

	if e.ID == 0 {
		e.ID = g.nextEdge
	}
	if e.ID >= g.nextEdge {
		g.nextEdge = e.ID + 1
	}
	e.Tail = tail
	e.Head = head

	stored := e
	g.edges[e.ID] = &stored
	g.out[tail] = insertSorted(g.out[tail], e.ID)
	g.in[head] = insertSorted(g.in[head], e.ID)

	return e.ID, nil
}

// RemoveEdge deletes an edge and returns a copy of it.
func (g *Graph) RemoveEdge(id EdgeID) (Edge, bool) {
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, false
	}
	delete(g.edges, id)
	g.out[e.Tail] = removeID(g.out[e.Tail], id)
	g.in[e.Head] = removeID(g.in[e.Head], id)
	return *e, true
}

// Edge returns a copy of the edge with the given ID.
func (g *Graph) Edge(id EdgeID) (Edge, bool) {
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// HasEdge returns true if the edge is in the graph.
func (g *Graph) HasEdge(id EdgeID) bool {
	_, ok := g.edges[id]
	return ok
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Edges returns copies of all edges in ID order.
func (g *Graph) Edges() []Edge {
	ids := make([]EdgeID, 0, len(g.edges))
	for id := range g.edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	edges := make([]Edge, len(ids))
	for i, id := range ids {
		edges[i] = *g.edges[id]
	}
	return edges
}

// OutEdges returns copies of the edges leaving a move, in ID order.
func (g *Graph) OutEdges(id MoveID) []Edge {
	return g.collect(g.out[id])
}

// InEdges returns copies of the edges entering a move, in ID order.
func (g *Graph) InEdges(id MoveID) []Edge {
	return g.collect(g.in[id])
}

func (g *Graph) collect(ids []EdgeID) []Edge {
	edges := make([]Edge, len(ids))
	for i, id := range ids {
		edges[i] = *g.edges[id]
	}
	return edges
}

// TailNode returns the move an edge leaves.
func (g *Graph) TailNode(e Edge) *Move {
	return g.moves[e.Tail]
}

// HeadNode returns the move an edge enters.
func (g *Graph) HeadNode(e Edge) *Move {
	return g.moves[e.Head]
}

// reaches reports whether to is reachable from from over edges selected by
// mask.
func (g *Graph) reaches(from, to MoveID, mask EdgeMask) bool {
	if from == to {
		return true
	}
	visited := make([]bool, len(g.moves))
	stack := []MoveID{from}
	visited[from] = true
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, eid := range g.out[n] {
			e := g.edges[eid]
			if !mask.selects(e) || visited[e.Head] {
				continue
			}
			if e.Head == to {
				return true
			}
			visited[e.Head] = true
			stack = append(stack, e.Head)
		}
	}
	return false
}

func insertSorted(ids []EdgeID, id EdgeID) []EdgeID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeID(ids []EdgeID, id EdgeID) []EdgeID {
	for i, x := range ids {
		if x == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
