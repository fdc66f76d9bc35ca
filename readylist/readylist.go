// Package readylist provides the priority queue of move groups whose true
// predecessors are all scheduled.
package readylist

import (
	"container/heap"

	"github.com/sarchlab/ttasched/ddg"
)

// List orders group IDs for the scheduler. Groups that are already fully
// scheduled come out first so they can be drained. Among the rest, the
// group whose first move has the smaller ID comes out first. The order is
// total, so popping is deterministic.
type List struct {
	h groupHeap
}

// New creates an empty list over the graph.
func New(g *ddg.Graph) *List {
	return &List{h: groupHeap{graph: g}}
}

// Push queues a group. A group may be queued more than once.
func (l *List) Push(id ddg.GroupID) {
	heap.Push(&l.h, id)
}

// Pop removes the group with the highest priority.
func (l *List) Pop() (ddg.GroupID, bool) {
	if len(l.h.ids) == 0 {
		return 0, false
	}
	return heap.Pop(&l.h).(ddg.GroupID), true
}

// Peek returns the group Pop would return without removing it.
func (l *List) Peek() (ddg.GroupID, bool) {
	if len(l.h.ids) == 0 {
		return 0, false
	}
	return l.h.ids[0], true
}

// Len returns the number of queued entries.
func (l *List) Len() int {
	return len(l.h.ids)
}

// Fix restores the order after the scheduled state of queued groups
// changed.
func (l *List) Fix() {
	heap.Init(&l.h)
}

type groupHeap struct {
	graph *ddg.Graph
	ids   []ddg.GroupID
}

func (h groupHeap) Len() int { return len(h.ids) }

func (h groupHeap) Less(i, j int) bool {
	return higherPriority(h.graph, h.ids[i], h.ids[j])
}

func (h groupHeap) Swap(i, j int) { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }

func (h *groupHeap) Push(x interface{}) {
	h.ids = append(h.ids, x.(ddg.GroupID))
}

func (h *groupHeap) Pop() interface{} {
	old := h.ids
	n := len(old)
	x := old[n-1]
	h.ids = old[:n-1]
	return x
}

// higherPriority returns true if a should be popped before b.
func higherPriority(g *ddg.Graph, a, b ddg.GroupID) bool {
	sa, sb := g.GroupScheduled(a), g.GroupScheduled(b)
	if sa != sb {
		return sa
	}

	fa, fb := g.FirstMove(a), g.FirstMove(b)
	if fa != fb {
		return fa < fb
	}
	return a < b
}
