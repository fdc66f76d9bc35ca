package sched

import (
	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/reversible"
)

// OpKind identifies one of the scheduling operations.
type OpKind int

const (
	// KindConnectNodes inserts a dependence edge.
	KindConnectNodes OpKind = iota
	// KindDisconnectNodes removes a dependence edge.
	KindDisconnectNodes
	// KindScheduleMove places an unscheduled move.
	KindScheduleMove
	// KindRescheduleMove moves a placed move to a later cycle.
	KindRescheduleMove
	// KindPushAntidepDown pushes one false successor later.
	KindPushAntidepDown
	// KindPushAntidepsDown pushes every false successor that blocks a
	// move.
	KindPushAntidepsDown
	// KindScheduleGroup places every move of a group.
	KindScheduleGroup
)

func (k OpKind) String() string {
	switch k {
	case KindConnectNodes:
		return "ConnectNodes"
	case KindDisconnectNodes:
		return "DisconnectNodes"
	case KindScheduleMove:
		return "ScheduleMove"
	case KindRescheduleMove:
		return "RescheduleMove"
	case KindPushAntidepDown:
		return "PushAntidepDown"
	case KindPushAntidepsDown:
		return "PushAntidepsDown"
	case KindScheduleGroup:
		return "ScheduleGroup"
	}
	return "Unknown"
}

// Op is a scheduling operation. The set of kinds is closed; every Op is
// created by a Session constructor.
type Op interface {
	reversible.Op
	Kind() OpKind
	sealed()
}

// opBase is embedded by every operation.
type opBase struct {
	node reversible.Node
	s    *Session
}

func (s *Session) base() opBase {
	return opBase{node: reversible.NewNode(s.newID()), s: s}
}

func (b *opBase) Node() *reversible.Node { return &b.node }

// ID returns the op ID.
func (b *opBase) ID() uint64 { return b.node.ID() }

func (b *opBase) sealed() {}

// Undo reverts op and its children and counts it.
func (s *Session) Undo(op Op) {
	reversible.Undo(op)
	s.stats.Undos++
}

// ConnectNodes inserts a dependence edge.
type ConnectNodes struct {
	opBase

	tail, head ddg.MoveID
	edge       ddg.Edge
	duplicate  bool

	id ddg.EdgeID
}

// NewConnectNodes creates an op inserting edge from tail to head. With
// duplicate the edge is copied under a fresh ID and the caller keeps its
// template; otherwise an edge that carries an ID is inserted under it.
func (s *Session) NewConnectNodes(tail, head ddg.MoveID, edge ddg.Edge, duplicate bool) *ConnectNodes {
	return &ConnectNodes{opBase: s.base(), tail: tail, head: head, edge: edge, duplicate: duplicate}
}

// Kind implements Op.
func (op *ConnectNodes) Kind() OpKind { return KindConnectNodes }

// EdgeID returns the ID the edge was inserted under.
func (op *ConnectNodes) EdgeID() ddg.EdgeID { return op.id }

// Attempt implements reversible.Op.
func (op *ConnectNodes) Attempt() bool {
	e := op.edge
	if op.duplicate {
		e.ID = 0
	}

	id, err := op.s.graph.ConnectNodes(op.tail, op.head, e)
	if err != nil {
		op.s.logger.Debug("connect refused", "tail", op.tail, "head", op.head, "error", err)
		return false
	}

	op.id = id
	op.s.stats.EdgesConnected++
	return true
}

// UndoOnlyMe implements reversible.Op.
func (op *ConnectNodes) UndoOnlyMe() {
	removed, ok := op.s.graph.RemoveEdge(op.id)
	if !ok {
		panic("sched: connected edge vanished before undo")
	}
	if !op.duplicate {
		op.edge = removed
	}
	op.id = 0
}

// DisconnectNodes removes a dependence edge.
type DisconnectNodes struct {
	opBase

	id      ddg.EdgeID
	removed ddg.Edge
}

// NewDisconnectNodes creates an op removing the edge with the given ID.
// Undo puts it back under the same ID.
func (s *Session) NewDisconnectNodes(id ddg.EdgeID) *DisconnectNodes {
	return &DisconnectNodes{opBase: s.base(), id: id}
}

// Kind implements Op.
func (op *DisconnectNodes) Kind() OpKind { return KindDisconnectNodes }

// Attempt implements reversible.Op.
func (op *DisconnectNodes) Attempt() bool {
	e, ok := op.s.graph.RemoveEdge(op.id)
	if !ok {
		return false
	}
	op.removed = e
	op.s.stats.EdgesRemoved++
	return true
}

// UndoOnlyMe implements reversible.Op.
func (op *DisconnectNodes) UndoOnlyMe() {
	if _, err := op.s.graph.ConnectNodes(op.removed.Tail, op.removed.Head, op.removed); err != nil {
		panic("sched: cannot restore removed edge: " + err.Error())
	}
}
