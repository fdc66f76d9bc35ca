// Package reversible provides speculative operations that can be undone
// exactly.
//
// An Op mutates shared state in Attempt and reverts that mutation in
// UndoOnlyMe. While attempting, an op may run children: pre-children are
// part of what makes the op possible, post-children repair consequences
// of it. Undo reverts post-children, then the op itself, then its
// pre-children, each stack newest first.
//
// The contract every Op must keep: when Attempt returns false, the state
// is exactly what it was before the call. An op that fails after some of
// its pre-children succeeded calls UndoAndRemovePreChildren before
// returning false.
package reversible

import "fmt"

// Op is a reversible operation.
type Op interface {
	// Attempt tries to apply the operation and reports whether it did.
	Attempt() bool

	// UndoOnlyMe reverts what Attempt did to the state, not counting
	// children.
	UndoOnlyMe()

	// Node returns the bookkeeping shared by all ops.
	Node() *Node
}

// Node holds the identity and the children of an op. Op implementations
// keep one in a field and return it from their Node method.
type Node struct {
	id     uint64
	pre    []Op
	post   []Op
	undone bool
}

// NewNode creates the bookkeeping for an op with the given ID.
func NewNode(id uint64) Node {
	return Node{id: id}
}

// ID returns the op ID. IDs increase monotonically within a session.
func (n *Node) ID() uint64 {
	return n.id
}

// PreChildren returns the successful pre-children, oldest first.
func (n *Node) PreChildren() []Op {
	return append([]Op(nil), n.pre...)
}

// PostChildren returns the successful post-children, oldest first.
func (n *Node) PostChildren() []Op {
	return append([]Op(nil), n.post...)
}

// Undone returns true once the op has been undone.
func (n *Node) Undone() bool {
	return n.undone
}

// RunPreChild attempts child and, on success, records it as a pre-child of
// parent.
func RunPreChild(parent, child Op) bool {
	if !child.Attempt() {
		return false
	}
	n := parent.Node()
	n.pre = append(n.pre, child)
	return true
}

// RunPostChild attempts child and, on success, records it as a post-child
// of parent.
func RunPostChild(parent, child Op) bool {
	if !child.Attempt() {
		return false
	}
	n := parent.Node()
	n.post = append(n.post, child)
	return true
}

// Undo reverts a successful op together with all its children. Undoing an
// op twice is a programming error and panics.
func Undo(op Op) {
	n := op.Node()
	if n.undone {
		panic(fmt.Sprintf("reversible: op %d undone twice", n.id))
	}

	for i := len(n.post) - 1; i >= 0; i-- {
		Undo(n.post[i])
	}
	n.post = nil

	op.UndoOnlyMe()

	for i := len(n.pre) - 1; i >= 0; i-- {
		Undo(n.pre[i])
	}
	n.pre = nil

	n.undone = true
}

// UndoAndRemovePreChildren reverts and forgets the pre-children of op. It
// is how an op whose Attempt fails halfway leaves no trace.
func UndoAndRemovePreChildren(op Op) {
	n := op.Node()
	for i := len(n.pre) - 1; i >= 0; i-- {
		Undo(n.pre[i])
	}
	n.pre = nil
}

// UndoAndRemovePostChildren reverts and forgets the post-children of op.
func UndoAndRemovePostChildren(op Op) {
	n := op.Node()
	for i := len(n.post) - 1; i >= 0; i-- {
		Undo(n.post[i])
	}
	n.post = nil
}
