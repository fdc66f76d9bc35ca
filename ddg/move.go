package ddg

import "fmt"

// MoveID identifies a move. IDs are assigned in creation order and never
// reused.
type MoveID int

// GroupID identifies a move group.
type GroupID int

// Unassigned is the bus and cycle of a move that is not scheduled.
const Unassigned = -1

// Move is a single transport from a source terminal to a destination
// terminal.
type Move struct {
	ID          MoveID
	Group       GroupID
	Source      Terminal
	Destination Terminal
	Guard       *Guard

	// Bus and Cycle are Unassigned until the move is scheduled.
	Bus   int
	Cycle int
}

// IsScheduled returns true if the move has a bus and a cycle.
func (m *Move) IsScheduled() bool {
	return m.Bus != Unassigned && m.Cycle != Unassigned
}

// IsControlFlow returns true if the move triggers a control transfer.
func (m *Move) IsControlFlow() bool {
	return m.Destination.Kind == TerminalControl
}

// IsTrigger returns true if the move starts an operation.
func (m *Move) IsTrigger() bool {
	return m.Destination.Kind == TerminalOperand && m.Destination.Trigger
}

func (m *Move) String() string {
	s := fmt.Sprintf("m%d: %s -> %s", m.ID, m.Source, m.Destination)
	if m.Guard != nil {
		s = fmt.Sprintf("m%d: ?%s %s -> %s", m.ID, m.Guard.Name(), m.Source, m.Destination)
	}
	if m.IsScheduled() {
		s += fmt.Sprintf(" [bus %d @%d]", m.Bus, m.Cycle)
	}
	return s
}

// Group is the set of moves realizing one operation. It is the unit the
// ready list queues.
type Group struct {
	ID    GroupID
	Name  string
	Moves []MoveID
}
