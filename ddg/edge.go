package ddg

import "fmt"

// EdgeID identifies a dependence edge. The zero value means "not yet
// inserted".
type EdgeID int

// Reason is why a dependence exists.
type Reason string

const (
	// ReasonRegister is a dependence through a general-purpose register.
	ReasonRegister Reason = "register"
	// ReasonReturnAddress is a dependence through the return-address
	// register.
	ReasonReturnAddress Reason = "ra"
	// ReasonControl orders moves around a control transfer.
	ReasonControl Reason = "control"
	// ReasonMemory orders memory accesses that may alias.
	ReasonMemory Reason = "memory"
	// ReasonOperation orders the moves of one operation: operands before
	// the trigger, the trigger before result reads.
	ReasonOperation Reason = "operation"
)

// DepType is the data hazard an edge guards against.
type DepType string

const (
	// DepRAW is a true (read after write) dependence.
	DepRAW DepType = "raw"
	// DepWAR is an anti (write after read) dependence.
	DepWAR DepType = "war"
	// DepWAW is an output (write after write) dependence.
	DepWAW DepType = "waw"
)

// Edge is a directed ordering constraint: when both ends are scheduled,
// Head.Cycle >= Tail.Cycle + Latency must hold.
type Edge struct {
	ID      EdgeID
	Tail    MoveID
	Head    MoveID
	Reason  Reason
	Type    DepType
	Latency int

	// Data names the register or memory alias class the edge is about.
	Data string

	// Guard marks an edge that feeds the guard of its head.
	Guard bool
}

// IsFalse returns true for anti and output dependences.
func (e Edge) IsFalse() bool {
	return e.Type == DepWAR || e.Type == DepWAW
}

// IsRegisterLike returns true if the dependence goes through a register or
// the return-address register; only those can be relaxed by moving the
// head later.
func (e Edge) IsRegisterLike() bool {
	return e.Reason == ReasonRegister || e.Reason == ReasonReturnAddress
}

// Allows returns true if the given tail and head cycles satisfy the edge.
func (e Edge) Allows(tailCycle, headCycle int) bool {
	return headCycle >= tailCycle+e.Latency
}

func (e Edge) String() string {
	s := fmt.Sprintf("e%d: m%d -> m%d %s:%s L%d", e.ID, e.Tail, e.Head, e.Type, e.Reason, e.Latency)
	if e.Data != "" {
		s += " " + e.Data
	}
	return s
}

// EdgeMask selects which edges a cycle query considers.
type EdgeMask int

const (
	// MaskTrue selects true dependences.
	MaskTrue EdgeMask = 1 << iota
	// MaskFalse selects anti and output dependences.
	MaskFalse

	// MaskAll selects every edge.
	MaskAll = MaskTrue | MaskFalse
)

func (m EdgeMask) selects(e *Edge) bool {
	if e.IsFalse() {
		return m&MaskFalse != 0
	}
	return m&MaskTrue != 0
}
