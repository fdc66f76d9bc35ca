package reversible

// Log is the ordered record of top-level ops that have been applied but
// not yet committed.
type Log struct {
	ops []Op
}

// Push records a successful top-level op.
func (l *Log) Push(op Op) {
	l.ops = append(l.ops, op)
}

// Run attempts op and records it on success.
func (l *Log) Run(op Op) bool {
	if !op.Attempt() {
		return false
	}
	l.Push(op)
	return true
}

// Len returns the number of recorded ops.
func (l *Log) Len() int {
	return len(l.ops)
}

// Ops returns the recorded ops, oldest first.
func (l *Log) Ops() []Op {
	return append([]Op(nil), l.ops...)
}

// UndoLast reverts the newest recorded op and removes it from the log. It
// returns false on an empty log.
func (l *Log) UndoLast() bool {
	if len(l.ops) == 0 {
		return false
	}
	last := l.ops[len(l.ops)-1]
	l.ops = l.ops[:len(l.ops)-1]
	Undo(last)
	return true
}

// UndoAll reverts every recorded op, newest first, and empties the log.
func (l *Log) UndoAll() {
	for l.UndoLast() {
	}
}

// Commit forgets every recorded op. Committed ops can no longer be
// undone.
func (l *Log) Commit() {
	l.ops = nil
}
