package sched

import (
	"fmt"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/machine"
	"github.com/sarchlab/ttasched/readylist"
	"github.com/sarchlab/ttasched/resource"
	"github.com/sarchlab/ttasched/reversible"
)

// State is where a group is in the driver's state machine.
type State int

const (
	// StateWaiting is a group with unscheduled true predecessors.
	StateWaiting State = iota
	// StateReady is a group on the ready list.
	StateReady
	// StateProbing is a group whose probe is being attempted.
	StateProbing
	// StateCorrecting is a probing group whose moves push false
	// successors.
	StateCorrecting
	// StateCommitted is a group placed for good.
	StateCommitted
	// StateRolledBack is a group whose last probe failed and that waits
	// for the next candidate.
	StateRolledBack
	// StateUnschedulable is a group that ran out of candidates.
	StateUnschedulable
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "Waiting"
	case StateReady:
		return "Ready"
	case StateProbing:
		return "Probing"
	case StateCorrecting:
		return "Correcting"
	case StateCommitted:
		return "Committed"
	case StateRolledBack:
		return "RolledBack"
	case StateUnschedulable:
		return "Unschedulable"
	}
	return "Unknown"
}

// Scheduler drives a Session over the ready list until every group is
// placed or one group runs out of candidates.
type Scheduler struct {
	*Session

	machine *machine.Machine
	ready   *readylist.List
	log     reversible.Log
	states  []State
	queued  map[ddg.GroupID]bool
}

// NewScheduler creates a scheduler for the graph on the machine. Moves
// that are already placed in the graph are reserved in the table first
// and stay fixed at their cycles.
func NewScheduler(g *ddg.Graph, m *machine.Machine, opts ...Option) (*Scheduler, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid machine: %w", err)
	}
	if err := resource.ValidateGraph(m, g); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}
	if err := g.CheckAcyclic(); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}

	table := resource.NewTable(m, resource.ForGraph(g))
	var placed []ddg.MoveID
	for _, mv := range g.Moves() {
		if !mv.IsScheduled() {
			continue
		}
		cycle, bus := mv.Cycle, mv.Bus
		mv.Bus, mv.Cycle = ddg.Unassigned, ddg.Unassigned
		if err := table.Assign(mv, cycle, bus); err != nil {
			return nil, fmt.Errorf("pre-placed move: %w", err)
		}
		placed = append(placed, mv.ID)
	}

	s := &Scheduler{
		Session: NewSession(g, table, opts...),
		machine: m,
		ready:   readylist.New(g),
		states:  make([]State, g.GroupCount()),
		queued:  make(map[ddg.GroupID]bool),
	}
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}
	s.correcting = func(mv ddg.MoveID) {
		s.states[g.Move(mv).Group] = StateCorrecting
	}
	for _, id := range placed {
		s.Fix(id)
	}

	return s, nil
}

// State returns the state of a group.
func (s *Scheduler) State(id ddg.GroupID) State {
	return s.states[id]
}

// Schedule places every group. On success the committed schedule is
// returned. When a group runs out of candidates, everything this call
// placed is undone and an *UnschedulableError is returned; the scheduler
// can then be run again.
func (s *Scheduler) Schedule() (*Schedule, error) {
	g := s.graph

	for _, grp := range g.Groups() {
		if g.GroupReady(grp.ID) {
			s.enqueue(grp.ID)
		}
	}

	for {
		id, ok := s.ready.Pop()
		if !ok {
			break
		}
		delete(s.queued, id)

		if g.GroupScheduled(id) {
			s.states[id] = StateCommitted
			s.notifySuccessors(id)
			continue
		}

		if err := s.scheduleGroup(id); err != nil {
			return s.abort(err)
		}
		s.notifySuccessors(id)
	}

	for _, grp := range g.Groups() {
		if !g.GroupScheduled(grp.ID) {
			return s.abort(fmt.Errorf("group %d (%s) never became ready", grp.ID, grp.Name))
		}
	}

	if s.config.Verify {
		if err := Verify(g, s.table); err != nil {
			return s.abort(fmt.Errorf("schedule failed verification: %w", err))
		}
	}

	result := s.result()
	if !s.config.RetainLog {
		s.log.Commit()
	}

	s.logger.Info("schedule committed",
		"groups", g.GroupCount(),
		"moves", g.MoveCount(),
		"length", result.Length,
		"probes", s.stats.Probes,
		"rollbacks", s.stats.Rollbacks,
		"pushes", s.stats.Pushes)

	return result, nil
}

// abort undoes a failed run and resets the driver state. A group that ran
// out of candidates keeps its Unschedulable state.
func (s *Scheduler) abort(err error) (*Schedule, error) {
	s.log.UndoAll()
	for id, st := range s.states {
		if st != StateUnschedulable {
			s.states[id] = StateWaiting
		}
	}
	clear(s.queued)
	s.ready = readylist.New(s.graph)
	return nil, err
}

// scheduleGroup probes start cycles for a group until one succeeds.
func (s *Scheduler) scheduleGroup(id ddg.GroupID) error {
	last := s.machine.LastCycle()
	var tried []int

	for start := 0; start < s.config.MaxCandidates && start <= last; start++ {
		s.states[id] = StateProbing
		probe := s.NewScheduleGroup(id, start)
		if s.log.Run(probe) {
			s.states[id] = StateCommitted
			return nil
		}
		s.states[id] = StateRolledBack
		tried = append(tried, start)
	}

	s.states[id] = StateUnschedulable
	err := &UnschedulableError{Group: id, Name: s.graph.Group(id).Name, Tried: tried}
	s.invoke(HookPosUnschedulable, id, err)
	s.logger.Warn("group unschedulable", "group", id, "candidates", len(tried))
	return err
}

func (s *Scheduler) enqueue(id ddg.GroupID) {
	if s.queued[id] {
		return
	}
	s.queued[id] = true
	s.states[id] = StateReady
	s.ready.Push(id)
}

// notifySuccessors queues the successors of a placed group that became
// ready.
func (s *Scheduler) notifySuccessors(id ddg.GroupID) {
	for _, succ := range s.graph.SuccessorGroups(id) {
		// Pre-placed groups are queued too so that their own successors
		// get notified when they are drained.
		if s.states[succ] == StateCommitted || !s.graph.GroupReady(succ) {
			continue
		}
		s.enqueue(succ)
	}
	s.ready.Fix()
}

// Commit drops a retained transaction log. The schedule can no longer be
// reverted afterwards.
func (s *Scheduler) Commit() {
	s.log.Commit()
}

// Unschedule reverts a run whose log was retained, newest probe first,
// and restores the graph and the resource table to where they were before
// Schedule.
func (s *Scheduler) Unschedule() error {
	if s.log.Len() == 0 {
		return ErrNoLog
	}
	for _, op := range s.log.Ops() {
		if sg, ok := op.(*ScheduleGroup); ok {
			s.states[sg.Group()] = StateWaiting
		}
	}
	n := s.log.Len()
	s.log.UndoAll()
	s.stats.Undos += uint64(n)
	s.logger.Info("schedule reverted", "probes", n)
	return nil
}
