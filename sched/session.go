// Package sched schedules the moves of a dependence graph onto the buses
// and cycles of a machine.
//
// Every decision is a reversible operation created through a Session: a
// probe schedules one group at a candidate start cycle, and the moves it
// places may push already placed false successors later as children. A
// probe that fails has already rolled itself back, so the driver just
// tries the next candidate.
package sched

import (
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/logging"
	"github.com/sarchlab/ttasched/resource"
)

// Session is the context all operations of one scheduling run share: the
// graph and resource table they mutate, the op ID counter, the logger,
// hooks and statistics. Sessions share nothing, so independent runs may
// proceed in parallel.
type Session struct {
	*sim.HookableBase

	graph  *ddg.Graph
	table  *resource.Table
	config Config
	logger *slog.Logger
	stats  Statistics

	nextID  uint64
	pushing map[ddg.MoveID]bool
	fixed   map[ddg.MoveID]bool

	// correcting is told when a move starts pushing its false successors.
	correcting func(ddg.MoveID)
}

// NewSession creates a session over a graph and a resource table.
func NewSession(g *ddg.Graph, table *resource.Table, opts ...Option) *Session {
	s := &Session{
		HookableBase: sim.NewHookableBase(),
		graph:        g,
		table:        table,
		config:       DefaultConfig(),
		logger:       logging.Discard(),
		pushing:      make(map[ddg.MoveID]bool),
		fixed:        make(map[ddg.MoveID]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Graph returns the graph the session mutates.
func (s *Session) Graph() *ddg.Graph {
	return s.graph
}

// Table returns the resource table the session mutates.
func (s *Session) Table() *resource.Table {
	return s.table
}

// Config returns the configuration.
func (s *Session) Config() Config {
	return s.config
}

// Stats returns a copy of the statistics.
func (s *Session) Stats() Statistics {
	return s.stats
}

// Fix pins a placed move to its cycle. Pushes and reschedules refuse to
// move it.
func (s *Session) Fix(move ddg.MoveID) {
	s.fixed[move] = true
}

// Fixed reports whether a move is pinned.
func (s *Session) Fixed(move ddg.MoveID) bool {
	return s.fixed[move]
}

func (s *Session) newID() uint64 {
	s.nextID++
	return s.nextID
}

func (s *Session) invoke(pos *sim.HookPos, item, detail interface{}) {
	if s.NumHooks() == 0 {
		return
	}
	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
