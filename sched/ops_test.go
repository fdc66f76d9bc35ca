package sched_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/machine"
	"github.com/sarchlab/ttasched/resource"
	"github.com/sarchlab/ttasched/sched"
)

func rawEdge(latency int) ddg.Edge {
	return ddg.Edge{Reason: ddg.ReasonRegister, Type: ddg.DepRAW, Latency: latency}
}

func warEdge(latency int, reg string) ddg.Edge {
	return ddg.Edge{Reason: ddg.ReasonRegister, Type: ddg.DepWAR, Latency: latency, Data: reg}
}

// state captures everything an undo must restore.
type state struct {
	graph ddg.Snapshot
	usage []resource.Usage
}

func capture(g *ddg.Graph, t *resource.Table) state {
	return state{graph: g.Snapshot(), usage: t.Usage()}
}

var _ = Describe("Edge operations", func() {
	var (
		g      *ddg.Graph
		s      *sched.Session
		m0, m1 ddg.MoveID
	)

	BeforeEach(func() {
		g = ddg.New()
		grp := g.AddGroup("g")
		m0 = g.AddMove(grp, ddg.Immediate(1), ddg.Register("RF", 1), nil)
		m1 = g.AddMove(grp, ddg.Register("RF", 1), ddg.Register("RF", 2), nil)
		s = sched.NewSession(g, resource.NewTable(machine.Default()))
	})

	It("should connect a duplicate under a fresh ID every time", func() {
		template := rawEdge(1)
		a := s.NewConnectNodes(m0, m1, template, true)
		b := s.NewConnectNodes(m0, m1, template, true)

		Expect(a.Attempt()).To(BeTrue())
		Expect(b.Attempt()).To(BeTrue())
		Expect(a.EdgeID()).NotTo(Equal(b.EdgeID()))
		Expect(g.EdgeCount()).To(Equal(2))
		Expect(a.Kind()).To(Equal(sched.KindConnectNodes))

		s.Undo(b)
		s.Undo(a)
		Expect(g.EdgeCount()).To(BeZero())
		Expect(s.Stats().Undos).To(Equal(uint64(2)))
	})

	It("should refuse a true edge closing a cycle without changing the graph", func() {
		Expect(s.NewConnectNodes(m0, m1, rawEdge(1), true).Attempt()).To(BeTrue())
		before := g.Snapshot()

		op := s.NewConnectNodes(m1, m0, rawEdge(0), true)
		Expect(op.Attempt()).To(BeFalse())
		Expect(g.Snapshot()).To(Equal(before))
	})

	It("should put a removed edge back under its ID", func() {
		connect := s.NewConnectNodes(m0, m1, rawEdge(1), false)
		Expect(connect.Attempt()).To(BeTrue())
		id := connect.EdgeID()
		before := g.Snapshot()

		disconnect := s.NewDisconnectNodes(id)
		Expect(disconnect.Attempt()).To(BeTrue())
		Expect(g.HasEdge(id)).To(BeFalse())

		s.Undo(disconnect)
		Expect(g.HasEdge(id)).To(BeTrue())
		Expect(g.Snapshot()).To(Equal(before))
	})

	It("should fail to disconnect a missing edge", func() {
		Expect(s.NewDisconnectNodes(99).Attempt()).To(BeFalse())
	})

	It("should hand out increasing op IDs", func() {
		a := s.NewScheduleMove(m0, 0)
		b := s.NewRescheduleMove(m0, 1)
		Expect(b.ID()).To(BeNumerically(">", a.ID()))
	})
})

var _ = Describe("Move operations", func() {
	var (
		m      *machine.Machine
		g      *ddg.Graph
		table  *resource.Table
		s      *sched.Session
		grp    ddg.GroupID
		m0, m1 ddg.MoveID
	)

	BeforeEach(func() {
		m = machine.Default()
		g = ddg.New()
		grp = g.AddGroup("g")
		m0 = g.AddMove(grp, ddg.Immediate(1), ddg.Register("RF", 1), nil)
		m1 = g.AddMove(grp, ddg.Register("RF", 1), ddg.Register("RF", 2), nil)
		_, err := g.ConnectNodes(m0, m1, rawEdge(2))
		Expect(err).NotTo(HaveOccurred())

		table = resource.NewTable(m)
		s = sched.NewSession(g, table)
	})

	Describe("ScheduleMove", func() {
		It("should honour predecessors and the lower bound", func() {
			Expect(s.NewScheduleMove(m0, 3).Attempt()).To(BeTrue())
			Expect(g.Move(m0).Cycle).To(Equal(3))
			Expect(g.Move(m0).Bus).To(Equal(0))

			Expect(s.NewScheduleMove(m1, 0).Attempt()).To(BeTrue())
			Expect(g.Move(m1).Cycle).To(Equal(5))
		})

		It("should skip busy slots", func() {
			other := g.AddMove(grp, ddg.Immediate(2), ddg.Register("RF", 3), nil)
			Expect(s.NewScheduleMove(other, 0).Attempt()).To(BeTrue())

			Expect(s.NewScheduleMove(m0, 0).Attempt()).To(BeTrue())
			Expect(g.Move(m0).Cycle).To(Equal(1))
		})

		It("should refuse an already placed move", func() {
			Expect(s.NewScheduleMove(m0, 0).Attempt()).To(BeTrue())
			Expect(s.NewScheduleMove(m0, 0).Attempt()).To(BeFalse())
		})

		It("should fail when the window is exhausted", func() {
			Expect(s.NewScheduleMove(m0, m.Horizon).Attempt()).To(BeFalse())
			Expect(table.Len()).To(BeZero())
		})

		It("should be undone exactly", func() {
			before := capture(g, table)
			op := s.NewScheduleMove(m0, 0)
			Expect(op.Attempt()).To(BeTrue())
			s.Undo(op)
			Expect(capture(g, table)).To(Equal(before))
		})
	})

	Describe("RescheduleMove", func() {
		BeforeEach(func() {
			Expect(s.NewScheduleMove(m0, 2).Attempt()).To(BeTrue())
		})

		It("should only move later", func() {
			Expect(s.NewRescheduleMove(m0, 2).Attempt()).To(BeFalse())
			Expect(s.NewRescheduleMove(m0, 1).Attempt()).To(BeFalse())
			Expect(s.NewRescheduleMove(m1, 5).Attempt()).To(BeFalse())
		})

		It("should keep the bus and restore the old place on undo", func() {
			before := capture(g, table)
			op := s.NewRescheduleMove(m0, 6)
			Expect(op.Attempt()).To(BeTrue())
			Expect(g.Move(m0).Cycle).To(Equal(6))
			Expect(g.Move(m0).Bus).To(Equal(0))

			s.Undo(op)
			Expect(capture(g, table)).To(Equal(before))
		})

		It("should change bus when its own is taken", func() {
			blocker := g.AddMove(grp, ddg.Register("bool", 0), ddg.Register("bool", 1), nil)
			Expect(table.Assign(g.Move(blocker), 6, 0)).To(Succeed())

			Expect(s.NewRescheduleMove(m0, 6).Attempt()).To(BeTrue())
			Expect(g.Move(m0).Bus).To(Equal(1))
		})

		It("should leave no trace when the target is full", func() {
			blocker := g.AddMove(grp, ddg.Immediate(9), ddg.Register("RF", 9), nil)
			Expect(table.Assign(g.Move(blocker), 6, 2)).To(Succeed())
			before := capture(g, table)

			Expect(s.NewRescheduleMove(m0, 6).Attempt()).To(BeFalse())
			Expect(capture(g, table)).To(Equal(before))
		})
	})
})
