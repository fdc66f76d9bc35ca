package sched_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/machine"
	"github.com/sarchlab/ttasched/resource"
	"github.com/sarchlab/ttasched/sched"
)

var _ = Describe("Antidependence pushes", func() {
	var (
		m          *machine.Machine
		g          *ddg.Graph
		table      *resource.Table
		s          *sched.Session
		m1, m2, m3 ddg.MoveID
	)

	// m1 writes RF.1, m2 reads it, m3 overwrites it:
	// m1 -> m2 is a true dependence and m2 -> m3 an antidependence.
	BeforeEach(func() {
		m = machine.Default()
		m.RegisterFiles[0].WritePorts = 2

		g = ddg.New()
		m1 = g.AddMove(g.AddGroup("def"), ddg.Immediate(1), ddg.Register("RF", 1), nil)
		m2 = g.AddMove(g.AddGroup("use"), ddg.Register("RF", 1), ddg.Register("RF", 3), nil)
		m3 = g.AddMove(g.AddGroup("redef"), ddg.Immediate(7), ddg.Register("RF", 1), nil)

		_, err := g.ConnectNodes(m1, m2, rawEdge(1))
		Expect(err).NotTo(HaveOccurred())
		_, err = g.ConnectNodes(m2, m3, warEdge(1, "RF.1"))
		Expect(err).NotTo(HaveOccurred())

		table = resource.NewTable(m)
		s = sched.NewSession(g, table)

		Expect(s.NewScheduleMove(m1, 0).Attempt()).To(BeTrue())
		Expect(s.NewScheduleMove(m3, 0).Attempt()).To(BeTrue())
		Expect(g.Move(m1).Cycle).To(Equal(0))
		Expect(g.Move(m3).Cycle).To(Equal(0))
		Expect(g.Move(m3).Bus).To(Equal(1))
	})

	It("should push the redefinition down to make room for the use", func() {
		before := capture(g, table)

		op := s.NewScheduleMove(m2, 0)
		Expect(op.Attempt()).To(BeTrue())
		Expect(g.Move(m2).Cycle).To(Equal(1))
		Expect(g.Move(m3).Cycle).To(Equal(2))
		Expect(g.Move(m3).Bus).To(Equal(1))
		Expect(g.Violations()).To(BeEmpty())
		Expect(s.Stats().Pushes).To(Equal(uint64(1)))
		Expect(s.Stats().Reschedules).To(Equal(uint64(1)))

		s.Undo(op)
		Expect(g.Move(m2).IsScheduled()).To(BeFalse())
		Expect(g.Move(m3).Cycle).To(Equal(0))
		Expect(capture(g, table)).To(Equal(before))
	})

	It("should fail the move when pushing is disabled", func() {
		s = sched.NewSession(g, table, sched.WithoutAntidepPush())
		before := capture(g, table)

		Expect(s.NewScheduleMove(m2, 0).Attempt()).To(BeFalse())
		Expect(capture(g, table)).To(Equal(before))
	})

	Describe("with a single register write port", func() {
		var (
			g2      *ddg.Graph
			t2      *resource.Table
			s2      *sched.Session
			d, u, r ddg.MoveID
		)

		BeforeEach(func() {
			g2 = ddg.New()
			d = g2.AddMove(g2.AddGroup("def"), ddg.Immediate(1), ddg.Register("RF", 1), nil)
			u = g2.AddMove(g2.AddGroup("use"), ddg.Register("RF", 1), ddg.Register("RF", 3), nil)
			r = g2.AddMove(g2.AddGroup("redef"), ddg.Immediate(7), ddg.Register("RF", 1), nil)
			_, err := g2.ConnectNodes(d, u, rawEdge(1))
			Expect(err).NotTo(HaveOccurred())
			_, err = g2.ConnectNodes(u, r, warEdge(1, "RF.1"))
			Expect(err).NotTo(HaveOccurred())

			t2 = resource.NewTable(machine.Default())
			s2 = sched.NewSession(g2, t2)
			Expect(s2.NewScheduleMove(d, 0).Attempt()).To(BeTrue())
			Expect(s2.NewScheduleMove(r, 1).Attempt()).To(BeTrue())
		})

		It("should take the slot the pushed redefinition frees", func() {
			before := capture(g2, t2)

			op := s2.NewScheduleMove(u, 0)
			Expect(op.Attempt()).To(BeTrue())
			Expect(g2.Move(u).Cycle).To(Equal(1))
			Expect(g2.Move(r).Cycle).To(Equal(2))
			Expect(g2.Violations()).To(BeEmpty())
			Expect(s2.Stats().Pushes).To(Equal(uint64(1)))

			s2.Undo(op)
			Expect(capture(g2, t2)).To(Equal(before))
		})
	})

	Describe("PushAntidepDown", func() {
		It("should move the head to the earliest legal cycle", func() {
			op := s.NewPushAntidepDown(m3, 4)
			Expect(op.Attempt()).To(BeTrue())
			Expect(op.Target()).To(Equal(4))
			Expect(g.Move(m3).Cycle).To(Equal(4))
			Expect(op.Node().PostChildren()).To(HaveLen(1))
			Expect(op.Node().PostChildren()[0].(sched.Op).Kind()).To(Equal(sched.KindRescheduleMove))
		})

		It("should leave a fixed move in place", func() {
			s.Fix(m3)
			before := capture(g, table)

			Expect(s.NewPushAntidepDown(m3, 4).Attempt()).To(BeFalse())
			Expect(s.NewRescheduleMove(m3, 4).Attempt()).To(BeFalse())
			Expect(s.NewScheduleMove(m2, 0).Attempt()).To(BeFalse())
			Expect(capture(g, table)).To(Equal(before))
			Expect(g.Move(m3).Cycle).To(Equal(0))
		})

		It("should do nothing when the head is already late enough", func() {
			Expect(s.NewPushAntidepDown(m3, 0).Attempt()).To(BeFalse())
		})

		It("should fail outside the window", func() {
			before := capture(g, table)
			Expect(s.NewPushAntidepDown(m3, m.Horizon).Attempt()).To(BeFalse())
			Expect(capture(g, table)).To(Equal(before))
		})

		It("should refuse to break a true dependence of the head", func() {
			m4 := g.AddMove(g.AddGroup("use2"), ddg.Register("RF", 1), ddg.Register("RF", 4), nil)
			_, err := g.ConnectNodes(m3, m4, rawEdge(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.NewScheduleMove(m4, 0).Attempt()).To(BeTrue())
			Expect(g.Move(m4).Cycle).To(Equal(1))
			before := capture(g, table)

			Expect(s.NewPushAntidepDown(m3, 3).Attempt()).To(BeFalse())
			Expect(capture(g, table)).To(Equal(before))
		})

		It("should push the head's own false successors along", func() {
			m4 := g.AddMove(g.AddGroup("redef2"), ddg.Immediate(9), ddg.Register("RF", 5), nil)
			_, err := g.ConnectNodes(m3, m4, warEdge(0, "RF.5"))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.NewScheduleMove(m4, 0).Attempt()).To(BeTrue())
			Expect(g.Move(m4).Cycle).To(Equal(1))
			before := capture(g, table)

			op := s.NewPushAntidepDown(m3, 3)
			Expect(op.Attempt()).To(BeTrue())
			Expect(g.Move(m3).Cycle).To(Equal(3))
			Expect(g.Move(m4).Cycle).To(BeNumerically(">=", 3))
			Expect(g.Violations()).To(BeEmpty())

			s.Undo(op)
			Expect(capture(g, table)).To(Equal(before))
		})
	})

	Describe("PushAntidepsDown", func() {
		It("should improve the bound of the blocked move", func() {
			op := s.NewPushAntidepsDown(m2, 1)
			Expect(op.Attempt()).To(BeTrue())
			Expect(op.Bound()).To(Equal(1))
			Expect(g.LatestCycle(m2, ddg.MaskAll)).To(Equal(1))
		})

		It("should fail without mutation when nothing blocks", func() {
			before := capture(g, table)
			op := s.NewPushAntidepsDown(m2, -1)
			Expect(op.Attempt()).To(BeFalse())
			Expect(capture(g, table)).To(Equal(before))
		})

		It("should fail without mutation when the bound cannot improve", func() {
			m4 := g.AddMove(g.AddGroup("use2"), ddg.Register("RF", 3), ddg.Register("bool", 1), nil)
			_, err := g.ConnectNodes(m2, m4, rawEdge(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Assign(g.Move(m4), 0, 2)).To(Succeed())

			before := capture(g, table)
			current := g.LatestCycle(m2, ddg.MaskAll)
			Expect(current).To(Equal(-1))

			op := s.NewPushAntidepsDown(m2, 1)
			Expect(op.Attempt()).To(BeFalse())
			Expect(op.Bound()).To(BeNumerically("<=", current))
			Expect(capture(g, table)).To(Equal(before))
			Expect(g.Move(m3).Cycle).To(Equal(0))
		})

		It("should ignore false dependences that are not through registers", func() {
			m4 := g.AddMove(g.AddGroup("flag"), ddg.Register("RF", 2), ddg.Register("bool", 0), nil)
			_, err := g.ConnectNodes(m2, m4, ddg.Edge{Reason: ddg.ReasonMemory, Type: ddg.DepWAR, Latency: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Assign(g.Move(m4), 0, 2)).To(Succeed())

			op := s.NewPushAntidepsDown(m2, 1)
			Expect(op.Attempt()).To(BeFalse())
			Expect(g.Move(m4).Cycle).To(Equal(0))
			Expect(g.Move(m3).Cycle).To(Equal(0))
		})
	})
})
