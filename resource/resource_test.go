package resource_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/machine"
	"github.com/sarchlab/ttasched/resource"
)

var _ = Describe("Table", func() {
	var (
		m     *machine.Machine
		g     *ddg.Graph
		table *resource.Table
		grp   ddg.GroupID
	)

	add := func(src, dst ddg.Terminal) *ddg.Move {
		return g.Move(g.AddMove(grp, src, dst, nil))
	}

	BeforeEach(func() {
		m = machine.Default()
		g = ddg.New()
		grp = g.AddGroup("g")
		table = resource.NewTable(m)
	})

	Describe("Assign and Unassign", func() {
		It("should record the placement and release it exactly", func() {
			mv := add(ddg.Register("RF", 1), ddg.Register("RF", 2))

			Expect(table.Assign(mv, 4, 1)).To(Succeed())
			Expect(mv.Cycle).To(Equal(4))
			Expect(mv.Bus).To(Equal(1))
			Expect(table.Used(resource.Slot{Cycle: 4, Resource: resource.ID{Kind: resource.KindBus, Name: "B1"}})).
				To(Equal(1))

			r, ok := table.Reservation(mv.ID)
			Expect(ok).To(BeTrue())
			Expect(r.Slots).To(ConsistOf(
				resource.Slot{Cycle: 4, Resource: resource.ID{Kind: resource.KindBus, Name: "B1"}},
				resource.Slot{Cycle: 4, Resource: resource.ID{Kind: resource.KindRFRead, Name: "RF"}},
				resource.Slot{Cycle: 4, Resource: resource.ID{Kind: resource.KindRFWrite, Name: "RF"}},
			))

			released := table.Unassign(mv)
			Expect(released).To(Equal(r))
			Expect(mv.IsScheduled()).To(BeFalse())
			Expect(table.Usage()).To(BeEmpty())
			Expect(table.Len()).To(BeZero())
		})

		It("should panic on a double assignment", func() {
			mv := add(ddg.Register("RF", 1), ddg.Register("RF", 2))
			Expect(table.Assign(mv, 0, 0)).To(Succeed())
			Expect(func() { _ = table.Assign(mv, 1, 0) }).To(Panic())
		})

		It("should panic when releasing an unassigned move", func() {
			mv := add(ddg.Register("RF", 1), ddg.Register("RF", 2))
			Expect(func() { table.Unassign(mv) }).To(Panic())
		})

		It("should not change anything when the assignment fails", func() {
			a := add(ddg.Register("RF", 1), ddg.Register("RF", 2))
			b := add(ddg.Register("RF", 3), ddg.Register("RF", 4))
			Expect(table.Assign(a, 0, 0)).To(Succeed())
			before := table.Usage()

			err := table.Assign(b, 0, 1)
			Expect(err).To(MatchError(resource.ErrBusy))
			Expect(b.IsScheduled()).To(BeFalse())
			Expect(table.Usage()).To(Equal(before))
		})
	})

	Describe("capacity", func() {
		It("should allow one move per bus per cycle", func() {
			a := add(ddg.Register("RF", 1), ddg.Operand("ALU", "add", 1, false))
			b := add(ddg.Register("RF", 2), ddg.Operand("LSU", "ld", 1, true))
			Expect(table.Assign(a, 0, 0)).To(Succeed())
			Expect(table.CanAssign(b, 0, 0)).To(BeFalse())
			Expect(table.CanAssign(b, 0, 1)).To(BeTrue())
		})

		It("should count register file ports", func() {
			r1 := add(ddg.Register("RF", 1), ddg.Operand("ALU", "add", 1, false))
			r2 := add(ddg.Register("RF", 2), ddg.Operand("ALU", "add", 2, true))
			r3 := add(ddg.Register("RF", 3), ddg.Operand("LSU", "ld", 1, true))
			Expect(table.Assign(r1, 0, 0)).To(Succeed())
			Expect(table.Assign(r2, 0, 1)).To(Succeed())
			Expect(table.Check(r3, 0, 2)).To(MatchError(resource.ErrBusy))
		})

		It("should hold pipeline stages after the trigger", func() {
			t1 := add(ddg.Register("RF", 1), ddg.Operand("MUL", "mul", 2, true))
			t2 := add(ddg.Register("RF", 2), ddg.Operand("MUL", "mul", 2, true))
			Expect(table.Assign(t1, 0, 0)).To(Succeed())
			Expect(table.CanAssign(t2, 1, 0)).To(BeFalse())
			Expect(table.CanAssign(t2, 2, 0)).To(BeTrue())
		})

		It("should give one control transfer per cycle", func() {
			j := add(ddg.Immediate(8), ddg.Control("GCU", "jump"))
			ra := add(ddg.ReturnAddress("GCU"), ddg.Register("RF", 5))
			Expect(table.Assign(j, 0, 0)).To(Succeed())
			Expect(table.CanAssign(ra, 0, 1)).To(BeFalse())
			Expect(table.CanAssign(ra, 1, 1)).To(BeTrue())
		})
	})

	Describe("immediates", func() {
		It("should carry short immediates in the bus slot", func() {
			mv := add(ddg.Immediate(100), ddg.Register("RF", 1))
			slots, err := table.Requirements(mv, 3, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(slots).To(HaveLen(2))
		})

		It("should reserve a long-immediate slot ahead of use", func() {
			mv := add(ddg.Immediate(100000), ddg.Register("RF", 1))
			Expect(table.Assign(mv, 3, 0)).To(Succeed())

			imm := resource.Slot{Cycle: 2, Resource: resource.ID{Kind: resource.KindImmediate, Name: "IMM"}}
			Expect(table.Used(imm)).To(Equal(1))

			other := add(ddg.Immediate(-100000), ddg.Register("RF", 2))
			Expect(table.Check(other, 3, 1)).To(MatchError(resource.ErrNoImmediateSlot))
		})

		It("should not use an immediate unit before cycle zero", func() {
			mv := add(ddg.Immediate(100000), ddg.Register("RF", 1))
			Expect(table.CanAssign(mv, 0, 0)).To(BeFalse())
			Expect(table.CanAssign(mv, 1, 0)).To(BeTrue())
		})
	})

	Describe("guards and connectivity", func() {
		It("should only use buses that evaluate the guard", func() {
			id := g.AddMove(grp, ddg.Register("RF", 1), ddg.Register("RF", 2),
				&ddg.Guard{Unit: "bool", Index: 0, Inverted: true})
			mv := g.Move(id)
			Expect(table.Check(mv, 0, 2)).To(MatchError(resource.ErrGuard))
			Expect(table.CanAssign(mv, 0, 1)).To(BeTrue())
		})

		It("should respect bus wiring", func() {
			m.Buses[2].Units = []string{"LSU"}
			mv := add(ddg.Register("RF", 1), ddg.Operand("LSU", "st", 1, false))
			Expect(table.Check(mv, 0, 2)).To(MatchError(resource.ErrNotConnected))
		})
	})

	Describe("window", func() {
		It("should refuse cycles outside the horizon", func() {
			mv := add(ddg.Register("RF", 1), ddg.Register("RF", 2))
			Expect(table.Check(mv, -1, 0)).To(MatchError(resource.ErrOutOfWindow))
			Expect(table.Check(mv, m.Horizon, 0)).To(MatchError(resource.ErrOutOfWindow))
			Expect(table.CanAssign(mv, m.LastCycle(), 0)).To(BeTrue())
		})

		It("should keep control transfers clear of the delay slots", func() {
			j := add(ddg.Immediate(8), ddg.Control("GCU", "jump"))
			Expect(table.LastCycle(j)).To(Equal(m.LastControlCycle()))
			Expect(table.CanAssign(j, m.LastControlCycle()+1, 0)).To(BeFalse())
		})
	})

	Describe("Find", func() {
		It("should return the earliest free slot", func() {
			a := add(ddg.Register("RF", 1), ddg.Operand("ALU", "add", 1, false))
			Expect(table.Assign(a, 2, 0)).To(Succeed())

			b := add(ddg.Register("RF", 2), ddg.Operand("ALU", "add", 1, false))
			c, bus, ok := table.Find(b, 2, 10, -1)
			Expect(ok).To(BeTrue())
			Expect(c).To(Equal(3))
			Expect(bus).To(Equal(0))
		})

		It("should prefer the given bus", func() {
			mv := add(ddg.Register("RF", 1), ddg.Register("RF", 2))
			c, bus, ok := table.Find(mv, 0, 5, 2)
			Expect(ok).To(BeTrue())
			Expect(c).To(Equal(0))
			Expect(bus).To(Equal(2))
		})

		It("should fail when nothing fits", func() {
			j := add(ddg.Immediate(8), ddg.Control("GCU", "jump"))
			_, _, ok := table.Find(j, m.LastControlCycle()+1, m.LastCycle(), -1)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Restore", func() {
		It("should put back the exact slots", func() {
			mv := add(ddg.Immediate(100000), ddg.Register("RF", 1))
			Expect(table.Assign(mv, 5, 2)).To(Succeed())
			before := table.Usage()

			r := table.Unassign(mv)
			table.Restore(mv, r)
			Expect(table.Usage()).To(Equal(before))
			Expect(mv.Cycle).To(Equal(5))
			Expect(mv.Bus).To(Equal(2))
		})

		It("should panic when the slots were taken meanwhile", func() {
			a := add(ddg.Register("RF", 1), ddg.Register("RF", 2))
			b := add(ddg.Register("RF", 3), ddg.Register("RF", 4))
			Expect(table.Assign(a, 0, 0)).To(Succeed())
			r := table.Unassign(a)
			Expect(table.Assign(b, 0, 0)).To(Succeed())
			Expect(func() { table.Restore(a, r) }).To(Panic())
		})
	})

	Describe("FindRelocation", func() {
		It("should ignore the move's own reservation", func() {
			mv := add(ddg.Register("RF", 1), ddg.Operand("ALU", "add", 1, false))
			Expect(table.Assign(mv, 2, 1)).To(Succeed())
			before := table.Usage()

			c, bus, ok := table.FindRelocation(mv, 2, 10)
			Expect(ok).To(BeTrue())
			Expect(c).To(Equal(2))
			Expect(bus).To(Equal(1))
			Expect(table.Usage()).To(Equal(before))
			Expect(mv.Cycle).To(Equal(2))
		})
	})

	Describe("Verify", func() {
		It("should accept a consistent table", func() {
			for i := 0; i < 3; i++ {
				mv := add(ddg.Register("RF", i), ddg.Register("RF", i+10))
				Expect(table.Assign(mv, i, 0)).To(Succeed())
			}
			Expect(table.Verify()).To(Succeed())
			Expect(table.Usage()).To(HaveLen(9))
		})
	})
})

var _ = Describe("ValidateMove", func() {
	var (
		m   *machine.Machine
		g   *ddg.Graph
		grp ddg.GroupID
	)

	BeforeEach(func() {
		m = machine.Default()
		g = ddg.New()
		grp = g.AddGroup("g")
	})

	check := func(src, dst ddg.Terminal) error {
		return resource.ValidateMove(m, g.Move(g.AddMove(grp, src, dst, nil)))
	}

	It("should accept well-formed moves", func() {
		Expect(check(ddg.Register("RF", 1), ddg.Operand("ALU", "add", 2, true))).To(Succeed())
		Expect(check(ddg.Result("ALU", "add", 3), ddg.Register("RF", 1))).To(Succeed())
		Expect(check(ddg.Immediate(1<<20), ddg.Register("RF", 1))).To(Succeed())
		Expect(check(ddg.ReturnAddress("GCU"), ddg.Register("RF", 1))).To(Succeed())
	})

	It("should reject unknown units and bad indices", func() {
		Expect(check(ddg.Register("XX", 1), ddg.Register("RF", 1))).NotTo(Succeed())
		Expect(check(ddg.Register("RF", 32), ddg.Register("RF", 1))).NotTo(Succeed())
		Expect(check(ddg.Register("RF", 1), ddg.Operand("ALU", "div", 1, true))).NotTo(Succeed())
		Expect(check(ddg.Register("RF", 1), ddg.Operand("ALU", "add", 3, true))).NotTo(Succeed())
		Expect(check(ddg.Result("ALU", "add", 1), ddg.Register("RF", 1))).NotTo(Succeed())
		Expect(check(ddg.Register("RF", 1), ddg.Immediate(3))).NotTo(Succeed())
		Expect(check(ddg.Immediate(0), ddg.Control("CU", "jump"))).NotTo(Succeed())
	})

	It("should reject immediates no unit can carry", func() {
		Expect(check(ddg.Immediate(1<<40), ddg.Register("RF", 1))).NotTo(Succeed())
	})

	It("should reject guards no bus evaluates", func() {
		id := g.AddMove(grp, ddg.Register("RF", 1), ddg.Register("RF", 2), &ddg.Guard{Unit: "bool", Index: 1})
		Expect(resource.ValidateMove(m, g.Move(id))).NotTo(Succeed())
	})

	It("should join errors over a graph", func() {
		g.AddMove(grp, ddg.Register("XX", 1), ddg.Register("RF", 1), nil)
		g.AddMove(grp, ddg.Register("RF", 1), ddg.Register("RF", 1), nil)
		Expect(resource.ValidateGraph(m, g)).To(MatchError(ContainSubstring("m0")))
	})
})
