package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ttasched/emu"
)

var _ = Describe("State", func() {
	It("should treat missing entries as zero", func() {
		a := emu.NewState()
		b := emu.NewState()
		a.WriteReg("RF", 1, 0)
		b.Memory[8] = 0

		Expect(a.Diff(b)).To(BeEmpty())
	})

	It("should list differences in order", func() {
		a := emu.NewState()
		b := emu.NewState()
		a.WriteReg("RF", 2, 5)
		b.WriteReg("RF", 1, 3)
		b.Memory[4] = 9
		b.Transfers = []emu.Transfer{{Operation: "jump", Target: 0}}

		Expect(a.Diff(b)).To(Equal([]string{
			"RF.1: 0 != 3",
			"RF.2: 5 != 0",
			"mem[4]: 0 != 9",
			"transfers: 0 != 1",
		}))
	})

	It("should clone deeply", func() {
		a := emu.NewState()
		a.WriteReg("RF", 1, 7)
		c := a.Clone()
		c.WriteReg("RF", 1, 8)

		Expect(a.ReadReg("RF", 1)).To(Equal(int64(7)))
		Expect(emu.Location{Unit: "GCU.ra", Index: -1}.String()).To(Equal("GCU.ra"))
	})
})

var _ = Describe("Lookup", func() {
	It("should find operations regardless of case", func() {
		f, err := emu.Lookup("ADD")
		Expect(err).NotTo(HaveOccurred())
		Expect(f([]int64{2, 3}, nil)).To(Equal([]int64{5}))
	})

	It("should compare as booleans", func() {
		f, err := emu.Lookup("eq")
		Expect(err).NotTo(HaveOccurred())
		Expect(f([]int64{4, 4}, nil)).To(Equal([]int64{1}))
		Expect(f([]int64{4, 5}, nil)).To(Equal([]int64{0}))
	})

	It("should fail for an unknown operation", func() {
		_, err := emu.Lookup("fma")
		Expect(err).To(MatchError(ContainSubstring(`no semantics for operation "fma"`)))
	})
})
