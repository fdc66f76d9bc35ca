package machine_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ttasched/machine"
)

var _ = Describe("Machine", func() {
	Describe("Default", func() {
		It("should validate", func() {
			Expect(machine.Default().Validate()).To(Succeed())
		})

		It("should have three buses", func() {
			Expect(machine.Default().BusCount()).To(Equal(3))
		})

		It("should leave room for the control unit delay slots", func() {
			m := machine.Default()
			Expect(m.LastCycle()).To(Equal(machine.DefaultHorizon - 1))
			Expect(m.LastControlCycle()).To(Equal(machine.DefaultHorizon - 4))
		})

		It("should find units and operations by name", func() {
			m := machine.Default()

			rf, ok := m.RegisterFile("RF")
			Expect(ok).To(BeTrue())
			Expect(rf.ReadPorts).To(Equal(2))

			op, ok := m.Operation("MUL", "MUL")
			Expect(ok).To(BeTrue())
			Expect(op.Latency).To(Equal(3))

			_, ok = m.Operation("ALU", "div")
			Expect(ok).To(BeFalse())
			_, ok = m.FunctionUnit("FPU")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Bus", func() {
		var bus machine.Bus

		BeforeEach(func() {
			bus = machine.Bus{
				Name:           "B0",
				ImmediateWidth: 8,
				Guards:         []string{"bool.0"},
				Units:          []string{"RF", "ALU"},
			}
		})

		It("should fit signed short immediates", func() {
			Expect(bus.FitsShortImmediate(127)).To(BeTrue())
			Expect(bus.FitsShortImmediate(-128)).To(BeTrue())
			Expect(bus.FitsShortImmediate(128)).To(BeFalse())
			Expect(bus.FitsShortImmediate(-129)).To(BeFalse())
		})

		It("should reject immediates when it has no immediate field", func() {
			bus.ImmediateWidth = 0
			Expect(bus.FitsShortImmediate(0)).To(BeFalse())
		})

		It("should report connectivity", func() {
			Expect(bus.Connects("ALU")).To(BeTrue())
			Expect(bus.Connects("LSU")).To(BeFalse())

			bus.Units = nil
			Expect(bus.Connects("LSU")).To(BeTrue())
		})

		It("should report guard support", func() {
			Expect(bus.HasGuard("bool.0")).To(BeTrue())
			Expect(bus.HasGuard("!bool.0")).To(BeFalse())
		})
	})

	Describe("Guard names", func() {
		It("should round trip through ParseGuardName", func() {
			name := machine.GuardName("bool", 1, true)
			Expect(name).To(Equal("!bool.1"))

			unit, index, inverted, ok := machine.ParseGuardName(name)
			Expect(ok).To(BeTrue())
			Expect(unit).To(Equal("bool"))
			Expect(index).To(Equal(1))
			Expect(inverted).To(BeTrue())
		})

		It("should reject malformed names", func() {
			_, _, _, ok := machine.ParseGuardName("bool")
			Expect(ok).To(BeFalse())
			_, _, _, ok = machine.ParseGuardName("bool.x")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Validate", func() {
		var m *machine.Machine

		BeforeEach(func() {
			m = machine.Default()
		})

		It("should reject a machine without buses", func() {
			m.Buses = nil
			Expect(m.Validate()).To(MatchError(ContainSubstring("at least one bus")))
		})

		It("should reject a zero horizon", func() {
			m.Horizon = 0
			Expect(m.Validate()).To(MatchError(ContainSubstring("horizon")))
		})

		It("should reject delay slots that do not fit the horizon", func() {
			m.ControlUnit.DelaySlots = m.Horizon
			Expect(m.Validate()).To(MatchError(ContainSubstring("delay_slots")))
		})

		It("should reject duplicate unit names", func() {
			m.FunctionUnits[1].Name = "ALU"
			Expect(m.Validate()).To(MatchError(ContainSubstring("duplicate unit")))
		})

		It("should reject a bus wired to an unknown unit", func() {
			m.Buses[0].Units = []string{"FPU"}
			Expect(m.Validate()).To(MatchError(ContainSubstring("unknown unit")))
		})

		It("should reject a guard on an unknown register file", func() {
			m.Buses[0].Guards = []string{"pred.0"}
			Expect(m.Validate()).To(MatchError(ContainSubstring("unknown register file")))
		})

		It("should reject a guard index out of range", func() {
			m.Buses[0].Guards = []string{"bool.7"}
			Expect(m.Validate()).To(MatchError(ContainSubstring("out of range")))
		})

		It("should reject negative pipeline offsets", func() {
			m.FunctionUnits[2].Operations[0].Pipeline[0].Cycles = []int{-1}
			Expect(m.Validate()).To(MatchError(ContainSubstring("offsets")))
		})
	})

	Describe("Clone", func() {
		It("should produce an equal but independent copy", func() {
			m := machine.Default()
			c := m.Clone()
			Expect(c).To(Equal(m))

			c.Buses[0].Guards[0] = "bool.1"
			c.FunctionUnits[2].Operations[0].Pipeline[0].Cycles[0] = 5
			Expect(m.Buses[0].Guards[0]).To(Equal("bool.0"))
			Expect(m.FunctionUnits[2].Operations[0].Pipeline[0].Cycles[0]).To(Equal(0))
		})
	})

	Describe("Files", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "machine-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load JSON", func() {
			path := filepath.Join(tempDir, "m.json")
			Expect(machine.Default().Save(path)).To(Succeed())

			loaded, err := machine.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(machine.Default()))
		})

		It("should save and load YAML", func() {
			path := filepath.Join(tempDir, "m.yaml")
			Expect(machine.Default().Save(path)).To(Succeed())

			loaded, err := machine.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Buses).To(HaveLen(3))
			Expect(loaded.ControlUnit.DelaySlots).To(Equal(3))
		})

		It("should fill defaults for omitted fields", func() {
			data := []byte(`
name: tiny
buses:
  - name: B0
register_files:
  - name: RF
    size: 8
function_units:
  - name: ALU
    operations:
      - {name: add, inputs: 2, outputs: 1, latency: 1}
`)
			m, err := machine.Parse(data, machine.FormatYAML)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Horizon).To(Equal(machine.DefaultHorizon))
			Expect(m.RegisterFiles[0].ReadPorts).To(Equal(1))
			Expect(m.RegisterFiles[0].WritePorts).To(Equal(1))
		})

		It("should report a missing file", func() {
			_, err := machine.Load(filepath.Join(tempDir, "missing.json"))
			Expect(err).To(MatchError(ContainSubstring("failed to read machine file")))
		})

		It("should report an invalid description", func() {
			_, err := machine.Parse([]byte(`{"name": "empty"}`), machine.FormatJSON)
			Expect(err).To(MatchError(ContainSubstring("invalid machine description")))
		})

		It("should pick the format from the extension", func() {
			Expect(machine.FormatFromPath("a.YML")).To(Equal(machine.FormatYAML))
			Expect(machine.FormatFromPath("a.json")).To(Equal(machine.FormatJSON))
			Expect(machine.FormatFromPath("a")).To(Equal(machine.FormatJSON))
		})
	})

	Describe("LatencyTable", func() {
		It("should look up operation latencies", func() {
			table := machine.NewLatencyTable(machine.Default())

			l, ok := table.Latency("LSU", "LD")
			Expect(ok).To(BeTrue())
			Expect(l).To(Equal(3))

			_, ok = table.Latency("LSU", "mul")
			Expect(ok).To(BeFalse())

			Expect(table.MaxLatency()).To(Equal(3))
		})
	})
})
