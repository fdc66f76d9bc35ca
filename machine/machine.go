// Package machine describes the resources of a transport-triggered target:
// its transport buses, register files, function units, immediate units and
// control unit, plus the scheduling horizon.
//
// A Machine is plain data. It can be built in code, loaded from a JSON or
// YAML file with Load, and checked with Validate before it is handed to the
// scheduler.
package machine

import (
	"strconv"
	"strings"
)

// Bus is one transport bus. Every move occupies exactly one bus slot in the
// cycle it is scheduled in.
type Bus struct {
	// Name identifies the bus.
	Name string `json:"name" yaml:"name"`

	// ImmediateWidth is the width in bits of the short immediate field the
	// bus slot can carry. Immediates that do not fit need a long-immediate
	// slot from an immediate unit. Zero means no short immediates.
	ImmediateWidth int `json:"immediate_width" yaml:"immediate_width"`

	// Guards lists the guard names (for example "bool.0" or "!bool.0") the
	// bus can evaluate. A guarded move can only be carried by a bus that
	// lists its guard.
	Guards []string `json:"guards,omitempty" yaml:"guards,omitempty"`

	// Units lists the register files and function units the bus is wired
	// to. An empty list means the bus reaches every unit.
	Units []string `json:"units,omitempty" yaml:"units,omitempty"`
}

// Connects returns true if the bus is wired to the named unit.
func (b *Bus) Connects(unit string) bool {
	if len(b.Units) == 0 {
		return true
	}
	for _, u := range b.Units {
		if u == unit {
			return true
		}
	}
	return false
}

// HasGuard returns true if the bus can evaluate the named guard.
func (b *Bus) HasGuard(name string) bool {
	for _, g := range b.Guards {
		if g == name {
			return true
		}
	}
	return false
}

// FitsShortImmediate returns true if value can be encoded in the bus slot.
func (b *Bus) FitsShortImmediate(value int64) bool {
	return FitsSigned(value, b.ImmediateWidth)
}

// RegisterFile is a bank of registers with a limited number of ports.
type RegisterFile struct {
	Name       string `json:"name" yaml:"name"`
	Size       int    `json:"size" yaml:"size"`
	Width      int    `json:"width" yaml:"width"`
	ReadPorts  int    `json:"read_ports" yaml:"read_ports"`
	WritePorts int    `json:"write_ports" yaml:"write_ports"`
}

// PipelineUsage is one pipeline resource an operation holds, given as cycle
// offsets relative to the trigger cycle.
type PipelineUsage struct {
	Resource string `json:"resource" yaml:"resource"`
	Cycles   []int  `json:"cycles" yaml:"cycles"`
}

// Operation is an operation a function unit implements.
type Operation struct {
	Name string `json:"name" yaml:"name"`

	// Inputs and Outputs are the operand and result counts.
	Inputs  int `json:"inputs" yaml:"inputs"`
	Outputs int `json:"outputs" yaml:"outputs"`

	// Latency is the number of cycles from the trigger until the results
	// can be read.
	Latency int `json:"latency" yaml:"latency"`

	// Pipeline lists the internal resources the operation reserves.
	Pipeline []PipelineUsage `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`
}

// FunctionUnit is a unit with operand and result ports.
type FunctionUnit struct {
	Name       string      `json:"name" yaml:"name"`
	Operations []Operation `json:"operations" yaml:"operations"`
}

// Operation returns the named operation of the unit.
func (fu *FunctionUnit) Operation(name string) (*Operation, bool) {
	for i := range fu.Operations {
		if strings.EqualFold(fu.Operations[i].Name, name) {
			return &fu.Operations[i], true
		}
	}
	return nil, false
}

// ImmediateUnit provides long-immediate slots. A long immediate used in
// cycle c is written Latency cycles earlier.
type ImmediateUnit struct {
	Name    string `json:"name" yaml:"name"`
	Width   int    `json:"width" yaml:"width"`
	Slots   int    `json:"slots" yaml:"slots"`
	Latency int    `json:"latency" yaml:"latency"`
}

// ControlUnit executes control transfers and owns the return-address
// register.
type ControlUnit struct {
	Name       string `json:"name" yaml:"name"`
	DelaySlots int    `json:"delay_slots" yaml:"delay_slots"`
}

// Machine is a complete target description.
type Machine struct {
	Name           string          `json:"name" yaml:"name"`
	Buses          []Bus           `json:"buses" yaml:"buses"`
	RegisterFiles  []RegisterFile  `json:"register_files" yaml:"register_files"`
	FunctionUnits  []FunctionUnit  `json:"function_units" yaml:"function_units"`
	ImmediateUnits []ImmediateUnit `json:"immediate_units,omitempty" yaml:"immediate_units,omitempty"`
	ControlUnit    ControlUnit     `json:"control_unit" yaml:"control_unit"`

	// Horizon is the number of cycles the scheduler may use.
	Horizon int `json:"horizon" yaml:"horizon"`
}

// DefaultHorizon is used when a machine file leaves the horizon out.
const DefaultHorizon = 256

// Default returns a small three-bus machine with an ALU, a load-store unit,
// a pipelined multiplier, one long-immediate unit and a boolean register
// file for guards.
func Default() *Machine {
	return &Machine{
		Name: "minimal",
		Buses: []Bus{
			{Name: "B0", ImmediateWidth: 8, Guards: []string{"bool.0", "!bool.0"}},
			{Name: "B1", ImmediateWidth: 8, Guards: []string{"bool.0", "!bool.0"}},
			{Name: "B2"},
		},
		RegisterFiles: []RegisterFile{
			{Name: "RF", Size: 32, Width: 32, ReadPorts: 2, WritePorts: 1},
			{Name: "bool", Size: 2, Width: 1, ReadPorts: 1, WritePorts: 1},
		},
		FunctionUnits: []FunctionUnit{
			{
				Name: "ALU",
				Operations: []Operation{
					{Name: "add", Inputs: 2, Outputs: 1, Latency: 1},
					{Name: "sub", Inputs: 2, Outputs: 1, Latency: 1},
					{Name: "and", Inputs: 2, Outputs: 1, Latency: 1},
					{Name: "eq", Inputs: 2, Outputs: 1, Latency: 1},
				},
			},
			{
				Name: "LSU",
				Operations: []Operation{
					{Name: "ld", Inputs: 1, Outputs: 1, Latency: 3},
					{Name: "st", Inputs: 2, Outputs: 0, Latency: 1},
				},
			},
			{
				Name: "MUL",
				Operations: []Operation{
					{
						Name: "mul", Inputs: 2, Outputs: 1, Latency: 3,
						Pipeline: []PipelineUsage{{Resource: "mult", Cycles: []int{0, 1}}},
					},
				},
			},
		},
		ImmediateUnits: []ImmediateUnit{
			{Name: "IMM", Width: 32, Slots: 1, Latency: 1},
		},
		ControlUnit: ControlUnit{Name: "GCU", DelaySlots: 3},
		Horizon:     DefaultHorizon,
	}
}

// BusCount returns the number of transport buses.
func (m *Machine) BusCount() int {
	return len(m.Buses)
}

// RegisterFile returns the named register file.
func (m *Machine) RegisterFile(name string) (*RegisterFile, bool) {
	for i := range m.RegisterFiles {
		if m.RegisterFiles[i].Name == name {
			return &m.RegisterFiles[i], true
		}
	}
	return nil, false
}

// FunctionUnit returns the named function unit.
func (m *Machine) FunctionUnit(name string) (*FunctionUnit, bool) {
	for i := range m.FunctionUnits {
		if m.FunctionUnits[i].Name == name {
			return &m.FunctionUnits[i], true
		}
	}
	return nil, false
}

// Operation returns operation op of function unit fu.
func (m *Machine) Operation(fu, op string) (*Operation, bool) {
	unit, ok := m.FunctionUnit(fu)
	if !ok {
		return nil, false
	}
	return unit.Operation(op)
}

// ImmediateUnit returns the named immediate unit.
func (m *Machine) ImmediateUnit(name string) (*ImmediateUnit, bool) {
	for i := range m.ImmediateUnits {
		if m.ImmediateUnits[i].Name == name {
			return &m.ImmediateUnits[i], true
		}
	}
	return nil, false
}

// LastCycle is the last cycle a move may be scheduled in.
func (m *Machine) LastCycle() int {
	return m.Horizon - 1
}

// LastControlCycle is the last cycle a control transfer may be scheduled
// in so that its delay slots still fit inside the horizon.
func (m *Machine) LastControlCycle() int {
	return m.Horizon - 1 - m.ControlUnit.DelaySlots
}

// FitsSigned returns true if value fits a two's complement field of the
// given width.
func FitsSigned(value int64, width int) bool {
	if width <= 0 {
		return false
	}
	if width >= 64 {
		return true
	}
	limit := int64(1) << uint(width-1)
	return value >= -limit && value < limit
}

// GuardName formats the canonical guard name used in Bus.Guards.
func GuardName(unit string, index int, inverted bool) string {
	name := unit + "." + strconv.Itoa(index)
	if inverted {
		return "!" + name
	}
	return name
}

// ParseGuardName splits a guard name into its parts.
func ParseGuardName(name string) (unit string, index int, inverted bool, ok bool) {
	if strings.HasPrefix(name, "!") {
		inverted = true
		name = name[1:]
	}
	dot := strings.LastIndex(name, ".")
	if dot <= 0 || dot == len(name)-1 {
		return "", 0, false, false
	}
	idx, err := strconv.Atoi(name[dot+1:])
	if err != nil {
		return "", 0, false, false
	}
	return name[:dot], idx, inverted, true
}
