package machine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a description file encoding.
type Format string

const (
	// FormatJSON selects encoding/json.
	FormatJSON Format = "json"
	// FormatYAML selects gopkg.in/yaml.v3.
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode unmarshals data in the given format into v.
func Decode(data []byte, format Format, v any) error {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatJSON:
		return json.Unmarshal(data, v)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Encode marshals v in the given format.
func Encode(v any, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(v)
	case FormatJSON:
		return json.MarshalIndent(v, "", "  ")
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// Load reads a machine description from a JSON or YAML file and validates
// it.
func Load(path string) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine file: %w", err)
	}

	return Parse(data, FormatFromPath(path))
}

// Parse decodes and validates a machine description.
func Parse(data []byte, format Format) (*Machine, error) {
	m := &Machine{}
	if err := Decode(data, format, m); err != nil {
		return nil, fmt.Errorf("failed to parse machine description: %w", err)
	}

	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid machine description: %w", err)
	}

	return m, nil
}

// Save writes the machine description to path, choosing the encoding from
// the extension.
func (m *Machine) Save(path string) error {
	data, err := Encode(m, FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("failed to serialize machine description: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write machine file: %w", err)
	}

	return nil
}

// applyDefaults fills fields a hand-written description may omit.
func (m *Machine) applyDefaults() {
	if m.Horizon == 0 {
		m.Horizon = DefaultHorizon
	}
	for i := range m.RegisterFiles {
		rf := &m.RegisterFiles[i]
		if rf.ReadPorts == 0 {
			rf.ReadPorts = 1
		}
		if rf.WritePorts == 0 {
			rf.WritePorts = 1
		}
	}
	for i := range m.ImmediateUnits {
		if m.ImmediateUnits[i].Slots == 0 {
			m.ImmediateUnits[i].Slots = 1
		}
	}
}

// Validate checks that the description is usable by the scheduler.
func (m *Machine) Validate() error {
	if len(m.Buses) == 0 {
		return fmt.Errorf("machine must have at least one bus")
	}
	if m.Horizon <= 0 {
		return fmt.Errorf("horizon must be > 0")
	}
	if m.ControlUnit.DelaySlots < 0 {
		return fmt.Errorf("delay_slots must be >= 0")
	}
	if m.ControlUnit.DelaySlots >= m.Horizon {
		return fmt.Errorf("delay_slots must be < horizon")
	}

	units := make(map[string]bool)
	addUnit := func(name string) error {
		if name == "" {
			return fmt.Errorf("unit name must not be empty")
		}
		if units[name] {
			return fmt.Errorf("duplicate unit name %q", name)
		}
		units[name] = true
		return nil
	}

	for _, rf := range m.RegisterFiles {
		if err := addUnit(rf.Name); err != nil {
			return err
		}
		if rf.Size <= 0 {
			return fmt.Errorf("register file %s: size must be > 0", rf.Name)
		}
		if rf.ReadPorts <= 0 || rf.WritePorts <= 0 {
			return fmt.Errorf("register file %s: port counts must be > 0", rf.Name)
		}
	}

	for _, fu := range m.FunctionUnits {
		if err := addUnit(fu.Name); err != nil {
			return err
		}
		if err := fu.validate(); err != nil {
			return err
		}
	}

	for _, iu := range m.ImmediateUnits {
		if err := addUnit(iu.Name); err != nil {
			return err
		}
		if iu.Width <= 0 {
			return fmt.Errorf("immediate unit %s: width must be > 0", iu.Name)
		}
		if iu.Slots <= 0 {
			return fmt.Errorf("immediate unit %s: slots must be > 0", iu.Name)
		}
		if iu.Latency < 0 {
			return fmt.Errorf("immediate unit %s: latency must be >= 0", iu.Name)
		}
	}

	if m.ControlUnit.Name != "" {
		if err := addUnit(m.ControlUnit.Name); err != nil {
			return err
		}
	}

	busNames := make(map[string]bool)
	for _, b := range m.Buses {
		if b.Name == "" {
			return fmt.Errorf("bus name must not be empty")
		}
		if busNames[b.Name] {
			return fmt.Errorf("duplicate bus name %q", b.Name)
		}
		busNames[b.Name] = true

		if b.ImmediateWidth < 0 {
			return fmt.Errorf("bus %s: immediate_width must be >= 0", b.Name)
		}
		for _, u := range b.Units {
			if !units[u] {
				return fmt.Errorf("bus %s: unknown unit %q", b.Name, u)
			}
		}
		for _, g := range b.Guards {
			if err := m.validateGuard(g); err != nil {
				return fmt.Errorf("bus %s: %w", b.Name, err)
			}
		}
	}

	return nil
}

func (fu *FunctionUnit) validate() error {
	seen := make(map[string]bool)
	for _, op := range fu.Operations {
		key := strings.ToLower(op.Name)
		if key == "" {
			return fmt.Errorf("function unit %s: operation name must not be empty", fu.Name)
		}
		if seen[key] {
			return fmt.Errorf("function unit %s: duplicate operation %q", fu.Name, op.Name)
		}
		seen[key] = true

		if op.Inputs < 0 || op.Outputs < 0 {
			return fmt.Errorf("%s.%s: operand counts must be >= 0", fu.Name, op.Name)
		}
		if op.Latency < 0 {
			return fmt.Errorf("%s.%s: latency must be >= 0", fu.Name, op.Name)
		}
		for _, p := range op.Pipeline {
			if p.Resource == "" {
				return fmt.Errorf("%s.%s: pipeline resource name must not be empty", fu.Name, op.Name)
			}
			for _, c := range p.Cycles {
				if c < 0 {
					return fmt.Errorf("%s.%s: pipeline cycle offsets must be >= 0", fu.Name, op.Name)
				}
			}
		}
	}
	return nil
}

func (m *Machine) validateGuard(name string) error {
	unit, index, _, ok := ParseGuardName(name)
	if !ok {
		return fmt.Errorf("malformed guard %q", name)
	}
	rf, found := m.RegisterFile(unit)
	if !found {
		return fmt.Errorf("guard %q names unknown register file", name)
	}
	if index < 0 || index >= rf.Size {
		return fmt.Errorf("guard %q index out of range", name)
	}
	return nil
}

// Clone returns a deep copy of the Machine.
func (m *Machine) Clone() *Machine {
	c := *m

	c.Buses = make([]Bus, len(m.Buses))
	for i, b := range m.Buses {
		b.Guards = append([]string(nil), b.Guards...)
		b.Units = append([]string(nil), b.Units...)
		c.Buses[i] = b
	}

	c.RegisterFiles = append([]RegisterFile(nil), m.RegisterFiles...)
	c.ImmediateUnits = append([]ImmediateUnit(nil), m.ImmediateUnits...)

	c.FunctionUnits = make([]FunctionUnit, len(m.FunctionUnits))
	for i, fu := range m.FunctionUnits {
		ops := make([]Operation, len(fu.Operations))
		for j, op := range fu.Operations {
			var usages []PipelineUsage
			for _, p := range op.Pipeline {
				usages = append(usages, PipelineUsage{
					Resource: p.Resource,
					Cycles:   append([]int(nil), p.Cycles...),
				})
			}
			op.Pipeline = usages
			ops[j] = op
		}
		c.FunctionUnits[i] = FunctionUnit{Name: fu.Name, Operations: ops}
	}

	return &c
}
