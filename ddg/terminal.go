package ddg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/ttasched/machine"
)

// TerminalKind identifies what a move reads from or writes to.
type TerminalKind string

const (
	// TerminalRegister is a general-purpose register of a register file.
	TerminalRegister TerminalKind = "reg"
	// TerminalOperand is an input port of a function unit.
	TerminalOperand TerminalKind = "operand"
	// TerminalResult is an output port of a function unit.
	TerminalResult TerminalKind = "result"
	// TerminalImmediate is a constant carried by the move itself.
	TerminalImmediate TerminalKind = "imm"
	// TerminalControl is the trigger of a control transfer.
	TerminalControl TerminalKind = "control"
	// TerminalReturnAddress is the return-address register of the control
	// unit.
	TerminalReturnAddress TerminalKind = "ra"
)

// Terminal is one end of a move.
type Terminal struct {
	Kind TerminalKind `json:"kind" yaml:"kind"`

	// Unit is the register file, function unit or control unit name.
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// Index is the register index for registers, or the operand/result
	// index for function unit ports.
	Index int `json:"index,omitempty" yaml:"index,omitempty"`

	// Operation names the operation an operand or result belongs to, or
	// the control transfer kind.
	Operation string `json:"operation,omitempty" yaml:"operation,omitempty"`

	// Value is the constant of an immediate terminal.
	Value int64 `json:"value,omitempty" yaml:"value,omitempty"`

	// Trigger marks the operand write that starts the operation.
	Trigger bool `json:"trigger,omitempty" yaml:"trigger,omitempty"`
}

// Register returns a register terminal.
func Register(unit string, index int) Terminal {
	return Terminal{Kind: TerminalRegister, Unit: unit, Index: index}
}

// Operand returns a function unit input terminal.
func Operand(unit, operation string, index int, trigger bool) Terminal {
	return Terminal{
		Kind:      TerminalOperand,
		Unit:      unit,
		Operation: operation,
		Index:     index,
		Trigger:   trigger,
	}
}

// Result returns a function unit output terminal.
func Result(unit, operation string, index int) Terminal {
	return Terminal{Kind: TerminalResult, Unit: unit, Operation: operation, Index: index}
}

// Immediate returns a constant terminal.
func Immediate(value int64) Terminal {
	return Terminal{Kind: TerminalImmediate, Value: value}
}

// Control returns a control transfer trigger on the named control unit.
func Control(unit, operation string) Terminal {
	return Terminal{Kind: TerminalControl, Unit: unit, Operation: operation, Trigger: true}
}

// ReturnAddress returns the return-address register of a control unit.
func ReturnAddress(unit string) Terminal {
	return Terminal{Kind: TerminalReturnAddress, Unit: unit}
}

// String formats the terminal the way it is shown in dumps.
func (t Terminal) String() string {
	switch t.Kind {
	case TerminalRegister:
		return fmt.Sprintf("%s.%d", t.Unit, t.Index)
	case TerminalOperand:
		s := fmt.Sprintf("%s.%s.%d", t.Unit, t.Operation, t.Index)
		if t.Trigger {
			s += "t"
		}
		return s
	case TerminalResult:
		return fmt.Sprintf("%s.%s.o%d", t.Unit, t.Operation, t.Index)
	case TerminalImmediate:
		return fmt.Sprintf("#%d", t.Value)
	case TerminalControl:
		return fmt.Sprintf("%s.%s", t.Unit, t.Operation)
	case TerminalReturnAddress:
		return fmt.Sprintf("%s.ra", t.Unit)
	default:
		return string(t.Kind)
	}
}

// ParseTerminal parses the notation String produces:
//
//	RF.3        register 3 of register file RF
//	ALU.add.1   operand 1 of add on ALU; a trailing t marks the trigger
//	ALU.add.o3  result 3 of add on ALU
//	#-4         immediate
//	GCU.ra      return-address register of control unit GCU
//	GCU.jump    control transfer
func ParseTerminal(s string) (Terminal, error) {
	if strings.HasPrefix(s, "#") {
		v, err := strconv.ParseInt(s[1:], 0, 64)
		if err != nil {
			return Terminal{}, fmt.Errorf("bad immediate %q: %w", s, err)
		}
		return Immediate(v), nil
	}

	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return Terminal{}, fmt.Errorf("bad terminal %q", s)
		}
	}

	switch len(parts) {
	case 2:
		unit, rest := parts[0], parts[1]
		if idx, err := strconv.Atoi(rest); err == nil {
			return Register(unit, idx), nil
		}
		if rest == "ra" {
			return ReturnAddress(unit), nil
		}
		return Control(unit, rest), nil

	case 3:
		unit, op, port := parts[0], parts[1], parts[2]
		if strings.HasPrefix(port, "o") {
			idx, err := strconv.Atoi(port[1:])
			if err != nil {
				return Terminal{}, fmt.Errorf("bad result port in %q", s)
			}
			return Result(unit, op, idx), nil
		}
		trigger := strings.HasSuffix(port, "t")
		idx, err := strconv.Atoi(strings.TrimSuffix(port, "t"))
		if err != nil {
			return Terminal{}, fmt.Errorf("bad operand port in %q", s)
		}
		return Operand(unit, op, idx, trigger), nil
	}

	return Terminal{}, fmt.Errorf("bad terminal %q", s)
}

// ParseGuard parses a guard name such as "bool.0" or "!bool.0".
func ParseGuard(s string) (*Guard, error) {
	unit, idx, inv, ok := machine.ParseGuardName(s)
	if !ok {
		return nil, fmt.Errorf("bad guard %q", s)
	}
	return &Guard{Unit: unit, Index: idx, Inverted: inv}, nil
}

// Guard is the predicate of a conditional move.
type Guard struct {
	Unit     string `json:"unit" yaml:"unit"`
	Index    int    `json:"index" yaml:"index"`
	Inverted bool   `json:"inverted,omitempty" yaml:"inverted,omitempty"`
}

// Name returns the guard name buses list in machine.Bus.Guards.
func (g Guard) Name() string {
	return machine.GuardName(g.Unit, g.Index, g.Inverted)
}
