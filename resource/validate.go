package resource

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/machine"
)

// ValidateMove checks that the machine can carry the move at all: its
// units exist, its indices are in range and at least one bus can transport
// it. Operand indices run from 1 to the operation's input count; result
// indices follow the operands.
func ValidateMove(m *machine.Machine, mv *ddg.Move) error {
	if err := validateTerminal(m, mv.Source, false); err != nil {
		return fmt.Errorf("m%d source %s: %w", mv.ID, mv.Source, err)
	}
	if err := validateTerminal(m, mv.Destination, true); err != nil {
		return fmt.Errorf("m%d destination %s: %w", mv.ID, mv.Destination, err)
	}

	t := NewTable(m)
	for b := range m.Buses {
		if _, err := t.collect(mv, t.LastCycle(mv), b, false); err == nil {
			return nil
		}
	}
	return fmt.Errorf("m%d: no bus can carry %s", mv.ID, mv)
}

// ValidateGraph runs ValidateMove over every move of the graph.
func ValidateGraph(m *machine.Machine, g *ddg.Graph) error {
	var errs []error
	for _, mv := range g.Moves() {
		if err := ValidateMove(m, mv); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateTerminal(m *machine.Machine, term ddg.Terminal, write bool) error {
	switch term.Kind {
	case ddg.TerminalRegister:
		rf, ok := m.RegisterFile(term.Unit)
		if !ok {
			return fmt.Errorf("unknown register file %q", term.Unit)
		}
		if term.Index < 0 || term.Index >= rf.Size {
			return fmt.Errorf("register index %d out of range [0, %d)", term.Index, rf.Size)
		}

	case ddg.TerminalOperand, ddg.TerminalResult:
		op, ok := m.Operation(term.Unit, term.Operation)
		if !ok {
			return fmt.Errorf("unknown operation %s.%s", term.Unit, term.Operation)
		}
		if term.Kind == ddg.TerminalOperand {
			if !write {
				return errors.New("operand ports cannot be read")
			}
			if term.Index < 1 || term.Index > op.Inputs {
				return fmt.Errorf("operand index %d out of range [1, %d]", term.Index, op.Inputs)
			}
		} else {
			if write {
				return errors.New("result ports cannot be written")
			}
			if term.Index <= op.Inputs || term.Index > op.Inputs+op.Outputs {
				return fmt.Errorf("result index %d out of range [%d, %d]",
					term.Index, op.Inputs+1, op.Inputs+op.Outputs)
			}
		}

	case ddg.TerminalImmediate:
		if write {
			return errors.New("immediates cannot be written")
		}

	case ddg.TerminalControl:
		if !write {
			return errors.New("control triggers cannot be read")
		}
		if term.Unit != m.ControlUnit.Name {
			return fmt.Errorf("unknown control unit %q", term.Unit)
		}

	case ddg.TerminalReturnAddress:
		if term.Unit != m.ControlUnit.Name {
			return fmt.Errorf("unknown control unit %q", term.Unit)
		}

	default:
		return fmt.Errorf("unknown terminal kind %q", term.Kind)
	}

	return nil
}
