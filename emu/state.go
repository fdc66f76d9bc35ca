// Package emu executes move programs functionally, either one move at a
// time in dependence order or cycle by cycle following a schedule.
package emu

import (
	"fmt"
	"sort"
)

// Location names an architectural register. The control unit's
// return-address register has a negative index.
type Location struct {
	Unit  string
	Index int
}

func (l Location) String() string {
	if l.Index < 0 {
		return l.Unit
	}
	return fmt.Sprintf("%s.%d", l.Unit, l.Index)
}

// Transfer is a control transfer the program performed.
type Transfer struct {
	Operation string
	Target    int64
}

// State is the architectural state a program leaves behind: registers,
// memory and the control transfers taken, in order.
type State struct {
	Registers map[Location]int64
	Memory    map[int64]int64
	Transfers []Transfer
}

// NewState creates an empty state. Every register and memory word reads 0.
func NewState() *State {
	return &State{
		Registers: make(map[Location]int64),
		Memory:    make(map[int64]int64),
	}
}

// ReadReg reads a register.
func (s *State) ReadReg(unit string, index int) int64 {
	return s.Registers[Location{Unit: unit, Index: index}]
}

// WriteReg writes a register.
func (s *State) WriteReg(unit string, index int, value int64) {
	s.Registers[Location{Unit: unit, Index: index}] = value
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := NewState()
	for k, v := range s.Registers {
		c.Registers[k] = v
	}
	for k, v := range s.Memory {
		c.Memory[k] = v
	}
	c.Transfers = append([]Transfer(nil), s.Transfers...)
	return c
}

// Diff lists every difference between two states, sorted. Missing entries
// compare as 0.
func (s *State) Diff(other *State) []string {
	var diffs []string

	locs := make(map[Location]bool)
	for l := range s.Registers {
		locs[l] = true
	}
	for l := range other.Registers {
		locs[l] = true
	}
	for l := range locs {
		if a, b := s.Registers[l], other.Registers[l]; a != b {
			diffs = append(diffs, fmt.Sprintf("%s: %d != %d", l, a, b))
		}
	}

	addrs := make(map[int64]bool)
	for a := range s.Memory {
		addrs[a] = true
	}
	for a := range other.Memory {
		addrs[a] = true
	}
	for a := range addrs {
		if x, y := s.Memory[a], other.Memory[a]; x != y {
			diffs = append(diffs, fmt.Sprintf("mem[%d]: %d != %d", a, x, y))
		}
	}

	if len(s.Transfers) != len(other.Transfers) {
		diffs = append(diffs, fmt.Sprintf("transfers: %d != %d",
			len(s.Transfers), len(other.Transfers)))
	} else {
		for i := range s.Transfers {
			if s.Transfers[i] != other.Transfers[i] {
				diffs = append(diffs, fmt.Sprintf("transfer %d: %v != %v",
					i, s.Transfers[i], other.Transfers[i]))
			}
		}
	}

	sort.Strings(diffs)
	return diffs
}
