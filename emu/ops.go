package emu

import (
	"fmt"
	"strings"
)

// Semantics computes the results of one operation from its operands.
// Operands are indexed from 0 here, while terminals number them from 1.
type Semantics func(in []int64, mem map[int64]int64) []int64

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func binary(f func(a, b int64) int64) Semantics {
	return func(in []int64, _ map[int64]int64) []int64 {
		return []int64{f(in[0], in[1])}
	}
}

var semantics = map[string]Semantics{
	"add": binary(func(a, b int64) int64 { return a + b }),
	"sub": binary(func(a, b int64) int64 { return a - b }),
	"mul": binary(func(a, b int64) int64 { return a * b }),
	"and": binary(func(a, b int64) int64 { return a & b }),
	"ior": binary(func(a, b int64) int64 { return a | b }),
	"or":  binary(func(a, b int64) int64 { return a | b }),
	"xor": binary(func(a, b int64) int64 { return a ^ b }),
	"shl": binary(func(a, b int64) int64 { return a << uint64(b&63) }),
	"shr": binary(func(a, b int64) int64 { return a >> uint64(b&63) }),
	"shru": binary(func(a, b int64) int64 {
		return int64(uint64(a) >> uint64(b&63))
	}),
	"eq":  binary(func(a, b int64) int64 { return boolValue(a == b) }),
	"gt":  binary(func(a, b int64) int64 { return boolValue(a > b) }),
	"gtu": binary(func(a, b int64) int64 { return boolValue(uint64(a) > uint64(b)) }),
	"ld": func(in []int64, mem map[int64]int64) []int64 {
		return []int64{mem[in[0]]}
	},
	// st takes the address first and the value as the trigger.
	"st": func(in []int64, mem map[int64]int64) []int64 {
		mem[in[0]] = in[1]
		return nil
	},
}

// Lookup returns the semantics of an operation by name. Names are matched
// without regard to case.
func Lookup(operation string) (Semantics, error) {
	f, ok := semantics[strings.ToLower(operation)]
	if !ok {
		return nil, fmt.Errorf("no semantics for operation %q", operation)
	}
	return f, nil
}
