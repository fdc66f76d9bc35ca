package benchmarks

import (
	"fmt"

	"github.com/sarchlab/ttasched/ddg"
)

// GetWorkloads returns the standard set of synthetic programs. Each one
// stresses a different resource or dependence pattern of the default
// machine.
func GetWorkloads() []Benchmark {
	return []Benchmark{
		registerCopies(12),
		dependencyChain(16),
		aluThroughput(8),
		longImmediates(6),
		multiplierPipeline(4),
		registerReuse(4),
	}
}

// GetCoreWorkloads returns a small set for quick checks.
func GetCoreWorkloads() []Benchmark {
	return []Benchmark{
		dependencyChain(8),
		aluThroughput(4),
		registerReuse(2),
	}
}

func raw(latency int) ddg.Edge {
	return ddg.Edge{Reason: ddg.ReasonRegister, Type: ddg.DepRAW, Latency: latency}
}

func operandOrder() ddg.Edge {
	return ddg.Edge{Reason: ddg.ReasonOperation, Type: ddg.DepRAW}
}

func mustConnect(g *ddg.Graph, tail, head ddg.MoveID, e ddg.Edge) {
	if _, err := g.ConnectNodes(tail, head, e); err != nil {
		panic(fmt.Sprintf("benchmark graph: %v", err))
	}
}

// 1. Register copies - independent moves limited by the single RF write port
func registerCopies(n int) Benchmark {
	return Benchmark{
		Name:        "register_copies",
		Description: fmt.Sprintf("%d independent RF copies - measures register file write port pressure", n),
		Build: func() *ddg.Graph {
			g := ddg.New()
			for i := 0; i < n; i++ {
				g.AddMove(g.AddGroup(fmt.Sprintf("copy%d", i)),
					ddg.Register("RF", i), ddg.Register("RF", i+16), nil)
			}
			return g
		},
		ExpectedLength: n,
	}
}

// 2. Dependency chain - every move reads what the previous one wrote
func dependencyChain(n int) Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: fmt.Sprintf("%d dependent copies - measures latency-bound scheduling", n),
		Build: func() *ddg.Graph {
			g := ddg.New()
			prev := ddg.MoveID(-1)
			for i := 0; i < n; i++ {
				mv := g.AddMove(g.AddGroup(fmt.Sprintf("link%d", i)),
					ddg.Register("RF", i), ddg.Register("RF", i+1), nil)
				if prev >= 0 {
					mustConnect(g, prev, mv, raw(1))
				}
				prev = mv
			}
			return g
		},
		ExpectedLength: n,
	}
}

// 3. ALU throughput - back-to-back adds competing for the ALU ports
func aluThroughput(n int) Benchmark {
	return Benchmark{
		Name:        "alu_throughput",
		Description: fmt.Sprintf("%d independent adds with short immediates - measures function unit port pressure", n),
		Build: func() *ddg.Graph {
			g := ddg.New()
			for i := 0; i < n; i++ {
				grp := g.AddGroup(fmt.Sprintf("add%d", i))
				a := g.AddMove(grp, ddg.Immediate(int64(i)), ddg.Operand("ALU", "add", 1, false), nil)
				b := g.AddMove(grp, ddg.Immediate(1), ddg.Operand("ALU", "add", 2, true), nil)
				wb := g.AddMove(grp, ddg.Result("ALU", "add", 3), ddg.Register("RF", i), nil)
				mustConnect(g, a, b, operandOrder())
				mustConnect(g, b, wb, raw(1))
			}
			return g
		},
		ExpectedLength: n + 1,
	}
}

// 4. Long immediates - constants too wide for any bus
func longImmediates(n int) Benchmark {
	return Benchmark{
		Name:        "long_immediates",
		Description: fmt.Sprintf("%d wide constants - measures immediate unit slot pressure", n),
		Build: func() *ddg.Graph {
			g := ddg.New()
			for i := 0; i < n; i++ {
				g.AddMove(g.AddGroup(fmt.Sprintf("const%d", i)),
					ddg.Immediate(int64(100000+i)), ddg.Register("RF", i), nil)
			}
			return g
		},
		ExpectedLength: n + 1,
	}
}

// 5. Multiplier pipeline - triggers that share a pipeline stage
func multiplierPipeline(n int) Benchmark {
	return Benchmark{
		Name:        "multiplier_pipeline",
		Description: fmt.Sprintf("%d independent multiplies - measures pipeline resource conflicts", n),
		Build: func() *ddg.Graph {
			g := ddg.New()
			for i := 0; i < n; i++ {
				grp := g.AddGroup(fmt.Sprintf("mul%d", i))
				a := g.AddMove(grp, ddg.Register("RF", 2*i), ddg.Operand("MUL", "mul", 1, false), nil)
				b := g.AddMove(grp, ddg.Register("RF", 2*i+1), ddg.Operand("MUL", "mul", 2, true), nil)
				wb := g.AddMove(grp, ddg.Result("MUL", "mul", 3), ddg.Register("RF", 16+i), nil)
				mustConnect(g, a, b, operandOrder())
				mustConnect(g, b, wb, raw(3))
			}
			return g
		},
		// Each multiply waits for the pipeline stage and for the previous
		// operand window to close.
		ExpectedLength: 2*n + 2,
	}
}

// 6. Register reuse - each register is redefined before its use is placed
func registerReuse(n int) Benchmark {
	return Benchmark{
		Name:        "register_reuse",
		Description: fmt.Sprintf("%d def/redef/use triples - measures antidependence pushes", n),
		Build: func() *ddg.Graph {
			g := ddg.New()
			for i := 0; i < n; i++ {
				reg := fmt.Sprintf("RF.%d", i+1)
				def := g.AddMove(g.AddGroup(fmt.Sprintf("def%d", i)),
					ddg.Immediate(1), ddg.Register("RF", i+1), nil)
				redef := g.AddMove(g.AddGroup(fmt.Sprintf("redef%d", i)),
					ddg.Immediate(7), ddg.Register("RF", i+1), nil)
				use := g.AddMove(g.AddGroup(fmt.Sprintf("use%d", i)),
					ddg.Register("RF", i+1), ddg.Register("RF", i+16), nil)

				mustConnect(g, def, use, raw(1))
				mustConnect(g, use, redef, ddg.Edge{
					Reason: ddg.ReasonRegister, Type: ddg.DepWAR, Latency: 1, Data: reg,
				})
				mustConnect(g, def, redef, ddg.Edge{
					Reason: ddg.ReasonRegister, Type: ddg.DepWAW, Latency: 1, Data: reg,
				})
			}
			return g
		},
	}
}
