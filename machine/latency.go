package machine

import "strings"

// LatencyTable provides operation latency lookups keyed by unit and
// operation name.
type LatencyTable struct {
	latencies  map[string]int
	maxLatency int
}

// NewLatencyTable builds a table from the operations of m.
func NewLatencyTable(m *Machine) *LatencyTable {
	t := &LatencyTable{latencies: make(map[string]int)}
	for _, fu := range m.FunctionUnits {
		for _, op := range fu.Operations {
			t.latencies[latencyKey(fu.Name, op.Name)] = op.Latency
			if op.Latency > t.maxLatency {
				t.maxLatency = op.Latency
			}
		}
	}
	return t
}

func latencyKey(fu, op string) string {
	return fu + "." + strings.ToLower(op)
}

// Latency returns the result latency of operation op on unit fu.
func (t *LatencyTable) Latency(fu, op string) (int, bool) {
	l, ok := t.latencies[latencyKey(fu, op)]
	return l, ok
}

// MaxLatency returns the largest latency of any operation on the machine.
func (t *LatencyTable) MaxLatency() int {
	return t.maxLatency
}
