// Package loader reads move programs: the groups, moves and dependence
// edges the scheduler works on, written as YAML or JSON.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/machine"
)

// Program is a move program as written in a file.
type Program struct {
	Name   string      `json:"name" yaml:"name"`
	Groups []GroupSpec `json:"groups" yaml:"groups"`
	Edges  []EdgeSpec  `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// GroupSpec is a group of moves.
type GroupSpec struct {
	Name  string     `json:"name" yaml:"name"`
	Moves []MoveSpec `json:"moves" yaml:"moves"`
}

// MoveSpec is one move. Source and destination use the terminal notation
// of ddg.ParseTerminal. Bus and Cycle pre-place the move.
type MoveSpec struct {
	Label string `json:"label" yaml:"label"`
	Src   string `json:"src" yaml:"src"`
	Dst   string `json:"dst" yaml:"dst"`
	Guard string `json:"guard,omitempty" yaml:"guard,omitempty"`
	Bus   *int   `json:"bus,omitempty" yaml:"bus,omitempty"`
	Cycle *int   `json:"cycle,omitempty" yaml:"cycle,omitempty"`
}

// EdgeSpec is a dependence between two labelled moves. Reason defaults to
// register and Type to raw.
type EdgeSpec struct {
	From    string  `json:"from" yaml:"from"`
	To      string  `json:"to" yaml:"to"`
	Reason  string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	Type    string  `json:"type,omitempty" yaml:"type,omitempty"`
	Latency Latency `json:"latency,omitempty" yaml:"latency,omitempty"`
	Data    string  `json:"data,omitempty" yaml:"data,omitempty"`
	Guard   bool    `json:"guard,omitempty" yaml:"guard,omitempty"`
}

// Latency is an edge latency: a cycle count, or "auto" for the latency of
// the operation the tail move triggers.
type Latency struct {
	Cycles int
	Auto   bool
}

// Auto is the latency that is looked up from the machine.
var Auto = Latency{Auto: true}

func (l Latency) String() string {
	if l.Auto {
		return "auto"
	}
	return strconv.Itoa(l.Cycles)
}

func (l *Latency) parse(s string) error {
	if s == "auto" {
		*l = Auto
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("latency must be a number or auto, got %q", s)
	}
	*l = Latency{Cycles: n}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Latency) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: latency must be a scalar", value.Line)
	}
	return l.parse(value.Value)
}

// MarshalYAML implements yaml.Marshaler.
func (l Latency) MarshalYAML() (interface{}, error) {
	if l.Auto {
		return "auto", nil
	}
	return l.Cycles, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Latency) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return l.parse(s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("latency must be a number or \"auto\"")
	}
	*l = Latency{Cycles: n}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Latency) MarshalJSON() ([]byte, error) {
	if l.Auto {
		return []byte(`"auto"`), nil
	}
	return []byte(strconv.Itoa(l.Cycles)), nil
}

// IsZero lets omitempty drop a zero latency.
func (l Latency) IsZero() bool {
	return !l.Auto && l.Cycles == 0
}

// Load reads a move program from a JSON or YAML file.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}
	return Parse(data, machine.FormatFromPath(path))
}

// Parse decodes a move program.
func Parse(data []byte, format machine.Format) (*Program, error) {
	p := &Program{}
	if err := machine.Decode(data, format, p); err != nil {
		return nil, fmt.Errorf("failed to parse program: %w", err)
	}
	return p, nil
}

// Save writes the program to path, choosing the encoding from the
// extension.
func (p *Program) Save(path string) error {
	data, err := machine.Encode(p, machine.FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("failed to serialize program: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write program file: %w", err)
	}
	return nil
}

// Built is a program turned into a dependence graph.
type Built struct {
	Graph *ddg.Graph

	// Labels maps move labels to move IDs; Names is the inverse.
	Labels map[string]ddg.MoveID
	Names  []string
}

// Build turns the program into a dependence graph. Latencies written as
// auto are looked up in the latency table.
func (p *Program) Build(latencies *machine.LatencyTable) (*Built, error) {
	b := &Built{Graph: ddg.New(), Labels: make(map[string]ddg.MoveID)}

	if len(p.Groups) == 0 {
		return nil, errors.New("program has no groups")
	}

	for gi, gs := range p.Groups {
		if len(gs.Moves) == 0 {
			return nil, fmt.Errorf("group %d (%s) has no moves", gi, gs.Name)
		}
		gid := b.Graph.AddGroup(gs.Name)
		for mi, ms := range gs.Moves {
			if err := b.addMove(gid, ms); err != nil {
				return nil, fmt.Errorf("group %s move %d: %w", gs.Name, mi, err)
			}
		}
	}

	for i, es := range p.Edges {
		if err := b.addEdge(es, latencies); err != nil {
			return nil, fmt.Errorf("edge %d (%s -> %s): %w", i, es.From, es.To, err)
		}
	}

	return b, nil
}

func (b *Built) addMove(gid ddg.GroupID, ms MoveSpec) error {
	src, err := ddg.ParseTerminal(ms.Src)
	if err != nil {
		return fmt.Errorf("src: %w", err)
	}
	dst, err := ddg.ParseTerminal(ms.Dst)
	if err != nil {
		return fmt.Errorf("dst: %w", err)
	}

	var guard *ddg.Guard
	if ms.Guard != "" {
		if guard, err = ddg.ParseGuard(ms.Guard); err != nil {
			return err
		}
	}

	label := ms.Label
	if label == "" {
		label = fmt.Sprintf("m%d", b.Graph.MoveCount())
	}
	if _, dup := b.Labels[label]; dup {
		return fmt.Errorf("duplicate label %q", label)
	}

	id := b.Graph.AddMove(gid, src, dst, guard)
	b.Labels[label] = id
	b.Names = append(b.Names, label)

	if (ms.Bus == nil) != (ms.Cycle == nil) {
		return errors.New("a pre-placed move needs both bus and cycle")
	}
	if ms.Bus != nil {
		mv := b.Graph.Move(id)
		mv.Bus, mv.Cycle = *ms.Bus, *ms.Cycle
	}

	return nil
}

func (b *Built) addEdge(es EdgeSpec, latencies *machine.LatencyTable) error {
	tail, ok := b.Labels[es.From]
	if !ok {
		return fmt.Errorf("unknown move %q", es.From)
	}
	head, ok := b.Labels[es.To]
	if !ok {
		return fmt.Errorf("unknown move %q", es.To)
	}

	e := ddg.Edge{
		Reason: ddg.Reason(es.Reason),
		Type:   ddg.DepType(es.Type),
		Data:   es.Data,
		Guard:  es.Guard,
	}
	if e.Reason == "" {
		e.Reason = ddg.ReasonRegister
	}
	if e.Type == "" {
		e.Type = ddg.DepRAW
	}
	if err := checkEdgeKind(e); err != nil {
		return err
	}

	if es.Latency.Auto {
		dst := b.Graph.Move(tail).Destination
		if !b.Graph.Move(tail).IsTrigger() {
			return errors.New("auto latency needs a tail that triggers an operation")
		}
		lat, ok := latencies.Latency(dst.Unit, dst.Operation)
		if !ok {
			return fmt.Errorf("no latency for %s.%s", dst.Unit, dst.Operation)
		}
		e.Latency = lat
	} else {
		e.Latency = es.Latency.Cycles
	}
	if e.Latency < 0 {
		return errors.New("latency must be >= 0")
	}

	_, err := b.Graph.ConnectNodes(tail, head, e)
	return err
}

func checkEdgeKind(e ddg.Edge) error {
	switch e.Reason {
	case ddg.ReasonRegister, ddg.ReasonReturnAddress, ddg.ReasonControl,
		ddg.ReasonMemory, ddg.ReasonOperation:
	default:
		return fmt.Errorf("unknown reason %q", e.Reason)
	}
	switch e.Type {
	case ddg.DepRAW, ddg.DepWAR, ddg.DepWAW:
	default:
		return fmt.Errorf("unknown dependence type %q", e.Type)
	}
	return nil
}

// Name returns the label of a move.
func (b *Built) Name(id ddg.MoveID) string {
	if int(id) < 0 || int(id) >= len(b.Names) {
		return fmt.Sprintf("m%d", id)
	}
	return b.Names[id]
}
