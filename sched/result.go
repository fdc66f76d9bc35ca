package sched

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/resource"
)

// Placement is where one move ended up.
type Placement struct {
	Move  ddg.MoveID  `json:"move" yaml:"move"`
	Group ddg.GroupID `json:"group" yaml:"group"`
	Bus   int         `json:"bus" yaml:"bus"`
	Cycle int         `json:"cycle" yaml:"cycle"`
	Text  string      `json:"text" yaml:"text"`
}

// Schedule is a committed schedule.
type Schedule struct {
	Machine    string      `json:"machine" yaml:"machine"`
	Buses      []string    `json:"buses" yaml:"buses"`
	Placements []Placement `json:"placements" yaml:"placements"`

	// Length is the number of cycles from cycle 0 through the last
	// occupied cycle.
	Length int `json:"length" yaml:"length"`

	Stats Statistics `json:"stats" yaml:"stats"`
}

func (s *Scheduler) result() *Schedule {
	out := &Schedule{Machine: s.machine.Name, Stats: s.stats}
	for _, b := range s.machine.Buses {
		out.Buses = append(out.Buses, b.Name)
	}

	for _, mv := range s.graph.Moves() {
		out.Placements = append(out.Placements, Placement{
			Move:  mv.ID,
			Group: mv.Group,
			Bus:   mv.Bus,
			Cycle: mv.Cycle,
			Text:  fmt.Sprintf("%s -> %s", mv.Source, mv.Destination),
		})
		if mv.Cycle+1 > out.Length {
			out.Length = mv.Cycle + 1
		}
	}

	return out
}

// Placement returns the placement of a move.
func (s *Schedule) Placement(id ddg.MoveID) (Placement, bool) {
	for _, p := range s.Placements {
		if p.Move == id {
			return p, true
		}
	}
	return Placement{}, false
}

// Rows returns the schedule as instructions: one row per cycle, one
// column per bus. Empty slots hold nil.
func (s *Schedule) Rows() [][]*Placement {
	rows := make([][]*Placement, s.Length)
	for i := range rows {
		rows[i] = make([]*Placement, len(s.Buses))
	}
	for i := range s.Placements {
		p := &s.Placements[i]
		rows[p.Cycle][p.Bus] = p
	}
	return rows
}

// WriteTable writes the instruction rows as an aligned text table.
func (s *Schedule) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprint(tw, "cycle")
	for _, b := range s.Buses {
		fmt.Fprintf(tw, "\t%s", b)
	}
	fmt.Fprintln(tw)

	for c, row := range s.Rows() {
		fmt.Fprintf(tw, "%d", c)
		for _, p := range row {
			if p == nil {
				fmt.Fprint(tw, "\t...")
				continue
			}
			fmt.Fprintf(tw, "\tm%d: %s", p.Move, p.Text)
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

// Verify checks a finished schedule: every move placed, every edge
// honoured, the true dependences acyclic and the resource table consistent
// with the placements.
func Verify(g *ddg.Graph, table *resource.Table) error {
	var errs []error

	for _, mv := range g.Moves() {
		if !mv.IsScheduled() {
			errs = append(errs, fmt.Errorf("m%d is not scheduled", mv.ID))
			continue
		}
		r, ok := table.Reservation(mv.ID)
		if !ok {
			errs = append(errs, fmt.Errorf("m%d has no reservation", mv.ID))
			continue
		}
		if r.Bus != mv.Bus || r.Cycle != mv.Cycle {
			errs = append(errs, fmt.Errorf("m%d placed on bus %d @%d but reserved on bus %d @%d",
				mv.ID, mv.Bus, mv.Cycle, r.Bus, r.Cycle))
		}
	}

	for _, e := range g.Violations() {
		errs = append(errs, fmt.Errorf("violated %s", e))
	}

	if err := g.CheckAcyclic(); err != nil {
		errs = append(errs, err)
	}
	if err := table.Verify(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
