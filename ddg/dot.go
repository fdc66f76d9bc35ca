package ddg

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteDot writes the graph in Graphviz format. Moves of one group share a
// cluster; false dependences are dashed.
func (g *Graph) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "digraph ddg {")
	fmt.Fprintln(bw, "  node [shape=box];")

	for _, grp := range g.groups {
		fmt.Fprintf(bw, "  subgraph cluster_%d {\n", grp.ID)
		fmt.Fprintf(bw, "    label=%s;\n", strconv.Quote(grp.Name))
		for _, mid := range grp.Moves {
			fmt.Fprintf(bw, "    m%d [label=%s];\n", mid, strconv.Quote(g.moves[mid].String()))
		}
		fmt.Fprintln(bw, "  }")
	}

	for _, e := range g.Edges() {
		style := "solid"
		if e.IsFalse() {
			style = "dashed"
		}
		label := fmt.Sprintf("%s:%s L%d", e.Type, e.Reason, e.Latency)
		if e.Data != "" {
			label += " " + e.Data
		}
		fmt.Fprintf(bw, "  m%d -> m%d [label=%s, style=%s];\n",
			e.Tail, e.Head, strconv.Quote(label), style)
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
