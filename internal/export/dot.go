package export

import (
	"fmt"
	"strings"

	"github.com/leonpriest/impscan/internal/graph"
)

// Dot renders the graph in Graphviz DOT form: box nodes, cycle members
// filled red, externals gray-blue. Package initializers with no imports and
// no importers are omitted to keep the picture readable.
func Dot(g *graph.Graph, opts Options) string {
	var b strings.Builder
	b.WriteString("digraph imports {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled];\n")

	shown := visibleModules(g, opts)

	for _, m := range shown {
		color := "lightgray"
		switch {
		case m.InCycle:
			color = "red"
		case !m.Internal:
			color = "lightblue"
		}
		fmt.Fprintf(&b, "  %q [fillcolor=%q];\n", m.FQN, color)
	}

	for _, m := range shown {
		if !m.Internal {
			continue
		}
		for _, target := range g.Targets(m.ID) {
			if !target.Internal && !opts.IncludeExternal {
				continue
			}
			fmt.Fprintf(&b, "  %q -> %q;\n", m.FQN, target.FQN)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// visibleModules returns the modules an export should show, sorted by fqn:
// externals only when requested, and empty unreferenced package initializers
// dropped.
func visibleModules(g *graph.Graph, opts Options) []*graph.Module {
	referenced := make(map[int]bool)
	for _, m := range g.Modules() {
		for _, t := range g.Targets(m.ID) {
			referenced[t.ID] = true
		}
	}

	var shown []*graph.Module
	for _, m := range g.Modules() {
		if !m.Internal && !opts.IncludeExternal {
			continue
		}
		if m.IsPackage && len(m.RawImports) == 0 && !referenced[m.ID] {
			continue
		}
		shown = append(shown, m)
	}
	return shown
}
