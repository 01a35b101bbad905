package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/leonpriest/impscan/internal/graph"
)

// Summary writes the plain-text scan report: module counts, per-module
// import listing, cycle listing in arrow notation, and any warnings.
func Summary(w io.Writer, g *graph.Graph, opts Options) {
	internal, external := 0, 0
	for _, m := range g.Modules() {
		if m.Internal {
			internal++
		} else {
			external++
		}
	}
	fmt.Fprintf(w, "Scanned %d modules (%d internal, %d external)\n", g.Len(), internal, external)

	if ws := g.Warnings(); len(ws) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(ws))
		for _, warn := range ws {
			fmt.Fprintf(w, "  [%s] %s: %s\n", warn.Kind, warn.FQN, warn.Message)
		}
	}

	fmt.Fprintln(w, "\nModules:")
	for _, m := range g.Modules() {
		if !m.Internal {
			continue
		}
		marker := ""
		if m.InCycle {
			marker = " [cycle]"
		}
		if m.ParseError {
			marker += " [parse error]"
		}
		fmt.Fprintf(w, "  %s%s\n", m.FQN, marker)
		for _, target := range g.Targets(m.ID) {
			if !target.Internal && !opts.IncludeExternal {
				continue
			}
			kind := "internal"
			if !target.Internal {
				kind = "external"
			}
			fmt.Fprintf(w, "    -> %s (%s)\n", target.FQN, kind)
		}
	}

	paths := g.CyclePaths()
	if len(paths) == 0 {
		fmt.Fprintln(w, "\nNo import cycles detected.")
		return
	}
	fmt.Fprintf(w, "\nImport cycles (%d):\n", len(paths))
	for i, path := range paths {
		fmt.Fprintf(w, "  %d. %s\n", i+1, strings.Join(path, " → "))
	}
}
