package export

import (
	"fmt"
	"strings"

	"github.com/leonpriest/impscan/internal/graph"
)

// Mermaid renders the graph as a Mermaid flowchart. Cycle members are
// classed red, external packages dashed gray.
func Mermaid(g *graph.Graph, opts Options) string {
	var b strings.Builder
	b.WriteString("flowchart LR\n")
	b.WriteString("    classDef cycleStyle fill:#8b0000,stroke:#5a0000,color:#fff\n")
	b.WriteString("    classDef externalStyle fill:#e8e8e8,stroke:#999,stroke-dasharray:4\n")

	shown := visibleModules(g, opts)

	for _, m := range shown {
		fmt.Fprintf(&b, "    %s[%q]\n", NodeID(m.FQN), m.FQN)
	}

	for _, m := range shown {
		if !m.Internal {
			continue
		}
		for _, target := range g.Targets(m.ID) {
			if !target.Internal && !opts.IncludeExternal {
				continue
			}
			fmt.Fprintf(&b, "    %s --> %s\n", NodeID(m.FQN), NodeID(target.FQN))
		}
	}

	for _, m := range shown {
		if m.InCycle {
			fmt.Fprintf(&b, "    class %s cycleStyle\n", NodeID(m.FQN))
		} else if !m.Internal {
			fmt.Fprintf(&b, "    class %s externalStyle\n", NodeID(m.FQN))
		}
	}

	return b.String()
}

// NodeID sanitizes an fqn into a Mermaid-safe node identifier.
func NodeID(fqn string) string {
	id := strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(fqn)
	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		id = "m_" + id
	}
	return id
}
