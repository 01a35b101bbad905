// Package graph holds the dependency graph produced by a scan and the cycle
// detector that annotates it. Modules live in an arena indexed by integer id,
// with edges as id pairs, so the inherently cyclic structure never needs
// owning pointers between nodes.
package graph

import "sort"

// Module is one node in the dependency graph. Internal modules map to a
// source file under the project root; external dependencies are leaf nodes
// recorded under their top-level package name with no path.
type Module struct {
	ID        int
	FQN       string
	Path      string // absolute source path; empty for external packages
	Internal  bool
	IsPackage bool // the module is a package initializer

	// RawImports lists import statements as written, in file order, with
	// duplicates kept for display. Resolved edge targets live in the edge set.
	RawImports []string

	ParseError bool

	InCycle    bool
	CycleGroup int // index into CycleGroups; -1 when acyclic
}

// WarningKind classifies per-file problems that did not abort the scan.
type WarningKind string

const (
	WarnReadError  WarningKind = "read-error"
	WarnParseError WarningKind = "parse-error"
)

// Warning records a recovered per-file failure. The referenced module is
// always present in the registry, even if import-less.
type Warning struct {
	FQN     string
	Path    string
	Kind    WarningKind
	Message string
}

// Graph is a complete scan result. The scanner is the sole writer; consumers
// treat it as read-only. A rescan builds a brand-new Graph.
type Graph struct {
	modules []*Module
	index   map[string]int
	edges   map[int]map[int]struct{}

	warnings []Warning

	cycleGroups [][]string // sorted member fqns per group, in report order
	cyclePaths  [][]string // one concrete traversal per group, closed (A..A)
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		edges: make(map[int]map[int]struct{}),
	}
}

// AddModule registers a module under fqn, or returns the existing record.
// An external placeholder is upgraded in place when the same fqn later turns
// out to be internal (it never happens the other way around: the scanner
// registers all internal modules before resolving imports).
func (g *Graph) AddModule(fqn, path string, internal, isPackage bool) *Module {
	if id, ok := g.index[fqn]; ok {
		m := g.modules[id]
		if internal && !m.Internal {
			m.Internal = true
			m.Path = path
			m.IsPackage = isPackage
		}
		return m
	}
	m := &Module{
		ID:         len(g.modules),
		FQN:        fqn,
		Path:       path,
		Internal:   internal,
		IsPackage:  isPackage,
		CycleGroup: -1,
	}
	g.modules = append(g.modules, m)
	g.index[fqn] = m.ID
	return m
}

// AddEdge records a directed import edge. Duplicate edges collapse (set
// semantics); the per-module raw import list keeps the duplicates.
func (g *Graph) AddEdge(from, to int) {
	set, ok := g.edges[from]
	if !ok {
		set = make(map[int]struct{})
		g.edges[from] = set
	}
	set[to] = struct{}{}
}

// AddWarning attaches a recovered per-file problem to the result.
func (g *Graph) AddWarning(w Warning) {
	g.warnings = append(g.warnings, w)
}

// Module looks a module up by fqn.
func (g *Graph) Module(fqn string) (*Module, bool) {
	id, ok := g.index[fqn]
	if !ok {
		return nil, false
	}
	return g.modules[id], true
}

// ByID returns the module with the given arena id.
func (g *Graph) ByID(id int) *Module { return g.modules[id] }

// Len returns the number of registered modules, external ones included.
func (g *Graph) Len() int { return len(g.modules) }

// Modules returns all modules sorted by fqn.
func (g *Graph) Modules() []*Module {
	out := make([]*Module, len(g.modules))
	copy(out, g.modules)
	sort.Slice(out, func(i, j int) bool { return out[i].FQN < out[j].FQN })
	return out
}

// Targets returns the resolved edge targets of a module, sorted by fqn.
func (g *Graph) Targets(id int) []*Module {
	set := g.edges[id]
	out := make([]*Module, 0, len(set))
	for to := range set {
		out = append(out, g.modules[to])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FQN < out[j].FQN })
	return out
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to int) bool {
	_, ok := g.edges[from][to]
	return ok
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, set := range g.edges {
		n += len(set)
	}
	return n
}

// Warnings returns the recovered per-file problems, in scan order.
func (g *Graph) Warnings() []Warning { return g.warnings }

// CycleGroups returns the detected cycle groups, each a sorted list of member
// fqns, ordered by the lexicographically smallest member.
func (g *Graph) CycleGroups() [][]string { return g.cycleGroups }

// CyclePaths returns, per cycle group, one concrete traversal of the cycle
// closed back on its start, e.g. [a b c a], suitable for arrow rendering.
func (g *Graph) CyclePaths() [][]string { return g.cyclePaths }
