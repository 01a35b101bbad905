// Package export renders a dependency graph for external consumers: a JSON
// snapshot, Graphviz DOT, a Mermaid flowchart, and a plain-text summary. All
// renderings are deterministic for an unchanged graph.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/leonpriest/impscan/internal/graph"
)

// Options controls which nodes appear in an export.
type Options struct {
	// IncludeExternal adds external packages (and edges to them) to the output.
	IncludeExternal bool
}

// ModuleRecord is the serialized form of one module.
type ModuleRecord struct {
	FQN        string   `json:"fqn"`
	Path       string   `json:"path"`
	Imports    []string `json:"imports"`
	IsExternal bool     `json:"is_external"`
	InCycle    bool     `json:"in_cycle"`
	CycleGroup *int     `json:"cycle_group"`
}

// WarningRecord is the serialized form of one scan warning.
type WarningRecord struct {
	FQN     string `json:"fqn"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Snapshot is the full JSON export: an append-only snapshot of one scan,
// never a diff.
type Snapshot struct {
	Modules  []ModuleRecord  `json:"modules"`
	Cycles   [][]string      `json:"cycles"`
	Warnings []WarningRecord `json:"warnings,omitempty"`
}

// BuildSnapshot converts a graph into its serialized form. Modules are sorted
// by fqn; per-module imports list the resolved edge targets, also sorted.
func BuildSnapshot(g *graph.Graph, opts Options) Snapshot {
	snap := Snapshot{
		Modules: []ModuleRecord{},
		Cycles:  [][]string{},
	}
	for _, path := range g.CyclePaths() {
		snap.Cycles = append(snap.Cycles, path)
	}
	for _, w := range g.Warnings() {
		snap.Warnings = append(snap.Warnings, WarningRecord{
			FQN:     w.FQN,
			Kind:    string(w.Kind),
			Message: w.Message,
		})
	}

	for _, m := range g.Modules() {
		if !m.Internal && !opts.IncludeExternal {
			continue
		}
		rec := ModuleRecord{
			FQN:        m.FQN,
			Path:       m.Path,
			Imports:    []string{},
			IsExternal: !m.Internal,
			InCycle:    m.InCycle,
		}
		if m.InCycle {
			group := m.CycleGroup
			rec.CycleGroup = &group
		}
		for _, target := range g.Targets(m.ID) {
			if !target.Internal && !opts.IncludeExternal {
				continue
			}
			rec.Imports = append(rec.Imports, target.FQN)
		}
		snap.Modules = append(snap.Modules, rec)
	}
	return snap
}

// WriteSnapshot writes the JSON snapshot of g to w.
func WriteSnapshot(w io.Writer, g *graph.Graph, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildSnapshot(g, opts)); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot parses a snapshot previously written by WriteSnapshot. It
// reconstructs the module set, edge set, and cycle memberships.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}
