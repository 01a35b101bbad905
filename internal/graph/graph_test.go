package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddModule_Idempotent(t *testing.T) {
	g := New()
	a := g.AddModule("pkg.a", "/proj/pkg/a.py", true, false)
	again := g.AddModule("pkg.a", "/proj/pkg/a.py", true, false)
	assert.Same(t, a, again)
	assert.Equal(t, 1, g.Len())
}

func TestAddModule_ExternalUpgradesToInternal(t *testing.T) {
	// An fqn first seen as an import target and later found on disk keeps
	// one record, flipped to internal.
	g := New()
	ext := g.AddModule("pkg.a", "", false, false)
	assert.False(t, ext.Internal)

	in := g.AddModule("pkg.a", "/proj/pkg/a.py", true, false)
	assert.Same(t, ext, in)
	assert.True(t, in.Internal)
	assert.Equal(t, "/proj/pkg/a.py", in.Path)
}

func TestAddModule_InternalNeverDowngrades(t *testing.T) {
	g := New()
	in := g.AddModule("pkg.a", "/proj/pkg/a.py", true, false)
	g.AddModule("pkg.a", "", false, false)
	assert.True(t, in.Internal)
	assert.Equal(t, "/proj/pkg/a.py", in.Path)
}

func TestAddEdge_SetSemantics(t *testing.T) {
	g := New()
	a := g.AddModule("a", "/p/a.py", true, false)
	b := g.AddModule("b", "/p/b.py", true, false)
	g.AddEdge(a.ID, b.ID)
	g.AddEdge(a.ID, b.ID)
	g.AddEdge(a.ID, b.ID)
	assert.Equal(t, 1, g.EdgeCount())
	assert.True(t, g.HasEdge(a.ID, b.ID))
	assert.False(t, g.HasEdge(b.ID, a.ID))
}

func TestModules_SortedByFQN(t *testing.T) {
	g := New()
	g.AddModule("zeta", "/p/zeta.py", true, false)
	g.AddModule("alpha", "/p/alpha.py", true, false)
	g.AddModule("mid", "/p/mid.py", true, false)

	var fqns []string
	for _, m := range g.Modules() {
		fqns = append(fqns, m.FQN)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, fqns)
}

func TestTargets_Sorted(t *testing.T) {
	g := New()
	a := g.AddModule("a", "/p/a.py", true, false)
	z := g.AddModule("z", "/p/z.py", true, false)
	b := g.AddModule("b", "/p/b.py", true, false)
	g.AddEdge(a.ID, z.ID)
	g.AddEdge(a.ID, b.ID)

	targets := g.Targets(a.ID)
	require.Len(t, targets, 2)
	assert.Equal(t, "b", targets[0].FQN)
	assert.Equal(t, "z", targets[1].FQN)
}

func TestWarnings_Order(t *testing.T) {
	g := New()
	g.AddModule("a", "/p/a.py", true, false)
	g.AddWarning(Warning{FQN: "a", Kind: WarnReadError, Message: "permission denied"})
	g.AddWarning(Warning{FQN: "a", Kind: WarnParseError, Message: "syntax error"})

	ws := g.Warnings()
	require.Len(t, ws, 2)
	assert.Equal(t, WarnReadError, ws[0].Kind)
	assert.Equal(t, WarnParseError, ws[1].Kind)
}
