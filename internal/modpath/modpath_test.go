package modpath

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFQN_PlainModule(t *testing.T) {
	root := filepath.Join("/", "proj")
	fqn, isPkg, err := ToFQN(root, filepath.Join(root, "pkg", "sub", "mod.py"))
	require.NoError(t, err)
	assert.Equal(t, "pkg.sub.mod", fqn)
	assert.False(t, isPkg)
}

func TestToFQN_TopLevelModule(t *testing.T) {
	root := filepath.Join("/", "proj")
	fqn, isPkg, err := ToFQN(root, filepath.Join(root, "main.py"))
	require.NoError(t, err)
	assert.Equal(t, "main", fqn)
	assert.False(t, isPkg)
}

func TestToFQN_PackageInitializerCollapses(t *testing.T) {
	// pkg/__init__.py names the package itself, not pkg.__init__.
	root := filepath.Join("/", "proj")
	fqn, isPkg, err := ToFQN(root, filepath.Join(root, "pkg", "__init__.py"))
	require.NoError(t, err)
	assert.Equal(t, "pkg", fqn)
	assert.True(t, isPkg)
}

func TestToFQN_RootInitializerIsEmpty(t *testing.T) {
	root := filepath.Join("/", "proj")
	fqn, isPkg, err := ToFQN(root, filepath.Join(root, "__init__.py"))
	require.NoError(t, err)
	assert.Empty(t, fqn)
	assert.True(t, isPkg)
}

func TestToFQN_OutsideRootFails(t *testing.T) {
	root := filepath.Join("/", "proj")
	_, _, err := ToFQN(root, filepath.Join("/", "elsewhere", "mod.py"))
	require.Error(t, err)
}

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		name      string
		importer  string
		isPackage bool
		depth     int
		target    string
		want      string
		ok        bool
	}{
		// from .x import name, inside pkg.sub.mod
		{"single dot with target", "pkg.sub.mod", false, 1, "x", "pkg.sub.x", true},
		// from . import x resolves the base package; names are appended by the caller
		{"single dot bare", "pkg.sub.mod", false, 1, "", "pkg.sub", true},
		// from ..y import name
		{"double dot with target", "pkg.sub.mod", false, 2, "y", "pkg.y", true},
		{"double dot bare", "pkg.sub.mod", false, 2, "", "pkg", true},
		// a package initializer is its own containing package
		{"package importer single dot", "pkg.sub", true, 1, "x", "pkg.sub.x", true},
		{"package importer double dot", "pkg.sub", true, 2, "x", "pkg.x", true},
		// dotted target after the dots
		{"dotted target", "pkg.sub.mod", false, 1, "a.b", "pkg.sub.a.b", true},
		// ascending past the project root fails
		{"past root from top-level module", "a", false, 2, "z", "", false},
		{"past root from package", "pkg", true, 3, "z", "", false},
		{"bare dot at top level", "a", false, 1, "", "", false},
		{"zero depth is not relative", "pkg.mod", false, 0, "x", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveRelative(tt.importer, tt.isPackage, tt.depth, tt.target)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTopLevel(t *testing.T) {
	assert.Equal(t, "numpy", TopLevel("numpy.linalg"))
	assert.Equal(t, "os", TopLevel("os"))
}
