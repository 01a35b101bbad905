// Package modpath converts filesystem paths and relative-import syntax into
// fully-qualified dotted module names (fqns). All functions are pure string
// manipulation; classification against the filesystem happens in the scanner.
package modpath

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceExt is the recognized Python source extension.
const SourceExt = ".py"

// initModule is the package-initializer file name without extension.
const initModule = "__init__"

// ToFQN converts an absolute file path beneath root into its dotted module
// name. A package initializer collapses to its containing package:
// root/pkg/sub/__init__.py -> "pkg.sub", not "pkg.sub.__init__".
// isPackage reports whether the file was an initializer. A root-level
// __init__.py yields the empty fqn.
func ToFQN(root, path string) (fqn string, isPackage bool, err error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false, fmt.Errorf("relativizing %s: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false, fmt.Errorf("%s is outside project root %s", path, root)
	}

	rel = strings.TrimSuffix(rel, SourceExt)
	parts := strings.Split(rel, string(filepath.Separator))

	if parts[len(parts)-1] == initModule {
		parts = parts[:len(parts)-1]
		isPackage = true
	}
	return strings.Join(parts, "."), isPackage, nil
}

// ResolveRelative resolves a relative import written inside the module
// importer to an absolute fqn. depth is the count of leading dots and target
// the optional dotted path after them ("" for bare "from . import x" forms —
// the imported names are resolved by the caller against the base package).
//
// One dot means the importer's containing package; each extra dot walks one
// level further up. A package initializer is its own containing package.
// Resolution fails when the walk ascends past the project root.
func ResolveRelative(importer string, importerIsPackage bool, depth int, target string) (string, bool) {
	if depth < 1 {
		return "", false
	}

	var base []string
	if importer != "" {
		base = strings.Split(importer, ".")
	}
	if !importerIsPackage && len(base) > 0 {
		base = base[:len(base)-1]
	}

	up := depth - 1
	if up > len(base) {
		return "", false
	}
	base = base[:len(base)-up]

	if target != "" {
		base = append(base, strings.Split(target, ".")...)
	}
	if len(base) == 0 {
		return "", false
	}
	return strings.Join(base, "."), true
}

// TopLevel returns the first segment of a dotted module path. External
// dependencies are recorded under this name only.
func TopLevel(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}
