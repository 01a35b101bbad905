// Package scanner walks a Python project tree, extracts imports per file, and
// assembles the dependency graph. A scan is a one-shot synchronous batch: it
// owns graph construction, returns a brand-new graph every time, and keeps no
// state between runs.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leonpriest/impscan/internal/graph"
	"github.com/leonpriest/impscan/internal/modpath"
	"github.com/leonpriest/impscan/internal/parser"
)

// ErrProjectNotFound reports a root path that is missing or not a directory.
// It is the only error class that aborts a scan; per-file problems become
// warnings on the result instead.
var ErrProjectNotFound = errors.New("project root not found")

// Options controls a scan.
type Options struct {
	// Exclude adds directory names to the fixed exclusion set.
	Exclude []string
}

// Directory names that are never descended into, regardless of config.
var fixedExclusions = map[string]bool{
	"venv":         true,
	".venv":        true,
	"env":          true,
	".env":         true,
	"__pycache__":  true,
	".git":         true,
	".hg":          true,
	".svn":         true,
	".tox":         true,
	"node_modules": true,
}

// Scan analyzes the project rooted at root and returns its dependency graph
// with cycle annotations applied. The context is checked at file boundaries,
// so a caller may abandon a scan between files.
func Scan(ctx context.Context, root string, opts Options, logger *slog.Logger) (*graph.Graph, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrProjectNotFound, root)
	}

	excluded := make(map[string]bool, len(fixedExclusions)+len(opts.Exclude))
	for name := range fixedExclusions {
		excluded[name] = true
	}
	for _, name := range opts.Exclude {
		excluded[name] = true
	}

	files, err := listSourceFiles(root, excluded, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("source files enumerated", "root", root, "files", len(files))

	g := graph.New()

	// First pass: register every module so absolute imports can be matched
	// against the full set of project fqns.
	type source struct {
		path      string
		fqn       string
		isPackage bool
	}
	sources := make([]source, 0, len(files))
	for _, path := range files {
		fqn, isPackage, err := modpath.ToFQN(root, path)
		if err != nil || fqn == "" {
			// A root-level __init__.py has no dotted name of its own.
			logger.Debug("skipping unnameable file", "path", path)
			continue
		}
		g.AddModule(fqn, path, true, isPackage)
		sources = append(sources, source{path: path, fqn: fqn, isPackage: isPackage})
	}

	// Second pass: parse each file and resolve its imports to edges.
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan canceled: %w", err)
		}
		scanFile(ctx, g, src.path, src.fqn, src.isPackage, logger)
	}

	g.DetectCycles()
	logger.Info("scan complete",
		"modules", g.Len(),
		"edges", g.EdgeCount(),
		"cycles", len(g.CycleGroups()),
		"warnings", len(g.Warnings()))
	return g, nil
}

// listSourceFiles enumerates *.py files under root, pruning excluded, hidden,
// and virtual-environment directories. WalkDir visits lexically, which keeps
// the file order deterministic.
func listSourceFiles(root string, excluded map[string]bool, logger *slog.Logger) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped, not fatal.
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if excluded[name] || strings.HasPrefix(name, ".") || isVirtualEnv(path) {
				logger.Debug("pruning directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) == modpath.SourceExt {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// isVirtualEnv detects virtualenvs that carry an unusual directory name by
// the pyvenv.cfg marker file they all contain.
func isVirtualEnv(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "pyvenv.cfg"))
	return err == nil
}

// scanFile parses one source file and adds its import edges to the graph.
// Read and parse failures degrade to warnings; the module stays registered
// either way so warnings always reference a known module.
func scanFile(ctx context.Context, g *graph.Graph, path, fqn string, isPackage bool, logger *slog.Logger) {
	m, _ := g.Module(fqn)

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("unreadable source file", "path", path, "error", err)
		g.AddWarning(graph.Warning{FQN: fqn, Path: path, Kind: graph.WarnReadError, Message: err.Error()})
		return
	}

	res, err := parser.Parse(ctx, content, path)
	if err != nil {
		logger.Warn("parse failed", "path", path, "error", err)
		m.ParseError = true
		g.AddWarning(graph.Warning{FQN: fqn, Path: path, Kind: graph.WarnParseError, Message: err.Error()})
		return
	}
	if res.ParseError {
		logger.Warn("syntax errors in source file", "path", path)
		m.ParseError = true
		g.AddWarning(graph.Warning{FQN: fqn, Path: path, Kind: graph.WarnParseError, Message: "file contains syntax errors"})
		return
	}

	for _, imp := range res.Imports {
		m.RawImports = append(m.RawImports, imp.Display())
		for _, target := range resolveImport(g, fqn, isPackage, imp) {
			g.AddEdge(m.ID, target.ID)
		}
	}
}

// resolveImport maps one extracted import onto graph nodes. Internal targets
// are matched against the registry of project fqns; everything unmatched —
// including relative imports that ascend past the root — degrades to an
// external node, never an error.
func resolveImport(g *graph.Graph, fqn string, isPackage bool, imp parser.Import) []*graph.Module {
	if !imp.Relative() {
		if m, found := g.Module(imp.Path); found && m.Internal {
			return []*graph.Module{m}
		}
		// External dependency: only the top-level package name is recorded.
		return []*graph.Module{g.AddModule(modpath.TopLevel(imp.Path), "", false, false)}
	}

	if imp.Path != "" {
		// from .mod import name — the dotted path after the dots is the target.
		resolved, ok := modpath.ResolveRelative(fqn, isPackage, imp.Depth, imp.Path)
		if ok {
			if m, found := g.Module(resolved); found && m.Internal {
				return []*graph.Module{m}
			}
		}
		// Unresolvable relative import: keep it visible as written.
		return []*graph.Module{g.AddModule(imp.Display(), "", false, false)}
	}

	// from . import x — each imported name is a candidate submodule of the
	// base package. A name that is not a module (an attribute of the package
	// initializer) falls back to the base package itself.
	base, baseOK := modpath.ResolveRelative(fqn, isPackage, imp.Depth, "")
	var targets []*graph.Module
	for _, name := range imp.Names {
		if name == "*" {
			continue
		}
		if sub, ok := modpath.ResolveRelative(fqn, isPackage, imp.Depth, name); ok {
			if m, found := g.Module(sub); found && m.Internal {
				targets = append(targets, m)
				continue
			}
		}
		if baseOK {
			if m, found := g.Module(base); found && m.Internal {
				targets = append(targets, m)
				continue
			}
		}
		targets = append(targets, g.AddModule(imp.Display()+name, "", false, false))
	}
	if len(targets) == 0 && baseOK {
		if m, found := g.Module(base); found && m.Internal {
			targets = append(targets, m)
		}
	}
	return targets
}
