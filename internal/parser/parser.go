// Package parser extracts import statements from Python source files using a
// tree-sitter syntax tree. Parsing is purely static: the source is never
// executed, and imports nested inside functions, conditionals, or exception
// handlers are collected all the same.
package parser

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Import is one import statement found in a source file. Depth distinguishes
// the two closed variants: 0 for absolute imports ("import a.b",
// "from a.b import c"), >= 1 for relative ones (count of leading dots in
// "from ..a import c").
type Import struct {
	Path  string   // dotted module path; empty for bare "from . import x"
	Depth int      // leading dots; 0 means absolute
	Names []string // names pulled in by a from-import, for display only
	Alias string   // rebinding from "import x as y"; the edge target stays x
	Line  int      // 1-based source line
}

// Relative reports whether the import uses relative syntax.
func (imp Import) Relative() bool { return imp.Depth > 0 }

// Display renders the import target as written, e.g. "..pkg.y" or "os.path".
func (imp Import) Display() string {
	return strings.Repeat(".", imp.Depth) + imp.Path
}

// Result is the outcome of parsing one file.
type Result struct {
	Imports []Import
	// ParseError is set when the file contains syntax errors. The import
	// list is left empty so a broken file is never mistaken for a clean one
	// with zero imports.
	ParseError bool
}

// Parse builds a syntax tree for content and collects every import statement
// in it. The file is identified by path for error reporting only.
func Parse(ctx context.Context, content []byte, path string) (*Result, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: content is not valid UTF-8", path)
	}

	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parsing %s: no syntax tree produced", path)
	}
	if root.HasError() {
		return &Result{ParseError: true}, nil
	}

	res := &Result{}
	collect(root, content, res)
	return res, nil
}

// collect walks the whole tree so imports inside nested blocks are found too.
func collect(node *sitter.Node, content []byte, res *Result) {
	switch node.Type() {
	case "import_statement":
		processImport(node, content, res)
		return
	case "import_from_statement":
		processFromImport(node, content, res)
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collect(node.Child(i), content, res)
	}
}

// processImport handles "import a.b" and "import a.b as c". Each dotted name
// in a multi-target statement yields its own Import.
func processImport(node *sitter.Node, content []byte, res *Result) {
	line := int(node.StartPoint().Row) + 1
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			res.Imports = append(res.Imports, Import{
				Path: text(child, content),
				Line: line,
			})
		case "aliased_import":
			var path, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					path = text(gc, content)
				case "identifier":
					alias = text(gc, content)
				}
			}
			if path != "" {
				res.Imports = append(res.Imports, Import{
					Path:  path,
					Alias: alias,
					Line:  line,
				})
			}
		}
	}
}

// processFromImport handles "from a.b import c", "from . import x", and
// "from ..a import b as c". Only the base module path matters for graph
// edges; imported names are kept for raw listings.
func processFromImport(node *sitter.Node, content []byte, res *Result) {
	imp := Import{Line: int(node.StartPoint().Row) + 1}
	sawImport := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "relative_import":
			// import_prefix holds the dots, dotted_name the optional path.
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "import_prefix":
					imp.Depth = len(text(gc, content))
				case "dotted_name":
					imp.Path = text(gc, content)
				}
			}
		case "dotted_name":
			if !sawImport {
				imp.Path = text(child, content)
			} else {
				imp.Names = append(imp.Names, text(child, content))
			}
		case "identifier":
			if sawImport {
				imp.Names = append(imp.Names, text(child, content))
			}
		case "aliased_import":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() == "dotted_name" || gc.Type() == "identifier" {
					imp.Names = append(imp.Names, text(gc, content))
					break
				}
			}
		case "wildcard_import":
			imp.Names = append(imp.Names, "*")
		}
	}

	if imp.Path != "" || imp.Depth > 0 {
		res.Imports = append(res.Imports, imp)
	}
}

func text(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}
