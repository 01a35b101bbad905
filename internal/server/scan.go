package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leonpriest/impscan/internal/graph"
	"github.com/leonpriest/impscan/internal/resolver"
	"github.com/leonpriest/impscan/internal/scanner"
)

// ScanConfig holds parameters for the scan pipeline.
type ScanConfig struct {
	Input           string
	Exclude         []string
	IncludeExternal bool
}

// ScanResult is the outcome of one pipeline run.
type ScanResult struct {
	Graph *graph.Graph
	// Root is the resolved project directory, which the watcher monitors.
	Root string
	// IncludeExternal is the effective setting after merging the CLI flag
	// with the project config file.
	IncludeExternal bool
	// Exclude is the effective exclusion list, flag plus config file.
	Exclude []string
}

// RunScan executes the full resolve → config merge → scan pipeline and
// returns the result plus a cleanup function for the resolver.
func RunScan(ctx context.Context, cfg ScanConfig, logger *slog.Logger) (*ScanResult, func(), error) {
	logger = logger.With("component", "scan")

	logger.Info("resolving input", "input", cfg.Input)
	root, cleanup, err := resolver.Resolve(ctx, cfg.Input, logger)
	if err != nil {
		return nil, func() {}, fmt.Errorf("resolve: %w", err)
	}

	opts := scanner.Options{Exclude: cfg.Exclude}
	includeExternal := cfg.IncludeExternal
	fileCfg, err := scanner.LoadConfig(root)
	if err != nil {
		logger.Warn("ignoring malformed config file", "error", err)
	} else {
		opts.Exclude = append(opts.Exclude, fileCfg.Exclude...)
		if fileCfg.IncludeExternal != nil && !includeExternal {
			includeExternal = *fileCfg.IncludeExternal
		}
	}

	logger.Info("scanning project", "root", root)
	g, err := scanner.Scan(ctx, root, opts, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("scan: %w", err)
	}

	return &ScanResult{
		Graph:           g,
		Root:            root,
		IncludeExternal: includeExternal,
		Exclude:         opts.Exclude,
	}, cleanup, nil
}
