package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leonpriest/impscan/internal/graph"
	"github.com/leonpriest/impscan/internal/modpath"
)

// RescanFunc re-runs a scan and returns the fresh graph.
type RescanFunc func(ctx context.Context) (*graph.Graph, error)

// Watch monitors the project tree and pushes rescanned graphs into the hub.
// Events are debounced so a burst of writes (editor save, git checkout)
// triggers one rescan. Blocks until the context is cancelled.
func Watch(ctx context.Context, root string, hub *Hub, rescan RescanFunc, debounce time.Duration, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addDirs(watcher, root, logger); err != nil {
		return err
	}
	logger.Info("watching for changes", "root", root, "debounce", debounce)

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			logger.Debug("fs event", "op", event.Op.String(), "path", event.Name)
			// New directories must be added to the watch so files created
			// inside them later are seen.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addDirs(watcher, event.Name, logger); err != nil {
						logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)

		case <-fire:
			logger.Info("change detected, rescanning", "root", root)
			g, err := rescan(ctx)
			if err != nil {
				logger.Error("rescan failed, keeping previous graph", "error", err)
				continue
			}
			hub.Update(g)
			logger.Info("graph updated", "modules", g.Len(), "cycles", len(g.CycleGroups()))
		}
	}
}

// relevant filters events down to ones that can change the import graph:
// anything touching a Python source file, plus directory creation/removal.
func relevant(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if filepath.Ext(base) == modpath.SourceExt {
		return true
	}
	// Directories have no extension; create/remove of one restructures the tree.
	return filepath.Ext(base) == "" &&
		(event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename))
}

// addDirs registers root and every non-hidden, non-environment subdirectory
// with the watcher. fsnotify watches are not recursive.
func addDirs(watcher *fsnotify.Watcher, root string, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unwatchable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || skippedDirs[name]) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Mirrors the scanner's fixed exclusion set: directories whose contents never
// contribute modules, so their churn should not trigger rescans.
var skippedDirs = map[string]bool{
	"venv":         true,
	"env":          true,
	"__pycache__":  true,
	"node_modules": true,
}
