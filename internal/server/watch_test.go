package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonpriest/impscan/internal/export"
	"github.com/leonpriest/impscan/internal/graph"
	"github.com/leonpriest/impscan/internal/scanner"
)

func TestRelevant(t *testing.T) {
	cases := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"python write", fsnotify.Event{Name: "/p/mod.py", Op: fsnotify.Write}, true},
		{"python create", fsnotify.Event{Name: "/p/new.py", Op: fsnotify.Create}, true},
		{"chmod ignored", fsnotify.Event{Name: "/p/mod.py", Op: fsnotify.Chmod}, false},
		{"hidden file", fsnotify.Event{Name: "/p/.mod.py.swp", Op: fsnotify.Write}, false},
		{"text file write", fsnotify.Event{Name: "/p/notes.txt", Op: fsnotify.Write}, false},
		{"directory create", fsnotify.Event{Name: "/p/newpkg", Op: fsnotify.Create}, true},
		{"directory remove", fsnotify.Event{Name: "/p/oldpkg", Op: fsnotify.Remove}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, relevant(tc.event))
		})
	}
}

func TestWatch_RescansOnChange(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "app.py"), []byte("import db\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "db.py"), []byte("x = 1\n"), 0o644))

	logger := discard()
	g, err := scanner.Scan(context.Background(), tmp, scanner.Options{}, logger)
	require.NoError(t, err)
	hub := NewHub(g, export.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, tmp, hub, func(ctx context.Context) (*graph.Graph, error) {
			return scanner.Scan(ctx, tmp, scanner.Options{}, logger)
		}, 50*time.Millisecond, logger)
	}()

	// Give the watcher time to register before touching the tree.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "db.py"), []byte("import app\n"), 0o644))

	require.Eventually(t, func() bool {
		return hub.Revision() > 0
	}, 5*time.Second, 20*time.Millisecond, "watcher should trigger a rescan")

	snap := hub.Snapshot()
	require.Len(t, snap.Cycles, 1, "the rescanned graph sees the new cycle")

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_PicksUpNewDirectories(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "app.py"), []byte("x = 1\n"), 0o644))

	logger := discard()
	g, err := scanner.Scan(context.Background(), tmp, scanner.Options{}, logger)
	require.NoError(t, err)
	hub := NewHub(g, export.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, tmp, hub, func(ctx context.Context) (*graph.Graph, error) {
			return scanner.Scan(ctx, tmp, scanner.Options{}, logger)
		}, 50*time.Millisecond, logger)
	}()

	time.Sleep(100 * time.Millisecond)
	pkg := filepath.Join(tmp, "pkg")
	require.NoError(t, os.MkdirAll(pkg, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "__init__.py"), []byte(""), 0o644))

	require.Eventually(t, func() bool {
		for _, rec := range hub.Snapshot().Modules {
			if rec.FQN == "pkg" {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond, "module created in a new directory appears after rescan")

	cancel()
	require.NoError(t, <-done)
}
