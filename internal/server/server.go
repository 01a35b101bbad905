// Package server hosts the interactive graph view: an HTML page backed by
// vis-network that fetches the current scan snapshot from /graph.json.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/leonpriest/impscan/internal/export"
	"github.com/leonpriest/impscan/internal/graph"
)

// Hub holds the latest scan result and hands out renderings of it. The
// watcher swaps in a fresh graph after every rescan; HTTP handlers read
// concurrently.
type Hub struct {
	mu   sync.RWMutex
	g    *graph.Graph
	opts export.Options
	rev  int
}

// NewHub wraps an initial scan result.
func NewHub(g *graph.Graph, opts export.Options) *Hub {
	return &Hub{g: g, opts: opts}
}

// Update swaps in a new graph and bumps the revision counter.
func (h *Hub) Update(g *graph.Graph) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.g = g
	h.rev++
}

// Revision returns the current update counter. The page polls it to know
// when to refetch the graph.
func (h *Hub) Revision() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rev
}

// Snapshot returns the serializable form of the current graph.
func (h *Hub) Snapshot() export.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return export.BuildSnapshot(h.g, h.opts)
}

// Dot returns the DOT rendering of the current graph.
func (h *Hub) Dot() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return export.Dot(h.g, h.opts)
}

// Mermaid returns the Mermaid rendering of the current graph.
func (h *Hub) Mermaid() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return export.Mermaid(h.g, h.opts)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>impscan — Import Graph</title>
  <style>
    *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }

    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      flex-direction: column;
      min-height: 100vh;
      background-color: #f8f9fa;
      color: #212529;
    }

    @media (prefers-color-scheme: dark) {
      body {
        background-color: #1a1a2e;
        color: #e0e0e0;
      }
      header { border-color: #444; }
    }

    header {
      display: flex;
      align-items: baseline;
      gap: 1rem;
      padding: 0.8rem 1rem;
      border-bottom: 1px solid #ccc;
    }

    h1 { font-size: 1.2rem; font-weight: 600; }

    .stats { font-size: 0.85rem; opacity: 0.8; }
    .cycles { font-size: 0.85rem; color: #c0392b; font-weight: 600; }

    #network {
      flex: 1;
      min-height: 0;
    }

    .legend {
      display: flex;
      gap: 1rem;
      padding: 0.4rem 1rem;
      font-size: 0.8rem;
    }
    .legend span::before {
      content: "■ ";
    }
    .legend .l-cycle { color: #c0392b; }
    .legend .l-external { color: #7f8c8d; }
    .legend .l-internal { color: #2980b9; }
  </style>
</head>
<body>
  <header>
    <h1>impscan — {{.Root}}</h1>
    <span class="stats" id="stats"></span>
    <span class="cycles" id="cycles"></span>
  </header>

  <div id="network"></div>

  <div class="legend">
    <span class="l-internal">internal module</span>
    <span class="l-cycle">cycle member</span>
    <span class="l-external">external package</span>
  </div>

  <script src="https://unpkg.com/vis-network@9.1.9/standalone/umd/vis-network.min.js"></script>
  <script>
    var network = null;
    var lastRev = -1;

    function render(snap) {
      var nodes = snap.modules.map(function(m) {
        var color = '#2980b9';
        var shape = 'box';
        if (m.in_cycle) { color = '#c0392b'; }
        else if (m.is_external) { color = '#7f8c8d'; shape = 'ellipse'; }
        return {
          id: m.fqn,
          label: m.fqn,
          shape: shape,
          color: { background: color, border: '#1a1a2e' },
          font: { color: '#ffffff' },
          title: m.path || '(external)'
        };
      });

      var edges = [];
      snap.modules.forEach(function(m) {
        (m.imports || []).forEach(function(target) {
          var inCycle = m.in_cycle && snap.modules.some(function(t) {
            return t.fqn === target && t.in_cycle && t.cycle_group === m.cycle_group;
          });
          edges.push({
            from: m.fqn,
            to: target,
            arrows: 'to',
            color: inCycle ? '#c0392b' : '#888'
          });
        });
      });

      var data = {
        nodes: new vis.DataSet(nodes),
        edges: new vis.DataSet(edges)
      };
      var options = {
        layout: { improvedLayout: true },
        physics: { stabilization: { iterations: 200 }, barnesHut: { springLength: 160 } }
      };

      var container = document.getElementById('network');
      if (network) { network.destroy(); }
      network = new vis.Network(container, data, options);

      var internal = snap.modules.filter(function(m) { return !m.is_external; }).length;
      var external = snap.modules.length - internal;
      document.getElementById('stats').textContent =
        internal + ' internal, ' + external + ' external';
      var cyclesEl = document.getElementById('cycles');
      cyclesEl.textContent = snap.cycles.length > 0
        ? snap.cycles.length + ' import cycle(s) detected'
        : '';
    }

    function refresh() {
      fetch('/graph.json')
        .then(function(resp) { return resp.json(); })
        .then(render);
    }

    function poll() {
      fetch('/revision')
        .then(function(resp) { return resp.json(); })
        .then(function(body) {
          if (body.revision !== lastRev) {
            lastRev = body.revision;
            refresh();
          }
        })
        .catch(function() {});
    }

    poll();
    setInterval(poll, 2000);
  </script>
</body>
</html>
`

// Serve starts the HTTP server for the given hub. It blocks until the
// context is cancelled.
func Serve(ctx context.Context, hub *Hub, root string, port int, openBrowser bool, logger *slog.Logger) error {
	tmpl, err := template.New("graph").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("parsing HTML template: %w", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: NewHandler(hub, root, tmpl, logger),
	}

	url := fmt.Sprintf("http://localhost:%d", port)
	logger.Info("starting HTTP server", "addr", url)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(errCh)
	}()

	if openBrowser {
		openInBrowser(url, logger)
	}

	// Block until the context is cancelled or the server fails.
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	}
}

// NewHandler builds the route mux. Split out from Serve for tests.
func NewHandler(hub *Hub, root string, tmpl *template.Template, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := struct{ Root string }{Root: root}
		if err := tmpl.Execute(w, data); err != nil {
			logger.Error("failed to render template", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("/graph.json", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		writeJSON(w, hub.Snapshot(), logger)
	})

	mux.HandleFunc("/graph.dot", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		_, _ = w.Write([]byte(hub.Dot()))
	})

	mux.HandleFunc("/graph.mmd", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(hub.Mermaid()))
	})

	mux.HandleFunc("/revision", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		writeJSON(w, map[string]int{"revision": hub.Revision()}, logger)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// openInBrowser opens the given URL in the default system browser.
func openInBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		logger.Warn("unsupported platform for opening browser", "os", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "error", err)
	}
}
