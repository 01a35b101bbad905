package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/leonpriest/impscan/internal/export"
	"github.com/leonpriest/impscan/internal/graph"
	"github.com/leonpriest/impscan/internal/logging"
	"github.com/leonpriest/impscan/internal/scanner"
	"github.com/leonpriest/impscan/internal/server"
)

func main() {
	// Use a custom FlagSet so we can parse all args regardless of position.
	// Go's default flag.Parse stops at the first non-flag argument, which
	// breaks "impscan ./path -json out.json". We reorder args so flags
	// come first, then positional args.
	flags, positional := reorderArgs(os.Args[1:])

	fs := flag.NewFlagSet("impscan", flag.ExitOnError)
	pathFlag := fs.String("path", "", "path or GitHub URL to scan (alternative to positional argument)")
	jsonOut := fs.String("json", "", "write JSON snapshot to file")
	dotOut := fs.String("dot", "", "write Graphviz DOT graph to file")
	mermaidOut := fs.String("mermaid", "", "write Mermaid flowchart to file")
	includeExternal := fs.Bool("include-external", false, "include external packages in outputs")
	exclude := fs.String("exclude", "", "comma-separated directory names to exclude")
	serve := fs.Bool("serve", false, "serve the interactive graph view")
	port := fs.Int("port", 8080, "HTTP server port")
	watch := fs.Bool("watch", false, "rescan on file changes while serving")
	noBrowser := fs.Bool("no-browser", false, "skip auto-opening browser")
	logFile := fs.String("log-file", "logs/impscan.log", "log file path")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")

	if err := fs.Parse(flags); err != nil {
		os.Exit(1)
	}
	// Collect any remaining args from flag parsing + our positional args
	positional = append(positional, fs.Args()...)

	// Determine input: positional argument takes precedence, then -path flag
	input := ""
	if len(positional) > 0 {
		input = positional[0]
	}
	if input == "" {
		input = *pathFlag
	}
	if input == "" {
		fmt.Fprintln(os.Stderr, "Usage: impscan [flags] <path-or-url>")
		fs.PrintDefaults()
		os.Exit(1)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}

	logger, logCleanup, err := logging.Setup(*logFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logging: %v\n", err)
		os.Exit(1)
	}
	defer logCleanup()

	// Setup signal handling with context cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	cfg := server.ScanConfig{
		Input:           input,
		Exclude:         splitList(*exclude),
		IncludeExternal: *includeExternal,
	}

	fmt.Println("Scanning...")
	res, scanCleanup, err := server.RunScan(ctx, cfg, logger)
	if err != nil {
		logger.Error("scan failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer scanCleanup()

	opts := export.Options{IncludeExternal: res.IncludeExternal}
	g := res.Graph

	export.Summary(os.Stdout, g, opts)

	if *jsonOut != "" {
		if err := writeExport(*jsonOut, func(f *os.File) error {
			return export.WriteSnapshot(f, g, opts)
		}); err != nil {
			logger.Error("failed to write JSON export", "path", *jsonOut, "error", err)
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *jsonOut, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote JSON snapshot to %s\n", *jsonOut)
	}
	if *dotOut != "" {
		if err := os.WriteFile(*dotOut, []byte(export.Dot(g, opts)), 0o644); err != nil {
			logger.Error("failed to write DOT export", "path", *dotOut, "error", err)
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *dotOut, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote DOT graph to %s\n", *dotOut)
	}
	if *mermaidOut != "" {
		if err := os.WriteFile(*mermaidOut, []byte(export.Mermaid(g, opts)), 0o644); err != nil {
			logger.Error("failed to write Mermaid export", "path", *mermaidOut, "error", err)
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *mermaidOut, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote Mermaid flowchart to %s\n", *mermaidOut)
	}

	// Non-zero exit when cycles exist makes the scanner usable as a CI gate.
	if !*serve {
		if len(g.CycleGroups()) > 0 {
			os.Exit(2)
		}
		return
	}

	hub := server.NewHub(g, opts)

	if *watch {
		go func() {
			rescan := func(ctx context.Context) (*graph.Graph, error) {
				return scanner.Scan(ctx, res.Root, scanner.Options{Exclude: res.Exclude}, logger)
			}
			if err := server.Watch(ctx, res.Root, hub, rescan, 300*time.Millisecond, logger); err != nil {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	openBrowser := !*noBrowser
	fmt.Printf("Starting server on http://localhost:%d\n", *port)
	if err := server.Serve(ctx, hub, res.Root, *port, openBrowser, logger); err != nil {
		logger.Error("server error", "error", err)
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func writeExport(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// splitList turns a comma-separated flag value into a clean slice.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// reorderArgs separates flags and positional arguments so flags can appear
// in any position (before or after the positional path argument).
// Flags that take a value (e.g., -json out.json) consume the next arg.
func reorderArgs(args []string) (flags, positional []string) {
	// Set of flags that take a value argument
	valueFlagSet := map[string]bool{
		"-path": true, "-port": true, "-json": true, "-dot": true,
		"-mermaid": true, "-exclude": true, "-log-file": true, "-log-level": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			// Check if this flag takes a value (and it's not using = syntax)
			if !strings.Contains(arg, "=") && valueFlagSet[arg] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return flags, positional
}
