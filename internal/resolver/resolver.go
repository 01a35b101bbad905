// Package resolver turns the CLI input (a local directory or a GitHub URL)
// into a local Python project root ready for scanning.
package resolver

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// rootMarkers identify a Python project root when walking upward from the
// given directory.
var rootMarkers = []string{"pyproject.toml", "setup.py", "setup.cfg", "requirements.txt"}

// Resolve takes an input (local dir, sub-package path, or GitHub URL) and
// returns a local directory ready for scanning, plus a cleanup function.
func Resolve(ctx context.Context, input string, logger *slog.Logger) (dir string, cleanup func(), err error) {
	cleanup = func() {} // default no-op

	if isGitHubURL(input) {
		return fetchRepo(ctx, input, logger)
	}

	// Local path
	absPath, err := filepath.Abs(input)
	if err != nil {
		return "", cleanup, fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", cleanup, fmt.Errorf("stat %s: %w", absPath, err)
	}

	if !info.IsDir() {
		return "", cleanup, fmt.Errorf("%s is not a directory", absPath)
	}

	root := findProjectRoot(absPath)
	logger.Info("resolved local directory", "input", input, "project_root", root)

	return root, cleanup, nil
}

func isGitHubURL(input string) bool {
	return strings.Contains(input, "github.com") &&
		(strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://"))
}

// findProjectRoot walks upward from dir looking for a project marker file.
// Without one, the given directory itself is the root.
func findProjectRoot(dir string) string {
	current := dir
	for {
		if hasMarker(current) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}

func hasMarker(dir string) bool {
	for _, marker := range rootMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootDown searches root and its immediate subdirectories for a
// project marker. Cloned repos sometimes keep the Python package one level
// below the repo root.
func findProjectRootDown(root string) string {
	if hasMarker(root) {
		return root
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return root
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		sub := filepath.Join(root, e.Name())
		if hasMarker(sub) {
			return sub
		}
	}
	return root
}

// cacheDir returns a stable directory for caching a cloned repo.
// Uses ~/.cache/impscan/repos/<hash> where hash is derived from the URL.
func cacheDir(url string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	h := sha256.Sum256([]byte(url))
	name := fmt.Sprintf("%x", h[:8])
	return filepath.Join(home, ".cache", "impscan", "repos", name), nil
}

// fetchRepo either pulls an existing cached clone or does a fresh clone.
// Returns the project root directory and a no-op cleanup (cache is persistent).
func fetchRepo(ctx context.Context, url string, logger *slog.Logger) (string, func(), error) {
	noop := func() {}

	dir, err := cacheDir(url)
	if err != nil {
		return "", noop, err
	}

	gitDir := filepath.Join(dir, ".git")
	if _, err := os.Stat(gitDir); err != nil {
		// Fresh clone
		return cloneRepo(ctx, url, dir, logger)
	}

	// Cached clone exists — pull latest
	logger.Info("updating cached repository", "url", url, "dir", dir)
	cmd := exec.CommandContext(ctx, "git", "fetch", "--depth=1", "origin")
	cmd.Dir = dir
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		logger.Warn("git fetch failed, will re-clone", "error", err)
		_ = os.RemoveAll(dir)
		return cloneRepo(ctx, url, dir, logger)
	}
	// Reset to fetched HEAD
	cmd = exec.CommandContext(ctx, "git", "reset", "--hard", "origin/HEAD")
	cmd.Dir = dir
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		logger.Warn("git reset failed, will re-clone", "error", err)
		_ = os.RemoveAll(dir)
		return cloneRepo(ctx, url, dir, logger)
	}
	logger.Info("repository updated", "dir", dir)

	return findProjectRootDown(dir), noop, nil
}

func cloneRepo(ctx context.Context, url, dir string, logger *slog.Logger) (string, func(), error) {
	noop := func() {}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", noop, fmt.Errorf("creating cache dir: %w", err)
	}

	logger.Info("cloning repository", "url", url, "dest", dir)

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth=1", url, dir)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(dir)
		return "", noop, fmt.Errorf("git clone: %w", err)
	}

	logger.Info("clone complete", "dest", dir)

	return findProjectRootDown(dir), noop, nil
}
