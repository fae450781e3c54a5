// Package workspace confines files written on behalf of scripts to an output
// directory. It rejects path traversal and symlinks that lead outside of it.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Guard resolves file paths against a root directory and refuses any path that
// ends up outside the root or an explicitly allowed directory.
type Guard struct {
	root    string   // Absolute, symlink-free root
	allowed []string // Additional directories outside root
}

// NewGuard creates a guard for an existing directory.
func NewGuard(root string) (*Guard, error) {
	if root == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}

	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}

	evalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate output directory symlinks: %w", err)
	}

	return &Guard{root: evalPath}, nil
}

// Root returns the absolute path of the root directory.
func (g *Guard) Root() string {
	return g.root
}

// Allow admits dir and everything below it. The directory does not need to exist.
func (g *Guard) Allow(dir string) error {
	if dir == "" {
		return fmt.Errorf("allowed directory cannot be empty")
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve allowed directory: %w", err)
	}

	evalPath := resolveSymlinks(absPath)
	for _, existing := range g.allowed {
		if existing == evalPath {
			return nil
		}
	}
	g.allowed = append(g.allowed, evalPath)
	return nil
}

// Resolve turns path into an absolute path and checks it. Relative paths are
// taken from the root and ~/ expands to the home directory.
func (g *Guard) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	expanded := path
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand ~: %w", err)
		}
		expanded = filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
	}

	absPath := filepath.Clean(expanded)
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(g.root, absPath)
	}

	resolved := resolveSymlinks(absPath)
	if !g.Contains(resolved) {
		return "", fmt.Errorf("path '%s' is outside the output directory", path)
	}
	return resolved, nil
}

// Contains reports whether an absolute, resolved path lies inside the root or an
// allowed directory.
func (g *Guard) Contains(absPath string) bool {
	if within(absPath, g.root) {
		return true
	}
	for _, dir := range g.allowed {
		if within(absPath, dir) {
			return true
		}
	}
	return false
}

func within(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// resolveSymlinks evaluates symlinks in path. For paths that do not exist yet it
// resolves the deepest existing ancestor and appends the remaining components.
func resolveSymlinks(path string) string {
	var components []string
	current := path

	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			for i := len(components) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, components[i])
			}
			return resolved
		}

		dir := filepath.Dir(current)
		if dir == current {
			return filepath.Clean(path)
		}
		components = append(components, filepath.Base(current))
		current = dir
	}
}
