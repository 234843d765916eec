package mcp

import (
	"fmt"
	"path/filepath"
	"strings"
)

// pathGuard confines tool arguments to the source folder
type pathGuard struct {
	root string
}

func newPathGuard(root string) (*pathGuard, error) {
	if root == "" {
		return nil, fmt.Errorf("source folder cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source folder: %w", err)
	}
	return &pathGuard{root: filepath.Clean(abs)}, nil
}

// Resolve turns a tool argument into an absolute path inside the source
// folder. Relative paths are taken relative to it.
func (g *pathGuard) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !g.within(abs) {
		return "", fmt.Errorf("path is outside the source folder: %s", path)
	}
	return abs, nil
}

// within checks both the lexical path and, when it exists, the path with
// symlinks resolved on both sides.
func (g *pathGuard) within(abs string) bool {
	if !isUnder(abs, g.root) {
		return false
	}

	realPath, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// not created yet, nothing to follow
		return true
	}
	realRoot, err := filepath.EvalSymlinks(g.root)
	if err != nil {
		realRoot = g.root
	}
	return isUnder(realPath, realRoot)
}

func isUnder(path, dir string) bool {
	path = filepath.Clean(path)
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
