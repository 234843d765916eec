// Package watch finds documents waiting in the source folder and moves them
// out once they have been handled.
package watch

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/a3tai/formharvest/internal/document"
)

// Scanner lists the documents in one folder whose names match a set of globs
type Scanner struct {
	fs       afero.Fs
	dir      string
	patterns []string
}

// NewScanner creates a scanner. Patterns are matched case-insensitively
// against base names.
func NewScanner(fs afero.Fs, dir string, patterns []string) (*Scanner, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("at least one pattern is required")
	}

	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern: %q", p)
		}
		lowered = append(lowered, strings.ToLower(p))
	}

	return &Scanner{fs: fs, dir: dir, patterns: lowered}, nil
}

// Dir returns the folder being scanned
func (s *Scanner) Dir() string {
	return s.dir
}

// Matches reports whether a file name would be picked up
func (s *Scanner) Matches(name string) bool {
	base := filepath.Base(name)
	if document.IsLockFile(base) {
		return false
	}
	lower := strings.ToLower(base)
	for _, p := range s.patterns {
		if ok, _ := doublestar.Match(p, lower); ok {
			return true
		}
	}
	return false
}

// Pending returns the matching regular files, sorted by name
func (s *Scanner) Pending() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", s.dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Mode().IsRegular() || !s.Matches(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
