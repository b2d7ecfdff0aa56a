// Package filescan enumerates the PHP source files under a directory root.
// The walk respects .gitignore, skips .git and oversized files, and returns
// a sorted list so batch output is deterministic.
package filescan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xonecas/classmap/internal/parser"
)

// DefaultMaxFileSize is the per-file size cap. Generated PHP blobs above it
// are skipped rather than parsed.
const DefaultMaxFileSize = 1 << 20

// Walker enumerates PHP files under one root directory.
type Walker struct {
	root      string
	maxSize   int64
	gitignore *GitignoreMatcher
}

// New creates a walker rooted at dir. A missing or unreadable .gitignore is
// non-fatal: the walk just won't filter ignored paths.
func New(root string) (*Walker, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	matcher, err := NewGitignoreMatcher(filepath.Join(root, ".gitignore"))
	if err != nil {
		matcher, _ = NewGitignoreMatcher("")
	}
	return &Walker{
		root:      root,
		maxSize:   DefaultMaxFileSize,
		gitignore: matcher,
	}, nil
}

// SetMaxFileSize overrides the per-file size cap. Zero or negative disables
// the cap.
func (w *Walker) SetMaxFileSize(n int64) {
	w.maxSize = n
}

// Files walks the root and returns the absolute paths of every candidate
// PHP file, sorted.
func (w *Walker) Files(ctx context.Context) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if w.gitignore.Matches(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.gitignore.Matches(rel, false) {
			return nil
		}
		if !parser.Supported(path) {
			return nil
		}
		if w.maxSize > 0 {
			info, err := d.Info()
			if err != nil || info.Size() > w.maxSize {
				return nil
			}
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		paths = append(paths, abs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
