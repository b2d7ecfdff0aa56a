// Package index maintains an in-memory map of file path to summary result
// for one project root, with incremental updates driven by filesystem
// events.
package index

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xonecas/classmap/internal/parser"
	"github.com/xonecas/classmap/internal/reduce"
	"github.com/xonecas/classmap/internal/summarize"
)

// Index holds per-file summary results for a project root.
type Index struct {
	mu     sync.RWMutex
	files  summarize.Report // abs path -> result
	root   string
	filter reduce.FilterMode
	svc    *summarize.Service
}

// New creates an empty index rooted at dir.
func New(svc *summarize.Service, root string, filter reduce.FilterMode) *Index {
	return &Index{
		files:  make(summarize.Report),
		root:   root,
		filter: filter,
		svc:    svc,
	}
}

// Build summarizes every PHP file under the root and replaces the index
// contents.
func (idx *Index) Build(ctx context.Context) error {
	report, err := idx.svc.Dir(ctx, idx.root, idx.filter)
	if err != nil {
		return err
	}
	idx.mu.Lock()
	idx.files = report
	idx.mu.Unlock()
	return nil
}

// UpdateFile re-summarizes a single file and updates the index. Deleted or
// unsupported paths are dropped.
func (idx *Index) UpdateFile(ctx context.Context, absPath string) {
	if !parser.Supported(absPath) {
		return
	}
	res, err := idx.svc.File(ctx, absPath, idx.filter)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err != nil {
		delete(idx.files, absPath)
		return
	}
	idx.files[absPath] = res
}

// DropUnder removes every indexed entry beneath dir. Removing a directory
// emits one filesystem event for the directory itself, so the files it held
// have to be evicted by prefix.
func (idx *Index) DropUnder(dir string) {
	prefix := dir + string(filepath.Separator)
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for p := range idx.files {
		if strings.HasPrefix(p, prefix) {
			delete(idx.files, p)
		}
	}
}

// Files returns the sorted indexed paths.
func (idx *Index) Files() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	paths := make([]string, 0, len(idx.files))
	for p := range idx.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Get returns the result for an absolute path.
func (idx *Index) Get(absPath string) (summarize.FileResult, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	res, ok := idx.files[absPath]
	return res, ok
}

// Snapshot returns a copy of the full report.
func (idx *Index) Snapshot() summarize.Report {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(summarize.Report, len(idx.files))
	for k, v := range idx.files {
		out[k] = v
	}
	return out
}
