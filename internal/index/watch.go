package index

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/classmap/internal/filescan"
)

// DefaultDebounce batches rapid editor save bursts into one re-summarize.
const DefaultDebounce = 250 * time.Millisecond

// Watch re-summarizes files as they change on disk until ctx is cancelled.
// Directory creations extend the watch; changed paths are debounced and
// applied through UpdateFile. onChange, when non-nil, receives the sorted
// batch of changed absolute paths after the index has been updated.
func (idx *Index) Watch(ctx context.Context, debounce time.Duration, onChange func(paths []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	matcher, err := filescan.NewGitignoreMatcher(filepath.Join(idx.root, ".gitignore"))
	if err != nil {
		matcher, _ = filescan.NewGitignoreMatcher("")
	}
	if err := addWatchRecursive(watcher, idx.root, idx.root, matcher); err != nil {
		return err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)

			// New directories need their own watches.
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					_ = addWatchRecursive(watcher, path, idx.root, matcher)
					continue
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[path] = true
			timer.Reset(debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			pending = map[string]bool{}

			for _, path := range changed {
				idx.UpdateFile(ctx, path)
				// A removed directory arrives as one event for the
				// directory path; evict everything that lived under it.
				if _, statErr := os.Stat(path); statErr != nil {
					idx.DropUnder(path)
				}
				log.Debug().Str("path", path).Msg("index updated")
			}
			if onChange != nil {
				onChange(changed)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(watchErr).Msg("watch error")
		}
	}
}

// addWatchRecursive watches dir and every non-ignored subdirectory.
func addWatchRecursive(watcher *fsnotify.Watcher, dir, root string, matcher *filescan.GitignoreMatcher) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if rel, err := filepath.Rel(root, path); err == nil && matcher.Matches(rel, true) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
