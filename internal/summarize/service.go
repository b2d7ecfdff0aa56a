// Package summarize orchestrates per-file and batch summarization: path
// validation, parsing, reduction, caching and the wire shape of results.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/classmap/internal/cache"
	"github.com/xonecas/classmap/internal/filescan"
	"github.com/xonecas/classmap/internal/parser"
	"github.com/xonecas/classmap/internal/reduce"
)

// FileResult is the per-file outcome: a summary, null (no class-like
// declaration in the file), or an opaque error message. A per-file error is
// never fatal to a batch.
type FileResult struct {
	Summary *reduce.Summary
	Err     string
}

// MarshalJSON renders the wire shape: a Summary object, null, or
// {"error": message}.
func (r FileResult) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Err})
	}
	if r.Summary == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.Summary)
}

// UnmarshalJSON parses the wire shape back, used when rehydrating cached
// results.
func (r *FileResult) UnmarshalJSON(data []byte) error {
	*r = FileResult{}
	if string(data) == "null" {
		return nil
	}
	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Error != nil {
		r.Err = *probe.Error
		return nil
	}
	var s reduce.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	r.Summary = &s
	return nil
}

// Report maps absolute file paths to their results.
type Report map[string]FileResult

// Options configures a Service. Zero values select defaults.
type Options struct {
	Cache       *cache.Cache // nil disables caching
	MaxFileSize int64        // per-file size cap for directory walks
	Workers     int          // batch parallelism, default min(NumCPU, 8)
}

// Service summarizes files and directories.
type Service struct {
	cache       *cache.Cache
	maxFileSize int64
	workers     int
}

// New creates a Service.
func New(opts Options) *Service {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
	}
	maxSize := opts.MaxFileSize
	if maxSize == 0 {
		maxSize = filescan.DefaultMaxFileSize
	}
	return &Service{
		cache:       opts.Cache,
		maxFileSize: maxSize,
		workers:     workers,
	}
}

// File validates path and summarizes the single file it names. Path
// validation failures (missing path, path is a directory) are returned as
// errors; parse failures and absent declarations are absorbed into the
// FileResult.
func (s *Service) File(ctx context.Context, path string, filter reduce.FilterMode) (FileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileResult{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FileResult{}, fmt.Errorf("%s: is a directory, expected a file", path)
	}
	return s.summarizeFile(ctx, path, filter), nil
}

// Dir enumerates PHP files under root and summarizes each. Files are
// independent, so the batch runs on a bounded worker pool; per-file order
// inside each summary stays deterministic regardless of scheduling.
func (s *Service) Dir(ctx context.Context, root string, filter reduce.FilterMode) (Report, error) {
	walker, err := filescan.New(root)
	if err != nil {
		return nil, err
	}
	walker.SetMaxFileSize(s.maxFileSize)

	paths, err := walker.Files(ctx)
	if err != nil {
		return nil, err
	}

	report := make(Report, len(paths))
	jobs := make(chan string)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				res := s.summarizeFile(ctx, path, filter)
				mu.Lock()
				report[path] = res
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	return report, nil
}

// summarizeFile runs the parse-reduce pipeline for one file. Never fails:
// read and parse errors become error-shaped results.
func (s *Service) summarizeFile(ctx context.Context, path string, filter reduce.FilterMode) FileResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Err: err.Error()}
	}

	hash := cache.ContentHash(src)
	if raw, ok := s.cache.Get(path, filter.String(), hash); ok {
		var res FileResult
		if err := json.Unmarshal([]byte(raw), &res); err == nil {
			return res
		}
		log.Warn().Str("path", path).Msg("discarding undecodable cache entry")
	}

	res := s.reduceSource(ctx, src, filter)
	if raw, err := json.Marshal(res); err == nil {
		s.cache.Set(path, filter.String(), hash, string(raw))
	}
	return res
}

// reduceSource parses source bytes and reduces the tree.
func (s *Service) reduceSource(ctx context.Context, src []byte, filter reduce.FilterMode) FileResult {
	root, err := parser.Parse(ctx, src)
	if err != nil {
		return FileResult{Err: err.Error()}
	}
	decl := reduce.FindFirstDeclaration(root)
	if decl == nil {
		return FileResult{}
	}
	return FileResult{Summary: reduce.Summarize(decl, filter)}
}
