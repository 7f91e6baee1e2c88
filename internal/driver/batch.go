package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DirOutcome pairs one design file with its build outcome. Err is set only
// when Build itself failed; design problems live in Outcome.Bag.
type DirOutcome struct {
	Path    string
	Outcome *Outcome
	Err     error
}

// designExts are the file extensions BuildDir picks up.
var designExts = []string{".yaml", ".yml", ".mpd"}

// ListDesignFiles returns the sorted list of design files under dir.
func ListDesignFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range designExts {
			if ext == want {
				files = append(files, path)
				break
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Deterministic order regardless of WalkDir quirks.
	sort.Strings(files)
	return files, nil
}

// BuildDir builds every design file under dir in parallel. Results come
// back in file order; a per-file failure does not stop the batch.
func BuildDir(ctx context.Context, dir string, opts Options, jobs int) ([]DirOutcome, error) {
	files, err := ListDesignFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	return BuildFiles(ctx, files, opts, jobs)
}

// BuildFiles builds the given design files in parallel with at most jobs
// workers; jobs <= 0 means GOMAXPROCS.
func BuildFiles(ctx context.Context, files []string, opts Options, jobs int) ([]DirOutcome, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	emitQueued(opts.Progress, files)

	// Indices are unique per goroutine, so no mutex around results.
	results := make([]DirOutcome, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func(i int, path string) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				out, err := Build(path, opts)
				results[i] = DirOutcome{Path: path, Outcome: out, Err: err}
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, nil
}
