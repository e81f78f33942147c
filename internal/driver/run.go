// Package driver runs the per-crate analysis: every body of a crate is
// lowered, converted to ranges and cached, in parallel.
package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"owl/internal/cache"
	"owl/internal/frontend"
	"owl/internal/lower"
	"owl/internal/mir"
	"owl/internal/observ"
	"owl/internal/project"
	"owl/internal/source"
	"owl/internal/trace"
)

// ErrWorkerPanic marks a body whose analysis panicked. The body is skipped
// and reported, the rest of the crate is still analyzed.
var ErrWorkerPanic = errors.New("driver: analysis worker panicked")

// Sink receives every analyzed function as soon as it is ready. Calls are
// serialized by the driver.
type Sink func(crate, path string, fn mir.Function) error

// Options configures Run.
type Options struct {
	// Jobs bounds the number of bodies analyzed at once. Zero means twice
	// GOMAXPROCS.
	Jobs int
	// Cache stores results between runs. Nil disables caching.
	Cache cache.Backend
	// Root resolves relative body paths. Empty means the working directory.
	Root string
	// Files supplies texts; missing files are read from disk.
	Files *source.FileSet
	Timer *observ.Timer
	Sink  Sink
}

// BodyError records a body that could not be analyzed.
type BodyError struct {
	FnID uint32
	Path string
	Err  error
}

func (e BodyError) Error() string {
	return fmt.Sprintf("%s: fn %d: %v", e.Path, e.FnID, e.Err)
}

func (e BodyError) Unwrap() error { return e.Err }

// Report summarizes one run.
type Report struct {
	Crate     string
	Workspace mir.Workspace
	Analyzed  int
	Cached    int
	Skipped   []BodyError
}

type result struct {
	path   string
	fn     mir.Function
	cached bool
}

// Run analyzes every body of cf.
func Run(ctx context.Context, cf *frontend.CrateFacts, opts Options) (*Report, error) {
	ctx, span := trace.Begin(ctx, trace.ScopeCrate, "analyze.crate", "crate", cf.Crate)
	defer span.End("")

	timer := opts.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}
	files := opts.Files
	if files == nil {
		files = source.NewFileSet()
	}

	stopLoad := timer.Track("load")
	paths, skipped := resolveSources(cf, opts.Root, files)
	stopLoad(fmt.Sprintf("%d files", len(paths)))

	session := cache.NewSession(opts.Cache, cf.Crate)
	report := &Report{Crate: cf.Crate, Workspace: mir.Workspace{}, Skipped: skipped}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = 2 * runtime.GOMAXPROCS(0)
	}

	var (
		mu      sync.Mutex
		results []result
	)
	emit := func(r result) error {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
		if opts.Sink != nil {
			return opts.Sink(cf.Crate, r.path, r.fn)
		}
		return nil
	}

	stopAnalyze := timer.Track("analyze")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range cf.Bodies {
		body := &cf.Bodies[i]
		file, ok := paths[body.File]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := analyzeRecover(gctx, session, body, file, timer)
			if errors.Is(err, ErrWorkerPanic) {
				trace.Warn(ctx, trace.ScopeFunction, "analyze.panic", err.Error(), "path", file.Path)
				mu.Lock()
				report.Skipped = append(report.Skipped, BodyError{FnID: body.FnID, Path: file.Path, Err: err})
				mu.Unlock()
				return nil
			}
			if err != nil {
				return err
			}
			return emit(r)
		})
	}
	err := g.Wait()
	stopAnalyze(fmt.Sprintf("%d bodies", len(results)))
	if err != nil {
		return nil, err
	}

	// deterministic merge order
	slices.SortFunc(results, func(a, b result) int {
		if a.path != b.path {
			if a.path < b.path {
				return -1
			}
			return 1
		}
		return int(a.fn.FnID) - int(b.fn.FnID)
	})
	for _, r := range results {
		report.Workspace.Merge(frontend.Fragment(cf.Crate, r.path, r.fn))
		if r.cached {
			report.Cached++
		} else {
			report.Analyzed++
		}
	}

	stopPersist := timer.Track("persist")
	if err := session.Persist(ctx); err != nil {
		// a failed write only costs the next run its hits
		trace.Warn(ctx, trace.ScopeCrate, "cache.persist", err.Error(), "crate", cf.Crate)
	}
	stopPersist("")

	span.Set("analyzed", fmt.Sprint(report.Analyzed)).Set("cached", fmt.Sprint(report.Cached))
	return report, nil
}

// analyzeRecover turns a panic in analyzeOne into ErrWorkerPanic.
func analyzeRecover(ctx context.Context, session *cache.Session, body *frontend.Body, file *source.File, timer *observ.Timer) (r result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: fn %d: %v\n%s", ErrWorkerPanic, body.FnID, p, debug.Stack())
		}
	}()
	return analyzeOne(ctx, session, body, file, timer)
}

func analyzeOne(ctx context.Context, session *cache.Session, body *frontend.Body, file *source.File, timer *observ.Timer) (result, error) {
	defer timer.Track("bodies")("")

	cfHash, err := lower.ControlFlowHash(body)
	if err != nil {
		return result{}, fmt.Errorf("fn %d: hash: %w", body.FnID, err)
	}
	key := cache.Key{File: project.SumString(file.Content), Body: cfHash}
	if fn, ok := session.Get(ctx, key); ok {
		trace.Point(ctx, trace.ScopeFunction, "cache.hit", key.String(), "path", file.Path)
		return result{path: file.Path, fn: fn, cached: true}, nil
	}

	fn, err := AnalyzeBody(ctx, body, file.Index())
	if err != nil {
		return result{}, fmt.Errorf("fn %d in %s: %w", body.FnID, file.Path, err)
	}
	if verr := mir.Validate(&fn); verr != nil {
		trace.Warn(ctx, trace.ScopeFunction, "mir.validate", verr.Error(), "path", file.Path)
	}
	session.Insert(ctx, key, fn)
	return result{path: file.Path, fn: fn}, nil
}

// resolveSources maps every body path of cf to its file. Inline sources are
// preferred; bodies whose text cannot be read are reported and skipped.
func resolveSources(cf *frontend.CrateFacts, root string, files *source.FileSet) (map[string]*source.File, []BodyError) {
	out := make(map[string]*source.File)
	failed := make(map[string]error)
	var skipped []BodyError
	for i := range cf.Bodies {
		body := &cf.Bodies[i]
		if _, ok := out[body.File]; ok {
			continue
		}
		if err, ok := failed[body.File]; ok {
			skipped = append(skipped, BodyError{FnID: body.FnID, Path: body.File, Err: err})
			continue
		}
		path := body.File
		if root != "" && !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if text, ok := cf.Sources[body.File]; ok {
			id := files.AddVirtual(path, text)
			out[body.File] = files.Get(id)
			continue
		}
		f, err := files.Text(path)
		if err != nil {
			failed[body.File] = err
			skipped = append(skipped, BodyError{FnID: body.FnID, Path: body.File, Err: err})
			continue
		}
		out[body.File] = f
	}
	return out, skipped
}
