package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"owl/internal/decoration"
	"owl/internal/frontend"
	"owl/internal/mir"
	"owl/internal/source"
	"owl/internal/trace"
)

// ErrUnknownTarget is returned for paths that were never registered.
var ErrUnknownTarget = errors.New("jobs: unknown target")

// Options configures a Manager.
type Options struct {
	Frontend Frontend
	Progress ProgressSink
	// ReadFile loads documents for Cursor. Defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

// Result answers a decoration query.
type Result struct {
	IsAnalyzed  bool              `json:"is_analyzed"`
	Status      Status            `json:"status"`
	Path        string            `json:"path"`
	Decorations []decoration.Deco `json:"decorations"`
}

type targetState struct {
	target Target
	status Status
}

type job struct {
	id     string
	target Target
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns the registered targets, their running jobs and the merged
// workspace. Queries may run concurrently with analysis and observe the
// partial results merged so far.
type Manager struct {
	fe       Frontend
	progress ProgressSink
	readFile func(string) ([]byte, error)

	// control serializes Analyze, DocumentChanged and Shutdown so that at
	// most one job per target is ever running.
	control sync.Mutex

	mu        sync.RWMutex
	order     []string
	targets   map[string]*targetState
	status    Status
	workspace mir.Workspace
	gen       uint64
	running   []*job
	batchDone chan struct{}
}

// NewManager returns an idle manager without targets.
func NewManager(opts Options) *Manager {
	readFile := opts.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	return &Manager{
		fe:       opts.Frontend,
		progress: opts.Progress,
		readFile: readFile,
		targets:  make(map[string]*targetState),
	}
}

// AddTarget registers path. It reports false when the path was already
// registered.
func (m *Manager) AddTarget(path string) bool {
	t := NewTarget(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[t.Path]; ok {
		return false
	}
	m.targets[t.Path] = &targetState{target: t}
	m.order = append(m.order, t.Path)
	return true
}

// Targets returns the registered targets in registration order.
func (m *Manager) Targets() []Target {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Target, 0, len(m.order))
	for _, path := range m.order {
		out = append(out, m.targets[path].target)
	}
	return out
}

// Analyze cancels the running batch, waits for it to drain and starts one
// job per target. Jobs outlive ctx; only its values (the tracer) are kept.
// The returned number identifies the batch.
func (m *Manager) Analyze(ctx context.Context) uint64 {
	m.control.Lock()
	defer m.control.Unlock()
	m.shutdown()

	base := context.WithoutCancel(ctx)
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.status = StatusAnalyzing
	jobs := make([]*job, 0, len(m.order))
	for _, path := range m.order {
		st := m.targets[path]
		st.status = StatusAnalyzing
		jctx, cancel := context.WithCancel(base)
		jobs = append(jobs, &job{
			id:     uuid.NewString(),
			target: st.target,
			ctx:    jctx,
			cancel: cancel,
			done:   make(chan struct{}),
		})
	}
	m.running = jobs
	done := make(chan struct{})
	m.batchDone = done
	m.mu.Unlock()

	for _, j := range jobs {
		go m.run(j)
	}
	go m.finishBatch(gen, jobs, done)
	return gen
}

// Wait blocks until the current batch has ended or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.RLock()
	done := m.batchDone
	m.mu.RUnlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DocumentChanged drops every result and stops running jobs. The next
// Analyze starts from an empty workspace.
func (m *Manager) DocumentChanged(ctx context.Context, path string) {
	m.control.Lock()
	defer m.control.Unlock()
	trace.Point(ctx, trace.ScopeSession, "jobs.changed", source.NormalizePath(path))
	m.shutdown()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspace = nil
	m.status = StatusIdle
	for _, st := range m.targets {
		st.status = StatusIdle
	}
}

// Shutdown cancels running jobs and waits for their workers to exit.
// Results merged so far stay visible.
func (m *Manager) Shutdown() {
	m.control.Lock()
	defer m.control.Unlock()
	m.shutdown()
}

func (m *Manager) shutdown() {
	m.mu.Lock()
	jobs := m.running
	m.running = nil
	// the cancelled batch must not publish its final status
	m.gen++
	if m.status == StatusAnalyzing {
		m.status = StatusIdle
	}
	m.mu.Unlock()

	for _, j := range jobs {
		j.cancel()
	}
	for _, j := range jobs {
		<-j.done
	}
}

func (m *Manager) finishBatch(gen uint64, jobs []*job, done chan struct{}) {
	defer close(done)
	for _, j := range jobs {
		<-j.done
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	if m.workspace.FileCount() == 0 {
		m.status = StatusError
	} else {
		m.status = StatusFinished
	}
	m.running = nil
	status := m.status
	m.mu.Unlock()

	m.emit(Event{Kind: EventBatchDone, Percent: 100, Status: status})
}

func (m *Manager) run(j *job) {
	defer close(j.done)
	defer j.cancel()

	ctx, span := trace.Begin(j.ctx, trace.ScopeJob, "job", "target", j.target.Path, "kind", j.target.Kind.String())
	m.emit(Event{JobID: j.id, Target: j.target.Path, Kind: EventStarted, Status: StatusAnalyzing})

	status, kind := m.consume(ctx, j)

	m.mu.Lock()
	if st, ok := m.targets[j.target.Path]; ok {
		st.status = status
	}
	m.mu.Unlock()

	span.End(status.String())
	evt := Event{JobID: j.id, Target: j.target.Path, Kind: kind, Status: status}
	if status == StatusFinished {
		evt.Percent = 100
	}
	m.emit(evt)
}

func (m *Manager) consume(ctx context.Context, j *job) (Status, EventKind) {
	if m.fe == nil {
		trace.Warn(ctx, trace.ScopeJob, "job.start", "no front end", "target", j.target.Path)
		return StatusError, EventFailed
	}
	s, err := m.fe.Start(ctx, j.target)
	if err != nil {
		trace.Warn(ctx, trace.ScopeJob, "job.start", err.Error(), "target", j.target.Path)
		return StatusError, EventFailed
	}
	defer s.Close()

	checked := 0
	for {
		msg, ok := s.Next(ctx)
		if !ok {
			break
		}
		switch msg.Reason {
		case frontend.ReasonUnitChecked:
			checked++
			m.emit(Event{
				JobID:   j.id,
				Target:  j.target.Path,
				Kind:    EventProgress,
				Unit:    msg.Unit,
				Percent: percent(checked, msg.Total),
				Status:  StatusAnalyzing,
			})
		case frontend.ReasonAnalyzed:
			m.merge(ctx, msg.Workspace)
		}
	}
	if ctx.Err() != nil {
		return StatusIdle, EventCancelled
	}

	exit := s.Wait()
	if !exit.Success() {
		trace.Warn(ctx, trace.ScopeJob, "job.exit", exit.String(), "target", j.target.Path)
		return StatusError, EventFailed
	}
	return StatusFinished, EventFinished
}

func (m *Manager) merge(ctx context.Context, ws mir.Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if m.workspace == nil {
		m.workspace = make(mir.Workspace)
	}
	m.workspace.Merge(ws)
}

func (m *Manager) emit(evt Event) {
	if m.progress != nil {
		m.progress.OnEvent(evt)
	}
}

// Status returns the overall status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// TargetStatus returns the status of one registered target.
func (m *Manager) TargetStatus(path string) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.targets[source.NormalizePath(path)]
	if !ok {
		return StatusIdle, fmt.Errorf("%w: %s", ErrUnknownTarget, path)
	}
	return st.status, nil
}

// HasResult reports whether at least one file was analyzed.
func (m *Manager) HasResult() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.workspace.FileCount() > 0
}

// Workspace returns a copy of the merged results.
func (m *Manager) Workspace() mir.Workspace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.workspace == nil {
		return nil
	}
	return m.workspace.Clone()
}

// Decorations computes the decorations for the variable under pos in path.
// An empty answer while the manager is finished is reported as an error
// when the file has no analyzed function.
func (m *Manager) Decorations(path string, pos source.Loc) Result {
	path = source.NormalizePath(path)

	m.mu.RLock()
	analyzed := m.workspace != nil
	status := m.status
	fns := m.workspace.Functions(path)
	m.mu.RUnlock()

	decos := decoration.Decorate(fns, pos)
	if len(decos) == 0 && status == StatusFinished && len(fns) == 0 {
		status = StatusError
	}
	return Result{
		IsAnalyzed:  analyzed,
		Status:      status,
		Path:        path,
		Decorations: decos,
	}
}

// Cursor is Decorations for an editor position. line and char are zero-based
// and count characters, carriage returns excluded.
func (m *Manager) Cursor(path string, line, char uint32) (Result, error) {
	data, err := m.readFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("jobs: read %s: %w", path, err)
	}
	return m.Decorations(path, source.LineCharToIndex(string(data), line, char)), nil
}
