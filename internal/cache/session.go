package cache

import (
	"context"
	"sync"

	"owl/internal/mir"
	"owl/internal/trace"
)

// Session is the cache view of one crate during one analysis run. The store
// is loaded on first use and written back by Persist. A nil backend makes
// every lookup miss and Persist a no-op.
type Session struct {
	backend Backend
	crate   string

	once  sync.Once
	mu    sync.Mutex
	data  *Data
	dirty bool
	hits  int
	miss  int
}

// NewSession returns a session for crate. backend may be nil.
func NewSession(backend Backend, crate string) *Session {
	return &Session{backend: backend, crate: crate}
}

func (s *Session) load(ctx context.Context) {
	s.once.Do(func() {
		if s.backend == nil {
			s.data = NewData()
			return
		}
		data, err := s.backend.Load(s.crate)
		if err != nil {
			trace.Warn(ctx, trace.ScopeCrate, "cache.load", err.Error(), "crate", s.crate)
			data = NewData()
		}
		s.data = data
	})
}

// Get looks up a previously analyzed function.
func (s *Session) Get(ctx context.Context, key Key) (mir.Function, bool) {
	if s.backend == nil {
		return mir.Function{}, false
	}
	s.load(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	fn, ok := s.data.Get(key)
	if ok {
		s.hits++
	} else {
		s.miss++
	}
	return fn, ok
}

// Insert records fn under key for the next Persist.
func (s *Session) Insert(ctx context.Context, key Key, fn mir.Function) {
	if s.backend == nil {
		return
	}
	s.load(ctx)
	s.mu.Lock()
	s.data.Put(key, fn)
	s.dirty = true
	s.mu.Unlock()
}

// Stats returns the hit and miss counts so far.
func (s *Session) Stats() (hits, misses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.miss
}

// Persist writes the store back when anything was inserted.
func (s *Session) Persist(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	_, sp := trace.Begin(ctx, trace.ScopeCrate, "cache.persist", "crate", s.crate)
	err := s.backend.Save(s.crate, s.data)
	detail := "ok"
	if err != nil {
		detail = err.Error()
	} else {
		s.dirty = false
	}
	sp.End(detail)
	return err
}
