package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Tracer records events. Implementations are safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Close() error
	Level() Level
}

// Mode selects where events are kept.
type Mode uint8

const (
	// ModeStream writes every event as it arrives.
	ModeStream Mode = iota + 1
	// ModeRing keeps the last events in memory and writes them on Close.
	ModeRing
	// ModeBoth streams and keeps a ring.
	ModeBoth
)

var modeNames = [...]string{ModeStream: "stream", ModeRing: "ring", ModeBoth: "both"}

func (m Mode) String() string {
	if int(m) < len(modeNames) && modeNames[m] != "" {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode converts a flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(s)
	for i, name := range modeNames {
		if name != "" && name == s {
			return Mode(i), nil
		}
	}
	return ModeStream, fmt.Errorf("invalid trace mode %q (expected stream|ring|both)", s)
}

// Config describes a tracer.
type Config struct {
	Level    Level
	Mode     Mode
	Format   Format
	Output   io.Writer // overrides Path
	Path     string    // "-" or empty for stderr
	RingSize int
}

// DefaultRingSize is the ring capacity when Config.RingSize is unset.
const DefaultRingSize = 4096

// New builds the tracer cfg describes. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	w, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	format := formatFor(cfg.Format, cfg.Path)
	switch cfg.Mode {
	case ModeStream:
		return newStream(w, cfg.Level, format), nil
	case ModeRing:
		return NewRing(w, cfg.RingSize, cfg.Level, format), nil
	case ModeBoth:
		// the ring only keeps events; the stream owns w
		return fanout{newStream(w, cfg.Level, format), NewRing(nil, cfg.RingSize, cfg.Level, format)}, nil
	}
	return nil, fmt.Errorf("unknown trace mode %v", cfg.Mode)
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.Path == "" || cfg.Path == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, nil
}

func closeWriter(w io.Writer) error {
	if w == nil || w == os.Stderr || w == os.Stdout {
		return nil
	}
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type nop struct{}

func (nop) Emit(*Event)  {}
func (nop) Close() error { return nil }
func (nop) Level() Level { return LevelOff }

// Nop discards everything.
var Nop Tracer = nop{}

type stream struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
}

func newStream(w io.Writer, level Level, format Format) *stream {
	return &stream{w: w, level: level, format: format}
}

func (t *stream) Emit(ev *Event) {
	if !t.level.admits(ev) {
		return
	}
	line := ev.Encode(t.format)
	t.mu.Lock()
	defer t.mu.Unlock()
	// tracing never fails the traced operation
	_, _ = t.w.Write(line)
}

func (t *stream) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return closeWriter(t.w)
}

func (t *stream) Level() Level { return t.level }

// Ring keeps the most recent events.
type Ring struct {
	mu     sync.Mutex
	buf    []Event
	next   int
	full   bool
	level  Level
	w      io.Writer
	format Format
}

// NewRing returns a ring holding size events. When w is non-nil Close writes
// the kept events to it.
func NewRing(w io.Writer, size int, level Level, format Format) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{buf: make([]Event, size), level: level, w: w, format: format}
}

func (r *Ring) Emit(ev *Event) {
	if !r.level.admits(ev) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = *ev
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// Snapshot returns the kept events oldest first.
func (r *Ring) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Event(nil), r.buf[:r.next]...)
	}
	out := make([]Event, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

// Dump writes the kept events to w.
func (r *Ring) Dump(w io.Writer) error {
	for _, ev := range r.Snapshot() {
		if _, err := w.Write(ev.Encode(r.format)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Ring) Close() error {
	if r.w == nil {
		return nil
	}
	return errors.Join(r.Dump(r.w), closeWriter(r.w))
}

func (r *Ring) Level() Level { return r.level }

type fanout []Tracer

func (f fanout) Emit(ev *Event) {
	for _, t := range f {
		t.Emit(ev)
	}
}

func (f fanout) Close() error {
	errs := make([]error, 0, len(f))
	for _, t := range f {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}

func (f fanout) Level() Level {
	var l Level
	for _, t := range f {
		l = max(l, t.Level())
	}
	return l
}

// Heartbeat emits a heartbeat event every interval until the returned stop
// function is called. A disabled tracer or non-positive interval starts
// nothing.
func Heartbeat(t Tracer, interval time.Duration) (stop func()) {
	if t == nil || t.Level() == LevelOff || interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for n := 1; ; n++ {
			select {
			case <-ticker.C:
				t.Emit(&Event{
					Time:   time.Now(),
					Seq:    nextSeq(),
					Kind:   KindHeartbeat,
					Scope:  ScopeSession,
					Name:   "heartbeat",
					Detail: fmt.Sprintf("#%d", n),
				})
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}

// RingOf returns the ring inside t, or nil.
func RingOf(t Tracer) *Ring {
	switch t := t.(type) {
	case *Ring:
		return t
	case fanout:
		for _, inner := range t {
			if r := RingOf(inner); r != nil {
				return r
			}
		}
	}
	return nil
}
