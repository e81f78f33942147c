package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	seq     atomic.Uint64
	spanIDs atomic.Uint64
)

func nextSeq() uint64 { return seq.Add(1) }

type tracerKey struct{}

type spanKey struct{}

// WithTracer attaches t to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer in ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// SpanID returns the id of the span ctx was derived under, or 0.
func SpanID(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(spanKey{}).(uint64)
	return id
}

// Span is an open span. The zero Span and a nil *Span are inert.
type Span struct {
	t      Tracer
	id     uint64
	parent uint64
	scope  Scope
	name   string
	start  time.Time
	attrs  map[string]string
}

// Begin opens a span under the span in ctx and returns a context that makes
// it the parent of later spans. attrs is a flat key/value list attached to
// the begin event.
func Begin(ctx context.Context, scope Scope, name string, attrs ...string) (context.Context, *Span) {
	t := FromContext(ctx)
	if !t.Level().ShouldEmit(scope) {
		return ctx, &Span{}
	}
	s := &Span{
		t:      t,
		id:     spanIDs.Add(1),
		parent: SpanID(ctx),
		scope:  scope,
		name:   name,
		start:  time.Now(),
	}
	t.Emit(&Event{
		Time:     s.start,
		Seq:      nextSeq(),
		Kind:     KindBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     name,
		Attrs:    attrsOf(attrs),
	})
	return context.WithValue(ctx, spanKey{}, s.id), s
}

// Set attaches an attribute to the end event.
func (s *Span) Set(key, value string) *Span {
	if s == nil || s.t == nil {
		return s
	}
	if s.attrs == nil {
		s.attrs = make(map[string]string)
	}
	s.attrs[key] = value
	return s
}

// ID returns the span id, 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// End closes the span and returns its duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.t == nil {
		return 0
	}
	now := time.Now()
	s.t.Emit(&Event{
		Time:     now,
		Seq:      nextSeq(),
		Kind:     KindEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Attrs:    s.attrs,
	})
	return now.Sub(s.start)
}

// Point records an instant event under the span in ctx.
func Point(ctx context.Context, scope Scope, name, detail string, attrs ...string) {
	instant(ctx, KindPoint, scope, name, detail, attrs)
}

// Warn records a recoverable problem. Warnings are kept at every level but
// off.
func Warn(ctx context.Context, scope Scope, name, detail string, attrs ...string) {
	instant(ctx, KindWarn, scope, name, detail, attrs)
}

func instant(ctx context.Context, kind Kind, scope Scope, name, detail string, kv []string) {
	t := FromContext(ctx)
	ev := Event{Kind: kind, Scope: scope}
	if !t.Level().admits(&ev) {
		return
	}
	ev.Time = time.Now()
	ev.Seq = nextSeq()
	ev.ParentID = SpanID(ctx)
	ev.Name = name
	ev.Detail = detail
	ev.Attrs = attrsOf(kv)
	t.Emit(&ev)
}
