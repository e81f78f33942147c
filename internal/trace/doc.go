// Package trace records spans and instant events for owl sessions, jobs,
// crate runs and function bodies.
//
// A tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Begin(ctx, trace.ScopeJob, "job", "target", path)
//	defer span.End("")
//
// Spans opened under ctx record the span in ctx as their parent. Warnings are
// kept at every level but off; other events are filtered by scope.
package trace
