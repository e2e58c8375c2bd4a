// Package trace is the process log of docprofile.
//
// It records run, stage and per-document spans so slow or stuck batch runs
// can be diagnosed. Diagnostics about documents never go through here; they
// live in the diag.Collector of each run.
//
// # Usage
//
//	docprofile validate --trace=- --trace-level=document invoices/
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: failures only
//   - LevelStage: run and pipeline stage boundaries
//   - LevelDocument: one span per validated document
//   - LevelDebug: everything, including per-element events
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeStage, "parse", parentID)
//	defer span.End("")
package trace
