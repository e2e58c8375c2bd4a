package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docprofile/internal/diag"
	"docprofile/internal/format"
	"docprofile/internal/formal"
	"docprofile/internal/observ"
	"docprofile/internal/progress"
	"docprofile/internal/schemareg"
	"docprofile/internal/trace"
	"docprofile/internal/xmltree"
)

var (
	// ErrUnsupportedNamespace is the error view of a document whose root
	// namespace has no registered schema.
	ErrUnsupportedNamespace = errors.New("unsupported namespace")
	// ErrNotLoaded is the error view of a document the load pipeline rejected.
	ErrNotLoaded = errors.New("document could not be loaded")
)

// Checker is a semantic check run on every loaded document after formal
// validation. Profiles implement it; domain checks plug in the same way.
type Checker interface {
	Name() string
	Check(doc *xmltree.Document, r diag.Reporter) bool
}

// Options configures a validation run.
type Options struct {
	Registry          *schemareg.Registry
	Checkers          []Checker            // run for every document
	NamespaceCheckers map[string][]Checker // run for documents of one root namespace
	Report            diag.ReportOptions
	MaxDiagnostics    int
	Format            format.Options
	Timer             *observ.Timer
	Progress          progress.Sink
	File              string // names the document in reports and progress events
}

// Result is the outcome of one validation run.
type Result struct {
	File      string
	Report    diag.Report
	Entry     *schemareg.Entry
	Canonical []byte
	State     LoadState
	Err       error // ErrNotLoaded or ErrUnsupportedNamespace, nil otherwise
}

// Failed reports whether the document has Fatal or Error diagnostics.
func (r *Result) Failed() bool { return r != nil && r.Report.Failed() }

// Validate runs the whole pipeline on one document: load, schema
// resolution, lifecycle report, formal validation and checkers. Document
// problems end up in the report; Validate never fails for them.
func Validate(ctx context.Context, raw []byte, opts Options) *Result {
	ctx, span := trace.Start(ctx, trace.ScopeDocument, "document:"+opts.File)
	defer span.End("")

	c := diag.NewCollectorWithOptions(diag.Options{MaxPerTier: opts.MaxDiagnostics})
	res := &Result{File: opts.File}
	run := stageRunner{ctx: ctx, c: c, timer: opts.Timer, sink: opts.Progress, file: opts.File, start: time.Now()}

	var loaded *Loaded
	run.stage(progress.StageLoad, func() string {
		loaded = Load(ctx, raw, c, opts.Format)
		return fmt.Sprintf("state %s, %d lines", loaded.State, c.Lines().Len())
	})
	res.State = loaded.State
	res.Canonical = loaded.Canonical
	if !loaded.OK() {
		res.Err = ErrNotLoaded
		return run.finish(res, opts.Report)
	}
	doc := loaded.Doc

	var entry schemareg.Entry
	var found bool
	run.stage(progress.StageResolve, func() string {
		ns := doc.Root.Namespace()
		entry, found = opts.Registry.Resolve(ns)
		if !found {
			diag.NewReportBuilder(c, diag.SevFatal, diag.SchUnsupportedNamespace,
				fmt.Sprintf("unsupported namespace %q on root element <%s>", ns, doc.Root.LocalName())).
				At(doc.Root.LocalName(), doc.Root.Line).
				Emit()
			return "not found: " + ns
		}
		schemareg.ReportLifecycle(entry, c, entry.CodePrefix)
		return fmt.Sprintf("%s version %d (%s)", ns, entry.Version, entry.Status)
	})
	if !found {
		res.Err = ErrUnsupportedNamespace
		return run.finish(res, opts.Report)
	}
	res.Entry = &entry

	if entry.Schema != nil {
		run.stage(progress.StageFormal, func() string {
			return runFormal(ctx, entry, doc, c)
		})
	}

	run.stage(progress.StageCheck, func() string {
		checkers := append(append([]Checker(nil), opts.Checkers...), opts.NamespaceCheckers[entry.Namespace]...)
		for _, chk := range checkers {
			runChecker(chk, doc, c)
		}
		return fmt.Sprintf("%d checkers", len(checkers))
	})

	return run.finish(res, opts.Report)
}

func runFormal(ctx context.Context, entry schemareg.Entry, doc *xmltree.Document, c *diag.Collector) string {
	findings, err := entry.Schema.Validate(ctx, doc)
	if err != nil {
		c.Internal(diag.EngValidatorFailed, fmt.Sprintf("formal validator failed: %v", err))
		trace.Error(trace.FromContext(ctx), "formal", err, trace.CurrentSpan(ctx))
		return "validator failed"
	}
	for _, f := range findings {
		code := diag.SchFormalViolation
		if f.Rule != "" {
			code = diag.Code(f.Rule)
		}
		b := diag.ReportError(c, code.WithPrefix(entry.CodePrefix), findingMessage(f)).
			Key(string(code.WithPrefix(entry.CodePrefix)))
		if f.Line > 0 {
			b.At(elementAtLine(doc, f.Line), f.Line)
		}
		b.Emit()
	}
	return fmt.Sprintf("%d findings", len(findings))
}

func findingMessage(f formal.Finding) string {
	if f.Message == "" {
		return f.Rule
	}
	return f.Message
}

// elementAtLine names the element whose start tag is on line. The canonical
// form has at most one start tag per line.
func elementAtLine(doc *xmltree.Document, line int) string {
	name := ""
	xmltree.Walk(doc.Root, func(e *xmltree.Element) bool {
		if name != "" {
			return false
		}
		if e.Line == line {
			name = e.LocalName()
			return false
		}
		return true
	})
	return name
}

// runChecker isolates the run from a panicking checker.
func runChecker(chk Checker, doc *xmltree.Document, c *diag.Collector) {
	defer func() {
		if p := recover(); p != nil {
			c.Internal(diag.EngCheckerPanicked, fmt.Sprintf("checker %s panicked: %v", chk.Name(), p))
		}
	}()
	chk.Check(doc, c)
}

type stageRunner struct {
	ctx   context.Context
	c     *diag.Collector
	timer *observ.Timer
	sink  progress.Sink
	file  string
	start time.Time
}

// stage runs fn as one pipeline stage. The note fn returns ends the trace
// span and becomes a debug diagnostic.
func (r stageRunner) stage(name progress.Stage, fn func() string) {
	progress.Emit(r.sink, progress.Event{File: r.file, Stage: name, Status: progress.StatusWorking})
	idx := r.timer.Begin(string(name))
	span := trace.Begin(trace.FromContext(r.ctx), trace.ScopeStage, string(name), trace.CurrentSpan(r.ctx))

	note := fn()

	span.End(note)
	r.timer.End(idx, note)
	r.c.Record(diag.New(diag.SevDebug, diag.DbgStage,
		fmt.Sprintf("stage %s completed: %s", name, note)))
}

func (r stageRunner) finish(res *Result, opts diag.ReportOptions) *Result {
	res.Report = r.c.Snapshot(opts)
	res.Report.Document = r.file
	status := progress.StatusDone
	if res.Report.Failed() {
		status = progress.StatusFailed
	}
	errs, warns := reportTotals(res.Report)
	progress.Emit(r.sink, progress.Event{
		File:     r.file,
		Stage:    progress.StageReport,
		Status:   status,
		Errors:   errs,
		Warnings: warns,
		Elapsed:  time.Since(r.start),
	})
	return res
}

// reportTotals returns the fatal plus error count and the warning count of r.
func reportTotals(r diag.Report) (errs, warns int) {
	c := r.Counts
	return c.Tier(diag.SevFatal).Total + c.Tier(diag.SevError).Total, c.Tier(diag.SevWarning).Total
}
