package driver

import (
	"context"
	"errors"
	"fmt"

	"docprofile/internal/diag"
	"docprofile/internal/format"
	"docprofile/internal/source"
	"docprofile/internal/trace"
	"docprofile/internal/xmltree"
)

// LoadState is how far the load pipeline got.
type LoadState uint8

const (
	StateRaw LoadState = iota
	StateParsed
	StateCanonical
	StateReparsed
	StateBound
)

func (s LoadState) String() string {
	switch s {
	case StateRaw:
		return "raw"
	case StateParsed:
		return "parsed"
	case StateCanonical:
		return "canonical"
	case StateReparsed:
		return "reparsed"
	case StateBound:
		return "bound"
	default:
		return "unknown"
	}
}

// Loaded is the outcome of Load. Doc is nil unless State is StateBound.
type Loaded struct {
	Doc       *xmltree.Document
	Canonical []byte
	State     LoadState
}

// OK reports whether the document is ready for checking.
func (l *Loaded) OK() bool { return l != nil && l.State == StateBound && l.Doc != nil }

const (
	descNotWellFormed = "The document is not well-formed XML and cannot be validated."
	descCanonical     = "The canonical form of the document could not be produced or read back."
	descTooLarge      = "The document exceeds the size that can be indexed by line."
)

// Replaced in tests to reach the later failure branches.
var (
	reformat  = format.Canonical
	checkSize = source.CheckSize
)

// Load runs parse, canonical reformat, reparse and line binding. Every
// failure is recorded as SevFatal in c and ends the pipeline. A failing
// reparse still binds the canonical text so its Fatal is annotated.
func Load(ctx context.Context, raw []byte, c *diag.Collector, opt format.Options) *Loaded {
	tr := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)
	out := &Loaded{State: StateRaw}

	if err := checkSize(len(raw)); err != nil {
		recordTooLarge(c, err)
		return out
	}

	span := trace.Begin(tr, trace.ScopeStage, "parse", parent)
	original := source.NewText(raw)
	if _, err := xmltree.ParseText(original); err != nil {
		span.End("failed")
		recordParseFailure(c, diag.LoadNotWellFormed, err)
		return out
	}
	span.End("")
	out.State = StateParsed

	span = trace.Begin(tr, trace.ScopeStage, "canonical", parent)
	canonical, err := reformat(original.Content, opt)
	if err != nil {
		span.End("failed")
		diag.NewReportBuilder(c, diag.SevFatal, diag.LoadReformatFailed,
			fmt.Sprintf("canonical reformat failed: %v", err)).
			Explain(descCanonical, "").
			Emit()
		return out
	}
	if err := checkSize(len(canonical)); err != nil {
		span.End("failed")
		recordTooLarge(c, err)
		return out
	}
	span.WithExtra("bytes", fmt.Sprint(len(canonical))).End("")
	out.Canonical = canonical
	out.State = StateCanonical

	span = trace.Begin(tr, trace.ScopeStage, "reparse", parent)
	text := source.NewText(canonical)
	doc, err := xmltree.ParseText(text)
	if err != nil {
		span.End("failed")
		c.BindText(text)
		recordParseFailure(c, diag.LoadCanonicalMalformed, err)
		return out
	}
	span.End("")
	out.State = StateReparsed

	c.BindText(text)
	out.Doc = doc
	out.State = StateBound
	return out
}

func recordTooLarge(c *diag.Collector, err error) {
	diag.NewReportBuilder(c, diag.SevFatal, diag.LoadTooLarge, err.Error()).
		Explain(descTooLarge, "").
		Emit()
}

func recordParseFailure(c *diag.Collector, code diag.Code, err error) {
	if errors.Is(err, xmltree.ErrUnsupportedEncoding) {
		code = diag.LoadUnsupportedEncoding
	}
	b := diag.NewReportBuilder(c, diag.SevFatal, code, err.Error()).Explain(descNotWellFormed, "")
	var pe *xmltree.ParseError
	if errors.As(err, &pe) && pe.Line > 0 {
		b.At("", pe.Line)
	}
	b.Emit()
}
