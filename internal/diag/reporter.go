package diag

// Reporter is the minimal sink contract for diagnostic producers.
// *Collector is the main implementation.
type Reporter interface {
	Record(d Diagnostic)
}

// ReportBuilder accumulates diagnostic details before emitting to a Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to r.
func NewReportBuilder(r Reporter, sev Severity, code Code, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag:     New(sev, code, msg),
	}
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code Code, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, msg)
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code Code, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, msg)
}

// ReportInfo is a shortcut for SevInfo diagnostics.
func ReportInfo(r Reporter, code Code, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevInfo, code, msg)
}

// At anchors the diagnostic at one more location.
func (b *ReportBuilder) At(element string, line int) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithFragment(element, line)
	return b
}

// Key sets the grouping key used for counting.
func (b *ReportBuilder) Key(key string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Key = key
	return b
}

// Explain attaches the long-form description and optional citation.
func (b *ReportBuilder) Explain(text, clause string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithDescription(text, clause)
	return b
}

// Emit sends the diagnostic to the underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Record(b.diag)
	}
	b.emitted = true
}

// Diagnostic returns the accumulated diagnostic without emitting.
func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}
