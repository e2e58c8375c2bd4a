package diagfmt

import (
	"docprofile/internal/diag"
	"docprofile/internal/schemareg"
)

// Document is one rendered unit: a report, or the error that kept the
// document from being validated.
type Document struct {
	Path   string // display path
	Report diag.Report
	Entry  *schemareg.Entry // resolved schema, nil if resolution failed
	Cached bool
	Err    error // read failure; Report is empty when set
}

// Failed reports whether the document counts as failed.
func (d Document) Failed() bool { return d.Err != nil || d.Report.Failed() }

// Status is "passed", "failed" or "unreadable".
func (d Document) Status() string {
	switch {
	case d.Err != nil:
		return "unreadable"
	case d.Report.Failed():
		return "failed"
	}
	return "passed"
}

// PrettyOpts configures pretty-printing of a report.
type PrettyOpts struct {
	Color bool
	Width int // maximum width of listed source lines, 0 means unlimited
	// ShowSource prints the annotated source listing.
	ShowSource bool
	// ShowDescriptions prints the long rule explanations after the counts.
	ShowDescriptions bool
}

// JSONOpts configures JSON output of a report.
type JSONOpts struct {
	Max                 int // per-document output truncation, independent of the collector cap
	IncludeLines        bool
	IncludeDescriptions bool
}
