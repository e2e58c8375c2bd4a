package diagfmt

import (
	"encoding/json"
	"io"

	"docprofile/internal/diag"
)

// FragmentJSON is one location a diagnostic is anchored at.
type FragmentJSON struct {
	Element string `json:"element,omitempty"`
	Line    int    `json:"line"`
}

// DiagnosticJSON is a diagnostic in JSON form.
type DiagnosticJSON struct {
	Severity  string         `json:"severity"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Key       string         `json:"key"`
	Fragments []FragmentJSON `json:"fragments,omitempty"`
	Clause    string         `json:"clause,omitempty"`
}

// CountJSON is one row of the occurrence table.
type CountJSON struct {
	Severity string `json:"severity"`
	Key      string `json:"key"`
	Count    int    `json:"count"`
}

// DocumentJSON is the JSON result of one document.
type DocumentJSON struct {
	File         string               `json:"file"`
	Status       string               `json:"status"`
	Namespace    string               `json:"namespace,omitempty"`
	Version      int                  `json:"version,omitempty"`
	Cached       bool                 `json:"cached,omitempty"`
	Error        string               `json:"error,omitempty"`
	Diagnostics  []DiagnosticJSON     `json:"diagnostics"`
	Count        int                  `json:"count"`
	Truncated    bool                 `json:"truncated,omitempty"`
	Counts       []CountJSON          `json:"counts"`
	Lines        []diag.AnnotatedLine `json:"lines,omitempty"`
	Descriptions []diag.Description   `json:"descriptions,omitempty"`
}

// DiagnosticsOutput is the root of the JSON output.
type DiagnosticsOutput struct {
	Documents []DocumentJSON `json:"documents"`
	Count     int            `json:"count"`
	Failed    int            `json:"failed"`
}

// BuildDiagnosticsOutput assembles the JSON output without serializing it.
func BuildDiagnosticsOutput(docs []Document, opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Documents: make([]DocumentJSON, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, buildDocument(d, opts))
		if d.Failed() {
			out.Failed++
		}
	}
	out.Count = len(out.Documents)
	return out
}

func buildDocument(d Document, opts JSONOpts) DocumentJSON {
	doc := DocumentJSON{
		File:        d.Path,
		Status:      d.Status(),
		Cached:      d.Cached,
		Diagnostics: []DiagnosticJSON{},
		Counts:      buildCounts(d.Report.Counts),
	}
	if d.Err != nil {
		doc.Error = d.Err.Error()
	}
	if d.Entry != nil {
		doc.Namespace = d.Entry.Namespace
		doc.Version = d.Entry.Version
	}

	items := d.Report.All()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
		doc.Truncated = true
	}
	for _, it := range items[:maxItems] {
		dj := DiagnosticJSON{
			Severity: it.Severity.Label(),
			Code:     string(it.Code),
			Message:  it.Message,
			Key:      it.CountKey(),
			Clause:   it.Clause,
		}
		for _, f := range it.Fragments {
			dj.Fragments = append(dj.Fragments, FragmentJSON{Element: f.Element, Line: f.Line})
		}
		doc.Diagnostics = append(doc.Diagnostics, dj)
	}
	doc.Count = len(doc.Diagnostics)

	if opts.IncludeLines {
		doc.Lines = d.Report.Lines
	}
	if opts.IncludeDescriptions {
		doc.Descriptions = d.Report.Descriptions
	}
	return doc
}

func buildCounts(c diag.Counts) []CountJSON {
	rows := []CountJSON{}
	for _, t := range c.Tiers {
		for _, k := range t.SortedKeys() {
			rows = append(rows, CountJSON{Severity: t.Severity.Label(), Key: k, Count: t.Keys[k]})
		}
	}
	return rows
}

// JSON writes the documents as indented JSON.
func JSON(w io.Writer, docs []Document, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(docs, opts))
}
