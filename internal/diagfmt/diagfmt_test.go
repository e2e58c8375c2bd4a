package diagfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"docprofile/internal/diag"
)

func sampleDocument(t *testing.T) Document {
	t.Helper()
	c := diag.NewCollector()
	c.BindSourceText([]byte("<X>\n  <B/>\n</X>\n"))
	diag.ReportError(c, diag.PrfElementMissing, "mandatory element <A> missing").
		At("X", 1).
		Explain("A must appear once.", "clause 4.2").
		Emit()
	diag.ReportWarning(c, diag.PrfDeprecatedElement, "element <B> is deprecated").At("B", 2).Emit()
	c.Internal(diag.EngValidatorFailed, "formal validator failed: boom")
	c.Record(diag.New(diag.SevDebug, diag.DbgStage, "stage load completed"))
	return Document{Path: "a.xml", Report: c.Snapshot(diag.DefaultReportOptions())}
}

func TestPrettyListing(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, []Document{sampleDocument(t)}, PrettyOpts{ShowSource: true, ShowDescriptions: true}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"a.xml: failed\n",
		"  1 | <X>\n    = ERROR [PRF2001] mandatory element <A> missing\n",
		"  2 |   <B/>\n    = WARNING [PRF2008] element <B> is deprecated\n",
		"  INTERNAL [ENG9004] formal validator failed: boom\n",
		"  error    PRF2001        1\n",
		"  error    process-error  1\n",
		"  warning  PRF2008        1\n",
		"  3 total\n",
		"  PRF2001: Mandatory element missing\n      A must appear once.\n      see clause 4.2\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n--- got ---\n%s", want, out)
		}
	}
	if strings.Contains(out, "DBG9901") {
		t.Errorf("debug diagnostics leaked into output:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("uncolored output contains escapes:\n%s", out)
	}
}

func TestPrettyColorAndSummary(t *testing.T) {
	docs := []Document{
		sampleDocument(t),
		{Path: "b.xml", Err: errors.New("permission denied")},
		{Path: "c.xml", Report: diag.NewCollector().Snapshot(diag.DefaultReportOptions())},
	}
	var buf bytes.Buffer
	if err := Pretty(&buf, docs, PrettyOpts{Color: true}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("colored output has no escapes:\n%s", out)
	}
	if !strings.Contains(out, "permission denied") {
		t.Errorf("read error not shown:\n%s", out)
	}
	if !strings.Contains(out, "no diagnostics") {
		t.Errorf("clean document not reported:\n%s", out)
	}
	if !strings.HasSuffix(out, "3 documents, 2 failed\n") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestPrettyTruncatesLongLines(t *testing.T) {
	c := diag.NewCollector()
	c.BindSourceText([]byte("<Root attribute=\"a rather long value\"/>\n"))
	diag.ReportError(c, diag.PrfAttributeNotAllowed, "attribute not permitted").At("Root", 1).Emit()
	doc := Document{Path: "long.xml", Report: c.Snapshot(diag.DefaultReportOptions())}

	var buf bytes.Buffer
	if err := Pretty(&buf, []Document{doc}, PrettyOpts{ShowSource: true, Width: 12}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	if !strings.Contains(buf.String(), "1 | <Root att...\n") {
		t.Errorf("line not truncated:\n%s", buf.String())
	}
}

func TestShort(t *testing.T) {
	docs := []Document{
		sampleDocument(t),
		{Path: "b.xml", Err: errors.New("no such file")},
	}
	var buf bytes.Buffer
	if err := Short(&buf, docs); err != nil {
		t.Fatalf("short: %v", err)
	}
	want := "a.xml: internal ENG9004 0 formal validator failed: boom\n" +
		"a.xml: error PRF2001 1 mandatory element <A> missing\n" +
		"a.xml: warning PRF2008 2 element <B> is deprecated\n" +
		"b.xml: fatal read 0 no such file\n"
	if got := buf.String(); got != want {
		t.Errorf("short output mismatch\n--- got ---\n%s--- want ---\n%s", got, want)
	}
}

func TestJSON(t *testing.T) {
	docs := []Document{
		sampleDocument(t),
		{Path: "b.xml", Err: errors.New("no such file")},
	}
	var buf bytes.Buffer
	if err := JSON(&buf, docs, JSONOpts{Max: 2, IncludeLines: true, IncludeDescriptions: true}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 2 || out.Failed != 2 {
		t.Fatalf("count=%d failed=%d", out.Count, out.Failed)
	}

	a := out.Documents[0]
	if a.Status != "failed" || !a.Truncated || a.Count != 2 {
		t.Errorf("unexpected document header: %+v", a)
	}
	if a.Diagnostics[0].Key != diag.ProcessErrorKey {
		t.Errorf("internal diagnostic key = %q", a.Diagnostics[0].Key)
	}
	if len(a.Lines) != 2 || len(a.Descriptions) != 1 {
		t.Errorf("lines=%d descriptions=%d", len(a.Lines), len(a.Descriptions))
	}
	found := false
	for _, row := range a.Counts {
		if row.Severity == "error" && row.Key == diag.ProcessErrorKey && row.Count == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("process-error count missing: %+v", a.Counts)
	}

	b := out.Documents[1]
	if b.Status != "unreadable" || b.Error != "no such file" || len(b.Diagnostics) != 0 {
		t.Errorf("unexpected unreadable document: %+v", b)
	}
}
