package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"docprofile/internal/diag"
)

type palette struct {
	sev    map[diag.Severity]*color.Color
	path   *color.Color
	gutter *color.Color
	passed *color.Color
	failed *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevFatal:    color.New(color.FgRed, color.Bold),
			diag.SevInternal: color.New(color.FgMagenta, color.Bold),
			diag.SevError:    color.New(color.FgRed),
			diag.SevWarning:  color.New(color.FgYellow),
			diag.SevInfo:     color.New(color.FgCyan),
			diag.SevDebug:    color.New(color.FgHiBlack),
		},
		path:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		passed: color.New(color.FgGreen, color.Bold),
		failed: color.New(color.FgRed, color.Bold),
	}
	all := []*color.Color{p.path, p.gutter, p.passed, p.failed}
	for _, c := range p.sev {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	if c, ok := p.sev[s]; ok {
		return c
	}
	return p.path
}

// Pretty writes a human-oriented rendering of every document: a status
// header, the annotated source listing, the occurrence table and the rule
// explanations.
func Pretty(w io.Writer, docs []Document, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	failed := 0
	for i, d := range docs {
		if i > 0 {
			b.WriteByte('\n')
		}
		if d.Failed() {
			failed++
		}
		writeHeader(&b, p, d)
		if d.Err != nil {
			continue
		}
		if opts.ShowSource {
			writeListing(&b, p, d.Report, opts.Width)
		}
		writeUnanchored(&b, p, d.Report)
		writeCounts(&b, p, d.Report.Counts)
		if opts.ShowDescriptions {
			writeDescriptions(&b, d.Report.Descriptions)
		}
	}
	if len(docs) > 1 {
		fmt.Fprintf(&b, "\n%d documents, %d failed\n", len(docs), failed)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeHeader(b *strings.Builder, p palette, d Document) {
	status := p.passed.Sprint(d.Status())
	if d.Failed() {
		status = p.failed.Sprint(d.Status())
	}
	b.WriteString(p.path.Sprint(d.Path))
	b.WriteString(": ")
	b.WriteString(status)
	if d.Entry != nil {
		fmt.Fprintf(b, " (%s version %d, %s)", d.Entry.Namespace, d.Entry.Version, d.Entry.Status)
	}
	if d.Cached {
		b.WriteString(" [cached]")
	}
	b.WriteByte('\n')
	if d.Err != nil {
		fmt.Fprintf(b, "  %s\n", p.severity(diag.SevFatal).Sprint(d.Err.Error()))
	}
}

func writeListing(b *strings.Builder, p palette, r diag.Report, width int) {
	if len(r.Lines) == 0 {
		return
	}
	gw := len(strconv.Itoa(max(r.LineCount, 1)))
	blank := strings.Repeat(" ", gw)
	for _, ln := range r.Lines {
		text := ln.Text
		if width > 0 {
			text = runewidth.Truncate(text, width, "...")
		}
		fmt.Fprintf(b, "  %s %s\n", p.gutter.Sprintf("%*d |", gw, ln.Line), text)
		for _, note := range ln.Notes {
			fmt.Fprintf(b, "  %s %s\n", p.gutter.Sprint(blank+" ="), colorNote(p, note))
		}
	}
}

// colorNote colors an annotation by the severity it starts with.
func colorNote(p palette, note string) string {
	head, rest, ok := strings.Cut(note, " ")
	if !ok {
		return note
	}
	sev, err := diag.ParseSeverity(head)
	if err != nil {
		return note
	}
	return p.severity(sev).Sprint(head) + " " + rest
}

// writeUnanchored lists the diagnostics without a line, which the source
// listing cannot show.
func writeUnanchored(b *strings.Builder, p palette, r diag.Report) {
	for _, d := range r.All() {
		if d.Line() > 0 {
			continue
		}
		fmt.Fprintf(b, "  %s [%s] %s\n", p.severity(d.Severity).Sprint(d.Severity.String()), d.Code, d.Message)
	}
}

func writeCounts(b *strings.Builder, p palette, c diag.Counts) {
	type row struct {
		sev   diag.Severity
		key   string
		count int
	}
	var rows []row
	keyWidth := 0
	for _, t := range c.Tiers {
		for _, k := range t.SortedKeys() {
			rows = append(rows, row{sev: t.Severity, key: k, count: t.Keys[k]})
			keyWidth = max(keyWidth, runewidth.StringWidth(k))
		}
	}
	if len(rows) == 0 {
		b.WriteString("  no diagnostics\n")
		return
	}
	sevWidth := 0
	for _, r := range rows {
		sevWidth = max(sevWidth, len(r.sev.Label()))
	}
	for _, r := range rows {
		label := r.sev.Label()
		fmt.Fprintf(b, "  %s%s  %s  %d\n",
			p.severity(r.sev).Sprint(label), strings.Repeat(" ", sevWidth-len(label)),
			runewidth.FillRight(r.key, keyWidth), r.count)
	}
	fmt.Fprintf(b, "  %d total\n", c.Total)
}

func writeDescriptions(b *strings.Builder, descs []diag.Description) {
	for _, d := range descs {
		fmt.Fprintf(b, "  %s: %s\n", d.Code, d.Code.Title())
		for line := range strings.SplitSeq(d.Text, "\n") {
			if line != "" {
				fmt.Fprintf(b, "      %s\n", line)
			}
		}
		if len(d.Clauses) > 0 {
			fmt.Fprintf(b, "      see %s\n", strings.Join(d.Clauses, "; "))
		}
	}
}
