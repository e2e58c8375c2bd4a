package diag

import (
	"fmt"
	"sort"
	"strings"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Line     int
	Element  string
	Message  string
}

// FormatGolden renders a report into a stable, single-line-per-entry form
// suitable for golden files and short CLI output. A diagnostic with several
// fragments yields one line per fragment.
func FormatGolden(r Report) string {
	return FormatGoldenDiagnostics(r.All())
}

// FormatGoldenDiagnostics renders diagnostics the same way as FormatGolden.
func FormatGoldenDiagnostics(diags []Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, len(diags))
	for _, d := range diags {
		rendered = appendDiagnostic(rendered, d)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %d %s", d.Severity, d.Code, d.Line, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendDiagnostic(out []goldenDiagnostic, d Diagnostic) []goldenDiagnostic {
	base := goldenDiagnostic{
		Severity: d.Severity.Label(),
		Code:     string(d.Code),
		Message:  sanitizeMessage(d.Message),
	}
	if len(d.Fragments) == 0 {
		return append(out, base)
	}
	for _, f := range d.Fragments {
		g := base
		g.Line = f.Line
		g.Element = f.Element
		out = append(out, g)
	}
	return out
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
