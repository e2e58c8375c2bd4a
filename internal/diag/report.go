package diag

import "slices"

// ReportOptions selects what a user-facing report contains.
type ReportOptions struct {
	// IncludeInternal keeps SevInternal diagnostics in the error tier.
	// They are always counted under ProcessErrorKey either way.
	IncludeInternal bool
	// IncludeDebug keeps the debug tier.
	IncludeDebug bool
}

// DefaultReportOptions shows internal errors and hides debug trace.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{IncludeInternal: true}
}

// AnnotatedLine is one source line with its annotations.
type AnnotatedLine struct {
	Line  int      `json:"line" msgpack:"line"`
	Text  string   `json:"text" msgpack:"text"`
	Notes []string `json:"notes" msgpack:"notes"`
}

// Tier is the ordered content of one severity tier.
type Tier struct {
	Severity Severity     `json:"severity" msgpack:"severity"`
	Items    []Diagnostic `json:"items" msgpack:"items"`
}

// Report is an immutable, serializable snapshot of a Collector.
type Report struct {
	Document     string          `json:"document,omitempty" msgpack:"document"`
	Tiers        []Tier          `json:"tiers" msgpack:"tiers"`
	Counts       Counts          `json:"counts" msgpack:"counts"`
	Lines        []AnnotatedLine `json:"lines,omitempty" msgpack:"lines"`
	LineCount    int             `json:"line_count" msgpack:"line_count"`
	Descriptions []Description   `json:"descriptions,omitempty" msgpack:"descriptions"`
}

// Snapshot builds a Report. Tiers are sorted by line; empty tiers are kept
// so consumers can rely on their presence.
func (c *Collector) Snapshot(opts ReportOptions) Report {
	var r Report
	if c == nil {
		return r
	}
	for _, tier := range Tiers() {
		if tier == SevDebug && !opts.IncludeDebug {
			continue
		}
		bag := &Bag{items: slices.Clone(c.tiers[tier].Items())}
		if !opts.IncludeInternal {
			bag.items = slices.DeleteFunc(bag.items, func(d Diagnostic) bool { return d.Severity == SevInternal })
		}
		bag.Sort()
		r.Tiers = append(r.Tiers, Tier{Severity: tier, Items: bag.Items()})
	}

	r.Counts = c.Counts()
	if !opts.IncludeInternal || !opts.IncludeDebug {
		r.Counts = filterCounts(r.Counts, opts)
	}

	if c.lines != nil {
		r.LineCount = c.lines.Len()
		for _, n := range c.lines.Annotated() {
			r.Lines = append(r.Lines, AnnotatedLine{
				Line:  n,
				Text:  c.lines.Line(n),
				Notes: slices.Clone(c.lines.Annotations(n)),
			})
		}
	}
	r.Descriptions = c.LongDescriptions()
	return r
}

func filterCounts(in Counts, opts ReportOptions) Counts {
	out := Counts{}
	for _, t := range in.Tiers {
		if t.Severity == SevDebug && !opts.IncludeDebug {
			continue
		}
		if t.Severity == SevError && !opts.IncludeInternal {
			if n, ok := t.Keys[ProcessErrorKey]; ok {
				keys := make(map[string]int, len(t.Keys))
				for k, v := range t.Keys {
					if k != ProcessErrorKey {
						keys[k] = v
					}
				}
				t = TierCount{Severity: t.Severity, Keys: keys, Total: t.Total - n}
			}
		}
		out.Tiers = append(out.Tiers, t)
		out.Total += t.Total
	}
	return out
}

// Items returns the diagnostics of sev's tier.
func (r Report) Items(sev Severity) []Diagnostic {
	want := sev.Tier()
	for _, t := range r.Tiers {
		if t.Severity == want {
			return t.Items
		}
	}
	return nil
}

// All returns every reported diagnostic, most severe tier first.
func (r Report) All() []Diagnostic {
	var out []Diagnostic
	for _, t := range r.Tiers {
		out = append(out, t.Items...)
	}
	return out
}

// Failed reports whether the report holds any fatal or error-tier diagnostic.
func (r Report) Failed() bool {
	return len(r.Items(SevFatal)) > 0 || len(r.Items(SevError)) > 0
}
