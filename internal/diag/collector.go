package diag

import (
	"fmt"
	"slices"
	"strings"

	"docprofile/internal/source"
)

// Options configures a Collector.
type Options struct {
	// MaxPerTier caps the diagnostics kept in each tier; 0 means no cap.
	// Counts keep growing past the cap.
	MaxPerTier int
}

// Description is the long-form explanation of a rule, shown once per code
// however often the rule fires.
type Description struct {
	Code    Code     `json:"code" msgpack:"code"`
	Text    string   `json:"text" msgpack:"text"`
	Clauses []string `json:"clauses,omitempty" msgpack:"clauses"`
}

// Collector accumulates the diagnostics of one validation run. It is not
// safe for concurrent use; every run owns its own Collector.
type Collector struct {
	tiers     [sevCount]*Bag
	freq      [sevCount]map[string]int
	lines     *source.LineTable
	descs     map[Code]*description
	descOrder []Code
}

type description struct {
	parts   []string
	clauses []string
}

// NewCollector returns an empty collector without limits.
func NewCollector() *Collector {
	return NewCollectorWithOptions(Options{})
}

// NewCollectorWithOptions returns an empty collector configured by opts.
func NewCollectorWithOptions(opts Options) *Collector {
	c := &Collector{descs: make(map[Code]*description)}
	for i := range c.tiers {
		c.tiers[i] = NewBag(opts.MaxPerTier)
		c.freq[i] = make(map[string]int)
	}
	return c
}

// Record stores d in its severity tier, bumps its count and anchors a line
// annotation at each fragment. Malformed diagnostics are repaired with
// placeholders and reported as SevInternal; Record itself never fails.
func (c *Collector) Record(d Diagnostic) {
	if c == nil {
		return
	}
	if !d.Severity.Valid() {
		c.store(New(SevInternal, EngInvalidSeverity,
			fmt.Sprintf("diagnostic %q recorded with unknown severity %d", d.Code, d.Severity), d.Fragments...))
		d.Severity = SevError
	}

	var missing []string
	if strings.TrimSpace(string(d.Code)) == "" {
		d.Code = PlaceholderCode
		missing = append(missing, "code")
	}
	if strings.TrimSpace(d.Message) == "" {
		d.Message = PlaceholderMessage
		missing = append(missing, "message")
	}
	c.store(d)
	if len(missing) > 0 {
		c.store(New(SevInternal, EngMalformedDiagnostic,
			fmt.Sprintf("%s diagnostic recorded without %s", d.Severity.Label(), strings.Join(missing, " and ")),
			d.Fragments...))
	}
}

// RecordAt records d anchored at frags, replacing any fragments d carried.
func (c *Collector) RecordAt(d Diagnostic, frags ...Fragment) {
	d.Fragments = frags
	c.Record(d)
}

// Internal records a calling-convention fault of a validator.
func (c *Collector) Internal(code Code, msg string, frags ...Fragment) {
	c.Record(New(SevInternal, code, msg, frags...))
}

func (c *Collector) store(d Diagnostic) {
	tier := d.Severity.Tier()
	c.tiers[tier].Add(d)
	c.freq[tier][d.CountKey()]++

	if d.Description != "" {
		c.AddLongDescription(d.Code, d.Description, d.Clause)
	}
	if d.Severity == SevInternal || d.Severity == SevDebug {
		return
	}
	for _, f := range d.Fragments {
		c.Annotate(d.Severity, d.Code, d.Message, f.Line)
	}
}

// BindSourceText splits text into 1-indexed lines and drops every previous
// annotation.
func (c *Collector) BindSourceText(text []byte) {
	c.BindText(source.NewText(text))
}

// BindText binds an already normalized text.
func (c *Collector) BindText(t *source.Text) {
	if c == nil || t == nil {
		return
	}
	c.lines = source.NewLineTable(t)
}

// Lines returns the bound line table, nil before BindSourceText.
func (c *Collector) Lines() *source.LineTable {
	if c == nil {
		return nil
	}
	return c.lines
}

// Annotate attaches a human-readable note to line. Out of range lines and an
// unbound collector are ignored.
func (c *Collector) Annotate(sev Severity, code Code, msg string, line int) {
	if c == nil || c.lines == nil {
		return
	}
	c.lines.Annotate(line, FormatAnnotation(sev, code, msg))
}

// FormatAnnotation renders the text stored on an annotated line.
func FormatAnnotation(sev Severity, code Code, msg string) string {
	return fmt.Sprintf("%s [%s] %s", sev, code, msg)
}

// AddLongDescription merges text into the explanation of code. Identical
// text is kept once; distinct text is appended.
func (c *Collector) AddLongDescription(code Code, text, clause string) {
	if c == nil {
		return
	}
	text = strings.TrimSpace(text)
	clause = strings.TrimSpace(clause)
	if text == "" && clause == "" {
		return
	}
	desc, ok := c.descs[code]
	if !ok {
		desc = &description{}
		c.descs[code] = desc
		c.descOrder = append(c.descOrder, code)
	}
	if text != "" && !slices.Contains(desc.parts, text) {
		desc.parts = append(desc.parts, text)
	}
	if clause != "" && !slices.Contains(desc.clauses, clause) {
		desc.clauses = append(desc.clauses, clause)
	}
}

// LongDescriptions returns the merged explanations in first-seen order.
func (c *Collector) LongDescriptions() []Description {
	if c == nil {
		return nil
	}
	out := make([]Description, 0, len(c.descOrder))
	for _, code := range c.descOrder {
		desc := c.descs[code]
		out = append(out, Description{
			Code:    code,
			Text:    strings.Join(desc.parts, "\n"),
			Clauses: slices.Clone(desc.clauses),
		})
	}
	return out
}

// Diagnostics returns the diagnostics of a tier in recording order.
// SevInternal resolves to the error tier.
func (c *Collector) Diagnostics(sev Severity) []Diagnostic {
	if c == nil || !sev.Valid() {
		return nil
	}
	return slices.Clone(c.tiers[sev.Tier()].Items())
}

// HasFatal reports whether the run was aborted.
func (c *Collector) HasFatal() bool {
	return c != nil && c.tiers[SevFatal].Len() > 0
}

// HasErrors reports whether any fatal or error-tier diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	return c != nil && (c.HasFatal() || c.tiers[SevError].Len() > 0)
}

// Counts returns per-tier occurrence counts keyed by CountKey.
func (c *Collector) Counts() Counts {
	counts := Counts{}
	if c == nil {
		return counts
	}
	for _, tier := range Tiers() {
		tc := TierCount{Severity: tier, Keys: make(map[string]int, len(c.freq[tier]))}
		for k, n := range c.freq[tier] {
			tc.Keys[k] = n
			tc.Total += n
		}
		counts.Tiers = append(counts.Tiers, tc)
		counts.Total += tc.Total
	}
	return counts
}
