package diag

// Fragment anchors a diagnostic to an element (or attribute) occurrence in
// the bound source text.
type Fragment struct {
	Element string `json:"element,omitempty" msgpack:"element"`
	Line    int    `json:"line,omitempty" msgpack:"line"` // 1-based, 0 if unknown
}

// Diagnostic is one finding. A diagnostic with several fragments stands for
// one rule broken at several places and is stored once.
type Diagnostic struct {
	Severity    Severity   `json:"severity" msgpack:"severity"`
	Code        Code       `json:"code" msgpack:"code"`
	Message     string     `json:"message" msgpack:"message"`
	Fragments   []Fragment `json:"fragments,omitempty" msgpack:"fragments"`
	Key         string     `json:"key,omitempty" msgpack:"key"`
	Description string     `json:"description,omitempty" msgpack:"description"`
	Clause      string     `json:"clause,omitempty" msgpack:"clause"`
}

// New returns a diagnostic anchored at the given fragments.
func New(sev Severity, code Code, msg string, frags ...Fragment) Diagnostic {
	return Diagnostic{
		Severity:  sev,
		Code:      code,
		Message:   msg,
		Fragments: frags,
	}
}

// CountKey is the key this diagnostic is counted under: the grouping key if
// set, otherwise the code. SevInternal always counts under ProcessErrorKey.
func (d Diagnostic) CountKey() string {
	if d.Severity == SevInternal {
		return ProcessErrorKey
	}
	if d.Key != "" {
		return d.Key
	}
	return string(d.Code)
}

// Line returns the line of the first fragment, or 0.
func (d Diagnostic) Line() int {
	for _, f := range d.Fragments {
		if f.Line > 0 {
			return f.Line
		}
	}
	return 0
}

func (d Diagnostic) WithFragment(element string, line int) Diagnostic {
	d.Fragments = append(d.Fragments, Fragment{Element: element, Line: line})
	return d
}

func (d Diagnostic) WithKey(key string) Diagnostic {
	d.Key = key
	return d
}

// WithDescription attaches the long-form explanation and optional citation.
func (d Diagnostic) WithDescription(text, clause string) Diagnostic {
	d.Description = text
	d.Clause = clause
	return d
}
