package diag

import "strings"

// Code identifies a rule. Codes are stable strings; the core codes below use
// a three-letter family prefix followed by a number.
type Code string

// ProcessErrorKey is the reserved count key under which every
// SevInternal diagnostic is tallied.
const ProcessErrorKey = "process-error"

const (
	// PlaceholderCode replaces an empty code on a recorded diagnostic.
	PlaceholderCode Code = "ENG0000"
	// PlaceholderMessage replaces an empty message on a recorded diagnostic.
	PlaceholderMessage = "(no message supplied)"
)

const (
	// Load pipeline
	LoadNotWellFormed       Code = "LOD1001"
	LoadReformatFailed      Code = "LOD1002"
	LoadCanonicalMalformed  Code = "LOD1003"
	LoadUnsupportedEncoding Code = "LOD1004"
	LoadTooLarge            Code = "LOD1005"

	// Profile checks
	PrfElementMissing       Code = "PRF2001"
	PrfCardinality          Code = "PRF2002"
	PrfElementNotPermitted  Code = "PRF2003"
	PrfElementProfiledOut   Code = "PRF2004"
	PrfAttributeMissing     Code = "PRF2005"
	PrfAttributeNotAllowed  Code = "PRF2006"
	PrfAttributeProfiledOut Code = "PRF2007"
	PrfDeprecatedElement    Code = "PRF2008"
	PrfDeprecatedAttribute  Code = "PRF2009"

	// Schema versions
	SchUnsupportedNamespace Code = "SCH3001"
	SchOutOfDate            Code = "SCH3002"
	SchDraft                Code = "SCH3003"
	SchFormalViolation      Code = "SCH3004"

	// Engine (calling-convention misuse, internal faults)
	EngNilElement          Code = "ENG9001"
	EngMalformedDiagnostic Code = "ENG9002"
	EngInvalidSeverity     Code = "ENG9003"
	EngValidatorFailed     Code = "ENG9004"
	EngCheckerPanicked     Code = "ENG9005"

	// Debug trace
	DbgStage Code = "DBG9901"
)

var codeTitle = map[Code]string{
	PlaceholderCode:         "Diagnostic without a code",
	LoadNotWellFormed:       "Document is not well-formed",
	LoadReformatFailed:      "Canonical reformat failed",
	LoadCanonicalMalformed:  "Canonical text is not well-formed",
	LoadUnsupportedEncoding: "Unsupported document encoding",
	LoadTooLarge:            "Document too large",
	PrfElementMissing:       "Mandatory element missing",
	PrfCardinality:          "Element occurs an unexpected number of times",
	PrfElementNotPermitted:  "Element not permitted here",
	PrfElementProfiledOut:   "Element is profiled out",
	PrfAttributeMissing:     "Required attribute missing",
	PrfAttributeNotAllowed:  "Attribute not permitted",
	PrfAttributeProfiledOut: "Attribute is profiled out",
	PrfDeprecatedElement:    "Deprecated element",
	PrfDeprecatedAttribute:  "Deprecated attribute",
	SchUnsupportedNamespace: "Unsupported namespace",
	SchOutOfDate:            "Schema version out of date",
	SchDraft:                "Schema is in draft status",
	SchFormalViolation:      "Formal schema violation",
	EngNilElement:           "Checker invoked without an element",
	EngMalformedDiagnostic:  "Diagnostic recorded without code or message",
	EngInvalidSeverity:      "Diagnostic recorded with an unknown severity",
	EngValidatorFailed:      "Formal schema validator failed",
	EngCheckerPanicked:      "Semantic checker panicked",
	DbgStage:                "Pipeline stage completed",
}

// Title returns the short human title of a core code, or the code itself.
func (c Code) Title() string {
	if t, ok := codeTitle[c]; ok {
		return t
	}
	return string(c)
}

// WithPrefix qualifies c with a caller-supplied prefix ("XSD" + "SCH3002" ->
// "XSD-SCH3002"). An empty prefix leaves c unchanged.
func (c Code) WithPrefix(prefix string) Code {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return c
	}
	return Code(prefix + "-" + string(c))
}

func (c Code) String() string {
	return string(c)
}
