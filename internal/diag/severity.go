package diag

import (
	"fmt"
	"strings"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevDebug is engine-internal trace, excluded from user-facing reports.
	SevDebug Severity = iota
	// SevInfo is a benign notice, e.g. a profiled-out construct.
	SevInfo
	// SevWarning is discouraged but valid content.
	SevWarning
	// SevError is a rule violation; checking continues.
	SevError
	// SevInternal is a bug in a calling validator. It is bucketed with
	// errors but counted under ProcessErrorKey.
	SevInternal
	// SevFatal stops the run.
	SevFatal

	sevCount = int(SevFatal) + 1
)

// Severities lists every severity, most severe first.
func Severities() []Severity {
	return []Severity{SevFatal, SevInternal, SevError, SevWarning, SevInfo, SevDebug}
}

// Tiers lists the reporting tiers, most severe first. SevInternal has no tier
// of its own.
func Tiers() []Severity {
	return []Severity{SevFatal, SevError, SevWarning, SevInfo, SevDebug}
}

func (s Severity) String() string {
	switch s {
	case SevDebug:
		return "DEBUG"
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevInternal:
		return "INTERNAL"
	case SevFatal:
		return "FATAL"
	}
	return "UNKNOWN"
}

// Label is the lower-case form used in short and golden output.
func (s Severity) Label() string {
	return strings.ToLower(s.String())
}

// Valid reports whether s is one of the declared severities.
func (s Severity) Valid() bool {
	return int(s) < sevCount
}

// Tier returns the bucket a diagnostic of severity s is stored in.
func (s Severity) Tier() Severity {
	if s == SevInternal {
		return SevError
	}
	return s
}

// ParseSeverity converts a label (case-insensitive) into a Severity.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return SevDebug, nil
	case "info", "information":
		return SevInfo, nil
	case "warning", "warn":
		return SevWarning, nil
	case "error":
		return SevError, nil
	case "internal":
		return SevInternal, nil
	case "fatal":
		return SevFatal, nil
	}
	return SevDebug, fmt.Errorf("invalid severity %q (expected fatal|internal|error|warning|info|debug)", v)
}
