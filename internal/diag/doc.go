// Package diag defines the diagnostic model shared by the load pipeline, the
// profile checkers and every document-type specific validator.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – closed enum: Fatal, Internal, Error, Warning, Info, Debug.
//   - Code – stable rule identifier (see codes.go); callers may qualify it with
//     a prefix via Code.WithPrefix.
//   - Message – short, actionable text.
//   - Fragments – the element occurrences the finding is anchored at. One rule
//     broken in many places is one Diagnostic with many fragments.
//   - Key – optional grouping key for counting; the code is used otherwise.
//   - Description / Clause – optional long-form explanation and citation.
//
// # Collector
//
// A Collector belongs to exactly one validation run. It buckets diagnostics
// by severity tier, counts them per key, keeps a 1-indexed line table of the
// canonical source text with annotations, and merges rule explanations so
// each is shown once. Recording never fails: a diagnostic without code or
// message is repaired with placeholders and an Internal diagnostic is added.
//
// Internal diagnostics belong to the error tier but are always counted under
// ProcessErrorKey, so validator bugs stay visible without inflating the counts
// of real document violations. Whether they appear in a user-facing Report is
// chosen by ReportOptions.IncludeInternal.
//
// # Consumers
//
//   - internal/profile and internal/schemareg record through the Reporter
//     interface or the Collector directly.
//   - internal/diagfmt renders Report snapshots as pretty, json or short text.
//   - internal/driver caches Report snapshots on disk.
package diag
