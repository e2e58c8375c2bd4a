package schemareg

import (
	"fmt"

	"docprofile/internal/diag"
)

const (
	descOutOfDate = "A newer version of this schema exists. Documents should move to the current version."
	descDraft     = "This schema version has not been published as a standard and may still change."
)

// ReportLifecycle records the lifecycle findings of e. The Old and Draft
// bits are independent; both may fire. Old is a warning while the version is
// still a legacy standard and an error otherwise.
func ReportLifecycle(e Entry, r diag.Reporter, codePrefix string) {
	name := e.Label
	if name == "" {
		name = fmt.Sprintf("%s (version %d)", e.Namespace, e.Version)
	}
	if e.Status.Has(Old) {
		sev := diag.SevError
		if e.Status.Has(LegacyStandard) {
			sev = diag.SevWarning
		}
		diag.NewReportBuilder(r, sev, diag.SchOutOfDate.WithPrefix(codePrefix),
			fmt.Sprintf("schema version %s is out of date", name)).
			Explain(descOutOfDate, "").
			Emit()
	}
	if e.Status.Has(Draft) {
		diag.ReportWarning(r, diag.SchDraft.WithPrefix(codePrefix),
			fmt.Sprintf("schema %s is in draft status", name)).
			Explain(descDraft, "").
			Emit()
	}
}
