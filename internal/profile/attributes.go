package profile

import (
	"fmt"

	"docprofile/internal/diag"
	"docprofile/internal/xmltree"
)

// AttributeSpec is the attribute allow-list of one element. Base lists the
// attributes the formal schema defines; those not also required or optional
// are profiled out.
type AttributeSpec struct {
	Required []string
	Optional []string
	Base     []string
}

const (
	descAttributeMissing    = "The profile requires this attribute."
	descAttributeNotAllowed = "Neither the profile nor the formal schema defines this attribute."
	descAttributeProfiled   = "The formal schema defines this attribute but the profile excludes it; it is ignored."
)

// CheckAttributes validates the attributes of e against spec. Namespace
// declarations and xsi:* attributes are never checked.
func CheckAttributes(e *xmltree.Element, spec AttributeSpec, r diag.Reporter) {
	if e == nil {
		diag.NewReportBuilder(r, diag.SevInternal, diag.EngNilElement, "attribute check called without an element").Emit()
		return
	}
	name := e.LocalName()

	for _, req := range spec.Required {
		if _, ok := e.Attr(req); ok {
			continue
		}
		diag.ReportError(r, diag.PrfAttributeMissing,
			fmt.Sprintf("required attribute %q missing on <%s>", req, name)).
			At(name, e.Line).
			Key(string(diag.PrfAttributeMissing) + ":" + name + "@" + req).
			Explain(descAttributeMissing, "").
			Emit()
	}

	required := toSet(spec.Required)
	optional := toSet(spec.Optional)
	base := toSet(spec.Base)

	for _, a := range e.ProfileAttrs() {
		attr := a.ProfileName()
		if _, ok := required[attr]; ok {
			continue
		}
		if _, ok := optional[attr]; ok {
			continue
		}
		if _, ok := base[attr]; ok {
			diag.ReportInfo(r, diag.PrfAttributeProfiledOut,
				fmt.Sprintf("attribute %q on <%s> is profiled out", attr, name)).
				At(name, e.Line).
				Explain(descAttributeProfiled, "").
				Emit()
			continue
		}
		diag.ReportError(r, diag.PrfAttributeNotAllowed,
			fmt.Sprintf("attribute %q not permitted on <%s>", attr, name)).
			At(name, e.Line).
			Key(string(diag.PrfAttributeNotAllowed) + ":" + name + "@" + attr).
			Explain(descAttributeNotAllowed, "").
			Emit()
	}
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}
