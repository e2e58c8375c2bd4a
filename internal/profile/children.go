package profile

import (
	"fmt"
	"strings"

	"docprofile/internal/diag"
	"docprofile/internal/xmltree"
)

// ChildSpec is one entry of a child allow-list. Zero bounds default to
// one; use None for an optional child.
type ChildSpec struct {
	Name string
	Min  Occurs
	Max  Occurs
}

// Required is a child that must occur exactly once.
func Required(name string) ChildSpec { return ChildSpec{Name: name, Min: 1, Max: 1} }

// Optional is a child that may occur at most once.
func Optional(name string) ChildSpec { return ChildSpec{Name: name, Min: None, Max: 1} }

// Repeated is a child with at least min occurrences and no upper limit.
func Repeated(name string, min int) ChildSpec {
	return ChildSpec{Name: name, Min: Times(min), Max: Unbounded}
}

// Allows reports whether n occurrences fit the spec.
func (s ChildSpec) Allows(n int) bool {
	if n < s.Min.Count() {
		return false
	}
	upper := s.Max.Count()
	return upper < 0 || n <= upper
}

const (
	descElementMissing = "The profile requires this element to be present."
	descCardinality    = "The number of occurrences of this element is outside the range the profile allows."
	descNotPermitted   = "The profile does not allow this element at this position."
	descProfiledOut    = "The formal schema allows this element but the profile excludes it; it is ignored."
)

// CheckChildren validates the children of parent against specs. Children the
// formal schema allows (baseSchemaChildNames) but specs leave out are
// reported as profiled out. Any other unlisted child is an error unless
// allowForeign is set. It returns false iff a missing, cardinality or
// not-permitted diagnostic was recorded.
func CheckChildren(parent *xmltree.Element, specs []ChildSpec, baseSchemaChildNames []string, allowForeign bool, r diag.Reporter) bool {
	if parent == nil {
		diag.NewReportBuilder(r, diag.SevInternal, diag.EngNilElement, "child check called without a parent element").Emit()
		return false
	}
	ok := true
	parentName := parent.LocalName()

	listed := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		listed[localPart(spec.Name)] = struct{}{}

		found := parent.ChildrenNamed(spec.Name)
		count := len(found)
		switch {
		case count == 0 && spec.Min.Count() > 0:
			ok = false
			diag.ReportError(r, diag.PrfElementMissing,
				fmt.Sprintf("mandatory element <%s> missing from <%s>", spec.Name, parentName)).
				At(parentName, parent.Line).
				Key(string(diag.PrfElementMissing) + ":" + parentName + "/" + spec.Name).
				Explain(descElementMissing, "").
				Emit()
		case !spec.Allows(count):
			ok = false
			msg := fmt.Sprintf("element <%s> occurs %d times in <%s>, allowed %d..%s",
				spec.Name, count, parentName, spec.Min.Count(), spec.Max)
			for _, child := range found {
				diag.ReportError(r, diag.PrfCardinality, msg).
					At(child.LocalName(), child.Line).
					Key(string(diag.PrfCardinality) + ":" + parentName + "/" + spec.Name).
					Explain(descCardinality, "").
					Emit()
			}
		}
	}

	excluded := make(map[string]struct{}, len(baseSchemaChildNames))
	for _, name := range baseSchemaChildNames {
		name = localPart(name)
		if _, ok := listed[name]; !ok {
			excluded[name] = struct{}{}
		}
	}

	for _, child := range parent.Children {
		name := child.LocalName()
		if _, ok := listed[name]; ok {
			continue
		}
		if _, out := excluded[name]; out {
			diag.ReportInfo(r, diag.PrfElementProfiledOut,
				fmt.Sprintf("element <%s> in <%s> is profiled out", name, parentName)).
				At(name, child.Line).
				Explain(descProfiledOut, "").
				Emit()
			continue
		}
		if allowForeign {
			continue
		}
		ok = false
		diag.ReportError(r, diag.PrfElementNotPermitted,
			fmt.Sprintf("element <%s> not permitted in <%s>", name, parentName)).
			At(name, child.Line).
			Key(string(diag.PrfElementNotPermitted) + ":" + parentName + "/" + name).
			Explain(descNotPermitted, "").
			Emit()
	}
	return ok
}

func localPart(name string) string {
	if _, local, ok := strings.Cut(name, ":"); ok {
		return local
	}
	return name
}
