// Package formal adapts formal schema validators to the pipeline. A
// validator is an opaque handle: the pipeline forwards its findings and never
// interprets the schema's rules.
package formal

import (
	"context"

	"docprofile/internal/xmltree"
)

// Finding is one violation reported by a formal validator.
type Finding struct {
	Rule    string // validator rule identifier, e.g. cvc-complex-type.2.4
	Message string
	Line    int
	Column  int
	Path    string
}

// Validator checks a parsed document against a formal schema. Document
// violations are returned as findings; the error is reserved for failures of
// the validator itself.
type Validator interface {
	Validate(ctx context.Context, doc *xmltree.Document) ([]Finding, error)
}

// Func adapts a function to Validator.
type Func func(ctx context.Context, doc *xmltree.Document) ([]Finding, error)

// Validate calls f.
func (f Func) Validate(ctx context.Context, doc *xmltree.Document) ([]Finding, error) {
	return f(ctx, doc)
}
