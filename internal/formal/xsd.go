package formal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/errors"

	"docprofile/internal/xmltree"
)

// ErrNoText is returned when a document carries no source text to validate.
var ErrNoText = errors.New("document has no source text")

// XSD validates documents with a compiled XML Schema.
type XSD struct {
	schema   *xsd.Schema
	location string
}

// LoadXSD compiles the schema at path. Imports and includes resolve relative
// to its directory.
func LoadXSD(path string) (*XSD, error) {
	schema, err := xsd.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return &XSD{schema: schema, location: path}, nil
}

// LoadXSDFS compiles the schema at location inside fsys.
func LoadXSDFS(fsys fs.FS, location string) (*XSD, error) {
	schema, err := xsd.LoadWithOptions(fsys, location, xsd.LoadOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return &XSD{schema: schema, location: location}, nil
}

// Location returns where the schema was loaded from.
func (x *XSD) Location() string { return x.location }

// Validate validates the text doc was parsed from. Line numbers in findings
// refer to that text.
func (x *XSD) Validate(ctx context.Context, doc *xmltree.Document) ([]Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil || doc.Text == nil {
		return nil, ErrNoText
	}
	err := x.schema.Validate(bytes.NewReader(doc.Text.Content))
	if err == nil {
		return nil, nil
	}
	violations, ok := xsderrors.AsValidations(err)
	if !ok {
		return nil, fmt.Errorf("schema %s: %w", x.location, err)
	}
	findings := make([]Finding, 0, len(violations))
	for _, v := range violations {
		findings = append(findings, Finding{
			Rule:    v.Code,
			Message: v.Message,
			Line:    v.Line,
			Column:  v.Column,
			Path:    v.Path,
		})
	}
	return findings, nil
}
