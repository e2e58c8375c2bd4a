package testkit

import (
	"fmt"
	"strings"

	"docprofile/internal/xmltree"
)

// CheckLineInvariants runs a minimal set of line invariants on a parsed
// document:
// 1) the root exists and the document is bound to its text
// 2) every element line lies inside the text and holds the element's start tag
// 3) element lines never decrease in document order
// 4) every child points back to its parent
func CheckLineInvariants(doc *xmltree.Document) error {
	if doc == nil || doc.Root == nil {
		return fmt.Errorf("nil document or root")
	}
	if doc.Text == nil {
		return fmt.Errorf("document is not bound to a text")
	}
	lines := doc.Text.LineCount()

	var firstErr error
	prev := 0
	xmltree.Walk(doc.Root, func(e *xmltree.Element) bool {
		if firstErr != nil {
			return false
		}
		if e.Line < 1 || e.Line > lines {
			firstErr = fmt.Errorf("element <%s> at line %d is outside 1..%d", e.LocalName(), e.Line, lines)
			return false
		}
		if e.Line < prev {
			firstErr = fmt.Errorf("element <%s> at line %d precedes line %d", e.LocalName(), e.Line, prev)
			return false
		}
		prev = e.Line
		if !hasStartTag(doc.Text.Line(e.Line), e.LocalName()) {
			firstErr = fmt.Errorf("line %d does not hold a start tag of <%s>: %q", e.Line, e.LocalName(), doc.Text.Line(e.Line))
			return false
		}
		for _, ch := range e.Children {
			if ch.Parent != e {
				firstErr = fmt.Errorf("child <%s> of <%s> has a wrong parent", ch.LocalName(), e.LocalName())
				return false
			}
		}
		return true
	})
	return firstErr
}

// hasStartTag reports whether line holds "<local" or "<prefix:local"
// followed by a name terminator.
func hasStartTag(line, local string) bool {
	for rest := line; ; {
		i := strings.IndexByte(rest, '<')
		if i < 0 {
			return false
		}
		rest = rest[i+1:]
		name := rest
		if end := strings.IndexAny(name, " \t/>"); end >= 0 {
			name = name[:end]
		}
		if _, after, ok := strings.Cut(name, ":"); ok {
			name = after
		}
		if name == local {
			return true
		}
	}
}
