package xmltree

import (
	"strings"

	"docprofile/internal/source"
)

const (
	// XMLNamespace is bound to the reserved xml prefix.
	XMLNamespace = "http://www.w3.org/XML/1998/namespace"
	// XSINamespace is the XML Schema instance namespace.
	XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"
)

// Name is a namespace-qualified name. Space holds the namespace URI.
type Name struct {
	Space string
	Local string
}

func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// Attr is one attribute of an element.
type Attr struct {
	Name  Name
	Value string
}

// IsNamespaceDecl reports whether a is an xmlns or xmlns:prefix declaration.
func (a Attr) IsNamespaceDecl() bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}

// ProfileName is the name profiles use for a: the local name, except for
// attributes in the xml namespace which keep their "xml:" prefix.
func (a Attr) ProfileName() string {
	if a.Name.Space == XMLNamespace || a.Name.Space == "xml" {
		return "xml:" + a.Name.Local
	}
	return a.Name.Local
}

// Element is a node of the parsed tree.
type Element struct {
	Name     Name
	Attrs    []Attr
	Children []*Element
	Parent   *Element
	Text     string // character data directly under the element
	Line     int    // line of the start tag, 1-based
}

// Document is a parsed tree together with the text it was parsed from.
type Document struct {
	Root *Element
	Text *source.Text
}

// LocalName returns the element's local name; empty for nil.
func (e *Element) LocalName() string {
	if e == nil {
		return ""
	}
	return e.Name.Local
}

// Namespace returns the namespace URI; it is informational only and never
// takes part in profile matching.
func (e *Element) Namespace() string {
	if e == nil {
		return ""
	}
	return e.Name.Space
}

// LocalNameMatches compares the local name of e with name, ignoring the
// namespace and any prefix in name.
func LocalNameMatches(e *Element, name string) bool {
	if e == nil {
		return false
	}
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return e.Name.Local == name
}

// ChildrenNamed returns the children whose local name is name.
func (e *Element) ChildrenNamed(name string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, ch := range e.Children {
		if LocalNameMatches(ch, name) {
			out = append(out, ch)
		}
	}
	return out
}

// ProfileAttrs returns the attributes subject to profile checks: namespace
// declarations and xsi:* attributes are left out.
func (e *Element) ProfileAttrs() []Attr {
	if e == nil {
		return nil
	}
	out := make([]Attr, 0, len(e.Attrs))
	for _, a := range e.Attrs {
		if a.IsNamespaceDecl() || a.Name.Space == XSINamespace {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Attr looks an attribute up by its profile name.
func (e *Element) Attr(name string) (Attr, bool) {
	for _, a := range e.ProfileAttrs() {
		if a.ProfileName() == name {
			return a, true
		}
	}
	return Attr{}, false
}

// Path returns the slash-separated local names from the root to e.
func (e *Element) Path() string {
	if e == nil {
		return ""
	}
	var parts []string
	for cur := e; cur != nil; cur = cur.Parent {
		parts = append(parts, cur.Name.Local)
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	return b.String()
}

// Walk visits e and its descendants in document order. Returning false from
// fn skips the children of the visited element.
func Walk(e *Element, fn func(*Element) bool) {
	if e == nil {
		return
	}
	if !fn(e) {
		return
	}
	for _, ch := range e.Children {
		Walk(ch, fn)
	}
}

// Count returns the number of elements in the document.
func (d *Document) Count() int {
	if d == nil {
		return 0
	}
	n := 0
	Walk(d.Root, func(*Element) bool { n++; return true })
	return n
}
