package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"unicode"

	"golang.org/x/text/encoding/htmlindex"

	"docprofile/internal/source"
)

var (
	// ErrNoRoot is returned for input without a root element.
	ErrNoRoot = errors.New("document has no root element")
	// ErrUnsupportedEncoding is returned when the declared encoding is unknown.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// ParseError describes why a text is not a well-formed document.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse normalizes content and builds its tree.
func Parse(content []byte) (*Document, error) {
	return ParseText(source.NewText(content))
}

// ParseText builds the tree of an already normalized text. Element lines
// refer to t.
func ParseText(t *source.Text) (*Document, error) {
	dec := NewDecoder(bytes.NewReader(t.Content))
	// encoding/xml does not wrap charset errors, keep ours
	var charsetErr error
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		r, err := charsetReader(label, input)
		if err != nil {
			charsetErr = err
		}
		return r, err
	}

	var stack []*Element
	var root *Element
	rootClosed := false

	for {
		line, _ := dec.InputPos()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if charsetErr != nil {
				return nil, &ParseError{Line: line, Err: charsetErr}
			}
			return nil, wrapSyntax(err, line)
		}

		switch tk := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, &ParseError{Line: line, Err: fmt.Errorf("unexpected element <%s> after document end", tk.Name.Local)}
			}
			elem := &Element{
				Name:  Name{Space: tk.Name.Space, Local: tk.Name.Local},
				Attrs: convertAttrs(tk.Attr),
				Line:  line,
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, elem)
				elem.Parent = parent
			} else {
				root = elem
			}
			stack = append(stack, elem)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					rootClosed = true
				}
			}

		case xml.CharData:
			if len(stack) == 0 {
				if !isIgnorableOutsideRoot(tk) {
					return nil, &ParseError{Line: line, Err: errors.New("unexpected character data outside root element")}
				}
				continue
			}
			stack[len(stack)-1].Text += string(tk)
		}
	}

	if root == nil {
		return nil, &ParseError{Err: ErrNoRoot}
	}
	return &Document{Root: root, Text: t}, nil
}

// NewDecoder returns a strict decoder that understands every encoding label
// known to the WHATWG index.
func NewDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.CharsetReader = charsetReader
	return dec
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, label)
	}
	return enc.NewDecoder().Reader(input), nil
}

func wrapSyntax(err error, line int) error {
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		return &ParseError{Line: syn.Line, Err: errors.New(syn.Msg)}
	}
	return &ParseError{Line: line, Err: err}
}

func convertAttrs(in []xml.Attr) []Attr {
	if len(in) == 0 {
		return nil
	}
	out := make([]Attr, len(in))
	for i, a := range in {
		out[i] = Attr{Name: Name{Space: a.Name.Space, Local: a.Name.Local}, Value: a.Value}
	}
	return out
}

func isIgnorableOutsideRoot(data []byte) bool {
	for _, r := range string(data) {
		if r == '\uFEFF' {
			continue
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
