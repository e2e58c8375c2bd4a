package format

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"docprofile/internal/xmltree"
)

// Declaration heads every canonical document. The canonical text is always
// UTF-8, whatever the input declared.
const Declaration = `<?xml version="1.0" encoding="UTF-8"?>`

// ErrMalformed is returned when the token stream does not nest.
var ErrMalformed = errors.New("malformed document")

// Options controls the canonical layout.
type Options struct {
	IndentWidth  int
	UseTabs      bool
	DropComments bool
}

func (o Options) withDefaults() Options {
	if o.IndentWidth <= 0 {
		o.IndentWidth = 2
	}
	return o
}

type printer struct {
	w       *Writer
	opt     Options
	stack   []string
	pending *xml.StartElement
	text    strings.Builder
}

// Canonical re-lays out content. Element and attribute order, prefixes and
// character data are preserved; whitespace-only text between elements is
// dropped and text is escaped so no element spans more than one line.
func Canonical(content []byte, opt Options) ([]byte, error) {
	opt = opt.withDefaults()
	p := &printer{
		w:   NewWriter(len(content)+len(Declaration)+1, opt),
		opt: opt,
	}
	p.w.Line(Declaration)

	dec := xmltree.NewDecoder(bytes.NewReader(content))
	sawRoot := false
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		switch tk := tok.(type) {
		case xml.StartElement:
			if sawRoot && len(p.stack) == 0 {
				return nil, fmt.Errorf("%w: more than one root element", ErrMalformed)
			}
			sawRoot = true
			p.flushOpen()
			start := tk.Copy()
			p.pending = &start
			p.stack = append(p.stack, qualified(tk.Name))
		case xml.EndElement:
			if err := p.closeElement(tk); err != nil {
				return nil, err
			}
		case xml.CharData:
			p.charData(tk)
		case xml.Comment:
			if opt.DropComments {
				continue
			}
			p.flushOpen()
			p.flushText()
			p.w.Line("<!--" + string(tk) + "-->")
		case xml.ProcInst:
			if tk.Target == "xml" {
				continue
			}
			p.flushOpen()
			p.flushText()
			p.w.Line(procInst(tk))
		case xml.Directive:
			p.flushOpen()
			p.w.Line("<!" + string(tk) + ">")
		}
	}
	if len(p.stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed element <%s>", ErrMalformed, p.stack[len(p.stack)-1])
	}
	if !sawRoot {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, xmltree.ErrNoRoot)
	}
	p.w.Newline()
	return p.w.Bytes(), nil
}

func (p *printer) charData(data xml.CharData) {
	if len(p.stack) == 0 {
		return
	}
	if p.pending != nil {
		p.text.Write(data)
		return
	}
	// mixed content after a child element
	if s := strings.TrimSpace(string(data)); s != "" {
		p.w.Line(escape(s))
	}
}

// flushOpen writes a buffered start tag as an open tag followed by any text
// gathered so far.
func (p *printer) flushOpen() {
	if p.pending == nil {
		return
	}
	p.w.Line(startTag(*p.pending, false))
	p.pending = nil
	p.w.IndentPush()
	p.flushText()
}

func (p *printer) flushText() {
	if p.text.Len() == 0 {
		return
	}
	if s := strings.TrimSpace(p.text.String()); s != "" {
		p.w.Line(escape(s))
	}
	p.text.Reset()
}

func (p *printer) closeElement(end xml.EndElement) error {
	name := qualified(end.Name)
	if len(p.stack) == 0 || p.stack[len(p.stack)-1] != name {
		return fmt.Errorf("%w: unexpected end element </%s>", ErrMalformed, name)
	}
	p.stack = p.stack[:len(p.stack)-1]

	if p.pending != nil {
		start := *p.pending
		p.pending = nil
		text := p.text.String()
		p.text.Reset()
		if strings.TrimSpace(text) == "" {
			p.w.Line(startTag(start, true))
			return nil
		}
		p.w.Line(startTag(start, false) + escape(text) + "</" + name + ">")
		return nil
	}
	p.w.IndentPop()
	p.w.Line("</" + name + ">")
	return nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func startTag(se xml.StartElement, selfClose bool) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(qualified(se.Name))
	for _, a := range se.Attr {
		b.WriteByte(' ')
		b.WriteString(qualified(a.Name))
		b.WriteString(`="`)
		b.WriteString(escape(a.Value))
		b.WriteByte('"')
	}
	if selfClose {
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
	}
	return b.String()
}

func procInst(pi xml.ProcInst) string {
	if len(pi.Inst) == 0 {
		return "<?" + pi.Target + "?>"
	}
	return "<?" + pi.Target + " " + strings.TrimSpace(string(pi.Inst)) + "?>"
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
