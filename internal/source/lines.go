package source

// LineTable holds the lines of a bound text, each with zero or more
// annotation strings. Lines are 1-indexed.
type LineTable struct {
	text  *Text
	notes [][]string
}

// NewLineTable binds t and starts with no annotations.
func NewLineTable(t *Text) *LineTable {
	return &LineTable{
		text:  t,
		notes: make([][]string, t.LineCount()),
	}
}

// Len returns the number of lines.
func (lt *LineTable) Len() int {
	if lt == nil {
		return 0
	}
	return len(lt.notes)
}

// Text returns the bound text.
func (lt *LineTable) Text() *Text {
	if lt == nil {
		return nil
	}
	return lt.text
}

// Line returns the source of line n.
func (lt *LineTable) Line(n int) string {
	if lt == nil {
		return ""
	}
	return lt.text.Line(n)
}

// Annotate appends note to line n. It reports false and changes nothing when
// n is out of range.
func (lt *LineTable) Annotate(n int, note string) bool {
	if lt == nil || n < 1 || n > len(lt.notes) {
		return false
	}
	lt.notes[n-1] = append(lt.notes[n-1], note)
	return true
}

// Annotations returns the notes attached to line n.
func (lt *LineTable) Annotations(n int) []string {
	if lt == nil || n < 1 || n > len(lt.notes) {
		return nil
	}
	return lt.notes[n-1]
}

// Annotated returns the numbers of all lines carrying at least one note, in
// ascending order.
func (lt *LineTable) Annotated() []int {
	if lt == nil {
		return nil
	}
	var out []int
	for i, notes := range lt.notes {
		if len(notes) > 0 {
			out = append(out, i+1)
		}
	}
	return out
}
