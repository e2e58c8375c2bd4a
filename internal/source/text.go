package source

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"fortio.org/safecast"
)

// ErrTooLarge reports content whose offsets do not fit the line index.
var ErrTooLarge = errors.New("text too large")

// CheckSize reports whether n bytes of content can be indexed by NewText.
func CheckSize(n int) error {
	if _, err := safecast.Conv[uint32](n); err != nil {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, n)
	}
	return nil
}

// Text is a normalized document body with a precomputed line index.
type Text struct {
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	Hash    [32]byte
	Flags   Flags
}

// NewText strips a BOM, rewrites CRLF to LF and indexes the lines of content.
// It panics if CheckSize rejects the content.
func NewText(content []byte) *Text {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := Flags(0)
	if hadBOM {
		flags |= HadBOM
	}
	if hadCRLF {
		flags |= NormalizedCRLF
	}
	if err := CheckSize(len(content)); err != nil {
		panic(err)
	}
	return &Text{
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}
}

// LineCount returns the number of lines. A trailing newline does not open a
// new line, and empty text has none.
func (t *Text) LineCount() int {
	if t == nil || len(t.Content) == 0 {
		return 0
	}
	n := len(t.LineIdx)
	if t.Content[len(t.Content)-1] != '\n' {
		n++
	}
	return n
}

// Line returns the text of line n (1-based) without its newline. Out of range
// lines yield an empty string.
func (t *Text) Line(n int) string {
	if t == nil || n < 1 || n > t.LineCount() {
		return ""
	}
	var start int
	if n > 1 {
		start = int(t.LineIdx[n-2]) + 1
	}
	end := len(t.Content)
	if n-1 < len(t.LineIdx) {
		end = int(t.LineIdx[n-1])
	}
	return string(t.Content[start:end])
}

// Resolve converts a byte offset into a line/column position.
func (t *Text) Resolve(off int) LineCol {
	pos, err := safecast.Conv[uint32](off)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return toLineCol(t.LineIdx, pos)
}
