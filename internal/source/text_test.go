package source

import (
	"errors"
	"testing"
)

func TestNewTextNormalizesBOMAndCRLF(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\r\nb\r\n")...)
	txt := NewText(raw)

	if string(txt.Content) != "a\nb\n" {
		t.Fatalf("unexpected content %q", txt.Content)
	}
	if txt.Flags&HadBOM == 0 {
		t.Error("expected HadBOM flag")
	}
	if txt.Flags&NormalizedCRLF == 0 {
		t.Error("expected NormalizedCRLF flag")
	}
}

func TestTextLineIndex(t *testing.T) {
	txt := NewText([]byte("a\nb\n"))

	expected := []uint32{1, 3}
	if len(txt.LineIdx) != len(expected) {
		t.Fatalf("expected LineIdx length %d, got %d", len(expected), len(txt.LineIdx))
	}
	for i, val := range expected {
		if txt.LineIdx[i] != val {
			t.Errorf("expected LineIdx[%d] = %d, got %d", i, val, txt.LineIdx[i])
		}
	}
	if got := txt.LineCount(); got != 2 {
		t.Errorf("expected 2 lines, got %d", got)
	}
}

func TestTextLineCountWithoutTrailingNewline(t *testing.T) {
	cases := map[string]int{
		"":       0,
		"x":      1,
		"x\ny":   2,
		"x\ny\n": 2,
		"\n":     1,
	}
	for in, want := range cases {
		if got := NewText([]byte(in)).LineCount(); got != want {
			t.Errorf("LineCount(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestTextLine(t *testing.T) {
	txt := NewText([]byte("first\nsecond\nthird"))

	if got := txt.Line(1); got != "first" {
		t.Errorf("line 1 = %q", got)
	}
	if got := txt.Line(3); got != "third" {
		t.Errorf("line 3 = %q", got)
	}
	if got := txt.Line(0); got != "" {
		t.Errorf("line 0 should be empty, got %q", got)
	}
	if got := txt.Line(4); got != "" {
		t.Errorf("line 4 should be empty, got %q", got)
	}
}

func TestTextResolve(t *testing.T) {
	txt := NewText([]byte("ab\ncd\n"))

	pos := txt.Resolve(4)
	if pos.Line != 2 || pos.Col != 2 {
		t.Fatalf("expected 2:2, got %d:%d", pos.Line, pos.Col)
	}
	pos = txt.Resolve(0)
	if pos.Line != 1 || pos.Col != 1 {
		t.Fatalf("expected 1:1, got %d:%d", pos.Line, pos.Col)
	}
}

func TestCheckSize(t *testing.T) {
	if err := CheckSize(1 << 20); err != nil {
		t.Fatalf("CheckSize(1MiB) = %v", err)
	}
	if err := CheckSize(-1); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("CheckSize(-1) = %v, want ErrTooLarge", err)
	}
}
