package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDisplayPathRelativeOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()

	baseDir := filepath.Join(tmp, "base")
	otherDir := filepath.Join(tmp, "other")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		t.Fatalf("failed to create base dir: %v", err)
	}

	target := filepath.Join(otherDir, "doc.xml")
	got := DisplayPath(target, PathRelative, baseDir)
	if want := normalizePath(target); got != want {
		t.Fatalf("expected absolute fallback %q, got %q", want, got)
	}
}

func TestDisplayPathRelativeInsideBase(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "nested", "doc.xml")

	got := DisplayPath(target, PathRelative, tmp)
	if want := "nested/doc.xml"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDisplayPathBasename(t *testing.T) {
	if got := DisplayPath("/a/b/c.xml", PathBasename, ""); got != "c.xml" {
		t.Fatalf("unexpected basename %q", got)
	}
}
