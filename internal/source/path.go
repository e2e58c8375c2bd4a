package source

import (
	"os"
	"path/filepath"
	"strings"
)

// PathMode selects how document paths are displayed.
type PathMode uint8

const (
	// PathAuto keeps short or relative paths and shortens long absolute ones.
	PathAuto PathMode = iota
	// PathAbsolute always uses absolute paths.
	PathAbsolute
	PathRelative
	PathBasename
)

// DisplayPath formats path according to mode. baseDir is only used for
// PathRelative; empty means the working directory.
func DisplayPath(path string, mode PathMode, baseDir string) string {
	switch mode {
	case PathAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return normalizePath(abs)
		}
	case PathRelative:
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		absPath, err1 := filepath.Abs(path)
		absBase, err2 := filepath.Abs(baseDir)
		if err1 == nil && err2 == nil {
			if rel, err := filepath.Rel(absBase, absPath); err == nil && !strings.HasPrefix(rel, "..") {
				return normalizePath(rel)
			}
			return normalizePath(absPath)
		}
	case PathBasename:
		return filepath.Base(path)
	case PathAuto:
		if len(path) < 40 || !filepath.IsAbs(path) {
			return normalizePath(path)
		}
		return filepath.Base(path)
	}
	return normalizePath(path)
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
