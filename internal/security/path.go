// Package security confines the files the server reads and writes to its
// working directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator resolves user-supplied paths against a root directory and
// rejects anything that escapes it.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. dir need not exist yet.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute root directory.
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve turns path, absolute or relative to the root, into a cleaned
// absolute path inside the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	clean := filepath.Clean(path)

	within, err := v.IsWithin(clean)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}
	return clean, nil
}

// OutputPath returns where a generated file called fileName is written. Any
// directory components in fileName are dropped.
func (v *PathValidator) OutputPath(fileName string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(fileName, "\x00", ""))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid output file name: %q", fileName)
	}
	return v.Resolve(base)
}

// IsWithin reports whether path lies inside the root. Symlinks on either
// side are resolved so a link cannot lead out of the root.
func (v *PathValidator) IsWithin(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}

	realRoot := v.root
	if resolved, err := filepath.EvalSymlinks(v.root); err == nil {
		realRoot = resolved
	}

	inside := func(p string) bool {
		return hasDirPrefix(p, v.root) || hasDirPrefix(p, realRoot)
	}
	return inside(cleanPath) && inside(realPath), nil
}

func hasDirPrefix(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}
