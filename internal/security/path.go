package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathDenied indicates a path failed validation against the sandbox root.
var ErrPathDenied = errors.New("path denied")

// Path validates file paths against a single sandbox root to prevent path
// traversal (CWE-22). Relative paths resolve under the root; traversal
// segments are rejected before resolution so that "../../etc/passwd" fails
// no matter where the root points.
type Path struct {
	root string
}

// NewPath creates a path validator rooted at dir. dir is resolved to an
// absolute path at construction time.
func NewPath(dir string) (*Path, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: root directory is empty", ErrPathDenied)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving root directory %q: %w", dir, err)
	}
	return &Path{root: abs}, nil
}

// Root returns the absolute sandbox root.
func (p *Path) Root() string {
	return p.root
}

// Validate validates a file path and returns the safe absolute path.
//
// Checks, in order:
//  1. Reject traversal segments ("..") in the raw input.
//  2. Resolve relative paths under the root and clean.
//  3. Require the result to stay under the root.
//  4. Resolve symlinks and re-check, so a link cannot escape the sandbox.
func (p *Path) Validate(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathDenied)
	}

	// Raw traversal check before any cleaning; Clean would fold "a/../b"
	// into "b" and hide the attempt.
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: traversal segment in %q", ErrPathDenied, path)
		}
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(p.root, abs)
	}
	abs = filepath.Clean(abs)

	if !p.contains(abs) {
		return "", fmt.Errorf("%w: %q is outside %q", ErrPathDenied, abs, p.root)
	}

	// Symlink resolution; a missing file is fine (the caller may be about
	// to create it), any other failure is not.
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", fmt.Errorf("resolving symlinks for %q: %w", abs, err)
	}

	if real != abs && !p.contains(real) {
		return "", fmt.Errorf("%w: symlink %q points outside %q", ErrPathDenied, path, p.root)
	}

	return real, nil
}

// contains reports whether abs is the root or lies under it.
func (p *Path) contains(abs string) bool {
	if abs == p.root {
		return true
	}
	return strings.HasPrefix(abs, p.root+string(filepath.Separator))
}
