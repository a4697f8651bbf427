package security

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestNewPath(t *testing.T) {
	if _, err := NewPath(""); !errors.Is(err, ErrPathDenied) {
		t.Errorf("NewPath(\"\") = %v, want ErrPathDenied", err)
	}

	root := t.TempDir()
	p, err := NewPath(root)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	if p.Root() != root {
		t.Errorf("Root() = %q, want %q", p.Root(), root)
	}
}

func TestPathValidate(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := NewPath(root)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative file inside root", "notes.txt", false},
		{"absolute file inside root", filepath.Join(root, "notes.txt"), false},
		{"new file inside root", "new.txt", false},
		{"nested new file", filepath.Join("sub", "dir", "f.txt"), false},
		{"classic traversal", "../../etc/passwd", true},
		{"hidden traversal", "sub/../../escape.txt", true},
		{"lone parent segment", "..", true},
		{"absolute outside root", "/etc/passwd", true},
		{"empty path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Validate(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrPathDenied) {
					t.Errorf("Validate(%q) = (%q, %v), want ErrPathDenied", tt.path, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate(%q): %v", tt.path, err)
			}
			if !filepath.IsAbs(got) {
				t.Errorf("Validate(%q) = %q, want absolute path", tt.path, got)
			}
		})
	}
}

func TestPathValidateSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test skipped on windows")
	}

	root := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("secret"), 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "link.txt")
	if err := os.Symlink(secret, link); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	p, err := NewPath(root)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}

	if _, err := p.Validate("link.txt"); !errors.Is(err, ErrPathDenied) {
		t.Errorf("Validate(symlink escape) = %v, want ErrPathDenied", err)
	}
}
