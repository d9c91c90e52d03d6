package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestIsDirNotEmpty(t *testing.T) {
	dir := t.TempDir()

	full := filepath.Join(dir, "full")
	if err := os.Mkdir(full, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(full, "a.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0755); err != nil {
		t.Fatal(err)
	}

	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"directory with entries", full, true},
		{"empty directory", empty, false},
		{"regular file", file, false},
		{"missing path", filepath.Join(dir, "nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsDirNotEmpty(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("IsDirNotEmpty(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}

	t.Run("empty argument", func(t *testing.T) {
		_, err := IsDirNotEmpty("")
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("got %v, want ErrInvalidArgument", err)
		}
	})
}

func TestDeleteRecursively(t *testing.T) {
	t.Run("deletes nested tree", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", t.TempDir())

		dir := t.TempDir()
		target := filepath.Join(dir, "ext")
		if err := os.MkdirAll(filepath.Join(target, "nested"), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(target, "nested", "a.jar"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := DeleteRecursively(target); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(target); !os.IsNotExist(err) {
			t.Errorf("target still exists after delete (stat err: %v)", err)
		}
	})

	t.Run("missing path is a no-op", func(t *testing.T) {
		if err := DeleteRecursively(filepath.Join(t.TempDir(), "nope")); err != nil {
			t.Errorf("got %v, want nil for missing path", err)
		}
	})

	t.Run("empty argument", func(t *testing.T) {
		if err := DeleteRecursively(""); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("got %v, want ErrInvalidArgument", err)
		}
	})
}

func TestFileNameFromURI(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
		wantErr  bool
	}{
		{"plain artifact", "https://example.com/libs/plot-1.0.jar", "plot-1.0.jar", false},
		{"query ignored", "https://example.com/a/b.zip?token=abc", "b.zip", false},
		{"single segment", "https://example.com/b.zip", "b.zip", false},
		{"no path", "https://example.com", "", true},
		{"root path", "https://example.com/", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FileNameFromURI(tt.uri)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("got %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("FileNameFromURI(%q) = %q, want %q", tt.uri, got, tt.expected)
			}
		})
	}
}

func TestIsAncestorOf(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		parent   string
		child    string
		expected bool
	}{
		{"direct child", dir, filepath.Join(dir, "a.jar"), true},
		{"nested child", dir, filepath.Join(dir, "x", "y", "a.jar"), true},
		{"same path", dir, dir, true},
		{"unnormalized child", dir, filepath.Join(dir, "x", "..", "a.jar"), true},
		{"sibling", dir, dir + "-other", false},
		{"parent of parent", filepath.Join(dir, "x"), dir, false},
		{"escape via dotdot", dir, filepath.Join(dir, "..", "escape"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsAncestorOf(tt.parent, tt.child)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("IsAncestorOf(%q, %q) = %v, want %v", tt.parent, tt.child, got, tt.expected)
			}
		})
	}

	t.Run("empty argument", func(t *testing.T) {
		if _, err := IsAncestorOf("", "x"); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("got %v, want ErrInvalidArgument", err)
		}
		if _, err := IsAncestorOf("x", ""); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("got %v, want ErrInvalidArgument", err)
		}
	})
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := EnsureDir(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}

	// Idempotent on an existing directory.
	if err := EnsureDir(dir); err != nil {
		t.Errorf("second EnsureDir returned %v, want nil", err)
	}

	if err := EnsureDir(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}
}
