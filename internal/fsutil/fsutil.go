// Package fsutil provides the filesystem helpers the manager relies on:
// directory emptiness checks, trash-aware recursive deletion, URI-to-filename
// derivation, and path containment checks.
package fsutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidArgument reports an absent required parameter.
var ErrInvalidArgument = errors.New("invalid argument")

// IsDirNotEmpty reports whether path is a directory containing at least one
// entry. A non-existent path, a regular file, and an empty directory all
// report false.
func IsDirNotEmpty(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("%w: path is empty", ErrInvalidArgument)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return false, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return false, fmt.Errorf("reading directory %s: %w", path, err)
	}
	return len(entries) > 0, nil
}

// DeleteRecursively removes path and everything below it. It first attempts a
// move to the user's trash; if no trash is available it falls back to a
// permanent recursive delete. Deleting a path that no longer exists is a
// no-op.
func DeleteRecursively(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path is empty", ErrInvalidArgument)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := moveToTrash(path); err == nil {
		return nil
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// FileNameFromURI extracts the last path segment of uri.
func FileNameFromURI(uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("%w: uri is empty", ErrInvalidArgument)
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parsing uri %q: %w", uri, err)
	}

	name := filepath.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("%w: uri %q has no path segment", ErrInvalidArgument, uri)
	}
	return name, nil
}

// IsAncestorOf reports whether child's path, after normalization, is the same
// as or nested under parent's path.
func IsAncestorOf(parent, child string) (bool, error) {
	if parent == "" || child == "" {
		return false, fmt.Errorf("%w: path is empty", ErrInvalidArgument)
	}

	absParent, err := filepath.Abs(filepath.Clean(parent))
	if err != nil {
		return false, fmt.Errorf("normalizing %s: %w", parent, err)
	}
	absChild, err := filepath.Abs(filepath.Clean(child))
	if err != nil {
		return false, fmt.Errorf("normalizing %s: %w", child, err)
	}

	if absParent == absChild {
		return true, nil
	}

	rel, err := filepath.Rel(absParent, absChild)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// EnsureDir creates the directory if it does not exist.
func EnsureDir(dirPath string) error {
	if dirPath == "" {
		return fmt.Errorf("%w: path is empty", ErrInvalidArgument)
	}
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, 0755)
	}
	return nil
}
