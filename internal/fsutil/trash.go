package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// moveToTrash attempts a best-effort move of path into the user's trash,
// following the freedesktop.org trash layout on Linux and ~/.Trash on macOS.
// It returns an error when no usable trash directory exists (for example on
// Windows or when $HOME is unset); callers fall back to permanent deletion.
func moveToTrash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("normalizing %s: %w", path, err)
	}

	filesDir, infoDir, err := trashDirs()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filesDir, 0700); err != nil {
		return fmt.Errorf("creating trash directory: %w", err)
	}

	target := filepath.Join(filesDir, uniqueTrashName(filesDir, filepath.Base(abs)))

	// Rename fails across devices; that is acceptable for best effort.
	if err := os.Rename(abs, target); err != nil {
		return fmt.Errorf("moving %s to trash: %w", abs, err)
	}

	if infoDir != "" {
		writeTrashInfo(infoDir, filepath.Base(target), abs)
	}
	return nil
}

// trashDirs returns the trash files directory and, on Linux, the matching
// info directory for .trashinfo records.
func trashDirs() (filesDir, infoDir string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("resolving home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, ".Trash"), "", nil
	case "linux":
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			dataHome = filepath.Join(home, ".local", "share")
		}
		trash := filepath.Join(dataHome, "Trash")
		return filepath.Join(trash, "files"), filepath.Join(trash, "info"), nil
	default:
		return "", "", fmt.Errorf("no trash support on %s", runtime.GOOS)
	}
}

// uniqueTrashName picks a name that does not collide with an existing trash
// entry by appending a numeric suffix.
func uniqueTrashName(dir, base string) string {
	name := base
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		name = stem + "." + strconv.Itoa(i) + ext
	}
}

// writeTrashInfo records the original location per the freedesktop.org trash
// spec. Failures are ignored: the move itself already succeeded.
func writeTrashInfo(infoDir, trashedName, originalPath string) {
	if err := os.MkdirAll(infoDir, 0700); err != nil {
		return
	}
	content := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		originalPath, time.Now().Format("2006-01-02T15:04:05"))
	_ = os.WriteFile(filepath.Join(infoDir, trashedName+".trashinfo"), []byte(content), 0600)
}
