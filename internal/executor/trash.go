package executor

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Trasher moves files to a recoverable trash location. Implementations
// return ErrTrashUnavailable when no trash facility exists, in which case
// the executor falls back to permanent deletion.
type Trasher interface {
	Trash(path string) error
}

// ErrTrashUnavailable signals that no trash facility could be used for
// this path or platform.
var ErrTrashUnavailable = errors.New("trash facility unavailable")

// SystemTrasher returns the trash implementation for the current platform:
// the freedesktop.org Trash directory on Linux and other unixes, ~/.Trash
// on macOS, and unavailable on Windows (the executor then deletes
// permanently).
func SystemTrasher() Trasher {
	home, err := os.UserHomeDir()
	if err != nil {
		return unavailableTrasher{}
	}
	switch runtime.GOOS {
	case "darwin":
		return &dirTrasher{dir: filepath.Join(home, ".Trash")}
	case "windows":
		return unavailableTrasher{}
	default:
		return &xdgTrasher{root: xdgTrashRoot(home)}
	}
}

func xdgTrashRoot(home string) string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "Trash")
	}
	return filepath.Join(home, ".local", "share", "Trash")
}

type unavailableTrasher struct{}

func (unavailableTrasher) Trash(string) error { return ErrTrashUnavailable }

// dirTrasher moves files into a flat trash directory (macOS style).
type dirTrasher struct {
	dir string
}

func (t *dirTrasher) Trash(path string) error {
	if err := os.MkdirAll(t.dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrTrashUnavailable, err)
	}
	target := uniqueTarget(t.dir, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		return err
	}
	return nil
}

// xdgTrasher implements the freedesktop.org trash layout: the file moves
// into Trash/files and a matching .trashinfo record lands in Trash/info so
// desktop environments can restore it.
type xdgTrasher struct {
	root string
}

func (t *xdgTrasher) Trash(path string) error {
	filesDir := filepath.Join(t.root, "files")
	infoDir := filepath.Join(t.root, "info")
	if err := os.MkdirAll(filesDir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrTrashUnavailable, err)
	}
	if err := os.MkdirAll(infoDir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrTrashUnavailable, err)
	}

	target := uniqueTarget(filesDir, filepath.Base(path))
	trashName := filepath.Base(target)

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapeTrashPath(abs), time.Now().Format("2006-01-02T15:04:05"))
	infoPath := filepath.Join(infoDir, trashName+".trashinfo")
	if err := os.WriteFile(infoPath, []byte(info), 0o600); err != nil {
		return err
	}

	if err := os.Rename(path, target); err != nil {
		// Roll back the orphaned info record; a cross-device source
		// cannot be renamed into the trash.
		os.Remove(infoPath)
		return err
	}
	return nil
}

// escapeTrashPath percent-encodes the path for the .trashinfo file as the
// freedesktop spec requires.
func escapeTrashPath(path string) string {
	u := url.URL{Path: path}
	return u.EscapedPath()
}

// uniqueTarget picks a target name inside dir that does not collide with
// an existing trashed file, appending .1, .2, ... when needed.
func uniqueTarget(dir, name string) string {
	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s.%d", name, i))
	}
}
