package watch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const maxArchiveSuffix = 1000

// Archiver moves processed documents into the backup folder
type Archiver struct {
	fs  afero.Fs
	dir string
}

// NewArchiver creates an archiver. The backup folder is created on first use.
func NewArchiver(fs afero.Fs, dir string) *Archiver {
	return &Archiver{fs: fs, dir: dir}
}

// Archive moves path into the backup folder and returns its new location. A
// name already taken there gets a numeric suffix instead of being replaced.
// When the original cannot be removed the copy is dropped again, so a failed
// archive leaves the backup folder as it was.
func (a *Archiver) Archive(path string) (string, error) {
	if err := a.fs.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create backup folder: %w", err)
	}

	target, err := a.freeName(filepath.Base(path))
	if err != nil {
		return "", err
	}

	if err := a.fs.Rename(path, target); err == nil {
		return target, nil
	}

	// Rename fails across devices, fall back to copy and remove
	if err := a.copyFile(path, target); err != nil {
		return "", fmt.Errorf("cannot move %s to %s: %w", path, a.dir, err)
	}
	if err := a.fs.Remove(path); err != nil {
		_ = a.fs.Remove(target)
		return "", fmt.Errorf("cannot remove %s after copying it to %s: %w", path, a.dir, err)
	}
	return target, nil
}

func (a *Archiver) freeName(name string) (string, error) {
	target := filepath.Join(a.dir, name)
	exists, err := afero.Exists(a.fs, target)
	if err != nil {
		return "", err
	}
	if !exists {
		return target, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i <= maxArchiveSuffix; i++ {
		target = filepath.Join(a.dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		exists, err := afero.Exists(a.fs, target)
		if err != nil {
			return "", err
		}
		if !exists {
			return target, nil
		}
	}
	return "", fmt.Errorf("no free name for %s in %s", name, a.dir)
}

func (a *Archiver) copyFile(src, dst string) error {
	in, err := a.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := a.fs.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = a.fs.Remove(dst)
		return err
	}
	return out.Close()
}
